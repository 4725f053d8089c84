package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName marks the project root. Its presence, even empty, initializes a project.
const FileName = ".rec_lint_config.yaml"

var (
	// ErrNotInitialized is returned when no root marker exists above a target.
	ErrNotInitialized = errors.New("rec_lint project not initialized: " + FileName + " not found")
	// ErrAlreadyInitialized is returned by Init when the marker already exists.
	ErrAlreadyInitialized = errors.New(FileName + " already exists")
)

// Config represents the project-root configuration.
// It controls which files are walked and how validation is scheduled.
type Config struct {
	IncludeExtensions []string      `yaml:"include_extensions"` // Extensions in scope; empty means every extension.
	ExcludeDirs       []string      `yaml:"exclude_dirs"`       // Directory names skipped at any depth.
	ScriptDir         string        `yaml:"script_dir"`         // Substituted for {script_dir} in custom commands.
	CommandTimeout    time.Duration `yaml:"command_timeout"`    // Upper bound for one custom command.
	Jobs              int           `yaml:"jobs"`               // Files validated concurrently.
	CommandJobs       int           `yaml:"command_jobs"`       // Custom commands running concurrently.
	PersistenceDir    string        `yaml:"persistence_dir"`    // Run history location, relative to the root.
	CacheSize         int           `yaml:"cache_size"`         // Directories kept in the rule cache.

	Root string `yaml:"-"` // Absolute directory holding the marker.
}

// DefaultConfig provides the values applied to fields left empty.
var DefaultConfig = Config{
	CommandTimeout: 30 * time.Second,
	CommandJobs:    4,
	PersistenceDir: ".rec_lint",
	CacheSize:      256,
}

// FindRoot walks upward from start until a directory holding FileName is found.
func FindRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", start, err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	for dir := abs; ; {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotInitialized
		}
		dir = parent
	}
}

// Load reads the marker in rootDir and applies defaults to missing fields.
func Load(rootDir string) (*Config, error) {
	path := filepath.Join(rootDir, FileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultConfig.CommandTimeout
	}
	if cfg.Jobs <= 0 {
		cfg.Jobs = runtime.NumCPU()
	}
	if cfg.CommandJobs <= 0 {
		cfg.CommandJobs = DefaultConfig.CommandJobs
	}
	if cfg.PersistenceDir == "" {
		cfg.PersistenceDir = DefaultConfig.PersistenceDir
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig.CacheSize
	}
	cfg.Root = rootDir

	return &cfg, nil
}

// Discover combines FindRoot and Load for a target path.
func Discover(target string) (*Config, error) {
	root, err := FindRoot(target)
	if err != nil {
		return nil, err
	}
	return Load(root)
}

// Init creates an empty marker in dir.
func Init(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return "", ErrAlreadyInitialized
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	return path, nil
}

// ScriptPath returns the absolute script directory, or the root when unset.
func (c *Config) ScriptPath() string {
	if c.ScriptDir == "" {
		return c.Root
	}
	if filepath.IsAbs(c.ScriptDir) {
		return c.ScriptDir
	}
	return filepath.Join(c.Root, c.ScriptDir)
}

// IsExcludedDir reports whether a single directory name is skipped during walks.
func (c *Config) IsExcludedDir(name string) bool {
	if name == ".git" || name == c.PersistenceDir {
		return true
	}
	for _, ex := range c.ExcludeDirs {
		if ex == name {
			return true
		}
	}
	return false
}

// HasExcludedSegment reports whether any directory segment of a root-relative,
// slash-separated path names an excluded directory. The last segment is the file
// itself and is not a directory.
func (c *Config) HasExcludedSegment(rel string) bool {
	dir := filepath.ToSlash(filepath.Dir(filepath.FromSlash(rel)))
	if dir == "." {
		return false
	}
	for _, seg := range strings.Split(dir, "/") {
		if c.IsExcludedDir(seg) {
			return true
		}
	}
	return false
}

// IncludesFile reports whether a file name passes the extension filter.
func (c *Config) IncludesFile(name string) bool {
	if len(c.IncludeExtensions) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, inc := range c.IncludeExtensions {
		if inc == ext || "."+inc == ext {
			return true
		}
	}
	return false
}
