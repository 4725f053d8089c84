package rule

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Load reads the rule file of dir, if any. rel is dir relative to the root.
// A directory without a rule file yields an empty DirectoryRuleFile.
func Load(dir, rel string) (*DirectoryRuleFile, error) {
	path := filepath.Join(dir, FileName)
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &DirectoryRuleFile{Dir: rel}, nil
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	f, err := Parse(content, rel, false)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return f, nil
}

// chain lists root and every directory from root down to dir.
func chain(root, dir string) ([]string, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s against %s: %w", dir, root, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("%s is outside the project root %s", dir, root)
	}
	dirs := []string{root}
	if rel == "." {
		return dirs, nil
	}
	cur := root
	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, seg)
		dirs = append(dirs, cur)
	}
	return dirs, nil
}

func relDir(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return dir
	}
	return filepath.ToSlash(rel)
}

// Collect folds the rule files from root down to dir without caching.
// Both paths must be absolute and clean.
func Collect(root, dir string) (*Set, error) {
	dirs, err := chain(root, dir)
	if err != nil {
		return nil, err
	}
	set := &Set{}
	for _, d := range dirs {
		f, err := Load(d, relDir(root, d))
		if err != nil {
			return nil, err
		}
		set = set.extend(f)
	}
	return set, nil
}

type cached struct {
	set *Set
	err error
}

// Resolver folds rule files like Collect and remembers the result per directory.
// Results, including failures, are reused by every descendant resolved later.
// It is safe for concurrent use.
type Resolver struct {
	root  string
	cache *lru.Cache[string, cached]
	log   *zap.SugaredLogger
}

// NewResolver creates a resolver for an absolute project root.
func NewResolver(root string, size int, log *zap.SugaredLogger) (*Resolver, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, cached](size)
	if err != nil {
		return nil, fmt.Errorf("create rule cache: %w", err)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Resolver{root: filepath.Clean(root), cache: cache, log: log}, nil
}

// Root returns the project root.
func (r *Resolver) Root() string { return r.root }

// Resolve returns the effective set for an absolute directory.
func (r *Resolver) Resolve(dir string) (*Set, error) {
	dir = filepath.Clean(dir)
	if c, ok := r.cache.Get(dir); ok {
		return c.set, c.err
	}

	var parent *Set
	if dir == r.root {
		parent = &Set{}
	} else {
		if _, err := chain(r.root, dir); err != nil {
			return nil, err
		}
		p, err := r.Resolve(filepath.Dir(dir))
		if err != nil {
			r.cache.Add(dir, cached{err: err})
			return nil, err
		}
		parent = p
	}

	f, err := Load(dir, relDir(r.root, dir))
	if err != nil {
		r.cache.Add(dir, cached{err: err})
		return nil, err
	}
	set := parent.extend(f)
	r.log.Debugw("resolved rules", "dir", relDir(r.root, dir), "local", len(f.Rules), "total", len(set.Rules))
	r.cache.Add(dir, cached{set: set})
	return set, nil
}

// Purge drops every cached directory, used when rule files change.
func (r *Resolver) Purge() {
	r.cache.Purge()
}

// Add creates a rule file template in dir.
func Add(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return "", ErrRuleFileExists
	}
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	return path, nil
}

// ErrRuleFileExists is returned by Add when the directory already has a rule file.
var ErrRuleFileExists = errors.New(FileName + " already exists")
