// Package validate walks targets, resolves the rules of every file and
// dispatches each matching rule to its analyzer.
package validate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pmaojo/reclint/internal/reclint/config"
	"github.com/pmaojo/reclint/internal/reclint/matcher"
	"github.com/pmaojo/reclint/internal/reclint/rule"
	"github.com/pmaojo/reclint/internal/reclint/runner"
)

// Engine validates files of one project.
type Engine struct {
	cfg      *config.Config
	resolver *rule.Resolver
	runner   *runner.Runner
	jobs     int
	log      *zap.SugaredLogger
	opts     []Option
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) { e.log = log }
}

// WithJobs overrides the configured worker count.
func WithJobs(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.jobs = n
		}
	}
}

// New creates an Engine for the project described by cfg.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	e := &Engine{cfg: cfg, jobs: cfg.Jobs, log: zap.NewNop().Sugar(), opts: opts}
	for _, opt := range opts {
		opt(e)
	}
	if e.jobs <= 0 {
		e.jobs = 1
	}

	resolver, err := rule.NewResolver(cfg.Root, cfg.CacheSize, e.log)
	if err != nil {
		return nil, err
	}
	e.resolver = resolver
	e.runner = runner.New(cfg.Root, cfg.CommandTimeout, cfg.CommandJobs,
		runner.WithScriptDir(cfg.ScriptPath()), runner.WithLogger(e.log))
	return e, nil
}

// Config returns the project configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// Reset forgets every resolved rule set, used after rule files change.
func (e *Engine) Reset() { e.resolver.Purge() }

// Reload re-reads the root configuration and rebuilds the rule cache and
// command runner with the options the engine was created with. The engine is
// unchanged when the configuration cannot be loaded.
func (e *Engine) Reload() error {
	cfg, err := config.Load(e.cfg.Root)
	if err != nil {
		return err
	}
	fresh, err := New(cfg, e.opts...)
	if err != nil {
		return err
	}
	*e = *fresh
	return nil
}

// Rules returns the effective rules and guidelines of a directory.
func (e *Engine) Rules(dir string) (*rule.Set, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}
	return e.resolver.Resolve(abs)
}

// Rel returns the slash-separated path of abs relative to the project root.
func (e *Engine) Rel(abs string) string {
	rel, err := filepath.Rel(e.cfg.Root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// Files enumerates the files of targets in lexical order, applying the
// extension filter and directory exclusions.
func (e *Engine) Files(targets ...string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, target := range targets {
		abs, err := filepath.Abs(target)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", target, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}
		if !info.IsDir() {
			if e.inScope(abs) {
				add(abs)
			}
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != abs && e.cfg.IsExcludedDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && e.inScope(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", target, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

func (e *Engine) inScope(abs string) bool {
	name := filepath.Base(abs)
	if name == rule.FileName || name == config.FileName {
		return false
	}
	return e.cfg.IncludesFile(name) && !e.cfg.HasExcludedSegment(e.Rel(abs))
}

// Validate checks every file of targets. Rule files are resolved for every
// directory before any file is checked, so a malformed rule file aborts the
// run with an error. Per-file failures are collected in the result.
func (e *Engine) Validate(ctx context.Context, targets ...string) (*Result, error) {
	files, err := e.Files(targets...)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		if _, err := e.resolver.Resolve(filepath.Dir(f)); err != nil {
			return nil, err
		}
	}

	perFile := make([][]Violation, len(files))
	fileErrs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.jobs)
	for i, f := range files {
		g.Go(func() error {
			vs, err := e.validateFile(gctx, f)
			if errors.Is(err, context.Canceled) {
				return err
			}
			perFile[i], fileErrs[i] = vs, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Files: len(files)}
	for i, vs := range perFile {
		res.Violations = append(res.Violations, vs...)
		if fileErrs[i] != nil {
			e.log.Warnw("file skipped", "file", e.Rel(files[i]), "error", fileErrs[i])
			res.Errors = append(res.Errors, FileError{File: e.Rel(files[i]), Err: fileErrs[i]})
		}
	}
	Sort(res.Violations, ByRule)
	e.log.Infow("validation finished", "files", res.Files, "violations", len(res.Violations), "errors", len(res.Errors))
	return res, nil
}

func (e *Engine) validateFile(ctx context.Context, abs string) ([]Violation, error) {
	set, err := e.resolver.Resolve(filepath.Dir(abs))
	if err != nil {
		return nil, err
	}
	rel := e.Rel(abs)

	var rules []rule.Rule
	for _, r := range set.Rules {
		if matcher.Matches(rel, r.Info().Match) {
			rules = append(rules, r)
		}
	}
	if len(rules) == 0 {
		return nil, nil
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	target := file{abs: abs, rel: rel, text: string(content)}

	var out []Violation
	var errs []error
	for _, r := range rules {
		vs, err := e.check(ctx, target, r)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			errs = append(errs, fmt.Errorf("%s: %w", r.Info().Label, err))
			continue
		}
		out = append(out, vs...)
	}
	return out, errors.Join(errs...)
}
