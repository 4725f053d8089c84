// Package runner executes the external commands of custom rules.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Outcome classifies a finished command.
type Outcome int

const (
	// Passed means the command exited with status 0.
	Passed Outcome = iota
	// Failed means the command exited with a non-zero status.
	Failed
	// TimedOut means the command was killed after the configured timeout.
	TimedOut
)

// Result is the outcome of one command.
type Result struct {
	Outcome  Outcome
	ExitCode int    // -1 when the command did not exit on its own.
	Output   string // Trimmed stdout, or stderr when stdout is empty.
}

// Runner runs command templates with a concurrency bound and a timeout.
type Runner struct {
	workDir   string
	scriptDir string
	timeout   time.Duration
	sem       *semaphore.Weighted
	log       *zap.SugaredLogger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(r *Runner) { r.log = log }
}

// WithScriptDir sets the value substituted for {script_dir}.
func WithScriptDir(dir string) Option {
	return func(r *Runner) { r.scriptDir = dir }
}

// New creates a Runner executing commands in workDir.
func New(workDir string, timeout time.Duration, jobs int, opts ...Option) *Runner {
	if jobs <= 0 {
		jobs = 1
	}
	r := &Runner{
		workDir:   workDir,
		scriptDir: workDir,
		timeout:   timeout,
		sem:       semaphore.NewWeighted(int64(jobs)),
		log:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Expand splits the template into argv and substitutes the placeholders.
// Substitution happens per token so paths with spaces stay one argument.
func (r *Runner) Expand(template, file string) []string {
	args := splitCommand(template)
	for i, a := range args {
		a = strings.ReplaceAll(a, "{file}", file)
		args[i] = strings.ReplaceAll(a, "{script_dir}", r.scriptDir)
	}
	return args
}

// Run executes template against file. The error is set only when the command
// could not be started or the context was cancelled.
func (r *Runner) Run(ctx context.Context, template, file string) (Result, error) {
	args := r.Expand(template, file)
	if len(args) == 0 {
		return Result{}, errors.New("empty command")
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	defer r.sem.Release(1)

	cmdCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, args[0], args[1:]...)
	cmd.Dir = r.workDir
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	r.log.Debugw("custom command finished", "cmd", args[0], "file", file, "duration", time.Since(start))

	output := strings.TrimSpace(stdout.String())
	if output == "" {
		output = strings.TrimSpace(stderr.String())
	}

	if runErr == nil {
		return Result{Outcome: Passed, Output: output}, nil
	}
	if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return Result{Outcome: TimedOut, ExitCode: -1, Output: fmt.Sprintf("timed out after %s", r.timeout)}, nil
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return Result{Outcome: Failed, ExitCode: exitErr.ExitCode(), Output: output}, nil
	}
	return Result{}, fmt.Errorf("start %s: %w", args[0], runErr)
}

// splitCommand tokenizes on whitespace, keeping single- and double-quoted
// tokens together. It does not handle escapes.
func splitCommand(cmd string) []string {
	var tokens []string
	var current strings.Builder
	inSingle, inDouble, started := false, false, false

	for _, r := range cmd {
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			started = true
		case r == '"' && !inSingle:
			inDouble = !inDouble
			started = true
		case (r == ' ' || r == '\t') && !inSingle && !inDouble:
			if started {
				tokens = append(tokens, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		tokens = append(tokens, current.String())
	}
	return tokens
}
