package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/pmaojo/reclint/internal/reclint/check"
	"github.com/pmaojo/reclint/internal/reclint/config"
	"github.com/pmaojo/reclint/internal/reclint/mcp"
	"github.com/pmaojo/reclint/internal/reclint/rule"
	"github.com/pmaojo/reclint/internal/reclint/store"
	"github.com/pmaojo/reclint/internal/reclint/tui"
	"github.com/pmaojo/reclint/internal/reclint/validate"
	"github.com/pmaojo/reclint/internal/reclint/watcher"
)

func target(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// engine discovers the project holding target and builds a validation engine for it.
func (a *app) engine(target string, jobs int) (*validate.Engine, error) {
	cfg, err := config.Discover(target)
	if err != nil {
		return nil, err
	}
	a.log.Debugw("project root found", "root", cfg.Root)
	return validate.New(cfg, validate.WithLogger(a.log), validate.WithJobs(jobs))
}

func (a *app) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [dir]",
		Short: "Print the rules and guidelines in effect for a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(target(args), 0)
			if err != nil {
				return err
			}
			set, err := e.Rules(target(args))
			if err != nil {
				return err
			}
			for _, r := range set.Rules {
				fmt.Fprintln(a.stdout, validate.FormatRule(r))
			}
			for _, g := range set.Guidelines {
				fmt.Fprintln(a.stdout, validate.FormatGuideline(g))
			}
			return nil
		},
	}
}

func (a *app) guidelineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "guideline [dir]",
		Short: "Print the review guidelines in effect for a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(target(args), 0)
			if err != nil {
				return err
			}
			set, err := e.Rules(target(args))
			if err != nil {
				return err
			}
			for _, g := range set.Guidelines {
				fmt.Fprintln(a.stdout, validate.FormatGuidelineOnly(g))
			}
			return nil
		},
	}
}

type validateFlags struct {
	sort    string
	jobs    int
	watch   bool
	record  bool
	newOnly bool
}

func (a *app) validateCommand() *cobra.Command {
	var f validateFlags
	cmd := &cobra.Command{
		Use:   "validate [path...]",
		Short: "Validate files against the rules of their directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			return a.validate(cmd.Context(), args, f)
		},
	}
	cmd.Flags().StringVar(&f.sort, "sort", string(validate.ByRule), "report order: rule or file")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 0, "files validated concurrently (default from config or CPU count)")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "re-validate whenever files change")
	cmd.Flags().BoolVar(&f.record, "record", false, "save the run in the project history")
	cmd.Flags().BoolVar(&f.newOnly, "new-only", false, "hide violations already present in the last recorded run")
	return cmd
}

func (a *app) validate(ctx context.Context, targets []string, f validateFlags) error {
	order, err := validate.ParseSortOrder(f.sort)
	if err != nil {
		return err
	}
	e, err := a.engine(targets[0], f.jobs)
	if err != nil {
		return err
	}

	started := time.Now()
	res, err := e.Validate(ctx, targets...)
	if err != nil {
		return err
	}

	if f.record || f.newOnly {
		if err := a.applyHistory(e, res, targets, started, f); err != nil {
			return err
		}
	}

	if err := a.report(res, order); err != nil {
		return err
	}

	if f.watch {
		return a.watch(ctx, e, targets, order)
	}
	return exitCode(res)
}

// applyHistory records the run and, with --new-only, drops the violations of the
// previous recorded run. The baseline is read before the run is saved.
func (a *app) applyHistory(e *validate.Engine, res *validate.Result, targets []string, started time.Time, f validateFlags) error {
	cfg := e.Config()
	st, err := store.NewStore(filepath.Join(cfg.Root, cfg.PersistenceDir))
	if err != nil {
		return err
	}
	defer st.Close()

	var baseline map[store.Key]struct{}
	if f.newOnly {
		if baseline, err = st.LatestKeys(); err != nil {
			return fmt.Errorf("read baseline: %w", err)
		}
	}
	if f.record {
		rels := make([]string, 0, len(targets))
		for _, t := range targets {
			abs, err := filepath.Abs(t)
			if err != nil {
				return err
			}
			rels = append(rels, e.Rel(abs))
		}
		id, err := st.SaveRun(started, strings.Join(rels, " "), res.Violations)
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		a.log.Infow("run recorded", "id", id)
	}
	if f.newOnly {
		res.Violations = store.NewOnly(res.Violations, baseline)
	}
	return nil
}

func (a *app) report(res *validate.Result, order validate.SortOrder) error {
	if err := validate.Write(a.stdout, res, order); err != nil {
		return err
	}
	for _, fe := range res.Errors {
		a.log.Errorw("file could not be validated", "file", fe.File, "error", fe.Err)
	}
	a.log.Infow("summary", "files", res.Files, "violations", len(res.Violations), "errors", len(res.Errors))
	return nil
}

func exitCode(res *validate.Result) error {
	switch {
	case len(res.Errors) > 0:
		return exitError{exitFatal}
	case len(res.Violations) > 0:
		return exitError{exitViolations}
	}
	return nil
}

func (a *app) watch(ctx context.Context, e *validate.Engine, targets []string, order validate.SortOrder) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(e, targets, func(res *validate.Result, err error) {
		if err != nil {
			a.log.Errorw("validation failed", "error", err)
			return
		}
		fmt.Fprintf(a.stdout, "--- %s ---\n", time.Now().Format(time.TimeOnly))
		if err := a.report(res, order); err != nil {
			a.log.Errorw("report failed", "error", err)
		}
	}, watcher.WithLogger(a.log))
	if err != nil {
		return err
	}
	a.log.Infow("watching for changes", "root", e.Config().Root)
	return w.Run(ctx)
}

func (a *app) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Create an empty " + config.FileName + " marking the project root",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Init(target(args))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "created", path)
			return nil
		},
	}
}

func (a *app) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add [dir]",
		Short: "Create a " + rule.FileName + " template in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := rule.Add(target(args))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "created", path)
			return nil
		},
	}
}

func (a *app) descCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "desc",
		Short: "Describe every rule type",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, d := range rule.Descriptions {
				fmt.Fprintf(a.stdout, "%s\n    %s\n", d.Type, d.Summary)
				if d.Options != "" {
					fmt.Fprintf(a.stdout, "    %s\n", d.Options)
				}
			}
		},
	}
}

func (a *app) checkCommand() *cobra.Command {
	var list, tree, schema bool
	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Inspect the rule files of the project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Discover(target(args))
			if err != nil {
				return err
			}
			var lines []string
			switch {
			case tree:
				lines, err = check.Tree(cfg)
			case schema:
				var res *check.SchemaResult
				if res, err = check.Schema(cfg); err == nil {
					lines = res.Lines
					if res.Invalid > 0 {
						err = exitError{exitViolations}
					}
				}
			default:
				lines, err = check.List(cfg)
			}
			for _, l := range lines {
				fmt.Fprintln(a.stdout, l)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list rule files with their rule types (default)")
	cmd.Flags().BoolVar(&tree, "tree", false, "draw the directories holding rule files as a tree")
	cmd.Flags().BoolVar(&schema, "schema", false, "strictly validate every rule file, rejecting unknown keys")
	cmd.MarkFlagsMutuallyExclusive("list", "tree", "schema")
	return cmd
}

func (a *app) historyCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [dir]",
		Short: "List recorded validation runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Discover(target(args))
			if err != nil {
				return err
			}
			st, err := store.NewStore(filepath.Join(cfg.Root, cfg.PersistenceDir))
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Fprintf(a.stdout, "#%d  %s  %s  %d violations\n",
					r.ID, r.StartedAt.Format(time.RFC3339), r.Target, r.Violations)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "runs to show, 0 for all")
	return cmd
}

func (a *app) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [path]",
		Short: "Browse violations and effective rules in a terminal UI",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(target(args), 0)
			if err != nil {
				return err
			}
			res, err := e.Validate(cmd.Context(), target(args))
			if err != nil {
				return err
			}
			set, err := e.Rules(target(args))
			if err != nil {
				return err
			}
			return tui.Run(res, set)
		},
	}
}

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve rules and validation over MCP on stdio",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(target(args), 0)
			if err != nil {
				return err
			}
			a.log.Infow("serving MCP on stdio", "root", e.Config().Root)
			err = mcp.NewServer(e, version, a.log).Run(cmd.Context(), &sdk.StdioTransport{})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.stdout, "rec_lint", version)
		},
	}
}
