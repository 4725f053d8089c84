package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pmaojo/reclint/internal/reclint/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitOK         = 0
	exitViolations = 1
	exitFatal      = 2
)

// exitError carries a non-zero exit code out of a command without printing
// anything further.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// app holds what every command shares.
type app struct {
	stdout, stderr io.Writer

	logLevel  string
	logFormat string
	log       *zap.SugaredLogger
	restore   func()
}

// main is the entry point for rec_lint.
func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.restore != nil {
		a.restore()
	}
	var ee exitError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ee):
		return ee.code
	}
	fmt.Fprintln(stderr, "error:", err)
	return exitFatal
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "rec_lint",
		Short:         "Directory-scoped static analysis driven by .rec_lint.yaml rule files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			base := logger.NewWithWriter(a.stderr, a.logLevel, logger.Format(a.logFormat))
			a.restore = zap.ReplaceGlobals(base)
			a.log = base.Sugar()
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", string(logger.FormatConsole), "log format (console, json)")

	root.AddCommand(
		a.showCommand(),
		a.guidelineCommand(),
		a.validateCommand(),
		a.initCommand(),
		a.addCommand(),
		a.descCommand(),
		a.checkCommand(),
		a.historyCommand(),
		a.browseCommand(),
		a.serveCommand(),
		a.versionCommand(),
	)
	return root
}
