package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"go22dos/internal/config"
	"go22dos/internal/logging"
	"go22dos/internal/storage"
	"go22dos/internal/ui"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitUsage   = 2
	exitLoad    = 3
)

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// tuiRunner starts the interactive session. Tests replace it.
type tuiRunner func(store *storage.Store, cfg config.Config, path string, opts ...ui.Option) error

func newRootCmd(run tuiRunner) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "go22dos <file>",
		Short: "Terminal to-do lists grouped by topic",
		Long: "go22dos edits the to-do topics stored in <file>. Files ending in .db, " +
			".sqlite or .sqlite3 are SQLite databases; anything else is JSON.",
		Args: func(cmd *cobra.Command, args []string) error {
			return withCode(exitUsage, cobra.ExactArgs(1)(cmd, args))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = config.ResolveConfigPath()
			}
			cfg, err := config.LoadOrCreate(configPath)
			if err != nil {
				return withCode(exitRuntime, fmt.Errorf("load config: %w", err))
			}

			logger, closer, err := logging.Open(cfg.Log)
			if err != nil {
				return withCode(exitRuntime, fmt.Errorf("open log: %w", err))
			}
			defer closer.Close()

			path := args[0]
			store, err := storage.Load(path, storage.WithLogger(logger))
			if err != nil {
				logger.Error("load failed", "path", path, "err", err)
				return withCode(exitLoad, fmt.Errorf("load %s: %w", path, err))
			}

			if err := run(store, cfg, path, ui.WithLogger(logger)); err != nil {
				if errors.Is(err, storage.ErrPoisonedLock) {
					logger.Error("store is unusable", "err", err)
				}
				return withCode(exitRuntime, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default $"+config.EnvConfigPath+" or the user config dir)")
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})
	return cmd
}

func execute(args []string, stdout, stderr io.Writer, run tuiRunner) int {
	if args == nil {
		// cobra reads os.Args when given nil.
		args = []string{}
	}
	cmd := newRootCmd(run)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(stderr, "go22dos:", err)

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.code == exitUsage {
			fmt.Fprintln(stderr, cmd.UsageString())
		}
		return ee.code
	}
	// Anything else comes from cobra's own argument handling.
	return exitUsage
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr, ui.Run))
}
