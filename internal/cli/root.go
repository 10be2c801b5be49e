// Package cli is the pomo command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"pomotodo/internal/client"
	"pomotodo/internal/logging"
)

// app is built once per invocation, after flags are parsed.
type app struct {
	settings Settings
	logger   *slog.Logger
	api      *client.Client
	closers  []io.Closer
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

// NewRootCommand returns the pomo command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{}
	var configFile string

	root := &cobra.Command{
		Use:   "pomo",
		Short: "Pomodoro timer and todo list in the terminal",
		Long: `pomo keeps a todo list and a work/break timer on a pomotodo server.

Run "pomo focus" for the interactive timer, or use the todo, sessions and
timer commands from scripts.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			a.settings = settings

			a.logger = logging.Discard()
			if settings.LogFile != "" {
				f, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				a.closers = append(a.closers, f)
				a.logger = logging.NewText(f, settings.LogLevel)
			}

			a.api = client.New(settings.Server, settings.Timeout)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "settings file (default ~/.pomotodo/client.yaml)")
	flags.String("server", defaultServer, "pomotodo server URL")
	flags.Duration("timeout", defaultTimeout, "per-request timeout")
	flags.String("log-file", "", "write logs to this file")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		newTodoCommand(a),
		newSessionsCommand(a),
		newTimerCommand(a),
		newFocusCommand(a),
	)
	return root
}

// Execute runs pomo with os.Args.
func Execute(version string) error {
	root := NewRootCommand(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
