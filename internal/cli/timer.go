package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pomotodo/internal/timer"
	"pomotodo/internal/timersync"
	"pomotodo/internal/tui"
)

// timerReport is the machine readable form of `pomo timer`.
type timerReport struct {
	Phase            string `yaml:"phase"`
	Status           string `yaml:"status"`
	RemainingSeconds int    `yaml:"remainingSeconds"`
	CompletedCycles  int    `yaml:"completedCycles"`
	ActiveTodoID     string `yaml:"activeTodoId,omitempty"`
	ActiveSessionID  string `yaml:"activeSessionId,omitempty"`
	Expired          bool   `yaml:"expired"`
}

func newTimerCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Show the stored timer",
		Long:  "Show the stored timer. A running countdown is shown with the time elapsed on the server already subtracted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "yaml" {
				return fmt.Errorf("unknown output format %q, want text or yaml", output)
			}

			view, err := a.api.GetTimer(cmd.Context())
			if err != nil {
				return err
			}
			remote := timersync.FromView(*view)

			if output == "yaml" {
				return writeTimerYAML(cmd.OutOrStdout(), remote)
			}
			writeTimerText(cmd.OutOrStdout(), remote)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or yaml")
	return cmd
}

func writeTimerYAML(out io.Writer, remote timer.Remote) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(timerReport{
		Phase:            string(remote.Phase),
		Status:           string(remote.Status),
		RemainingSeconds: remote.RemainingSeconds,
		CompletedCycles:  remote.CompletedCycles,
		ActiveTodoID:     remote.ActiveTodoID,
		ActiveSessionID:  remote.ActiveSessionID,
		Expired:          remote.Expired,
	}); err != nil {
		return fmt.Errorf("encode timer: %w", err)
	}
	return enc.Close()
}

func writeTimerText(out io.Writer, remote timer.Remote) {
	fmt.Fprintf(out, "Phase:     %s\n", remote.Phase.Label())
	fmt.Fprintf(out, "Status:    %s\n", remote.Status)
	fmt.Fprintf(out, "Remaining: %s\n", tui.FormatClock(remote.RemainingSeconds))
	fmt.Fprintf(out, "Cycles:    %d\n", remote.CompletedCycles)
	if remote.ActiveTodoID != "" {
		fmt.Fprintf(out, "Todo:      %s\n", remote.ActiveTodoID)
	}
	if remote.ActiveSessionID != "" {
		fmt.Fprintf(out, "Session:   %s\n", remote.ActiveSessionID)
	}
	if remote.Expired {
		fmt.Fprintln(out, "The countdown ran out while no client was open; it completes on the next focus.")
	}
}
