package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newSessionsCommand(a *app) *cobra.Command {
	var todoID string
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := a.api.ListSessions(cmd.Context(), todoID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded.")
				return nil
			}

			fmt.Fprintf(out, "%-36s  %-10s  %-16s  %s\n", "TODO", "PHASE", "STARTED", "DURATION")
			fmt.Fprintln(out, strings.Repeat("-", 80))
			for _, s := range sessions {
				duration := "abandoned"
				if s.CompletedAt != nil {
					duration = s.CompletedAt.Sub(s.StartedAt).Round(time.Second).String()
				}
				fmt.Fprintf(out, "%-36s  %-10s  %-16s  %s\n",
					s.TodoID,
					s.Phase,
					s.StartedAt.Local().Format("2006-01-02 15:04"),
					duration)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&todoID, "todo", "", "only sessions for this todo id")
	return cmd
}
