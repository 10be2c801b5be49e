package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pomotodo/internal/tui"
)

func newFocusCommand(a *app) *cobra.Command {
	var start bool
	cmd := &cobra.Command{
		Use:   "focus [todo-id]",
		Short: "Open the interactive timer",
		Long: `Open the interactive timer. The stored timer is restored first: a
countdown that ran out while away is completed, a running one resumes.

With a todo id the timer is focused on that todo, and --start starts it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			notifier := tui.NewNotifier(cmd.OutOrStdout())

			w, err := a.openWorkspace(ctx, nil, notifier)
			if err != nil {
				return err
			}
			defer w.close(context.WithoutCancel(ctx))

			if len(args) == 1 {
				todoID := args[0]
				if _, ok := w.board.Get(todoID); !ok {
					return fmt.Errorf("no todo with id %s", todoID)
				}
				w.engine.SelectTodo(todoID)
				if start {
					w.engine.Start(todoID)
				}
			}

			model := tui.New(w.engine, w.board, notifier)
			defer model.Close()

			program := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("run focus screen: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&start, "start", false, "start the timer right away")
	return cmd
}
