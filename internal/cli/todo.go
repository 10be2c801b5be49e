package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pomotodo/internal/client"
	"pomotodo/internal/model"
)

func newTodoCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todo",
		Short: "Manage todos",
	}
	cmd.AddCommand(
		newTodoListCommand(a),
		newTodoAddCommand(a),
		newTodoDoneCommand(a),
		newTodoRemoveCommand(a),
	)
	return cmd
}

func newTodoListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List todos, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			todos, err := a.api.ListTodos(cmd.Context())
			if err != nil {
				return err
			}
			printTodos(cmd.OutOrStdout(), todos)
			return nil
		},
	}
}

func newTodoAddCommand(a *app) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			var desc *string
			if d := strings.TrimSpace(description); d != "" {
				desc = &d
			}

			todo, err := a.api.CreateTodo(cmd.Context(), title, desc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s  %s\n", todo.ID, todo.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "optional description")
	return cmd
}

func newTodoDoneCommand(a *app) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a todo as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			completed := !undo
			todo, err := a.api.UpdateTodo(cmd.Context(), args[0], client.TodoPatch{Completed: &completed})
			if err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("no todo with id %s", args[0])
				}
				return err
			}

			state := "done"
			if !todo.Completed {
				state = "open"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", todo.Title, state)
			return nil
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark the todo as open again")
	return cmd
}

func newTodoRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo and its sessions",
		Long:    "Delete a todo and its sessions. A timer focused on the todo is reset first.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := a.openWorkspace(ctx, nil, nil)
			if err != nil {
				return err
			}
			defer w.close(context.WithoutCancel(ctx))

			id := args[0]
			todo, known := w.board.Get(id)
			if err := w.board.Delete(ctx, id); err != nil {
				return err
			}

			if known {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", todo.Title)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			return nil
		},
	}
}

func printTodos(out io.Writer, todos []model.Todo) {
	if len(todos) == 0 {
		fmt.Fprintln(out, `No todos yet. Add one with 'pomo todo add "title"'.`)
		return
	}

	fmt.Fprintf(out, "%-36s  %-4s  %-5s  %s\n", "ID", "DONE", "POMOS", "TITLE")
	fmt.Fprintln(out, strings.Repeat("-", 80))
	for _, todo := range todos {
		done := ""
		if todo.Completed {
			done = "x"
		}
		title := todo.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(out, "%-36s  %-4s  %-5d  %s\n", todo.ID, done, todo.CompletedPomodoros, title)
	}
}
