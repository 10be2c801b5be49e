// Package todos holds the client-side todo list. It applies changes
// optimistically and rolls them back when the server rejects them.
package todos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"pomotodo/internal/client"
	"pomotodo/internal/model"
)

const defaultTimeout = 5 * time.Second

var ErrUnknownTodo = errors.New("todos: unknown todo")

// TimerBinding is the part of the timer engine a board needs to keep the
// timer from pointing at a deleted todo.
type TimerBinding interface {
	ActiveTodoID() string
	Reset()
}

type Board struct {
	api     *client.Client
	logger  *slog.Logger
	timeout time.Duration
	onError func(op string, err error)

	mu    sync.Mutex
	todos []model.Todo
	timer TimerBinding

	wg sync.WaitGroup
}

func NewBoard(api *client.Client, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		api:     api,
		logger:  logger,
		timeout: defaultTimeout,
		onError: func(string, error) {},
	}
}

// OnError registers a callback for failed background calls.
func (b *Board) OnError(fn func(op string, err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fn == nil {
		fn = func(string, error) {}
	}
	b.onError = fn
}

func (b *Board) BindTimer(binding TimerBinding) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timer = binding
}

// Refresh replaces the local list with the server's.
func (b *Board) Refresh(ctx context.Context) error {
	todos, err := b.api.ListTodos(ctx)
	if err != nil {
		return fmt.Errorf("refresh todos: %w", err)
	}

	b.mu.Lock()
	b.todos = todos
	b.mu.Unlock()
	return nil
}

// Todos returns a copy of the list, newest first.
func (b *Board) Todos() []model.Todo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Todo(nil), b.todos...)
}

func (b *Board) Get(id string) (model.Todo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexLocked(id); i >= 0 {
		return b.todos[i], true
	}
	return model.Todo{}, false
}

// Add creates a todo. A blank title is ignored and returns a nil todo.
func (b *Board) Add(ctx context.Context, title, description string) (*model.Todo, error) {
	if strings.TrimSpace(title) == "" {
		return nil, nil
	}

	var desc *string
	if trimmed := strings.TrimSpace(description); trimmed != "" {
		desc = &trimmed
	}

	todo, err := b.api.CreateTodo(ctx, title, desc)
	if err != nil {
		return nil, fmt.Errorf("add todo: %w", err)
	}

	b.mu.Lock()
	b.todos = append([]model.Todo{*todo}, b.todos...)
	b.mu.Unlock()
	return todo, nil
}

// Update applies patch locally, then on the server. The local copy is put
// back when the server call fails.
func (b *Board) Update(ctx context.Context, id string, patch client.TodoPatch) (*model.Todo, error) {
	b.mu.Lock()
	i := b.indexLocked(id)
	if i < 0 {
		b.mu.Unlock()
		return nil, ErrUnknownTodo
	}
	previous := b.todos[i]
	b.todos[i] = applyPatch(previous, patch)
	b.mu.Unlock()

	todo, err := b.api.UpdateTodo(ctx, id, patch)
	if err != nil {
		b.replace(id, previous)
		return nil, fmt.Errorf("update todo: %w", err)
	}
	b.replace(id, *todo)
	return todo, nil
}

func (b *Board) Toggle(ctx context.Context, id string) (*model.Todo, error) {
	current, ok := b.Get(id)
	if !ok {
		return nil, ErrUnknownTodo
	}
	completed := !current.Completed
	return b.Update(ctx, id, client.TodoPatch{Completed: &completed})
}

// Delete removes a todo. When the timer is bound to it the timer is reset
// first, so the timer never names a deleted todo. The local list drops the
// todo at once and gets it back if the server call fails.
func (b *Board) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	binding := b.timer
	b.mu.Unlock()

	if binding != nil && binding.ActiveTodoID() == id {
		b.logger.Info("resetting timer bound to deleted todo", "todo_id", id)
		binding.Reset()
	}

	b.mu.Lock()
	index := b.indexLocked(id)
	var removed model.Todo
	if index >= 0 {
		removed = b.todos[index]
		b.todos = append(b.todos[:index], b.todos[index+1:]...)
	}
	b.mu.Unlock()

	if err := b.api.DeleteTodo(ctx, id); err != nil {
		if index >= 0 {
			b.restore(index, removed)
		}
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

func (b *Board) restore(index int, todo model.Todo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index > len(b.todos) {
		index = len(b.todos)
	}
	b.todos = append(b.todos[:index], append([]model.Todo{todo}, b.todos[index:]...)...)
}

// IncrementPomodoroCount bumps the local counter at once and sends the
// increment in the background. It implements timer.PomodoroCounter.
func (b *Board) IncrementPomodoroCount(todoID string) {
	b.mu.Lock()
	if i := b.indexLocked(todoID); i >= 0 {
		b.todos[i].CompletedPomodoros++
	}
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		todo, err := b.api.IncrementPomodoro(ctx, todoID)
		if err != nil {
			b.rollbackIncrement(todoID)
			b.fail("increment_pomodoro", err, todoID)
			return
		}
		b.replace(todoID, *todo)
	}()
}

// Wait blocks until background increments have finished.
func (b *Board) Wait() {
	b.wg.Wait()
}

func (b *Board) rollbackIncrement(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexLocked(id); i >= 0 && b.todos[i].CompletedPomodoros > 0 {
		b.todos[i].CompletedPomodoros--
	}
}

func (b *Board) replace(id string, todo model.Todo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexLocked(id); i >= 0 {
		b.todos[i] = todo
	}
}

func (b *Board) fail(op string, err error, todoID string) {
	b.logger.Warn("todo update failed", "op", op, "todo_id", todoID, "error", err)
	b.mu.Lock()
	onError := b.onError
	b.mu.Unlock()
	onError(op, err)
}

func (b *Board) indexLocked(id string) int {
	for i := range b.todos {
		if b.todos[i].ID == id {
			return i
		}
	}
	return -1
}

func applyPatch(todo model.Todo, patch client.TodoPatch) model.Todo {
	if patch.Title != nil {
		todo.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		if trimmed := strings.TrimSpace(*patch.Description); trimmed != "" {
			todo.Description = &trimmed
		} else {
			todo.Description = nil
		}
	}
	if patch.Completed != nil {
		todo.Completed = *patch.Completed
	}
	return todo
}
