package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	apperrors "pomotodo/internal/errors"
	"pomotodo/internal/model"
	"pomotodo/internal/repository"
)

type TodoService struct {
	todos  *repository.TodoRepository
	timer  *repository.TimerRepository
	clock  Clock
	logger *slog.Logger
}

// UpdateTodoInput holds a partial update. An empty Description clears it.
type UpdateTodoInput struct {
	Title       *string
	Description *string
	Completed   *bool
}

func NewTodoService(
	todos *repository.TodoRepository,
	timer *repository.TimerRepository,
	clock Clock,
	logger *slog.Logger,
) *TodoService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoService{todos: todos, timer: timer, clock: clock, logger: logger}
}

func (s *TodoService) List(ctx context.Context) ([]model.Todo, *apperrors.APIError) {
	todos, err := s.todos.List(ctx)
	if err != nil {
		s.logger.Error("list todos", "error", err)
		return nil, apperrors.Internal("failed to list todos")
	}
	return todos, nil
}

func (s *TodoService) Create(ctx context.Context, title string, description *string) (*model.Todo, *apperrors.APIError) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidTitle, "title is required")
	}

	now := s.clock.now()
	todo := model.Todo{
		ID:          uuid.NewString(),
		Title:       title,
		Description: trimmedOrNil(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.todos.Create(ctx, &todo); err != nil {
		s.logger.Error("create todo", "error", err)
		return nil, apperrors.Internal("failed to create todo")
	}
	return &todo, nil
}

func (s *TodoService) Update(ctx context.Context, id string, input UpdateTodoInput) (*model.Todo, *apperrors.APIError) {
	todo, apiErr := s.get(ctx, id)
	if apiErr != nil {
		return nil, apiErr
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidTitle, "title must not be blank")
		}
		todo.Title = title
	}
	if input.Description != nil {
		todo.Description = trimmedOrNil(input.Description)
	}
	if input.Completed != nil {
		todo.Completed = *input.Completed
	}
	todo.UpdatedAt = s.clock.now()

	if err := s.todos.Update(ctx, todo); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.TodoNotFound()
		}
		s.logger.Error("update todo", "todo_id", id, "error", err)
		return nil, apperrors.Internal("failed to update todo")
	}
	return todo, nil
}

// Delete removes a todo and its sessions. When the stored timer is bound to
// the todo it is reset in the same transaction so the snapshot never
// references a deleted todo.
func (s *TodoService) Delete(ctx context.Context, id string) *apperrors.APIError {
	tx, err := s.todos.BeginTx(ctx)
	if err != nil {
		return apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	activeTodoID, err := s.timer.ActiveTodoIDTx(ctx, tx)
	if err != nil {
		s.logger.Error("read timer binding", "error", err)
		return apperrors.Internal("failed to read timer state")
	}
	if activeTodoID != nil && *activeTodoID == id {
		state := model.DefaultTimerState()
		if err := s.timer.PutTx(ctx, tx, &state); err != nil {
			s.logger.Error("reset timer for deleted todo", "todo_id", id, "error", err)
			return apperrors.Internal("failed to reset timer state")
		}
		s.logger.Info("timer reset for deleted todo", "todo_id", id)
	}

	if err := s.todos.DeleteTx(ctx, tx, id); err != nil {
		s.logger.Error("delete todo", "todo_id", id, "error", err)
		return apperrors.Internal("failed to delete todo")
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Internal("failed to commit transaction")
	}
	return nil
}

func (s *TodoService) IncrementPomodoro(ctx context.Context, id string) (*model.Todo, *apperrors.APIError) {
	if err := s.todos.IncrementPomodoro(ctx, id, s.clock.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.TodoNotFound()
		}
		s.logger.Error("increment pomodoro", "todo_id", id, "error", err)
		return nil, apperrors.Internal("failed to increment pomodoro count")
	}
	return s.get(ctx, id)
}

func (s *TodoService) get(ctx context.Context, id string) (*model.Todo, *apperrors.APIError) {
	todo, err := s.todos.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.TodoNotFound()
	}
	if err != nil {
		s.logger.Error("get todo", "todo_id", id, "error", err)
		return nil, apperrors.Internal("failed to get todo")
	}
	return todo, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
