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

type SessionService struct {
	repo   *repository.SessionRepository
	clock  Clock
	logger *slog.Logger
}

func NewSessionService(repo *repository.SessionRepository, clock Clock, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{repo: repo, clock: clock, logger: logger}
}

// Open records the start of a phase for a todo.
func (s *SessionService) Open(ctx context.Context, todoID, phase string) (*model.PomodoroSession, *apperrors.APIError) {
	todoID = strings.TrimSpace(todoID)
	phase = strings.TrimSpace(phase)

	var missing []string
	if todoID == "" {
		missing = append(missing, "todoId")
	}
	if phase == "" {
		missing = append(missing, "phase")
	}
	if len(missing) > 0 {
		return nil, apperrors.MissingField(missing...)
	}
	if !model.IsValidPhase(phase) {
		return nil, apperrors.InvalidPhase()
	}

	session := model.PomodoroSession{
		ID:        uuid.NewString(),
		TodoID:    todoID,
		Phase:     phase,
		StartedAt: s.clock.now(),
	}
	if err := s.repo.Create(ctx, &session); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, apperrors.TodoNotFound()
		}
		s.logger.Error("open session", "todo_id", todoID, "error", err)
		return nil, apperrors.Internal("failed to create session")
	}

	s.logger.Info("session opened", "session_id", session.ID, "todo_id", todoID, "phase", phase)
	return &session, nil
}

// Complete stamps completedAt. A session that is already complete keeps its
// original completion time.
func (s *SessionService) Complete(ctx context.Context, id string) (*model.PomodoroSession, *apperrors.APIError) {
	session, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.SessionNotFound()
	}
	if err != nil {
		s.logger.Error("get session", "session_id", id, "error", err)
		return nil, apperrors.Internal("failed to get session")
	}
	if session.CompletedAt != nil {
		return session, nil
	}

	now := s.clock.now()
	if err := s.repo.Complete(ctx, id, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.SessionNotFound()
		}
		s.logger.Error("complete session", "session_id", id, "error", err)
		return nil, apperrors.Internal("failed to complete session")
	}
	session.CompletedAt = &now

	s.logger.Info("session completed", "session_id", id, "todo_id", session.TodoID)
	return session, nil
}

func (s *SessionService) List(ctx context.Context, todoID string) ([]model.PomodoroSession, *apperrors.APIError) {
	sessions, err := s.repo.List(ctx, strings.TrimSpace(todoID))
	if err != nil {
		s.logger.Error("list sessions", "error", err)
		return nil, apperrors.Internal("failed to list sessions")
	}
	return sessions, nil
}
