package service

import (
	"context"
	"log/slog"
	"time"

	apperrors "pomotodo/internal/errors"
	"pomotodo/internal/model"
	"pomotodo/internal/repository"
)

type TimerService struct {
	repo   *repository.TimerRepository
	clock  Clock
	logger *slog.Logger
}

// TimerView is the snapshot as served to clients. For a running timer
// RemainingSeconds is already reduced by the time elapsed since StartedAt.
type TimerView struct {
	Phase            string     `json:"phase"`
	Status           string     `json:"status"`
	RemainingSeconds int        `json:"remainingSeconds"`
	StartedAt        *time.Time `json:"startedAt"`
	CompletedCycles  int        `json:"completedCycles"`
	ActiveTodoID     *string    `json:"activeTodoId"`
	ActiveSessionID  *string    `json:"activeSessionId"`
	Expired          bool       `json:"expired"`
}

// PutTimerInput carries a client snapshot. Nil fields fall back to the
// defaults of a fresh timer.
type PutTimerInput struct {
	Phase            *string
	Status           *string
	RemainingSeconds *int
	CompletedCycles  *int
	ActiveTodoID     *string
	ActiveSessionID  *string
}

func NewTimerService(repo *repository.TimerRepository, clock Clock, logger *slog.Logger) *TimerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimerService{repo: repo, clock: clock, logger: logger}
}

func (s *TimerService) Get(ctx context.Context) (*TimerView, *apperrors.APIError) {
	state, err := s.repo.Get(ctx)
	if err != nil {
		s.logger.Error("get timer state", "error", err)
		return nil, apperrors.Internal("failed to get timer state")
	}

	view := toTimerView(state, s.clock.now())
	return &view, nil
}

func (s *TimerService) Put(ctx context.Context, input PutTimerInput) (*model.TimerState, *apperrors.APIError) {
	state := model.DefaultTimerState()

	if input.Phase != nil {
		if !model.IsValidPhase(*input.Phase) {
			return nil, apperrors.InvalidPhase()
		}
		state.Phase = *input.Phase
	}
	if input.Status != nil {
		if !model.IsValidStatus(*input.Status) {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidStatus, "status must be one of idle, running, paused")
		}
		state.Status = *input.Status
	}
	if input.RemainingSeconds != nil {
		if *input.RemainingSeconds < 0 {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidRemaining, "remainingSeconds must not be negative")
		}
		state.RemainingSeconds = *input.RemainingSeconds
	}
	if input.CompletedCycles != nil {
		if *input.CompletedCycles < 0 {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidCycles, "completedCycles must not be negative")
		}
		state.CompletedCycles = *input.CompletedCycles
	}
	state.ActiveTodoID = nonEmpty(input.ActiveTodoID)
	state.ActiveSessionID = nonEmpty(input.ActiveSessionID)

	// The anchor for later elapsed-time recomputation is always the server clock.
	if state.Status == model.StatusRunning {
		now := s.clock.now()
		state.StartedAt = &now
	}

	if err := s.repo.Put(ctx, &state); err != nil {
		s.logger.Error("put timer state", "error", err)
		return nil, apperrors.Internal("failed to store timer state")
	}

	s.logger.Debug("timer state stored",
		"phase", state.Phase,
		"status", state.Status,
		"remaining_seconds", state.RemainingSeconds,
	)
	return &state, nil
}

func toTimerView(state *model.TimerState, now time.Time) TimerView {
	view := TimerView{
		Phase:            state.Phase,
		Status:           state.Status,
		RemainingSeconds: state.RemainingSeconds,
		StartedAt:        state.StartedAt,
		CompletedCycles:  state.CompletedCycles,
		ActiveTodoID:     state.ActiveTodoID,
		ActiveSessionID:  state.ActiveSessionID,
	}

	if state.Status == model.StatusRunning && state.StartedAt != nil {
		view.RemainingSeconds = currentRemainingSeconds(state, now)
		view.Expired = view.RemainingSeconds <= 0
	}
	return view
}

func currentRemainingSeconds(state *model.TimerState, now time.Time) int {
	if state.Status != model.StatusRunning || state.StartedAt == nil {
		if state.RemainingSeconds < 0 {
			return 0
		}
		return state.RemainingSeconds
	}

	elapsed := int(now.Sub(*state.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := state.RemainingSeconds - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func nonEmpty(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	v := *value
	return &v
}
