package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pomotodo/internal/model"
)

type TimerRepository struct {
	db *sql.DB
}

func NewTimerRepository(db *sql.DB) *TimerRepository {
	return &TimerRepository{db: db}
}

// Get returns the singleton snapshot, inserting the defaults on first access.
func (r *TimerRepository) Get(ctx context.Context) (*model.TimerState, error) {
	defaults := model.DefaultTimerState()
	if _, err := r.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO timer_state (
			id, phase, status, remaining_seconds, started_at,
			completed_cycles, active_todo_id, active_session_id
		) VALUES (?, ?, ?, ?, NULL, ?, NULL, NULL)`,
		model.TimerStateID,
		defaults.Phase,
		defaults.Status,
		defaults.RemainingSeconds,
		defaults.CompletedCycles,
	); err != nil {
		return nil, fmt.Errorf("create initial timer state: %w", err)
	}

	row := r.db.QueryRowContext(
		ctx,
		`SELECT phase, status, remaining_seconds, started_at,
		        completed_cycles, active_todo_id, active_session_id
		 FROM timer_state WHERE id = ?`,
		model.TimerStateID,
	)
	return scanTimerState(row)
}

// Put replaces the singleton snapshot wholesale.
func (r *TimerRepository) Put(ctx context.Context, state *model.TimerState) error {
	return r.put(ctx, r.db, state)
}

func (r *TimerRepository) PutTx(ctx context.Context, tx *sql.Tx, state *model.TimerState) error {
	return r.put(ctx, tx, state)
}

// ActiveTodoIDTx reports which todo the stored snapshot is bound to, if any.
func (r *TimerRepository) ActiveTodoIDTx(ctx context.Context, tx *sql.Tx) (*string, error) {
	var todoID sql.NullString
	err := tx.QueryRowContext(
		ctx,
		`SELECT active_todo_id FROM timer_state WHERE id = ?`,
		model.TimerStateID,
	).Scan(&todoID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read active todo: %w", err)
	}
	if !todoID.Valid {
		return nil, nil
	}
	value := todoID.String
	return &value, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *TimerRepository) put(ctx context.Context, exec execer, state *model.TimerState) error {
	_, err := exec.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO timer_state (
			id, phase, status, remaining_seconds, started_at,
			completed_cycles, active_todo_id, active_session_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		model.TimerStateID,
		state.Phase,
		state.Status,
		state.RemainingSeconds,
		nullableTime(state.StartedAt),
		state.CompletedCycles,
		nullableString(state.ActiveTodoID),
		nullableString(state.ActiveSessionID),
	)
	if err != nil {
		return fmt.Errorf("put timer state: %w", err)
	}
	return nil
}

func scanTimerState(s scanner) (*model.TimerState, error) {
	state := model.TimerState{}
	var startedAt sql.NullString
	var activeTodoID sql.NullString
	var activeSessionID sql.NullString
	err := s.Scan(
		&state.Phase,
		&state.Status,
		&state.RemainingSeconds,
		&startedAt,
		&state.CompletedCycles,
		&activeTodoID,
		&activeSessionID,
	)
	if err != nil {
		return nil, notFoundOr(err, func(err error) error {
			return fmt.Errorf("scan timer state: %w", err)
		})
	}

	if startedAt.Valid {
		parsed, parseErr := parseTime(startedAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse timer started_at: %w", parseErr)
		}
		state.StartedAt = &parsed
	}
	if activeTodoID.Valid {
		value := activeTodoID.String
		state.ActiveTodoID = &value
	}
	if activeSessionID.Valid {
		value := activeSessionID.String
		state.ActiveSessionID = &value
	}
	return &state, nil
}
