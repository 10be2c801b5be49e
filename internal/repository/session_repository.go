package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pomotodo/internal/model"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.PomodoroSession) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO pomodoro_sessions (id, todo_id, phase, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		session.TodoID,
		session.Phase,
		formatTime(session.StartedAt),
		nullableTime(session.CompletedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrMissingReference
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.PomodoroSession, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, todo_id, phase, started_at, completed_at
		 FROM pomodoro_sessions
		 WHERE id = ?`,
		id,
	)
	return scanSession(row)
}

func (r *SessionRepository) Complete(ctx context.Context, id string, completedAt time.Time) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE pomodoro_sessions SET completed_at = ? WHERE id = ?`,
		formatTime(completedAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete session rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns sessions newest first, optionally restricted to one todo.
func (r *SessionRepository) List(ctx context.Context, todoID string) ([]model.PomodoroSession, error) {
	query := `SELECT id, todo_id, phase, started_at, completed_at FROM pomodoro_sessions`
	args := []interface{}{}
	if todoID != "" {
		query += ` WHERE todo_id = ?`
		args = append(args, todoID)
	}
	query += ` ORDER BY started_at DESC, rowid DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.PomodoroSession, 0)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(s scanner) (*model.PomodoroSession, error) {
	session := model.PomodoroSession{}
	var startedAt string
	var completedAt sql.NullString
	err := s.Scan(
		&session.ID,
		&session.TodoID,
		&session.Phase,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, func(err error) error {
			return fmt.Errorf("scan session: %w", err)
		})
	}

	parsedStartedAt, err := parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse session started_at: %w", err)
	}
	session.StartedAt = parsedStartedAt

	if completedAt.Valid {
		parsedCompletedAt, parseErr := parseTime(completedAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse session completed_at: %w", parseErr)
		}
		session.CompletedAt = &parsedCompletedAt
	}
	return &session, nil
}
