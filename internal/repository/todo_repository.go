package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pomotodo/internal/model"
)

type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

func (r *TodoRepository) List(ctx context.Context) ([]model.Todo, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, title, description, completed, completed_pomodoros, created_at, updated_at
		 FROM todos
		 ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]model.Todo, 0)
	for rows.Next() {
		todo, scanErr := scanTodo(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		todos = append(todos, *todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return todos, nil
}

func (r *TodoRepository) GetByID(ctx context.Context, id string) (*model.Todo, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, title, description, completed, completed_pomodoros, created_at, updated_at
		 FROM todos
		 WHERE id = ?`,
		id,
	)
	return scanTodo(row)
}

func (r *TodoRepository) Create(ctx context.Context, todo *model.Todo) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO todos (id, title, description, completed, completed_pomodoros, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		todo.ID,
		todo.Title,
		nullableString(todo.Description),
		boolToInt(todo.Completed),
		todo.CompletedPomodoros,
		formatTime(todo.CreatedAt),
		formatTime(todo.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

func (r *TodoRepository) Update(ctx context.Context, todo *model.Todo) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE todos
		 SET title = ?,
		     description = ?,
		     completed = ?,
		     updated_at = ?
		 WHERE id = ?`,
		todo.Title,
		nullableString(todo.Description),
		boolToInt(todo.Completed),
		formatTime(todo.UpdatedAt),
		todo.ID,
	)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	return requireAffected(result, "update todo")
}

// IncrementPomodoro bumps the counter in a single statement so concurrent
// increments never lose an update.
func (r *TodoRepository) IncrementPomodoro(ctx context.Context, id string, now time.Time) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE todos
		 SET completed_pomodoros = completed_pomodoros + 1,
		     updated_at = ?
		 WHERE id = ?`,
		formatTime(now),
		id,
	)
	if err != nil {
		return fmt.Errorf("increment pomodoro: %w", err)
	}
	return requireAffected(result, "increment pomodoro")
}

// DeleteTx removes the todo; its sessions go with it through ON DELETE CASCADE.
func (r *TodoRepository) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

func requireAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanTodo(s scanner) (*model.Todo, error) {
	todo := model.Todo{}
	var description sql.NullString
	var completed int
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&todo.ID,
		&todo.Title,
		&description,
		&completed,
		&todo.CompletedPomodoros,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, func(err error) error {
			return fmt.Errorf("scan todo: %w", err)
		})
	}

	if description.Valid {
		value := description.String
		todo.Description = &value
	}
	todo.Completed = completed != 0

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse todo created_at: %w", err)
	}
	todo.CreatedAt = parsedCreatedAt

	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse todo updated_at: %w", err)
	}
	todo.UpdatedAt = parsedUpdatedAt
	return &todo, nil
}
