package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomotodo/internal/db"
	"pomotodo/internal/model"
	"pomotodo/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.RunMigrations(database, db.MigrationSource("")))
	return database
}

func createTodo(t *testing.T, repo *repository.TodoRepository, title string) model.Todo {
	t.Helper()
	now := time.Now().UTC()
	todo := model.Todo{ID: uuid.NewString(), Title: title, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(context.Background(), &todo))
	return todo
}

func TestTimerRepository_GetCreatesDefaults(t *testing.T) {
	repo := repository.NewTimerRepository(openTestDB(t))

	state, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTimerState(), *state)
}

func TestTimerRepository_PutReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTimerRepository(openTestDB(t))

	startedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	todoID := "todo-1"
	sessionID := "session-1"
	require.NoError(t, repo.Put(ctx, &model.TimerState{
		Phase:            model.PhaseWork,
		Status:           model.StatusRunning,
		RemainingSeconds: 1200,
		StartedAt:        &startedAt,
		CompletedCycles:  2,
		ActiveTodoID:     &todoID,
		ActiveSessionID:  &sessionID,
	}))

	state, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, state.Status)
	assert.Equal(t, 1200, state.RemainingSeconds)
	require.NotNil(t, state.StartedAt)
	assert.True(t, startedAt.Equal(*state.StartedAt))
	assert.Equal(t, 2, state.CompletedCycles)
	assert.Equal(t, &todoID, state.ActiveTodoID)
	assert.Equal(t, &sessionID, state.ActiveSessionID)

	require.NoError(t, repo.Put(ctx, &model.TimerState{Phase: model.PhaseShortBreak, Status: model.StatusIdle, RemainingSeconds: 300}))
	state, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, state.StartedAt)
	assert.Nil(t, state.ActiveTodoID)
	assert.Equal(t, model.PhaseShortBreak, state.Phase)
}

func TestSessionRepository_CascadeOnTodoDelete(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	todos := repository.NewTodoRepository(database)
	sessions := repository.NewSessionRepository(database)

	todo := createTodo(t, todos, "write report")
	session := model.PomodoroSession{ID: uuid.NewString(), TodoID: todo.ID, Phase: model.PhaseWork, StartedAt: time.Now()}
	require.NoError(t, sessions.Create(ctx, &session))

	tx, err := todos.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, todos.DeleteTx(ctx, tx, todo.ID))
	require.NoError(t, tx.Commit())

	_, err = sessions.GetByID(ctx, session.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRepository_CreateWithUnknownTodo(t *testing.T) {
	sessions := repository.NewSessionRepository(openTestDB(t))

	err := sessions.Create(context.Background(), &model.PomodoroSession{
		ID: uuid.NewString(), TodoID: "missing", Phase: model.PhaseWork, StartedAt: time.Now(),
	})
	assert.ErrorIs(t, err, repository.ErrMissingReference)
}

func TestSessionRepository_CompleteAndList(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	todos := repository.NewTodoRepository(database)
	sessions := repository.NewSessionRepository(database)

	first := createTodo(t, todos, "a")
	second := createTodo(t, todos, "b")
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	older := model.PomodoroSession{ID: "s1", TodoID: first.ID, Phase: model.PhaseWork, StartedAt: base}
	newer := model.PomodoroSession{ID: "s2", TodoID: first.ID, Phase: model.PhaseWork, StartedAt: base.Add(time.Hour)}
	other := model.PomodoroSession{ID: "s3", TodoID: second.ID, Phase: model.PhaseWork, StartedAt: base}
	for _, s := range []*model.PomodoroSession{&older, &newer, &other} {
		require.NoError(t, sessions.Create(ctx, s))
	}

	require.NoError(t, sessions.Complete(ctx, "s1", base.Add(25*time.Minute)))
	assert.ErrorIs(t, sessions.Complete(ctx, "nope", base), repository.ErrNotFound)

	list, err := sessions.List(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s2", list[0].ID)
	assert.Nil(t, list[0].CompletedAt)
	require.NotNil(t, list[1].CompletedAt)

	all, err := sessions.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTodoRepository_IncrementPomodoro(t *testing.T) {
	ctx := context.Background()
	todos := repository.NewTodoRepository(openTestDB(t))
	todo := createTodo(t, todos, "focus")

	require.NoError(t, todos.IncrementPomodoro(ctx, todo.ID, time.Now()))
	require.NoError(t, todos.IncrementPomodoro(ctx, todo.ID, time.Now()))

	got, err := todos.GetByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CompletedPomodoros)

	assert.ErrorIs(t, todos.IncrementPomodoro(ctx, "missing", time.Now()), repository.ErrNotFound)
}

func TestRepositories_OrderWithinOneSecond(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	todos := repository.NewTodoRepository(database)
	sessions := repository.NewSessionRepository(database)

	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	offsets := map[string]time.Duration{
		"half":      500 * time.Millisecond,
		"whole":     0,
		"fifty-two": 520 * time.Millisecond,
	}
	// Inserted out of time order so the row id cannot decide the result.
	for _, id := range []string{"half", "whole", "fifty-two"} {
		at := base.Add(offsets[id])
		require.NoError(t, todos.Create(ctx, &model.Todo{ID: id, Title: id, CreatedAt: at, UpdatedAt: at}))
		require.NoError(t, sessions.Create(ctx, &model.PomodoroSession{
			ID: "s-" + id, TodoID: id, Phase: model.PhaseWork, StartedAt: at,
		}))
	}

	todoList, err := todos.List(ctx)
	require.NoError(t, err)
	var todoIDs []string
	for _, todo := range todoList {
		todoIDs = append(todoIDs, todo.ID)
	}
	assert.Equal(t, []string{"fifty-two", "half", "whole"}, todoIDs)

	sessionList, err := sessions.List(ctx, "")
	require.NoError(t, err)
	var sessionIDs []string
	for _, session := range sessionList {
		sessionIDs = append(sessionIDs, session.ID)
	}
	assert.Equal(t, []string{"s-fifty-two", "s-half", "s-whole"}, sessionIDs)
	assert.Equal(t, base.Add(520*time.Millisecond), sessionList[0].StartedAt)
}
