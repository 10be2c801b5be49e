package client_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomotodo/internal/apitest"
	"pomotodo/internal/client"
)

func strPtr(s string) *string { return &s }

func TestClient_TodoLifecycle(t *testing.T) {
	srv := apitest.NewServer(t)
	api := srv.Client
	ctx := context.Background()

	require.NoError(t, api.Health(ctx))

	todo, err := api.CreateTodo(ctx, "  Write report  ", strPtr("quarterly"))
	require.NoError(t, err)
	assert.Equal(t, "Write report", todo.Title)
	require.NotNil(t, todo.Description)
	assert.Equal(t, "quarterly", *todo.Description)

	done := true
	updated, err := api.UpdateTodo(ctx, todo.ID, client.TodoPatch{Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Write report", updated.Title)

	counted, err := api.IncrementPomodoro(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counted.CompletedPomodoros)

	todos, err := api.ListTodos(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 1)

	require.NoError(t, api.DeleteTodo(ctx, todo.ID))
	todos, err = api.ListTodos(ctx)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	srv := apitest.NewServer(t)
	ctx := context.Background()

	_, err := srv.Client.IncrementPomodoro(ctx, "missing")
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))

	_, err = srv.Client.OpenSession(ctx, "", "work")
	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "missing_field", statusErr.Code)
	assert.False(t, client.IsNotFound(err))
}

func TestClient_SessionsAndTimer(t *testing.T) {
	srv := apitest.NewServer(t)
	api := srv.Client
	ctx := context.Background()

	todo, err := api.CreateTodo(ctx, "Focus", nil)
	require.NoError(t, err)

	session, err := api.OpenSession(ctx, todo.ID, "work")
	require.NoError(t, err)
	assert.Nil(t, session.CompletedAt)

	srv.Clock.Advance(25 * time.Minute)
	completed, err := api.CompleteSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)

	sessions, err := api.ListSessions(ctx, todo.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, session.ID, sessions[0].ID)

	_, err = api.PutTimer(ctx, client.TimerSnapshot{
		Phase:            "work",
		Status:           "running",
		RemainingSeconds: 100,
		ActiveTodoID:     &todo.ID,
	})
	require.NoError(t, err)

	srv.Clock.Advance(40 * time.Second)
	view, err := api.GetTimer(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, view.RemainingSeconds)
	assert.False(t, view.Expired)
	require.NotNil(t, view.ActiveTodoID)
	assert.Equal(t, todo.ID, *view.ActiveTodoID)
}

func TestClient_TransportError(t *testing.T) {
	api := client.New("http://127.0.0.1:1", time.Second)
	_, err := api.GetTimer(context.Background())
	require.Error(t, err)
	assert.False(t, client.IsNotFound(err))
}
