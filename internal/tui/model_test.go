package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomotodo/internal/model"
	"pomotodo/internal/timer"
)

type fakeBoard struct {
	todos     []model.Todo
	deleteErr error
	deleted   []string
	added     []string
}

func (b *fakeBoard) Todos() []model.Todo               { return append([]model.Todo(nil), b.todos...) }
func (b *fakeBoard) Refresh(ctx context.Context) error { return nil }

func (b *fakeBoard) Add(ctx context.Context, title, description string) (*model.Todo, error) {
	b.added = append(b.added, title)
	todo := model.Todo{ID: "new-" + title, Title: title}
	b.todos = append([]model.Todo{todo}, b.todos...)
	return &todo, nil
}

func (b *fakeBoard) Toggle(ctx context.Context, id string) (*model.Todo, error) {
	for i := range b.todos {
		if b.todos[i].ID == id {
			b.todos[i].Completed = !b.todos[i].Completed
			return &b.todos[i], nil
		}
	}
	return nil, errors.New("unknown")
}

func (b *fakeBoard) Delete(ctx context.Context, id string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.deleted = append(b.deleted, id)
	for i := range b.todos {
		if b.todos[i].ID == id {
			b.todos = append(b.todos[:i], b.todos[i+1:]...)
			break
		}
	}
	return nil
}

func newTestModel(t *testing.T) (Model, *timer.Engine, *fakeBoard) {
	t.Helper()
	board := &fakeBoard{todos: []model.Todo{
		{ID: "a", Title: "Alpha"},
		{ID: "b", Title: "Beta"},
	}}
	engine := timer.New(timer.Config{
		Scheduler: timer.NewManualScheduler(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	m := New(engine, board, NewNotifier(nil))
	t.Cleanup(m.Close)
	return m, engine, board
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, c := m.Update(msg)
		m = next.(Model)
		cmd = c
	}
	return m, cmd
}

// syncSnapshot feeds the engine's current snapshot to the model.
func syncSnapshot(m Model, engine *timer.Engine) Model {
	next, _ := m.Update(snapshotMsg(engine.Snapshot()))
	return next.(Model)
}

func TestModel_StartRequiresSelection(t *testing.T) {
	m, engine, _ := newTestModel(t)

	m, _ = press(t, m, "s")
	assert.Equal(t, timer.StatusIdle, engine.Snapshot().Status)
	assert.Contains(t, m.status, "Select a todo")

	m, _ = press(t, m, "enter")
	m = syncSnapshot(m, engine)
	assert.Equal(t, "a", engine.Snapshot().ActiveTodoID)

	m, _ = press(t, m, "s")
	assert.Equal(t, timer.StatusRunning, engine.Snapshot().Status)

	m = syncSnapshot(m, engine)
	m, _ = press(t, m, "p")
	assert.Equal(t, timer.StatusPaused, engine.Snapshot().Status)

	_, _ = press(t, m, "r")
	assert.Equal(t, timer.DefaultSnapshot(), engine.Snapshot())
}

func TestModel_SwitchingRunningTodoAsksFirst(t *testing.T) {
	m, engine, _ := newTestModel(t)
	m, _ = press(t, m, "enter")
	m = syncSnapshot(m, engine)
	m, _ = press(t, m, "s")
	m = syncSnapshot(m, engine)

	m, _ = press(t, m, "down", "enter")
	assert.Equal(t, modeConfirmSwitch, m.mode)
	assert.Equal(t, "a", engine.Snapshot().ActiveTodoID)

	m, _ = press(t, m, "n")
	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, timer.StatusRunning, engine.Snapshot().Status)

	m, _ = press(t, m, "enter", "y")
	assert.Equal(t, modeBrowse, m.mode)
	snap := engine.Snapshot()
	assert.Equal(t, "b", snap.ActiveTodoID)
	assert.Equal(t, timer.StatusIdle, snap.Status)
	assert.Equal(t, 1500, snap.RemainingSeconds)
}

func TestModel_AddTodo(t *testing.T) {
	m, _, board := newTestModel(t)

	m, _ = press(t, m, "a", "W", "r", "i", "t", "e")
	assert.Equal(t, modeAdd, m.mode)

	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.Equal(t, []string{"Write"}, board.added)
	require.Len(t, m.todos, 3)
	assert.Equal(t, "Write", m.todos[0].Title)
	assert.Equal(t, 0, m.cursor)
}

func TestModel_DeleteFailureShowsStatus(t *testing.T) {
	m, _, board := newTestModel(t)
	board.deleteErr = errors.New("server down")

	m, cmd := press(t, m, "d", "y")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.Contains(t, m.status, "delete failed")
	assert.Len(t, m.todos, 2)
}

func TestModel_ToggleAndDelete(t *testing.T) {
	m, _, board := newTestModel(t)

	m, cmd := press(t, m, "x")
	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.True(t, m.todos[0].Completed)

	m, cmd = press(t, m, "down", "d", "y")
	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, []string{"b"}, board.deleted)
	assert.Len(t, m.todos, 1)
	assert.Equal(t, 0, m.cursor)
}

func TestModel_NotificationUpdatesStatus(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, cmd := m.Update(notificationMsg{Message: "Work complete! Time for a break."})
	m = next.(Model)

	assert.Equal(t, "Work complete! Time for a break.", m.status)
	assert.NotNil(t, cmd)
}

func TestModel_ViewShowsClockAndTodos(t *testing.T) {
	m, engine, _ := newTestModel(t)
	m, _ = press(t, m, "enter")
	m = syncSnapshot(m, engine)

	view := m.View()
	assert.Contains(t, view, "25:00")
	assert.Contains(t, view, "WORK")
	assert.Contains(t, view, "Alpha")
	assert.Contains(t, view, "Beta")
}

func TestNotifier_RingsBell(t *testing.T) {
	var out bytes.Buffer
	n := NewNotifier(&out)

	require.NoError(t, n.Notify(timer.Notification{Message: "Break over! Time to focus."}))
	assert.Equal(t, "\a", out.String())

	msg := n.wait()()
	assert.Equal(t, notificationMsg{Message: "Break over! Time to focus."}, msg)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "25:00", FormatClock(1500))
	assert.Equal(t, "00:59", FormatClock(59))
	assert.Equal(t, "00:00", FormatClock(-3))
}

func TestModel_DeleteAsksFirst(t *testing.T) {
	m, engine, board := newTestModel(t)
	m, _ = press(t, m, "enter")
	m = syncSnapshot(m, engine)
	m, _ = press(t, m, "s")
	m = syncSnapshot(m, engine)

	m, cmd := press(t, m, "d")
	assert.Nil(t, cmd)
	assert.Equal(t, modeConfirmDelete, m.mode)
	assert.Contains(t, m.status, "reset its timer")

	m, cmd = press(t, m, "n")
	assert.Nil(t, cmd)
	assert.Equal(t, modeBrowse, m.mode)
	assert.Empty(t, board.deleted)
	assert.Equal(t, timer.StatusRunning, engine.Snapshot().Status)

	m, cmd = press(t, m, "d", "y")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, []string{"a"}, board.deleted)
	assert.Len(t, m.todos, 1)
}
