package timersync_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomotodo/internal/apitest"
	"pomotodo/internal/client"
	"pomotodo/internal/timer"
	"pomotodo/internal/timersync"
	"pomotodo/internal/todos"
)

type failures struct {
	mu   sync.Mutex
	ops  []string
	errs []error
}

func (f *failures) handle(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
	f.errs = append(f.errs, err)
}

func (f *failures) snapshot() ([]string, []error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...), append([]error(nil), f.errs...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func flush(t *testing.T, syncer *timersync.Syncer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, syncer.Flush(ctx))
}

func TestSyncer_PushesInOrder(t *testing.T) {
	srv := apitest.NewServer(t)
	syncer := timersync.New(srv.Client, timersync.WithLogger(quietLogger()))
	defer syncer.Close()

	for remaining := 1500; remaining > 1490; remaining-- {
		syncer.Push(timer.Snapshot{Phase: timer.PhaseWork, Status: timer.StatusPaused, RemainingSeconds: remaining})
	}
	flush(t, syncer)

	remote, err := syncer.Pull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1491, remote.RemainingSeconds)
	assert.Equal(t, timer.StatusPaused, remote.Status)
	assert.False(t, remote.Expired)
}

func TestSyncer_WorkPhaseExpiresWhileAway(t *testing.T) {
	srv := apitest.NewServer(t)
	ctx := context.Background()
	todo, err := srv.Client.CreateTodo(ctx, "A", nil)
	require.NoError(t, err)

	syncer := timersync.New(srv.Client, timersync.WithLogger(quietLogger()))
	recorder := timersync.NewRecorder(srv.Client, timersync.WithLogger(quietLogger()))
	engine := timer.New(timer.Config{
		Scheduler: timer.NewManualScheduler(),
		Pusher:    syncer,
		Recorder:  recorder,
		Logger:    quietLogger(),
	})

	require.True(t, engine.Start(todo.ID))
	recorder.Wait()
	flush(t, syncer)
	syncer.Close()

	stored, err := srv.Client.GetTimer(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored.ActiveSessionID)
	sessionID := *stored.ActiveSessionID

	srv.Clock.Advance(1500 * time.Second)

	board := todos.NewBoard(srv.Client, quietLogger())
	require.NoError(t, board.Refresh(ctx))
	reloadedSyncer := timersync.New(srv.Client, timersync.WithLogger(quietLogger()))
	defer reloadedSyncer.Close()
	reloadedRecorder := timersync.NewRecorder(srv.Client, timersync.WithLogger(quietLogger()))
	reloaded := timer.New(timer.Config{
		Scheduler: timer.NewManualScheduler(),
		Pusher:    reloadedSyncer,
		Recorder:  reloadedRecorder,
		Counter:   board,
		Logger:    quietLogger(),
	})

	require.NoError(t, reloadedSyncer.PullInto(ctx, reloaded))
	snap := reloaded.Snapshot()
	assert.Equal(t, timer.StatusIdle, snap.Status)
	assert.Equal(t, timer.PhaseShortBreak, snap.Phase)
	assert.Equal(t, 300, snap.RemainingSeconds)
	assert.Equal(t, 1, snap.CompletedCycles)
	assert.Empty(t, snap.ActiveSessionID)
	assert.Equal(t, todo.ID, snap.ActiveTodoID)

	board.Wait()
	reloadedRecorder.Wait()
	flush(t, reloadedSyncer)

	updated, ok := board.Get(todo.ID)
	require.True(t, ok)
	assert.Equal(t, 1, updated.CompletedPomodoros)

	sessions, err := srv.Client.ListSessions(ctx, todo.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, sessionID, sessions[0].ID)
	assert.NotNil(t, sessions[0].CompletedAt)

	stored, err = srv.Client.GetTimer(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shortBreak", stored.Phase)
	assert.Equal(t, "idle", stored.Status)
	assert.Nil(t, stored.ActiveSessionID)
}

func TestSyncer_PullRecomputesAgainstServerClock(t *testing.T) {
	srv := apitest.NewServer(t)
	ctx := context.Background()
	syncer := timersync.New(srv.Client, timersync.WithLogger(quietLogger()))
	defer syncer.Close()

	_, err := srv.Client.PutTimer(ctx, client.TimerSnapshot{Phase: "work", Status: "running", RemainingSeconds: 100})
	require.NoError(t, err)

	srv.Clock.Advance(40 * time.Second)
	remote, err := syncer.Pull(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, remote.RemainingSeconds)
	assert.False(t, remote.Expired)

	srv.Clock.Advance(110 * time.Second)
	remote, err = syncer.Pull(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, remote.RemainingSeconds)
	assert.True(t, remote.Expired)
}

func TestSyncer_PullIntoResumesRunningTimer(t *testing.T) {
	srv := apitest.NewServer(t)
	ctx := context.Background()
	syncer := timersync.New(srv.Client, timersync.WithLogger(quietLogger()))
	defer syncer.Close()

	_, err := srv.Client.PutTimer(ctx, client.TimerSnapshot{Phase: "shortBreak", Status: "running", RemainingSeconds: 300, CompletedCycles: 1})
	require.NoError(t, err)
	srv.Clock.Advance(100 * time.Second)

	scheduler := timer.NewManualScheduler()
	engine := timer.New(timer.Config{Scheduler: scheduler, Pusher: syncer, Logger: quietLogger()})
	require.NoError(t, syncer.PullInto(ctx, engine))

	snap := engine.Snapshot()
	assert.Equal(t, timer.StatusRunning, snap.Status)
	assert.Equal(t, 200, snap.RemainingSeconds)
	assert.Equal(t, 1, scheduler.Active())

	flush(t, syncer)
	srv.Clock.Advance(10 * time.Second)
	stored, err := srv.Client.GetTimer(ctx)
	require.NoError(t, err)
	assert.Equal(t, 190, stored.RemainingSeconds, "the re-push anchors the countdown at the restore time")
}

func TestSyncer_ReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var failed failures
	api := client.NewWithHTTPClient(srv.URL, srv.Client())
	syncer := timersync.New(api, timersync.WithLogger(quietLogger()), timersync.WithErrorHandler(failed.handle))

	engine := timer.New(timer.Config{Scheduler: timer.NewManualScheduler(), Pusher: syncer, Logger: quietLogger()})
	require.True(t, engine.Start("A"))
	flush(t, syncer)
	syncer.Close()

	ops, errs := failed.snapshot()
	require.Equal(t, []string{"push"}, ops)
	var statusErr *client.StatusError
	require.ErrorAs(t, errs[0], &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, timer.StatusRunning, engine.Snapshot().Status, "engine state is kept after a failed push")

	syncer.Push(engine.Snapshot())
	ops, errs = failed.snapshot()
	require.Len(t, ops, 2)
	assert.ErrorIs(t, errs[1], timersync.ErrClosed)
}

func TestSyncer_FullQueueDropsPush(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var failed failures
	api := client.NewWithHTTPClient(srv.URL, srv.Client())
	syncer := timersync.New(api,
		timersync.WithLogger(quietLogger()),
		timersync.WithErrorHandler(failed.handle),
		timersync.WithQueueSize(1),
	)

	for i := 0; i < 3; i++ {
		syncer.Push(timer.DefaultSnapshot())
	}
	close(release)
	syncer.Close()

	_, errs := failed.snapshot()
	require.NotEmpty(t, errs)
	for _, err := range errs {
		assert.ErrorIs(t, err, timersync.ErrQueueFull)
	}
}

func TestRecorder_FailedOpenLeavesSessionUnset(t *testing.T) {
	srv := apitest.NewServer(t)
	var failed failures
	recorder := timersync.NewRecorder(srv.Client, timersync.WithLogger(quietLogger()), timersync.WithErrorHandler(failed.handle))
	engine := timer.New(timer.Config{Scheduler: timer.NewManualScheduler(), Recorder: recorder, Logger: quietLogger()})

	require.True(t, engine.Start("no-such-todo"))
	recorder.Wait()

	assert.Empty(t, engine.Snapshot().ActiveSessionID)
	assert.Equal(t, timer.StatusRunning, engine.Snapshot().Status)
	ops, errs := failed.snapshot()
	require.Equal(t, []string{"open_session"}, ops)
	assert.True(t, client.IsNotFound(errs[0]))
}

func TestSyncer_FlushHonoursDeadlineAndLaterDrains(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	writes := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		mu.Lock()
		writes++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	api := client.NewWithHTTPClient(srv.URL, srv.Client())
	syncer := timersync.New(api, timersync.WithLogger(quietLogger()))
	defer syncer.Close()

	require.NoError(t, syncer.Flush(context.Background()), "nothing queued")

	syncer.Push(timer.DefaultSnapshot())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, syncer.Flush(ctx), context.DeadlineExceeded)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			syncer.Push(timer.DefaultSnapshot())
		}()
		go func() {
			defer wg.Done()
			short, stop := context.WithTimeout(context.Background(), time.Millisecond)
			defer stop()
			_ = syncer.Flush(short)
		}()
	}
	wg.Wait()

	close(release)
	flush(t, syncer)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, writes)
}
