package cli

import (
	"context"
	"fmt"

	"pomotodo/internal/timer"
	"pomotodo/internal/timersync"
	"pomotodo/internal/todos"
)

// workspace is the client-side object graph: engine, sync layer, session
// recorder and todo board, wired to one server.
type workspace struct {
	engine   *timer.Engine
	syncer   *timersync.Syncer
	recorder *timersync.Recorder
	board    *todos.Board
}

func (a *app) openWorkspace(ctx context.Context, scheduler timer.Scheduler, notifier timer.Notifier) (*workspace, error) {
	opts := []timersync.Option{
		timersync.WithLogger(a.logger),
		timersync.WithTimeout(a.settings.Timeout),
	}

	w := &workspace{
		syncer:   timersync.New(a.api, opts...),
		recorder: timersync.NewRecorder(a.api, opts...),
		board:    todos.NewBoard(a.api, a.logger),
	}
	w.engine = timer.New(timer.Config{
		Scheduler: scheduler,
		Pusher:    w.syncer,
		Recorder:  w.recorder,
		Counter:   w.board,
		Notifier:  notifier,
		Logger:    a.logger,
	})
	w.board.BindTimer(w.engine)

	if err := w.board.Refresh(ctx); err != nil {
		w.close(ctx)
		return nil, err
	}
	if err := w.syncer.PullInto(ctx, w.engine); err != nil {
		w.close(ctx)
		return nil, fmt.Errorf("pull timer: %w", err)
	}
	return w, nil
}

// close lets background writes finish before returning.
func (w *workspace) close(ctx context.Context) {
	w.recorder.Wait()
	w.board.Wait()
	_ = w.syncer.Flush(ctx)
	w.syncer.Close()
}
