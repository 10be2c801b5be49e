package timersync

import (
	"context"
	"sync"

	"pomotodo/internal/client"
	"pomotodo/internal/timer"
)

// Recorder opens and completes session records in the background. It
// implements timer.SessionRecorder.
type Recorder struct {
	api  *client.Client
	opts options
	wg   sync.WaitGroup
}

func NewRecorder(api *client.Client, opts ...Option) *Recorder {
	return &Recorder{api: api, opts: buildOptions(opts)}
}

// Open creates a session and reports its id through done. done is not
// called when the request fails.
func (r *Recorder) Open(todoID string, phase timer.Phase, done func(sessionID string)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.opts.timeout)
		defer cancel()

		session, err := r.api.OpenSession(ctx, todoID, string(phase))
		if err != nil {
			r.fail("open_session", err, "todo_id", todoID)
			return
		}
		r.opts.logger.Debug("session opened", "session_id", session.ID, "todo_id", todoID)
		if done != nil {
			done(session.ID)
		}
	}()
}

func (r *Recorder) Complete(sessionID string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.opts.timeout)
		defer cancel()

		if _, err := r.api.CompleteSession(ctx, sessionID); err != nil {
			r.fail("complete_session", err, "session_id", sessionID)
		}
	}()
}

// Wait blocks until every request started so far has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) fail(op string, err error, attrs ...any) {
	r.opts.logger.Warn("session record failed", append([]any{"op", op, "error", err}, attrs...)...)
	r.opts.onError(op, err)
}
