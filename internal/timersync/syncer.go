// Package timersync keeps the local timer engine and the stored timer
// snapshot in step. Writes are best effort: failures are logged and handed
// to an error callback, and never roll back the engine.
package timersync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pomotodo/internal/client"
	"pomotodo/internal/timer"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultQueueSize = 64
)

var (
	ErrQueueFull = errors.New("timersync: push queue full")
	ErrClosed    = errors.New("timersync: syncer closed")
)

// ErrorHandler observes failed best-effort calls. op is one of "push",
// "open_session" or "complete_session".
type ErrorHandler func(op string, err error)

type options struct {
	logger    *slog.Logger
	onError   ErrorHandler
	timeout   time.Duration
	queueSize int
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithErrorHandler sets the failure callback. A push failure can be
// reported from inside the engine's Push call, so fn must not call back
// into the engine.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(o *options) { o.onError = fn }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

func buildOptions(opts []Option) options {
	o := options{timeout: defaultTimeout, queueSize: defaultQueueSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.onError == nil {
		o.onError = func(string, error) {}
	}
	if o.queueSize < 1 {
		o.queueSize = 1
	}
	return o
}

// Syncer pushes engine snapshots in order on a single worker and pulls the
// stored snapshot back on demand. It implements timer.Pusher.
type Syncer struct {
	api  *client.Client
	opts options

	mu     sync.Mutex
	closed bool
	queue  chan timer.Snapshot
	// pending counts queued and in-flight writes; idle is closed whenever
	// pending is zero.
	pending int
	idle    chan struct{}
	done    chan struct{}
}

func New(api *client.Client, opts ...Option) *Syncer {
	o := buildOptions(opts)
	s := &Syncer{
		api:   api,
		opts:  o,
		queue: make(chan timer.Snapshot, o.queueSize),
		idle:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	close(s.idle)
	go s.run()
	return s
}

// Push queues snap for writing and returns at once.
func (s *Syncer) Push(snap timer.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.fail("push", ErrClosed)
		return
	}

	select {
	case s.queue <- snap:
		if s.pending == 0 {
			s.idle = make(chan struct{})
		}
		s.pending++
	default:
		s.fail("push", ErrQueueFull)
	}
}

// Pull reads the stored snapshot. The server has already applied elapsed
// time to a running countdown.
func (s *Syncer) Pull(ctx context.Context) (timer.Remote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	view, err := s.api.GetTimer(ctx)
	if err != nil {
		return timer.Remote{}, err
	}
	return FromView(*view), nil
}

// PullInto seeds engine from the stored snapshot.
func (s *Syncer) PullInto(ctx context.Context, engine *timer.Engine) error {
	remote, err := s.Pull(ctx)
	if err != nil {
		return err
	}
	s.opts.logger.Debug("restoring timer",
		"phase", remote.Phase,
		"status", remote.Status,
		"remaining_seconds", remote.RemainingSeconds,
		"expired", remote.Expired,
	)
	engine.Restore(remote)
	return nil
}

// Flush waits until every push queued before the call has been attempted,
// or until ctx is done.
func (s *Syncer) Flush(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting pushes and waits for the queue to drain.
func (s *Syncer) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *Syncer) run() {
	defer close(s.done)
	for snap := range s.queue {
		s.write(snap)

		s.mu.Lock()
		s.pending--
		if s.pending == 0 {
			close(s.idle)
		}
		s.mu.Unlock()
	}
}

func (s *Syncer) write(snap timer.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.timeout)
	defer cancel()

	if _, err := s.api.PutTimer(ctx, ToSnapshot(snap)); err != nil {
		s.fail("push", err)
	}
}

func (s *Syncer) fail(op string, err error) {
	s.opts.logger.Warn("timer sync failed", "op", op, "error", err)
	s.opts.onError(op, err)
}

// ToSnapshot maps an engine snapshot onto the PUT body.
func ToSnapshot(snap timer.Snapshot) client.TimerSnapshot {
	return client.TimerSnapshot{
		Phase:            string(snap.Phase),
		Status:           string(snap.Status),
		RemainingSeconds: snap.RemainingSeconds,
		CompletedCycles:  snap.CompletedCycles,
		ActiveTodoID:     optional(snap.ActiveTodoID),
		ActiveSessionID:  optional(snap.ActiveSessionID),
	}
}

func FromView(view client.TimerView) timer.Remote {
	return timer.Remote{
		Snapshot: timer.Snapshot{
			Phase:            timer.Phase(view.Phase),
			Status:           timer.Status(view.Status),
			RemainingSeconds: view.RemainingSeconds,
			CompletedCycles:  view.CompletedCycles,
			ActiveTodoID:     deref(view.ActiveTodoID),
			ActiveSessionID:  deref(view.ActiveSessionID),
		},
		Expired: view.Expired,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
