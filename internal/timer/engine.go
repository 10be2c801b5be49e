package timer

import (
	"log/slog"
	"sync"
	"time"
)

const TickInterval = time.Second

// Pusher persists a snapshot. Push is called with the engine locked: it
// must not block and must not call back into the engine.
type Pusher interface {
	Push(Snapshot)
}

// SessionRecorder opens and completes session records. Open reports the new
// session id through done once it is known; it may never call done.
type SessionRecorder interface {
	Open(todoID string, phase Phase, done func(sessionID string))
	Complete(sessionID string)
}

// PomodoroCounter is the todo side effect of a finished work phase.
type PomodoroCounter interface {
	IncrementPomodoroCount(todoID string)
}

type Notification struct {
	Completed Phase
	Next      Phase
	Message   string
}

type Notifier interface {
	Notify(Notification) error
}

type Config struct {
	Scheduler Scheduler
	Pusher    Pusher
	Recorder  SessionRecorder
	Counter   PomodoroCounter
	Notifier  Notifier
	Logger    *slog.Logger
}

// Engine is the pomodoro state machine. It owns at most one scheduled tick
// at a time and pushes a snapshot after every change of status, phase,
// binding or session.
type Engine struct {
	mu    sync.Mutex
	state Snapshot

	scheduler Scheduler
	stopTick  func()
	tickGen   uint64
	// runGen invalidates session ids that arrive after the run that asked
	// for them has ended.
	runGen uint64

	pusher   Pusher
	recorder SessionRecorder
	counter  PomodoroCounter
	notifier Notifier
	logger   *slog.Logger

	subscribers map[int]chan Snapshot
	nextSubID   int
}

func New(cfg Config) *Engine {
	e := &Engine{
		state:       DefaultSnapshot(),
		scheduler:   cfg.Scheduler,
		pusher:      cfg.Pusher,
		recorder:    cfg.Recorder,
		counter:     cfg.Counter,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
		subscribers: make(map[int]chan Snapshot),
	}
	if e.scheduler == nil {
		e.scheduler = TickerScheduler{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) ActiveTodoID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ActiveTodoID
}

// RequiresConfirmation reports whether selecting todoID would discard a run
// in progress for another todo.
func (e *Engine) RequiresConfirmation(todoID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inProgressForOtherLocked(todoID)
}

// SelectTodo binds todoID without starting the countdown. Switching away
// from a todo with a run in progress resets the timer first.
func (e *Engine) SelectTodo(todoID string) bool {
	e.mu.Lock()
	if todoID == "" || e.state.ActiveTodoID == todoID {
		e.mu.Unlock()
		return false
	}

	if e.inProgressForOtherLocked(todoID) {
		e.logger.Info("switching todo discards run in progress",
			"from_todo", e.state.ActiveTodoID,
			"to_todo", todoID,
			"remaining_seconds", e.state.RemainingSeconds,
		)
		e.cancelTickLocked()
		e.runGen++
		e.state = DefaultSnapshot()
	}
	e.state.ActiveTodoID = todoID
	e.publishLocked(e.state, true)
	e.mu.Unlock()
	return true
}

// Start begins or resumes the countdown for todoID. A fresh work phase asks
// the recorder for a new session.
func (e *Engine) Start(todoID string) bool {
	if todoID == "" {
		e.logger.Warn("start ignored: select a todo before starting the timer")
		return false
	}

	e.mu.Lock()
	if e.state.Status == StatusRunning {
		e.mu.Unlock()
		return false
	}

	fresh := e.state.Status != StatusPaused
	if fresh {
		e.state.RemainingSeconds = Duration(e.state.Phase)
	}
	e.state.Status = StatusRunning
	e.state.ActiveTodoID = todoID
	e.startTickLocked()

	openSession := fresh && e.state.Phase == PhaseWork
	if fresh {
		e.runGen++
	}
	run := e.runGen
	e.publishLocked(e.state, true)
	e.mu.Unlock()

	if openSession && e.recorder != nil {
		e.recorder.Open(todoID, PhaseWork, func(sessionID string) {
			e.bindSession(run, sessionID)
		})
	}
	return true
}

func (e *Engine) Pause() bool {
	e.mu.Lock()
	if e.state.Status != StatusRunning {
		e.mu.Unlock()
		return false
	}
	e.cancelTickLocked()
	e.state.Status = StatusPaused
	e.publishLocked(e.state, true)
	e.mu.Unlock()
	return true
}

// Reset restores the defaults unconditionally. An open session is left
// as is and stays abandoned.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.cancelTickLocked()
	e.runGen++
	e.state = DefaultSnapshot()
	e.publishLocked(e.state, true)
	e.mu.Unlock()
}

// Tick advances a running countdown by one second, as the scheduled tick
// does.
func (e *Engine) Tick() {
	e.mu.Lock()
	gen := e.tickGen
	e.mu.Unlock()
	e.onTick(gen)
}

// CompletePhase finishes the current phase immediately.
func (e *Engine) CompletePhase() {
	e.mu.Lock()
	effects := e.completePhaseLocked()
	e.mu.Unlock()

	e.apply(effects)
}

// Restore seeds the engine from a pulled snapshot. An expired run is
// completed at once; a running one resumes from the store's remaining
// time and is pushed again so the store re-anchors its start time.
func (e *Engine) Restore(remote Remote) {
	e.mu.Lock()
	e.cancelTickLocked()
	e.runGen++
	e.state = remote.Snapshot.normalized()

	running := e.state.Status == StatusRunning
	if remote.Expired || (running && e.state.RemainingSeconds <= 0) {
		e.state.RemainingSeconds = 0
		e.state.Status = StatusIdle
		effects := e.completePhaseLocked()
		e.mu.Unlock()

		e.logger.Info("stored run expired while away", "phase", effects.completed)
		e.apply(effects)
		return
	}

	if running {
		e.startTickLocked()
	}
	e.publishLocked(e.state, running)
	e.mu.Unlock()
}

// Subscribe returns a channel that always holds the latest snapshot. Slow
// readers only miss intermediate values.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextSubID
	e.nextSubID++
	ch := make(chan Snapshot, 1)
	e.subscribers[id] = ch

	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subscribers, id)
	}
}

func (e *Engine) onTick(gen uint64) {
	e.mu.Lock()
	if gen != e.tickGen || e.state.Status != StatusRunning {
		e.mu.Unlock()
		return
	}

	if e.state.RemainingSeconds <= 1 {
		effects := e.completePhaseLocked()
		e.mu.Unlock()
		e.apply(effects)
		return
	}

	e.state.RemainingSeconds--
	e.publishLocked(e.state, false)
	e.mu.Unlock()
}

func (e *Engine) bindSession(run uint64, sessionID string) {
	e.mu.Lock()
	if run != e.runGen || e.state.Phase != PhaseWork || e.state.Status == StatusIdle {
		e.mu.Unlock()
		e.logger.Debug("dropping session id for finished run", "session_id", sessionID)
		return
	}
	e.state.ActiveSessionID = sessionID
	e.publishLocked(e.state, true)
	e.mu.Unlock()
}

type phaseEffects struct {
	snapshot        Snapshot
	completed       Phase
	countTodoID     string
	completeSession string
}

func (e *Engine) completePhaseLocked() phaseEffects {
	e.cancelTickLocked()
	e.runGen++

	effects := phaseEffects{completed: e.state.Phase}
	if e.state.Phase == PhaseWork {
		effects.countTodoID = e.state.ActiveTodoID
		effects.completeSession = e.state.ActiveSessionID

		e.state.CompletedCycles++
		next := BreakAfter(e.state.CompletedCycles)
		e.state.Phase = next
		e.state.RemainingSeconds = Duration(next)
	} else {
		e.state.Phase = PhaseWork
		e.state.RemainingSeconds = WorkSeconds
	}
	e.state.Status = StatusIdle
	e.state.ActiveSessionID = ""

	effects.snapshot = e.state
	e.publishLocked(e.state, true)
	return effects
}

func (e *Engine) apply(effects phaseEffects) {
	if effects.countTodoID != "" && e.counter != nil {
		e.counter.IncrementPomodoroCount(effects.countTodoID)
	}
	if effects.completeSession != "" && e.recorder != nil {
		e.recorder.Complete(effects.completeSession)
	}
	e.notify(effects.completed, effects.snapshot.Phase)
}

func (e *Engine) notify(completed, next Phase) {
	if e.notifier == nil {
		return
	}
	message := "Break over! Time to focus."
	if completed == PhaseWork {
		message = "Work complete! Time for a break."
	}
	if err := e.notifier.Notify(Notification{Completed: completed, Next: next, Message: message}); err != nil {
		e.logger.Debug("notification failed", "error", err)
	}
}

// publishLocked runs with e.mu held, so pushes and subscriber updates
// follow the order of the mutations that produced them.
func (e *Engine) publishLocked(snap Snapshot, push bool) {
	if push && e.pusher != nil {
		e.pusher.Push(snap)
	}
	for _, ch := range e.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (e *Engine) inProgressForOtherLocked(todoID string) bool {
	inProgress := e.state.Status == StatusRunning || e.state.Status == StatusPaused
	return inProgress && e.state.ActiveTodoID != "" && e.state.ActiveTodoID != todoID
}

func (e *Engine) startTickLocked() {
	e.cancelTickLocked()
	gen := e.tickGen
	e.stopTick = e.scheduler.Every(TickInterval, func() {
		e.onTick(gen)
	})
}

// cancelTickLocked releases the tick handle and bumps the generation so a
// tick already in flight is ignored.
func (e *Engine) cancelTickLocked() {
	if e.stopTick != nil {
		e.stopTick()
		e.stopTick = nil
	}
	e.tickGen++
}
