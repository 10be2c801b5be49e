package model

import "time"

const (
	PhaseWork       = "work"
	PhaseShortBreak = "shortBreak"
	PhaseLongBreak  = "longBreak"

	StatusIdle    = "idle"
	StatusRunning = "running"
	StatusPaused  = "paused"
)

const (
	DefaultWorkDurationSeconds       = 25 * 60
	DefaultShortBreakDurationSeconds = 5 * 60
	DefaultLongBreakDurationSeconds  = 15 * 60
)

const TimerStateID = "singleton"

// TimerState is the stored snapshot of the single process-wide timer.
// StartedAt is set only while Status is running.
type TimerState struct {
	Phase            string     `json:"phase"`
	Status           string     `json:"status"`
	RemainingSeconds int        `json:"remainingSeconds"`
	StartedAt        *time.Time `json:"startedAt"`
	CompletedCycles  int        `json:"completedCycles"`
	ActiveTodoID     *string    `json:"activeTodoId"`
	ActiveSessionID  *string    `json:"activeSessionId"`
}

func DefaultTimerState() TimerState {
	return TimerState{
		Phase:            PhaseWork,
		Status:           StatusIdle,
		RemainingSeconds: DefaultWorkDurationSeconds,
	}
}

// PomodoroSession records one attempted phase. A nil CompletedAt means the
// session is still open or was abandoned.
type PomodoroSession struct {
	ID          string     `json:"id"`
	TodoID      string     `json:"todoId"`
	Phase       string     `json:"phase"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

func IsValidPhase(phase string) bool {
	return phase == PhaseWork || phase == PhaseShortBreak || phase == PhaseLongBreak
}

func IsValidStatus(status string) bool {
	return status == StatusIdle || status == StatusRunning || status == StatusPaused
}
