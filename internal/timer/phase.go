package timer

type Phase string

const (
	PhaseWork       Phase = "work"
	PhaseShortBreak Phase = "shortBreak"
	PhaseLongBreak  Phase = "longBreak"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
)

const (
	WorkSeconds       = 25 * 60
	ShortBreakSeconds = 5 * 60
	LongBreakSeconds  = 15 * 60

	// Every LongBreakInterval-th completed work phase earns a long break.
	LongBreakInterval = 4
)

// Duration returns the full countdown length of a phase in seconds.
func Duration(phase Phase) int {
	switch phase {
	case PhaseShortBreak:
		return ShortBreakSeconds
	case PhaseLongBreak:
		return LongBreakSeconds
	default:
		return WorkSeconds
	}
}

// BreakAfter picks the break that follows the given number of completed
// work cycles, counting the one just finished.
func BreakAfter(completedCycles int) Phase {
	if completedCycles > 0 && completedCycles%LongBreakInterval == 0 {
		return PhaseLongBreak
	}
	return PhaseShortBreak
}

func (p Phase) Valid() bool {
	return p == PhaseWork || p == PhaseShortBreak || p == PhaseLongBreak
}

func (s Status) Valid() bool {
	return s == StatusIdle || s == StatusRunning || s == StatusPaused
}

func (p Phase) Label() string {
	switch p {
	case PhaseShortBreak:
		return "Short break"
	case PhaseLongBreak:
		return "Long break"
	default:
		return "Work"
	}
}
