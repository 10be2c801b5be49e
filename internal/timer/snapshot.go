package timer

// Snapshot is the full timer tuple exchanged with the store. Empty ids mean
// "none".
type Snapshot struct {
	Phase            Phase
	Status           Status
	RemainingSeconds int
	CompletedCycles  int
	ActiveTodoID     string
	ActiveSessionID  string
}

func DefaultSnapshot() Snapshot {
	return Snapshot{
		Phase:            PhaseWork,
		Status:           StatusIdle,
		RemainingSeconds: WorkSeconds,
	}
}

// Remote is a snapshot read back from the store. For a running timer the
// store has already subtracted elapsed time; Expired marks a countdown that
// ran out while nobody was watching.
type Remote struct {
	Snapshot
	Expired bool
}

func (s Snapshot) normalized() Snapshot {
	if !s.Phase.Valid() {
		s.Phase = PhaseWork
	}
	if !s.Status.Valid() {
		s.Status = StatusIdle
	}
	if s.RemainingSeconds < 0 {
		s.RemainingSeconds = 0
	}
	if s.CompletedCycles < 0 {
		s.CompletedCycles = 0
	}
	return s
}
