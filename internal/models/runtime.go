package models

import "time"

// SetRuntime is the in-memory view of one set during a live session.
// Invariant: Completed is true exactly when ActualWeight and ActualReps are
// both set. Sets are never removed within a session; a skip is logged as a
// zero-valued completed set.
type SetRuntime struct {
	RemoteID     string       `json:"remote_id,omitempty"` // empty until synced
	SetNumber    int          `json:"set_number"`          // 1-based
	TargetWeight *float64     `json:"target_weight,omitempty"`
	TargetReps   int          `json:"target_reps"`
	ActualWeight *float64     `json:"actual_weight,omitempty"`
	ActualReps   *int         `json:"actual_reps,omitempty"`
	RIR          *int         `json:"rir,omitempty"`
	Completed    bool         `json:"completed"`
	Previous     *PreviousSet `json:"previous,omitempty"`
}

// ExerciseRuntime is one exercise slot's runtime view. SetsThisWeek is
// resolved once at session build and stays fixed for the session's lifetime.
type ExerciseRuntime struct {
	Slot         ExerciseSlot `json:"slot"`
	SetsThisWeek int          `json:"sets_this_week"`
	Sets         []SetRuntime `json:"sets"`
	Expanded     bool         `json:"expanded"`
}

// SessionState is the mutable in-progress representation of doing one
// workout day in one week.
type SessionState struct {
	SessionID  string            `json:"session_id"`
	PlanID     string            `json:"plan_id"`
	DayID      string            `json:"day_id"`
	DayName    string            `json:"day_name"`
	WeekNumber int               `json:"week_number"`
	Exercises  []ExerciseRuntime `json:"exercises"`
	// LocalOnly is set when the session was created while disconnected and
	// has no remote record yet.
	LocalOnly bool `json:"local_only,omitempty"`
}

// Progress is the derived view of a session, recomputed on every read.
type Progress struct {
	TotalSets     int     `json:"total_sets"`
	CompletedSets int     `json:"completed_sets"`
	Percent       float64 `json:"percent"`
	CanComplete   bool    `json:"can_complete"`
}

// Progress computes the aggregate completion view. Percent is 0 when the
// session has no sets at all.
func (s *SessionState) Progress() Progress {
	var p Progress
	for _, ex := range s.Exercises {
		p.TotalSets += ex.SetsThisWeek
		for _, set := range ex.Sets {
			if set.Completed {
				p.CompletedSets++
			}
		}
	}
	if p.TotalSets > 0 {
		p.Percent = float64(p.CompletedSets) / float64(p.TotalSets) * 100
	}
	p.CanComplete = p.CompletedSets > 0
	return p
}

// PendingSetLog is a queued, not-yet-synced "log this set" instruction.
// MutationID is client-generated and doubles as the idempotency key. Records
// are immutable once created. Plan, day, and week are carried so a session
// minted offline can be resolved to its remote row during a drain.
type PendingSetLog struct {
	MutationID     string  `json:"mutation_id"`
	SessionID      string  `json:"session_id"`
	PlanID         string  `json:"plan_id,omitempty"`
	DayID          string  `json:"day_id,omitempty"`
	WeekNumber     int     `json:"week_number,omitempty"`
	ExerciseSlotID string  `json:"exercise_slot_id"`
	ExerciseID     string  `json:"exercise_id"`
	SetNumber      int     `json:"set_number"`
	Weight         float64 `json:"weight"`
	Reps           int     `json:"reps"`
	RIR            *int    `json:"rir,omitempty"`
	// LocalSession marks a mutation whose session id has no remote row yet;
	// the drain resolves or creates the row via (plan, day, week).
	LocalSession bool      `json:"local_session,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Snapshot is a point-in-time capture of a session used for crash and
// screen-lock recovery.
type Snapshot struct {
	PlanID     string       `json:"plan_id"`
	DayID      string       `json:"day_id"`
	WeekNumber int          `json:"week_number"`
	SessionID  string       `json:"session_id"`
	SavedAt    time.Time    `json:"saved_at"`
	State      SessionState `json:"state"`
}

// DayBundle is a workout day downloaded for offline use: the day definition,
// its slots, and the previous completed session's sets keyed by
// "slotID-setNumber".
type DayBundle struct {
	Day          WorkoutDay             `json:"day"`
	PlanID       string                 `json:"plan_id"`
	WeekNumber   int                    `json:"week_number"`
	PreviousSets map[string]PreviousSet `json:"previous_sets"`
	DownloadedAt time.Time              `json:"downloaded_at"`
}
