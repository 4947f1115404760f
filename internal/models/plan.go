package models

import "time"

// Plan and session statuses as stored by the remote system of record.
const (
	PlanActive    = "active"
	PlanCompleted = "completed"

	SessionScheduled  = "scheduled"
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
	SessionSkipped    = "skipped"
)

// TrainingPlan is a multi-week plan with its current-day/current-week
// pointers. Owned by the remote system of record.
type TrainingPlan struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	TotalWeeks  int          `json:"total_weeks"`
	CurrentWeek int          `json:"current_week"`
	CurrentDay  int          `json:"current_day"`
	Status      string       `json:"status"`
	Days        []WorkoutDay `json:"days"`
}

// WorkoutDay is the immutable definition of one training day.
type WorkoutDay struct {
	ID        string         `json:"id"`
	PlanID    string         `json:"plan_id"`
	DayNumber int            `json:"day_number"`
	Name      string         `json:"name"`
	Slots     []ExerciseSlot `json:"slots,omitempty"`
}

// ExerciseSlot is one ordered exercise position within a day: a base set
// count, a per-week set increment, and a target rep range.
type ExerciseSlot struct {
	ID           string  `json:"id"`
	WorkoutDayID string  `json:"workout_day_id"`
	ExerciseID   string  `json:"exercise_id"`
	ExerciseName string  `json:"exercise_name"`
	SlotOrder    int     `json:"slot_order"`
	BaseSets     float64 `json:"base_sets"`
	SetIncrement float64 `json:"set_increment"`
	RepRangeMin  int     `json:"rep_range_min"`
	RepRangeMax  int     `json:"rep_range_max"`
}

// WorkoutSession is one attempt at a (plan, day, week).
type WorkoutSession struct {
	ID          string     `json:"id"`
	PlanID      string     `json:"plan_id"`
	DayID       string     `json:"day_id"`
	WeekNumber  int        `json:"week_number"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// SetLogRecord is a set as persisted by the remote system of record.
type SetLogRecord struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	ExerciseSlotID string    `json:"exercise_slot_id"`
	ExerciseID     string    `json:"exercise_id"`
	SetNumber      int       `json:"set_number"`
	TargetWeight   *float64  `json:"target_weight,omitempty"`
	TargetReps     *int      `json:"target_reps,omitempty"`
	ActualWeight   *float64  `json:"actual_weight,omitempty"`
	ActualReps     *int      `json:"actual_reps,omitempty"`
	RIR            *int      `json:"rir,omitempty"`
	Completed      bool      `json:"completed"`
	LoggedAt       time.Time `json:"logged_at"`
}

// PreviousSet is what the user did for a set in the last completed session
// of the same day. Advisory only.
type PreviousSet struct {
	Weight *float64 `json:"weight"`
	Reps   *int     `json:"reps"`
	RIR    *int     `json:"rir"`
}
