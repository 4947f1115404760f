package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/meltforce/liftlog/internal/models"
)

// ErrUnavailable marks a transient remote failure: network trouble, a
// timeout, or the backend being down. Operations that fail this way are
// retryable; queued work stays queued.
var ErrUnavailable = errors.New("remote unavailable")

// Unavailable wraps err as a transient remote failure.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// ErrNotFound marks an update that matched no row. Not transient: retrying
// cannot help.
var ErrNotFound = errors.New("remote record not found")

// IsTransient reports whether err is a retryable remote failure (including
// context timeouts surfaced by the driver).
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// SetLogInput carries the fields of a set write. Target values are advisory
// and may be nil.
type SetLogInput struct {
	SessionID      string
	ExerciseSlotID string
	ExerciseID     string
	SetNumber      int
	TargetWeight   *float64
	TargetReps     *int
	ActualWeight   float64
	ActualReps     int
	RIR            *int
}

// Store is the request/response interface to the remote system of record.
// Each call is individually atomic server-side; there are no cross-call
// transactions. Absence is always reported via the found result, never as
// an error.
type Store interface {
	// GetPlan returns a plan with its workout days (no slots).
	GetPlan(ctx context.Context, planID string) (*models.TrainingPlan, bool, error)

	// GetDay returns a day with its ordered exercise slots.
	GetDay(ctx context.Context, dayID string) (*models.WorkoutDay, bool, error)

	// GetSessionByKey looks up the session for (plan, day, week) along with
	// its logged sets.
	GetSessionByKey(ctx context.Context, planID, dayID string, week int) (*models.WorkoutSession, []models.SetLogRecord, bool, error)

	// CreateSession inserts an in_progress session for (plan, day, week).
	CreateSession(ctx context.Context, planID, dayID string, week int) (*models.WorkoutSession, error)

	// GetSessionStatus is the cheap existence/status probe used for snapshot
	// validation.
	GetSessionStatus(ctx context.Context, sessionID string) (string, bool, error)

	// UpdateSessionStatus transitions a session's status.
	UpdateSessionStatus(ctx context.Context, sessionID, status string) error

	// GetSetLog finds an existing set log by its natural key. This is the
	// idempotency check used during queue drains.
	GetSetLog(ctx context.Context, sessionID, slotID string, setNumber int) (*models.SetLogRecord, bool, error)

	// InsertSetLog creates a completed set log and returns its id.
	InsertSetLog(ctx context.Context, in SetLogInput) (string, error)

	// UpdateSetLog overwrites the actual values of an existing set log.
	UpdateSetLog(ctx context.Context, id string, in SetLogInput) error

	// AdvancePlanPointer moves the plan's current-day/current-week pointers
	// in one atomic write, marking the plan completed when asked.
	AdvancePlanPointer(ctx context.Context, planID string, nextDay, nextWeek int, completed bool) error

	// LastCompletedSetLogs returns the sets of the most recent completed
	// session for a day, keyed by "slotID-setNumber".
	LastCompletedSetLogs(ctx context.Context, dayID string) (map[string]models.PreviousSet, error)
}

// PreviousSetKey builds the lookup key for LastCompletedSetLogs results.
func PreviousSetKey(slotID string, setNumber int) string {
	return fmt.Sprintf("%s-%d", slotID, setNumber)
}
