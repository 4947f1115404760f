package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meltforce/liftlog/internal/models"
)

// GetSetLog finds a set log by its natural key (session, slot, set number).
func (db *DB) GetSetLog(ctx context.Context, sessionID, slotID string, setNumber int) (*models.SetLogRecord, bool, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, session_id, exercise_slot_id, exercise_id, set_number,
		 target_weight, target_reps, actual_weight, actual_reps, rir, completed, logged_at
		 FROM set_logs
		 WHERE session_id = $1 AND exercise_slot_id = $2 AND set_number = $3`,
		sessionID, slotID, setNumber)

	var r models.SetLogRecord
	err := row.Scan(&r.ID, &r.SessionID, &r.ExerciseSlotID, &r.ExerciseID, &r.SetNumber,
		&r.TargetWeight, &r.TargetReps, &r.ActualWeight, &r.ActualReps, &r.RIR, &r.Completed, &r.LoggedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("querying set log", err)
	}
	return &r, true, nil
}

// InsertSetLog creates a completed set log and returns its id.
func (db *DB) InsertSetLog(ctx context.Context, in SetLogInput) (string, error) {
	id := uuid.NewString()
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO set_logs (id, session_id, exercise_slot_id, exercise_id, set_number,
		 target_weight, target_reps, actual_weight, actual_reps, rir, completed, logged_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, $11)`,
		id, in.SessionID, in.ExerciseSlotID, in.ExerciseID, in.SetNumber,
		in.TargetWeight, in.TargetReps, in.ActualWeight, in.ActualReps, in.RIR, time.Now())
	if err != nil {
		return "", classify("inserting set log", err)
	}
	return id, nil
}

// UpdateSetLog overwrites the actual values of an existing set log.
// Last-write-wins: queue replay order already reflects the user's most
// recent correction.
func (db *DB) UpdateSetLog(ctx context.Context, id string, in SetLogInput) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE set_logs
		 SET actual_weight = $2, actual_reps = $3, rir = $4, completed = TRUE, logged_at = $5
		 WHERE id = $1`,
		id, in.ActualWeight, in.ActualReps, in.RIR, time.Now())
	if err != nil {
		return classify("updating set log", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set log %s: %w", id, ErrNotFound)
	}
	return nil
}

// LastCompletedSetLogs returns the sets of the most recent completed session
// for a day, keyed by "slotID-setNumber". Used for progression targets.
func (db *DB) LastCompletedSetLogs(ctx context.Context, dayID string) (map[string]models.PreviousSet, error) {
	var sessionID string
	err := db.Pool.QueryRow(ctx,
		`SELECT id FROM workout_sessions
		 WHERE day_id = $1 AND status = $2
		 ORDER BY completed_at DESC NULLS LAST
		 LIMIT 1`,
		dayID, models.SessionCompleted).Scan(&sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return map[string]models.PreviousSet{}, nil
	}
	if err != nil {
		return nil, classify("querying last completed session", err)
	}

	logs, err := db.sessionSetLogs(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	prev := make(map[string]models.PreviousSet, len(logs))
	for _, l := range logs {
		prev[PreviousSetKey(l.ExerciseSlotID, l.SetNumber)] = models.PreviousSet{
			Weight: l.ActualWeight,
			Reps:   l.ActualReps,
			RIR:    l.RIR,
		}
	}
	return prev, nil
}
