package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meltforce/liftlog/internal/models"
)

// GetSessionByKey looks up the session for (plan, day, week) and its logged
// sets.
func (db *DB) GetSessionByKey(ctx context.Context, planID, dayID string, week int) (*models.WorkoutSession, []models.SetLogRecord, bool, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, plan_id, day_id, week_number, status, started_at, completed_at
		 FROM workout_sessions
		 WHERE plan_id = $1 AND day_id = $2 AND week_number = $3`,
		planID, dayID, week)

	var s models.WorkoutSession
	err := row.Scan(&s.ID, &s.PlanID, &s.DayID, &s.WeekNumber, &s.Status, &s.StartedAt, &s.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, classify("querying session", err)
	}

	logs, err := db.sessionSetLogs(ctx, s.ID)
	if err != nil {
		return nil, nil, false, err
	}
	return &s, logs, true, nil
}

// CreateSession inserts a new in_progress session.
func (db *DB) CreateSession(ctx context.Context, planID, dayID string, week int) (*models.WorkoutSession, error) {
	s := models.WorkoutSession{
		ID:         uuid.NewString(),
		PlanID:     planID,
		DayID:      dayID,
		WeekNumber: week,
		Status:     models.SessionInProgress,
		StartedAt:  time.Now(),
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO workout_sessions (id, plan_id, day_id, week_number, status, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.PlanID, s.DayID, s.WeekNumber, s.Status, s.StartedAt)
	if err != nil {
		return nil, classify("creating session", err)
	}
	return &s, nil
}

// GetSessionStatus probes a session's status without fetching its sets.
func (db *DB) GetSessionStatus(ctx context.Context, sessionID string) (string, bool, error) {
	var status string
	err := db.Pool.QueryRow(ctx,
		`SELECT status FROM workout_sessions WHERE id = $1`, sessionID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, classify("querying session status", err)
	}
	return status, true, nil
}

// UpdateSessionStatus transitions a session. Completion stamps completed_at;
// any other transition clears it.
func (db *DB) UpdateSessionStatus(ctx context.Context, sessionID, status string) error {
	var tag pgconn.CommandTag
	var err error
	if status == models.SessionCompleted {
		tag, err = db.Pool.Exec(ctx,
			`UPDATE workout_sessions SET status = $2, completed_at = $3 WHERE id = $1`,
			sessionID, status, time.Now())
	} else {
		tag, err = db.Pool.Exec(ctx,
			`UPDATE workout_sessions SET status = $2, completed_at = NULL WHERE id = $1`,
			sessionID, status)
	}
	if err != nil {
		return classify("updating session status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return nil
}

func (db *DB) sessionSetLogs(ctx context.Context, sessionID string) ([]models.SetLogRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, session_id, exercise_slot_id, exercise_id, set_number,
		 target_weight, target_reps, actual_weight, actual_reps, rir, completed, logged_at
		 FROM set_logs
		 WHERE session_id = $1
		 ORDER BY exercise_slot_id ASC, set_number ASC`,
		sessionID)
	if err != nil {
		return nil, classify("querying set logs", err)
	}
	defer rows.Close()

	var result []models.SetLogRecord
	for rows.Next() {
		var r models.SetLogRecord
		if err := rows.Scan(&r.ID, &r.SessionID, &r.ExerciseSlotID, &r.ExerciseID, &r.SetNumber,
			&r.TargetWeight, &r.TargetReps, &r.ActualWeight, &r.ActualReps, &r.RIR, &r.Completed, &r.LoggedAt); err != nil {
			return nil, classify("scanning set log", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
