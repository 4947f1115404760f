package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meltforce/liftlog/internal/models"
)

// GetPlan retrieves a training plan and its workout days.
func (db *DB) GetPlan(ctx context.Context, planID string) (*models.TrainingPlan, bool, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, name, total_weeks, current_week, current_day, status
		 FROM training_plans
		 WHERE id = $1`,
		planID)

	var p models.TrainingPlan
	err := row.Scan(&p.ID, &p.Name, &p.TotalWeeks, &p.CurrentWeek, &p.CurrentDay, &p.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("querying plan", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT id, plan_id, day_number, name
		 FROM workout_days
		 WHERE plan_id = $1
		 ORDER BY day_number ASC`,
		planID)
	if err != nil {
		return nil, false, classify("querying plan days", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d models.WorkoutDay
		if err := rows.Scan(&d.ID, &d.PlanID, &d.DayNumber, &d.Name); err != nil {
			return nil, false, classify("scanning plan day", err)
		}
		p.Days = append(p.Days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, false, classify("reading plan days", err)
	}
	return &p, true, nil
}

// GetDay retrieves a workout day with its ordered exercise slots.
func (db *DB) GetDay(ctx context.Context, dayID string) (*models.WorkoutDay, bool, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, plan_id, day_number, name
		 FROM workout_days
		 WHERE id = $1`,
		dayID)

	var d models.WorkoutDay
	err := row.Scan(&d.ID, &d.PlanID, &d.DayNumber, &d.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("querying day", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT id, workout_day_id, exercise_id, exercise_name, slot_order,
		 base_sets, set_increment, rep_range_min, rep_range_max
		 FROM exercise_slots
		 WHERE workout_day_id = $1
		 ORDER BY slot_order ASC`,
		dayID)
	if err != nil {
		return nil, false, classify("querying slots", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.ExerciseSlot
		if err := rows.Scan(&s.ID, &s.WorkoutDayID, &s.ExerciseID, &s.ExerciseName, &s.SlotOrder,
			&s.BaseSets, &s.SetIncrement, &s.RepRangeMin, &s.RepRangeMax); err != nil {
			return nil, false, classify("scanning slot", err)
		}
		d.Slots = append(d.Slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, false, classify("reading slots", err)
	}
	return &d, true, nil
}

// AdvancePlanPointer moves the current-day/current-week pointers in a single
// atomic update. When completed is set the plan is closed out in the same
// statement, so a retried completion cannot observe a half-advanced plan.
func (db *DB) AdvancePlanPointer(ctx context.Context, planID string, nextDay, nextWeek int, completed bool) error {
	var tag pgconn.CommandTag
	var err error
	if completed {
		tag, err = db.Pool.Exec(ctx,
			`UPDATE training_plans
			 SET current_day = $2, current_week = $3, status = $4, completed_at = $5
			 WHERE id = $1`,
			planID, nextDay, nextWeek, models.PlanCompleted, time.Now())
	} else {
		tag, err = db.Pool.Exec(ctx,
			`UPDATE training_plans
			 SET current_day = $2, current_week = $3
			 WHERE id = $1`,
			planID, nextDay, nextWeek)
	}
	if err != nil {
		return classify("advancing plan pointer", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	return nil
}
