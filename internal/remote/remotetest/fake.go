// Package remotetest provides an in-memory Store for tests, with per-call
// failure injection to exercise offline and rollback paths.
package remotetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/remote"
)

// Fake is an in-memory remote.Store. Zero value is not usable; call New.
type Fake struct {
	mu sync.Mutex

	Plans    map[string]*models.TrainingPlan
	Days     map[string]*models.WorkoutDay
	Sessions map[string]*models.WorkoutSession
	SetLogs  map[string]*models.SetLogRecord // by id

	// Fail, when non-nil, is consulted before every call with the operation
	// name (e.g. "GetSetLog"); a non-nil return fails the call.
	Fail func(op string) error

	nextID int
}

var _ remote.Store = (*Fake)(nil)

// New creates an empty fake store.
func New() *Fake {
	return &Fake{
		Plans:    map[string]*models.TrainingPlan{},
		Days:     map[string]*models.WorkoutDay{},
		Sessions: map[string]*models.WorkoutSession{},
		SetLogs:  map[string]*models.SetLogRecord{},
	}
}

// Offline makes every call fail as transiently unavailable.
func Offline() func(op string) error {
	return func(op string) error {
		return remote.Unavailable(op, errors.New("network down"))
	}
}

func (f *Fake) fail(op string) error {
	if f.Fail == nil {
		return nil
	}
	return f.Fail(op)
}

func (f *Fake) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *Fake) GetPlan(ctx context.Context, planID string) (*models.TrainingPlan, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetPlan"); err != nil {
		return nil, false, err
	}
	p, ok := f.Plans[planID]
	if !ok {
		return nil, false, nil
	}
	cp := *p
	cp.Days = append([]models.WorkoutDay(nil), p.Days...)
	return &cp, true, nil
}

func (f *Fake) GetDay(ctx context.Context, dayID string) (*models.WorkoutDay, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetDay"); err != nil {
		return nil, false, err
	}
	d, ok := f.Days[dayID]
	if !ok {
		return nil, false, nil
	}
	cp := *d
	cp.Slots = append([]models.ExerciseSlot(nil), d.Slots...)
	return &cp, true, nil
}

func (f *Fake) GetSessionByKey(ctx context.Context, planID, dayID string, week int) (*models.WorkoutSession, []models.SetLogRecord, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetSessionByKey"); err != nil {
		return nil, nil, false, err
	}
	for _, s := range f.Sessions {
		if s.PlanID == planID && s.DayID == dayID && s.WeekNumber == week {
			var logs []models.SetLogRecord
			for _, l := range f.SetLogs {
				if l.SessionID == s.ID {
					logs = append(logs, *l)
				}
			}
			cp := *s
			return &cp, logs, true, nil
		}
	}
	return nil, nil, false, nil
}

func (f *Fake) CreateSession(ctx context.Context, planID, dayID string, week int) (*models.WorkoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateSession"); err != nil {
		return nil, err
	}
	s := &models.WorkoutSession{
		ID:         f.id("sess"),
		PlanID:     planID,
		DayID:      dayID,
		WeekNumber: week,
		Status:     models.SessionInProgress,
		StartedAt:  time.Now(),
	}
	f.Sessions[s.ID] = s
	cp := *s
	return &cp, nil
}

func (f *Fake) GetSessionStatus(ctx context.Context, sessionID string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetSessionStatus"); err != nil {
		return "", false, err
	}
	s, ok := f.Sessions[sessionID]
	if !ok {
		return "", false, nil
	}
	return s.Status, true, nil
}

func (f *Fake) UpdateSessionStatus(ctx context.Context, sessionID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpdateSessionStatus"); err != nil {
		return err
	}
	s, ok := f.Sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, remote.ErrNotFound)
	}
	s.Status = status
	return nil
}

func (f *Fake) GetSetLog(ctx context.Context, sessionID, slotID string, setNumber int) (*models.SetLogRecord, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetSetLog"); err != nil {
		return nil, false, err
	}
	for _, l := range f.SetLogs {
		if l.SessionID == sessionID && l.ExerciseSlotID == slotID && l.SetNumber == setNumber {
			cp := *l
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

func (f *Fake) InsertSetLog(ctx context.Context, in remote.SetLogInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("InsertSetLog"); err != nil {
		return "", err
	}
	weight := in.ActualWeight
	reps := in.ActualReps
	rec := &models.SetLogRecord{
		ID:             f.id("log"),
		SessionID:      in.SessionID,
		ExerciseSlotID: in.ExerciseSlotID,
		ExerciseID:     in.ExerciseID,
		SetNumber:      in.SetNumber,
		TargetWeight:   in.TargetWeight,
		TargetReps:     in.TargetReps,
		ActualWeight:   &weight,
		ActualReps:     &reps,
		RIR:            in.RIR,
		Completed:      true,
		LoggedAt:       time.Now(),
	}
	f.SetLogs[rec.ID] = rec
	return rec.ID, nil
}

func (f *Fake) UpdateSetLog(ctx context.Context, id string, in remote.SetLogInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpdateSetLog"); err != nil {
		return err
	}
	rec, ok := f.SetLogs[id]
	if !ok {
		return fmt.Errorf("set log %s: %w", id, remote.ErrNotFound)
	}
	weight := in.ActualWeight
	reps := in.ActualReps
	rec.ActualWeight = &weight
	rec.ActualReps = &reps
	rec.RIR = in.RIR
	rec.Completed = true
	rec.LoggedAt = time.Now()
	return nil
}

func (f *Fake) AdvancePlanPointer(ctx context.Context, planID string, nextDay, nextWeek int, completed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("AdvancePlanPointer"); err != nil {
		return err
	}
	p, ok := f.Plans[planID]
	if !ok {
		return fmt.Errorf("plan %s: %w", planID, remote.ErrNotFound)
	}
	p.CurrentDay = nextDay
	p.CurrentWeek = nextWeek
	if completed {
		p.Status = models.PlanCompleted
	}
	return nil
}

func (f *Fake) LastCompletedSetLogs(ctx context.Context, dayID string) (map[string]models.PreviousSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("LastCompletedSetLogs"); err != nil {
		return nil, err
	}
	var latest *models.WorkoutSession
	for _, s := range f.Sessions {
		if s.DayID == dayID && s.Status == models.SessionCompleted {
			if latest == nil || (s.CompletedAt != nil && latest.CompletedAt != nil && s.CompletedAt.After(*latest.CompletedAt)) {
				latest = s
			}
		}
	}
	prev := map[string]models.PreviousSet{}
	if latest == nil {
		return prev, nil
	}
	for _, l := range f.SetLogs {
		if l.SessionID == latest.ID {
			prev[remote.PreviousSetKey(l.ExerciseSlotID, l.SetNumber)] = models.PreviousSet{
				Weight: l.ActualWeight,
				Reps:   l.ActualReps,
				RIR:    l.RIR,
			}
		}
	}
	return prev, nil
}

// SetLogByKey is a test helper returning the record for a natural key.
func (f *Fake) SetLogByKey(sessionID, slotID string, setNumber int) (*models.SetLogRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.SetLogs {
		if l.SessionID == sessionID && l.ExerciseSlotID == slotID && l.SetNumber == setNumber {
			cp := *l
			return &cp, true
		}
	}
	return nil, false
}

// CountByKey is a test helper counting remote records for a natural key.
func (f *Fake) CountByKey(sessionID, slotID string, setNumber int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.SetLogs {
		if l.SessionID == sessionID && l.ExerciseSlotID == slotID && l.SetNumber == setNumber {
			n++
		}
	}
	return n
}
