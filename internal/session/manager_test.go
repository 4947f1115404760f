package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/meltforce/liftlog/internal/connectivity"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/offline"
	"github.com/meltforce/liftlog/internal/remote/remotetest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedFake populates a plan on week 2 of 4, day 1 of 2, with two exercise
// slots: bench (3 base sets, +0.5/week -> 4 sets on week 2) and overhead
// press (2 sets flat). Total sets for the day: 6.
func seedFake() *remotetest.Fake {
	f := remotetest.New()
	f.Plans["plan-1"] = &models.TrainingPlan{
		ID:          "plan-1",
		Name:        "Hypertrophy Block",
		TotalWeeks:  4,
		CurrentWeek: 2,
		CurrentDay:  1,
		Status:      models.PlanActive,
		Days: []models.WorkoutDay{
			{ID: "day-1", PlanID: "plan-1", DayNumber: 1, Name: "Push"},
			{ID: "day-2", PlanID: "plan-1", DayNumber: 2, Name: "Pull"},
		},
	}
	f.Days["day-1"] = &models.WorkoutDay{
		ID: "day-1", PlanID: "plan-1", DayNumber: 1, Name: "Push",
		Slots: []models.ExerciseSlot{
			{ID: "slot-1", WorkoutDayID: "day-1", ExerciseID: "ex-bench", ExerciseName: "Bench Press",
				SlotOrder: 1, BaseSets: 3, SetIncrement: 0.5, RepRangeMin: 8, RepRangeMax: 12},
			{ID: "slot-2", WorkoutDayID: "day-1", ExerciseID: "ex-ohp", ExerciseName: "Overhead Press",
				SlotOrder: 2, BaseSets: 2, SetIncrement: 0, RepRangeMin: 10, RepRangeMax: 15},
		},
	}
	f.Days["day-2"] = &models.WorkoutDay{
		ID: "day-2", PlanID: "plan-1", DayNumber: 2, Name: "Pull",
		Slots: []models.ExerciseSlot{
			{ID: "slot-3", WorkoutDayID: "day-2", ExerciseID: "ex-row", ExerciseName: "Barbell Row",
				SlotOrder: 1, BaseSets: 3, SetIncrement: 0, RepRangeMin: 8, RepRangeMax: 12},
		},
	}
	return f
}

func newTestManager(t *testing.T, fake *remotetest.Fake, online bool) (*Manager, *offline.Store, *connectivity.Monitor) {
	t.Helper()
	store, err := offline.Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening offline store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	monitor := connectivity.NewMonitor(online)
	m := NewManager(fake, store, monitor, Policy{}, discardLogger())
	return m, store, monitor
}

// TestOpenBuildsRuntime verifies set counts resolve from the week number and
// targets come from the previous completed session.
func TestOpenBuildsRuntime(t *testing.T) {
	fake := seedFake()
	m, _, _ := newTestManager(t, fake, true)
	ctx := context.Background()

	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open: %v", err)
	}

	state := m.State()
	if state == nil {
		t.Fatal("no state after Open")
	}
	if state.WeekNumber != 2 || state.DayID != "day-1" {
		t.Errorf("opened day %s week %d, want day-1 week 2", state.DayID, state.WeekNumber)
	}
	if len(state.Exercises) != 2 {
		t.Fatalf("exercises = %d, want 2", len(state.Exercises))
	}
	if got := state.Exercises[0].SetsThisWeek; got != 4 {
		t.Errorf("bench sets on week 2 = %d, want 4 (ceil(3+0.5))", got)
	}
	if got := state.Exercises[1].SetsThisWeek; got != 2 {
		t.Errorf("ohp sets = %d, want 2", got)
	}
	if !state.Exercises[0].Expanded || state.Exercises[1].Expanded {
		t.Error("only the first exercise should start expanded")
	}

	p, err := m.Progress()
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if p.TotalSets != 6 || p.CompletedSets != 0 || p.CanComplete {
		t.Errorf("progress = %+v, want 6 total, 0 completed, cannot complete", p)
	}
}

// TestLogSetOnline verifies the online path: remote insert, identity
// captured, derived progress updated.
func TestLogSetOnline(t *testing.T) {
	fake := seedFake()
	m, _, _ := newTestManager(t, fake, true)
	ctx := context.Background()

	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	rir := 2
	if err := m.LogSet(ctx, 0, 0, Entry{Weight: 135, Reps: 8, RIR: &rir}); err != nil {
		t.Fatalf("LogSet: %v", err)
	}

	state := m.State()
	set := state.Exercises[0].Sets[0]
	if !set.Completed {
		t.Error("set not completed")
	}
	if set.RemoteID == "" {
		t.Error("remote id not captured after insert")
	}
	if set.ActualWeight == nil || *set.ActualWeight != 135 {
		t.Errorf("actual weight = %v, want 135", set.ActualWeight)
	}

	rec, found := fake.SetLogByKey(state.SessionID, "slot-1", 1)
	if !found {
		t.Fatal("no remote record after online log")
	}
	if *rec.ActualReps != 8 {
		t.Errorf("remote reps = %d, want 8", *rec.ActualReps)
	}

	// Correction overwrites via update, never a second insert.
	if err := m.LogSet(ctx, 0, 0, Entry{Weight: 140, Reps: 7}); err != nil {
		t.Fatalf("LogSet correction: %v", err)
	}
	if n := fake.CountByKey(state.SessionID, "slot-1", 1); n != 1 {
		t.Errorf("remote records = %d, want exactly 1 after correction", n)
	}

	p, _ := m.Progress()
	if p.CompletedSets != 1 || !p.CanComplete {
		t.Errorf("progress = %+v, want 1 completed", p)
	}
	if want := float64(1) / 6 * 100; p.Percent != want {
		t.Errorf("percent = %v, want %v", p.Percent, want)
	}
}

// TestLogSetOnlineFailureRollsBack verifies the two-phase update: a failed
// remote write reverts the local completed flag so UI and data never
// disagree.
func TestLogSetOnlineFailureRollsBack(t *testing.T) {
	fake := seedFake()
	m, _, _ := newTestManager(t, fake, true)
	ctx := context.Background()

	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open: %v", err)
	}

	fake.Fail = func(op string) error {
		if op == "InsertSetLog" {
			return errors.New("boom")
		}
		return nil
	}
	err := m.LogSet(ctx, 0, 0, Entry{Weight: 135, Reps: 8})
	if err == nil {
		t.Fatal("LogSet succeeded despite remote failure")
	}

	set := m.State().Exercises[0].Sets[0]
	if set.Completed {
		t.Error("completed flag not rolled back")
	}
	if set.ActualWeight != nil {
		t.Error("actual weight not rolled back")
	}
	count, _ := m.PendingCount(ctx)
	if count != 0 {
		t.Errorf("pending count = %d, online failures must not queue", count)
	}
}

// TestLogSetOffline verifies the optimistic offline path: local success plus
// one queued mutation, nothing written remotely.
func TestLogSetOffline(t *testing.T) {
	fake := seedFake()
	m, _, monitor := newTestManager(t, fake, true)
	ctx := context.Background()

	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	monitor.Set(false)

	rir := 2
	if err := m.LogSet(ctx, 0, 0, Entry{Weight: 135, Reps: 8, RIR: &rir}); err != nil {
		t.Fatalf("LogSet offline: %v", err)
	}

	set := m.State().Exercises[0].Sets[0]
	if !set.Completed {
		t.Error("offline set not completed locally")
	}
	count, err := m.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount: %v", err)
	}
	if count != 1 {
		t.Errorf("pending count = %d, want 1", count)
	}
	if _, found := fake.SetLogByKey(m.State().SessionID, "slot-1", 1); found {
		t.Error("offline log reached the remote")
	}
}

// TestLogSetValidation verifies out-of-range indices fail synchronously and
// are never queued.
func TestLogSetValidation(t *testing.T) {
	fake := seedFake()
	m, _, monitor := newTestManager(t, fake, true)
	ctx := context.Background()

	if err := m.LogSet(ctx, 0, 0, Entry{Weight: 1, Reps: 1}); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("LogSet without session = %v, want ErrNoActiveSession", err)
	}

	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	monitor.Set(false)

	if err := m.LogSet(ctx, 5, 0, Entry{Weight: 1, Reps: 1}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("bad exercise index = %v, want ErrIndexOutOfRange", err)
	}
	if err := m.LogSet(ctx, 0, 99, Entry{Weight: 1, Reps: 1}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("bad set index = %v, want ErrIndexOutOfRange", err)
	}
	count, _ := m.PendingCount(ctx)
	if count != 0 {
		t.Errorf("pending count = %d, validation failures must not queue", count)
	}
}

// TestSkipExercise verifies that skipping marks the remaining incomplete
// sets as zero-valued completed sets.
func TestSkipExercise(t *testing.T) {
	fake := seedFake()
	m, _, _ := newTestManager(t, fake, true)
	ctx := context.Background()

	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := m.LogSet(ctx, 0, 0, Entry{Weight: 135, Reps: 8}); err != nil {
		t.Fatalf("LogSet: %v", err)
	}

	skipped, err := m.SkipExercise(ctx, 0, 1)
	if err != nil {
		t.Fatalf("SkipExercise: %v", err)
	}
	if skipped != 3 {
		t.Errorf("skipped = %d, want 3", skipped)
	}

	ex := m.State().Exercises[0]
	for i, set := range ex.Sets {
		if !set.Completed {
			t.Errorf("set %d not completed after skip", i+1)
		}
	}
	// The logged set keeps its values; skipped sets carry zeros.
	if *ex.Sets[0].ActualWeight != 135 {
		t.Errorf("logged set weight = %v, want 135", *ex.Sets[0].ActualWeight)
	}
	for i := 1; i < len(ex.Sets); i++ {
		if *ex.Sets[i].ActualWeight != 0 || *ex.Sets[i].ActualReps != 0 {
			t.Errorf("skipped set %d carries non-zero values", i+1)
		}
	}

	p, _ := m.Progress()
	if p.CompletedSets != 4 {
		t.Errorf("completed = %d, want 4", p.CompletedSets)
	}
}

// TestSnapshotRestore verifies crash recovery: a set logged offline survives
// into a fresh manager via the snapshot, with identical actuals.
func TestSnapshotRestore(t *testing.T) {
	fake := seedFake()
	dir := t.TempDir()

	store, err := offline.Open(dir)
	if err != nil {
		t.Fatalf("opening offline store: %v", err)
	}
	monitor := connectivity.NewMonitor(true)
	m := NewManager(fake, store, monitor, Policy{}, discardLogger())
	ctx := context.Background()

	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	monitor.Set(false)
	rir := 1
	if err := m.LogSet(ctx, 0, 0, Entry{Weight: 135, Reps: 8, RIR: &rir}); err != nil {
		t.Fatalf("LogSet: %v", err)
	}
	wantProgress, _ := m.Progress()
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Simulated crash: new store handle, new manager, same directory.
	store2, err := offline.Open(dir)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer store2.Close()
	m2 := NewManager(fake, store2, connectivity.NewMonitor(true), Policy{}, discardLogger())

	if err := m2.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open after restart: %v", err)
	}

	state := m2.State()
	set := state.Exercises[0].Sets[0]
	if !set.Completed {
		t.Fatal("restored set lost its completed flag; remote has no copy")
	}
	if set.ActualWeight == nil || *set.ActualWeight != 135 || set.ActualReps == nil || *set.ActualReps != 8 {
		t.Errorf("restored actuals = %v/%v, want 135/8", set.ActualWeight, set.ActualReps)
	}
	gotProgress, _ := m2.Progress()
	if gotProgress.CompletedSets != wantProgress.CompletedSets {
		t.Errorf("restored completed = %d, want %d", gotProgress.CompletedSets, wantProgress.CompletedSets)
	}
}

// TestStaleSnapshotDeleted verifies a snapshot past the freshness window is
// never restored and is deleted during the failed restore attempt.
func TestStaleSnapshotDeleted(t *testing.T) {
	fake := seedFake()
	m, store, _ := newTestManager(t, fake, true)
	ctx := context.Background()

	stale := models.Snapshot{
		PlanID:     "plan-1",
		DayID:      "day-1",
		WeekNumber: 2,
		SessionID:  "ghost",
		SavedAt:    time.Now().Add(-5 * time.Hour),
		State: models.SessionState{
			SessionID: "ghost", PlanID: "plan-1", DayID: "day-1", WeekNumber: 2,
		},
	}
	if err := store.PutSnapshot(ctx, stale); err != nil {
		t.Fatalf("PutSnapshot: %v", err)
	}

	// Make the fresh load fail so the open cannot overwrite the key; the
	// stale snapshot must already be gone.
	fake.Fail = func(op string) error {
		if op == "GetDay" {
			return errors.New("boom")
		}
		return nil
	}
	if err := m.Open(ctx, "plan-1"); err == nil {
		t.Fatal("Open succeeded, expected fresh-load failure")
	}

	key := offline.SnapshotKey("plan-1", "day-1", 2)
	_, found, err := store.Snapshot(ctx, key)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if found {
		t.Error("stale snapshot still present after rejected restore")
	}

	// With the remote healthy again the open falls back to a fresh load.
	fake.Fail = nil
	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s := m.State(); s.SessionID == "ghost" {
		t.Error("stale snapshot was restored")
	}
}

// TestCompletedSessionSnapshotRejected verifies that a snapshot pointing at
// a remotely completed session is discarded in favor of a fresh load.
func TestCompletedSessionSnapshotRejected(t *testing.T) {
	fake := seedFake()
	m, _, monitor := newTestManager(t, fake, true)
	ctx := context.Background()

	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	sessionID := m.State().SessionID

	// A set logged offline exists only in the snapshot, not remotely.
	monitor.Set(false)
	if err := m.LogSet(ctx, 0, 0, Entry{Weight: 135, Reps: 8}); err != nil {
		t.Fatalf("LogSet: %v", err)
	}
	m.Reset()
	monitor.Set(true)

	// The session completes elsewhere (another device) while our snapshot
	// still exists.
	if err := fake.UpdateSessionStatus(ctx, sessionID, models.SessionCompleted); err != nil {
		t.Fatalf("UpdateSessionStatus: %v", err)
	}

	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	// A restored snapshot would carry the offline set as completed; the
	// fresh remote load does not.
	if m.State().Exercises[0].Sets[0].Completed {
		t.Error("snapshot of a completed session was restored")
	}
}

// TestCompleteWorkoutAdvancesPointer verifies day advance, week wrap, and
// plan completion.
func TestCompleteWorkoutAdvancesPointer(t *testing.T) {
	fake := seedFake()
	m, store, _ := newTestManager(t, fake, true)
	ctx := context.Background()

	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := m.LogSet(ctx, 0, 0, Entry{Weight: 135, Reps: 8}); err != nil {
		t.Fatalf("LogSet: %v", err)
	}
	if err := m.CompleteWorkout(ctx); err != nil {
		t.Fatalf("CompleteWorkout: %v", err)
	}

	if m.State() != nil {
		t.Error("state not cleared after completion")
	}
	plan := fake.Plans["plan-1"]
	if plan.CurrentDay != 2 || plan.CurrentWeek != 2 {
		t.Errorf("pointer = day %d week %d, want day 2 week 2", plan.CurrentDay, plan.CurrentWeek)
	}

	key := offline.SnapshotKey("plan-1", "day-1", 2)
	if _, found, _ := store.Snapshot(ctx, key); found {
		t.Error("snapshot not invalidated on completion")
	}

	// Completing the last day of the last week closes the plan.
	plan.CurrentDay = 2
	plan.CurrentWeek = 4
	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open day 2: %v", err)
	}
	if err := m.CompleteWorkout(ctx); err != nil {
		t.Fatalf("CompleteWorkout: %v", err)
	}
	if plan.Status != models.PlanCompleted {
		t.Errorf("plan status = %s, want completed", plan.Status)
	}
	if plan.CurrentWeek != 5 || plan.CurrentDay != 1 {
		t.Errorf("pointer = day %d week %d, want day 1 week 5", plan.CurrentDay, plan.CurrentWeek)
	}
}

// TestCompleteWorkoutOfflineRejected verifies completion requires the
// remote.
func TestCompleteWorkoutOfflineRejected(t *testing.T) {
	fake := seedFake()
	m, _, monitor := newTestManager(t, fake, true)
	ctx := context.Background()

	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	monitor.Set(false)
	if err := m.CompleteWorkout(ctx); !errors.Is(err, ErrOfflineCompletion) {
		t.Errorf("CompleteWorkout offline = %v, want ErrOfflineCompletion", err)
	}
}

// TestUncompleteWorkout verifies reopening the most recent completed
// session rewinds the plan pointer.
func TestUncompleteWorkout(t *testing.T) {
	fake := seedFake()
	m, _, _ := newTestManager(t, fake, true)
	ctx := context.Background()

	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	sessionID := m.State().SessionID
	if err := m.LogSet(ctx, 0, 0, Entry{Weight: 135, Reps: 8}); err != nil {
		t.Fatalf("LogSet: %v", err)
	}
	if err := m.CompleteWorkout(ctx); err != nil {
		t.Fatalf("CompleteWorkout: %v", err)
	}

	if err := m.UncompleteWorkout(ctx, "plan-1"); err != nil {
		t.Fatalf("UncompleteWorkout: %v", err)
	}

	plan := fake.Plans["plan-1"]
	if plan.CurrentDay != 1 || plan.CurrentWeek != 2 {
		t.Errorf("pointer = day %d week %d, want rewound to day 1 week 2", plan.CurrentDay, plan.CurrentWeek)
	}
	if fake.Sessions[sessionID].Status != models.SessionInProgress {
		t.Errorf("session status = %s, want in_progress", fake.Sessions[sessionID].Status)
	}
	state := m.State()
	if state == nil || state.SessionID != sessionID {
		t.Error("reopened session not loaded")
	}
	if !state.Exercises[0].Sets[0].Completed {
		t.Error("previously logged set lost on reopen")
	}
}

// TestOpenOfflineFromDownload verifies the downloaded-day fallback mints a
// local session when the remote is unreachable.
func TestOpenOfflineFromDownload(t *testing.T) {
	fake := seedFake()
	m, _, monitor := newTestManager(t, fake, true)
	ctx := context.Background()

	if err := m.DownloadDay(ctx, "day-1", "plan-1"); err != nil {
		t.Fatalf("DownloadDay: %v", err)
	}
	downloaded, err := m.IsDownloaded(ctx, "day-1")
	if err != nil || !downloaded {
		t.Fatalf("IsDownloaded = %v, %v, want true", downloaded, err)
	}

	monitor.Set(false)
	fake.Fail = remotetest.Offline()

	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open offline: %v", err)
	}
	state := m.State()
	if !state.LocalOnly {
		t.Error("offline session not marked local-only")
	}
	if state.SessionID == "" {
		t.Error("offline session has no identity")
	}
	if len(state.Exercises) != 2 || state.Exercises[0].SetsThisWeek != 4 {
		t.Errorf("offline runtime = %d exercises, bench sets %d; want 2 and 4",
			len(state.Exercises), state.Exercises[0].SetsThisWeek)
	}

	if err := m.LogSet(ctx, 0, 0, Entry{Weight: 135, Reps: 8}); err != nil {
		t.Fatalf("LogSet offline: %v", err)
	}
	count, _ := m.PendingCount(ctx)
	if count != 1 {
		t.Errorf("pending count = %d, want 1", count)
	}
}

// TestOnlineLogResolvesOfflineSession verifies that once connectivity
// returns, the first online log swaps the locally minted session identity
// for a real remote row and writes the set against it.
func TestOnlineLogResolvesOfflineSession(t *testing.T) {
	fake := seedFake()
	m, _, monitor := newTestManager(t, fake, true)
	ctx := context.Background()

	if err := m.DownloadDay(ctx, "day-1", "plan-1"); err != nil {
		t.Fatalf("DownloadDay: %v", err)
	}
	monitor.Set(false)
	fake.Fail = remotetest.Offline()
	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open offline: %v", err)
	}
	localID := m.State().SessionID

	fake.Fail = nil
	monitor.Set(true)
	if err := m.LogSet(ctx, 0, 0, Entry{Weight: 140, Reps: 9}); err != nil {
		t.Fatalf("LogSet after reconnect: %v", err)
	}

	state := m.State()
	if state.LocalOnly {
		t.Error("session still marked local-only after an online write")
	}
	if state.SessionID == localID {
		t.Error("session identity not swapped for the remote row")
	}
	if _, ok := fake.Sessions[state.SessionID]; !ok {
		t.Fatal("no remote session row for the resolved identity")
	}
	rec, found := fake.SetLogByKey(state.SessionID, "slot-1", 1)
	if !found {
		t.Fatal("set not written against the resolved session")
	}
	if *rec.ActualWeight != 140 {
		t.Errorf("remote weight = %v, want 140", *rec.ActualWeight)
	}
}

// TestCompleteWorkoutAfterOfflineOpen verifies a workout opened with no
// connectivity can be completed after reconnecting: the remote session row
// is created on demand and the plan pointer advances.
func TestCompleteWorkoutAfterOfflineOpen(t *testing.T) {
	fake := seedFake()
	m, _, monitor := newTestManager(t, fake, true)
	ctx := context.Background()

	if err := m.DownloadDay(ctx, "day-1", "plan-1"); err != nil {
		t.Fatalf("DownloadDay: %v", err)
	}
	monitor.Set(false)
	fake.Fail = remotetest.Offline()
	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open offline: %v", err)
	}
	localID := m.State().SessionID
	if err := m.LogSet(ctx, 0, 0, Entry{Weight: 135, Reps: 8}); err != nil {
		t.Fatalf("LogSet offline: %v", err)
	}

	fake.Fail = nil
	monitor.Set(true)
	if err := m.CompleteWorkout(ctx); err != nil {
		t.Fatalf("CompleteWorkout after reconnect: %v", err)
	}

	var completed *models.WorkoutSession
	for _, s := range fake.Sessions {
		if s.PlanID == "plan-1" && s.DayID == "day-1" && s.WeekNumber == 2 {
			completed = s
		}
	}
	if completed == nil {
		t.Fatal("no remote session row created for the offline workout")
	}
	if completed.ID == localID {
		t.Error("remote session carries the locally minted id")
	}
	if completed.Status != models.SessionCompleted {
		t.Errorf("session status = %s, want completed", completed.Status)
	}
	plan := fake.Plans["plan-1"]
	if plan.CurrentDay != 2 || plan.CurrentWeek != 2 {
		t.Errorf("pointer = day %d week %d, want day 2 week 2", plan.CurrentDay, plan.CurrentWeek)
	}
}

// TestOpenOfflinePrefersLatestDownload verifies that with several downloaded
// days of one plan, the offline open picks the most recently downloaded one.
func TestOpenOfflinePrefersLatestDownload(t *testing.T) {
	fake := seedFake()
	m, store, monitor := newTestManager(t, fake, true)
	ctx := context.Background()
	now := time.Now()

	if err := store.SaveDay(ctx, models.DayBundle{
		Day: *fake.Days["day-1"], PlanID: "plan-1", WeekNumber: 2,
		DownloadedAt: now.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("SaveDay day-1: %v", err)
	}
	if err := store.SaveDay(ctx, models.DayBundle{
		Day: *fake.Days["day-2"], PlanID: "plan-1", WeekNumber: 2,
		DownloadedAt: now,
	}); err != nil {
		t.Fatalf("SaveDay day-2: %v", err)
	}

	monitor.Set(false)
	fake.Fail = remotetest.Offline()
	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open offline: %v", err)
	}
	if got := m.State().DayID; got != "day-2" {
		t.Errorf("opened day %s, want the most recently downloaded (day-2)", got)
	}
}

// TestDegradedModeWithoutLocalStore verifies the engine keeps working with
// no local store at all: logging succeeds in memory, nothing is queued.
func TestDegradedModeWithoutLocalStore(t *testing.T) {
	fake := seedFake()
	monitor := connectivity.NewMonitor(true)
	m := NewManager(fake, nil, monitor, Policy{}, discardLogger())
	ctx := context.Background()

	if err := m.Open(ctx, "plan-1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	monitor.Set(false)
	if err := m.LogSet(ctx, 0, 0, Entry{Weight: 135, Reps: 8}); err != nil {
		t.Fatalf("LogSet degraded: %v", err)
	}
	if !m.State().Exercises[0].Sets[0].Completed {
		t.Error("set not completed in degraded mode")
	}
	count, err := m.PendingCount(ctx)
	if err != nil || count != 0 {
		t.Errorf("PendingCount = %d, %v, want 0 with no store", count, err)
	}
}
