package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/liftlog/internal/connectivity"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/offline"
	"github.com/meltforce/liftlog/internal/progression"
	"github.com/meltforce/liftlog/internal/remote"
)

// Validation failures returned synchronously to callers. These are never
// queued and never retried.
var (
	ErrNoActiveSession   = errors.New("no active workout session")
	ErrPlanNotFound      = errors.New("training plan not found")
	ErrDayNotFound       = errors.New("workout day not found")
	ErrIndexOutOfRange   = errors.New("exercise or set index out of range")
	ErrOfflineCompletion = errors.New("cannot complete workout while offline")
	ErrNotCompleted      = errors.New("session is not completed")
)

// DefaultSnapshotTTL bounds how old a snapshot may be and still be restored.
// Older snapshots are more likely to describe a plan that has since changed.
const DefaultSnapshotTTL = 4 * time.Hour

// Policy carries the tunable values of the session engine.
type Policy struct {
	SnapshotTTL time.Duration
}

// Entry is the user input for one logged set.
type Entry struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
	RIR    *int    `json:"rir"`
}

// Manager owns the live in-memory session and drives the per-set state
// machine. It is the only writer of SetRuntime.Completed. The local store
// handle may be nil, in which case the engine runs in a degraded in-memory
// mode: sets still log, but nothing survives a crash and offline logging is
// lost on restart.
type Manager struct {
	remote  remote.Store
	local   *offline.Store
	queue   *offline.Queue
	monitor *connectivity.Monitor
	policy  Policy
	log     *slog.Logger

	mu    sync.Mutex
	plan  *models.TrainingPlan
	state *models.SessionState
}

// NewManager wires a session manager. local may be nil for in-memory mode.
func NewManager(rs remote.Store, local *offline.Store, monitor *connectivity.Monitor, policy Policy, log *slog.Logger) *Manager {
	if policy.SnapshotTTL <= 0 {
		policy.SnapshotTTL = DefaultSnapshotTTL
	}
	m := &Manager{
		remote:  rs,
		local:   local,
		monitor: monitor,
		policy:  policy,
		log:     log,
	}
	if local != nil {
		m.queue = offline.NewQueue(local)
	}
	return m
}

// Queue exposes the pending-set queue, for the synchronization coordinator.
// Nil in degraded mode.
func (m *Manager) Queue() *offline.Queue {
	return m.queue
}

// State returns a deep copy of the live session, or nil when no workout is
// open.
func (m *Manager) State() *models.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyState(m.state)
}

// Progress recomputes the derived completion view.
func (m *Manager) Progress() (models.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return models.Progress{}, ErrNoActiveSession
	}
	return m.state.Progress(), nil
}

// PendingCount reports how many sets are waiting to sync. Zero in degraded
// mode, since nothing can be queued without a local store.
func (m *Manager) PendingCount(ctx context.Context) (int, error) {
	if m.queue == nil {
		return 0, nil
	}
	return m.queue.Count(ctx)
}

// Reset drops the live session from memory without touching remote or local
// state. Used when the user abandons a workout or navigates to another day.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	m.plan = nil
}

// Open loads the workout for a plan's current day and week. A valid local
// snapshot wins over a remote load; with the remote unreachable the engine
// falls back to a previously downloaded day.
func (m *Manager) Open(ctx context.Context, planID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	plan, found, err := m.remote.GetPlan(ctx, planID)
	if err != nil {
		if remote.IsTransient(err) {
			m.log.Warn("remote unreachable, opening from offline data", "plan", planID, "error", err)
			return m.openOffline(ctx, planID)
		}
		return fmt.Errorf("loading plan: %w", err)
	}
	if !found {
		return ErrPlanNotFound
	}

	day, ok := currentDay(plan)
	if !ok {
		return fmt.Errorf("plan %s day %d: %w", planID, plan.CurrentDay, ErrDayNotFound)
	}

	if state, ok := m.restoreSnapshot(ctx, planID, day.ID, plan.CurrentWeek); ok {
		m.plan = plan
		m.state = state
		m.log.Info("session restored from snapshot",
			"session", state.SessionID, "day", day.ID, "week", plan.CurrentWeek)
		return nil
	}

	state, err := m.loadFresh(ctx, plan, day.ID)
	if err != nil {
		return err
	}
	m.plan = plan
	m.state = state
	m.persistSnapshot(ctx)
	return nil
}

// openOffline builds a session from a downloaded day bundle. Caller holds
// the lock.
func (m *Manager) openOffline(ctx context.Context, planID string) error {
	if m.local == nil {
		return remote.Unavailable("opening workout", errors.New("no offline data available"))
	}

	bundle, ok, err := m.bundleForPlan(ctx, planID)
	if err != nil {
		return err
	}
	if !ok {
		return remote.Unavailable("opening workout", errors.New("day not downloaded"))
	}

	if state, ok := m.restoreSnapshot(ctx, planID, bundle.Day.ID, bundle.WeekNumber); ok {
		m.state = state
		m.plan = nil
		m.log.Info("session restored from snapshot while offline", "session", state.SessionID)
		return nil
	}

	// No remote session exists yet; mint a local identity. The queue carries
	// it until the coordinator reconciles.
	state := buildState(models.WorkoutSession{
		ID:         uuid.NewString(),
		PlanID:     planID,
		DayID:      bundle.Day.ID,
		WeekNumber: bundle.WeekNumber,
		Status:     models.SessionInProgress,
		StartedAt:  time.Now(),
	}, bundle.Day, bundle.WeekNumber, nil, bundle.PreviousSets)
	state.LocalOnly = true

	m.state = state
	m.plan = nil
	m.persistSnapshot(ctx)
	m.log.Info("offline session started", "session", state.SessionID, "day", bundle.Day.ID)
	return nil
}

func (m *Manager) bundleForPlan(ctx context.Context, planID string) (models.DayBundle, bool, error) {
	ids, err := m.local.DownloadedDayIDs(ctx)
	if err != nil {
		return models.DayBundle{}, false, fmt.Errorf("listing downloads: %w", err)
	}
	var best models.DayBundle
	found := false
	for _, id := range ids {
		bundle, ok, err := m.local.Day(ctx, id)
		if err != nil {
			return models.DayBundle{}, false, err
		}
		if !ok || bundle.PlanID != planID {
			continue
		}
		// Several downloaded days can belong to one plan; the most recent
		// download best reflects where the user left the plan pointer.
		if !found || bundle.DownloadedAt.After(best.DownloadedAt) {
			best = bundle
			found = true
		}
	}
	return best, found, nil
}

// ensureRemoteSession resolves a session minted offline to its remote row,
// creating one when absent. The queue drain performs the same resolution
// independently; whichever side reaches the remote first creates the row and
// the other finds it by (plan, day, week). Caller holds the lock.
func (m *Manager) ensureRemoteSession(ctx context.Context) error {
	if m.state == nil || !m.state.LocalOnly {
		return nil
	}
	sess, _, found, err := m.remote.GetSessionByKey(ctx, m.state.PlanID, m.state.DayID, m.state.WeekNumber)
	if err != nil {
		return fmt.Errorf("resolving session: %w", err)
	}
	if !found {
		sess, err = m.remote.CreateSession(ctx, m.state.PlanID, m.state.DayID, m.state.WeekNumber)
		if err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
	}
	m.log.Info("offline session resolved to remote record",
		"local", m.state.SessionID, "remote", sess.ID)
	m.state.SessionID = sess.ID
	m.state.LocalOnly = false
	m.persistSnapshot(ctx)
	return nil
}

// loadFresh fetches day, session, and previous-session targets from the
// remote and builds the runtime state. Caller holds the lock.
func (m *Manager) loadFresh(ctx context.Context, plan *models.TrainingPlan, dayID string) (*models.SessionState, error) {
	day, found, err := m.remote.GetDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("loading day: %w", err)
	}
	if !found {
		return nil, ErrDayNotFound
	}

	sess, logs, found, err := m.remote.GetSessionByKey(ctx, plan.ID, dayID, plan.CurrentWeek)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if found {
		if sess.Status == models.SessionScheduled {
			if err := m.remote.UpdateSessionStatus(ctx, sess.ID, models.SessionInProgress); err != nil {
				return nil, fmt.Errorf("starting session: %w", err)
			}
			sess.Status = models.SessionInProgress
		}
	} else {
		sess, err = m.remote.CreateSession(ctx, plan.ID, dayID, plan.CurrentWeek)
		if err != nil {
			return nil, fmt.Errorf("creating session: %w", err)
		}
		logs = nil
	}

	prev, err := m.remote.LastCompletedSetLogs(ctx, dayID)
	if err != nil {
		// Targets are advisory; a failed history fetch must not block the
		// workout.
		m.log.Warn("previous session fetch failed", "day", dayID, "error", err)
		prev = nil
	}

	return buildState(*sess, *day, plan.CurrentWeek, logs, prev), nil
}

// LogSet records the actual values for one set and flips it to completed.
// Offline, the write is queued and the call still succeeds; the user is
// never blocked from logging by connectivity. Online, a failed remote write
// rolls the local flip back and returns the failure. Logging an
// already-completed set overwrites it.
func (m *Manager) LogSet(ctx context.Context, exerciseIndex, setIndex int, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logSetLocked(ctx, exerciseIndex, setIndex, entry)
}

func (m *Manager) logSetLocked(ctx context.Context, exerciseIndex, setIndex int, entry Entry) error {
	if m.state == nil {
		return ErrNoActiveSession
	}
	if exerciseIndex < 0 || exerciseIndex >= len(m.state.Exercises) {
		return fmt.Errorf("exercise %d: %w", exerciseIndex, ErrIndexOutOfRange)
	}
	ex := &m.state.Exercises[exerciseIndex]
	if setIndex < 0 || setIndex >= len(ex.Sets) {
		return fmt.Errorf("set %d: %w", setIndex, ErrIndexOutOfRange)
	}
	set := &ex.Sets[setIndex]

	// Two-phase update: apply locally, attempt remote, revert on failure.
	before := *set
	weight := entry.Weight
	reps := entry.Reps
	set.ActualWeight = &weight
	set.ActualReps = &reps
	set.RIR = entry.RIR
	set.Completed = true

	if m.monitor != nil && !m.monitor.Online() {
		m.enqueueSet(ctx, ex, set, entry)
		m.persistSnapshot(ctx)
		return nil
	}

	if err := m.ensureRemoteSession(ctx); err != nil {
		*set = before
		return fmt.Errorf("saving set: %w", err)
	}

	in := remote.SetLogInput{
		SessionID:      m.state.SessionID,
		ExerciseSlotID: ex.Slot.ID,
		ExerciseID:     ex.Slot.ExerciseID,
		SetNumber:      set.SetNumber,
		TargetWeight:   set.TargetWeight,
		TargetReps:     &set.TargetReps,
		ActualWeight:   entry.Weight,
		ActualReps:     entry.Reps,
		RIR:            entry.RIR,
	}

	var err error
	if set.RemoteID != "" {
		err = m.remote.UpdateSetLog(ctx, set.RemoteID, in)
	} else {
		var id string
		id, err = m.remote.InsertSetLog(ctx, in)
		if err == nil {
			set.RemoteID = id
		}
	}
	if err != nil {
		*set = before
		return fmt.Errorf("saving set: %w", err)
	}

	m.persistSnapshot(ctx)
	return nil
}

// enqueueSet stages an offline set log. Storage trouble degrades to
// in-memory only; losing queue durability is degraded service, not a reason
// to reject the set.
func (m *Manager) enqueueSet(ctx context.Context, ex *models.ExerciseRuntime, set *models.SetRuntime, entry Entry) {
	if m.queue == nil {
		m.log.Warn("offline set not queued: local store unavailable",
			"session", m.state.SessionID, "set", set.SetNumber)
		return
	}
	p := models.PendingSetLog{
		MutationID:     uuid.NewString(),
		SessionID:      m.state.SessionID,
		PlanID:         m.state.PlanID,
		DayID:          m.state.DayID,
		WeekNumber:     m.state.WeekNumber,
		ExerciseSlotID: ex.Slot.ID,
		ExerciseID:     ex.Slot.ExerciseID,
		SetNumber:      set.SetNumber,
		Weight:         entry.Weight,
		Reps:           entry.Reps,
		RIR:            entry.RIR,
		LocalSession:   m.state.LocalOnly,
		CreatedAt:      time.Now(),
	}
	if err := m.queue.Enqueue(ctx, p); err != nil {
		m.log.Warn("queueing offline set failed, continuing in memory",
			"session", m.state.SessionID, "set", set.SetNumber, "error", err)
	}
}

// SkipExercise marks the remaining incomplete sets of an exercise, from
// fromSet onward, as completed with zero weight and reps. Keeping them as
// completed sets keeps the totals arithmetic honest without a third set
// state. Returns how many sets were skipped.
func (m *Manager) SkipExercise(ctx context.Context, exerciseIndex, fromSet int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return 0, ErrNoActiveSession
	}
	if exerciseIndex < 0 || exerciseIndex >= len(m.state.Exercises) {
		return 0, fmt.Errorf("exercise %d: %w", exerciseIndex, ErrIndexOutOfRange)
	}
	ex := &m.state.Exercises[exerciseIndex]
	if fromSet < 0 {
		fromSet = 0
	}

	skipped := 0
	for i := fromSet; i < len(ex.Sets); i++ {
		if ex.Sets[i].Completed {
			continue
		}
		if err := m.logSetLocked(ctx, exerciseIndex, i, Entry{Weight: 0, Reps: 0, RIR: nil}); err != nil {
			return skipped, fmt.Errorf("skipping set %d: %w", i+1, err)
		}
		skipped++
	}
	return skipped, nil
}

// ToggleExpanded flips an exercise's expand/collapse flag. UI state only.
func (m *Manager) ToggleExpanded(exerciseIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return ErrNoActiveSession
	}
	if exerciseIndex < 0 || exerciseIndex >= len(m.state.Exercises) {
		return fmt.Errorf("exercise %d: %w", exerciseIndex, ErrIndexOutOfRange)
	}
	m.state.Exercises[exerciseIndex].Expanded = !m.state.Exercises[exerciseIndex].Expanded
	return nil
}

// CompleteWorkout marks the remote session completed, invalidates this key's
// snapshot, and advances the plan pointer. The pointer moves in one atomic
// remote write, so a retried completion cannot double-advance. Completion
// needs the remote and is rejected while offline; logged sets are already
// safe in the queue.
func (m *Manager) CompleteWorkout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return ErrNoActiveSession
	}
	if m.monitor != nil && !m.monitor.Online() {
		return ErrOfflineCompletion
	}
	if m.plan == nil {
		// Opened offline; the plan pointer lives remotely.
		plan, found, err := m.remote.GetPlan(ctx, m.state.PlanID)
		if err != nil {
			return fmt.Errorf("loading plan for completion: %w", err)
		}
		if !found {
			return ErrPlanNotFound
		}
		m.plan = plan
	}

	if err := m.ensureRemoteSession(ctx); err != nil {
		return err
	}

	if err := m.remote.UpdateSessionStatus(ctx, m.state.SessionID, models.SessionCompleted); err != nil {
		return fmt.Errorf("completing session: %w", err)
	}

	m.invalidateSnapshot(ctx, m.state.PlanID, m.state.DayID, m.state.WeekNumber)

	nextDay, nextWeek, planDone := nextPointer(m.plan)
	if err := m.remote.AdvancePlanPointer(ctx, m.plan.ID, nextDay, nextWeek, planDone); err != nil {
		return fmt.Errorf("advancing plan: %w", err)
	}
	m.plan.CurrentDay = nextDay
	m.plan.CurrentWeek = nextWeek
	if planDone {
		m.plan.Status = models.PlanCompleted
	}

	m.log.Info("workout completed",
		"session", m.state.SessionID, "next_day", nextDay, "next_week", nextWeek, "plan_done", planDone)
	m.state = nil
	return nil
}

// UncompleteWorkout reopens the most recently completed session of a plan
// for editing: the session goes back to in_progress and the plan pointer
// rewinds one day.
func (m *Manager) UncompleteWorkout(ctx context.Context, planID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.monitor != nil && !m.monitor.Online() {
		return ErrOfflineCompletion
	}

	plan, found, err := m.remote.GetPlan(ctx, planID)
	if err != nil {
		return fmt.Errorf("loading plan: %w", err)
	}
	if !found {
		return ErrPlanNotFound
	}

	prevDay, prevWeek, ok := previousPointer(plan)
	if !ok {
		return ErrNotCompleted
	}
	day, ok := dayByNumber(plan, prevDay)
	if !ok {
		return ErrDayNotFound
	}

	sess, _, found, err := m.remote.GetSessionByKey(ctx, planID, day.ID, prevWeek)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if !found || sess.Status != models.SessionCompleted {
		return ErrNotCompleted
	}

	if err := m.remote.UpdateSessionStatus(ctx, sess.ID, models.SessionInProgress); err != nil {
		return fmt.Errorf("reopening session: %w", err)
	}
	if err := m.remote.AdvancePlanPointer(ctx, planID, prevDay, prevWeek, false); err != nil {
		return fmt.Errorf("rewinding plan: %w", err)
	}
	plan.CurrentDay = prevDay
	plan.CurrentWeek = prevWeek
	plan.Status = models.PlanActive

	// The pointer changed; any snapshot keyed to the old pointer is dead.
	m.invalidateSnapshot(ctx, planID, day.ID, prevWeek)

	state, err := m.loadFresh(ctx, plan, day.ID)
	if err != nil {
		return err
	}
	m.plan = plan
	m.state = state
	m.log.Info("workout reopened for editing", "session", sess.ID, "day", day.ID, "week", prevWeek)
	return nil
}

// currentDay resolves the plan's current-day pointer to a day definition.
func currentDay(plan *models.TrainingPlan) (models.WorkoutDay, bool) {
	return dayByNumber(plan, plan.CurrentDay)
}

func dayByNumber(plan *models.TrainingPlan, number int) (models.WorkoutDay, bool) {
	for _, d := range plan.Days {
		if d.DayNumber == number {
			return d, true
		}
	}
	return models.WorkoutDay{}, false
}

// nextPointer computes where the plan pointer moves after completing the
// current day: day wraps into the next week, and exceeding total weeks
// completes the plan.
func nextPointer(plan *models.TrainingPlan) (nextDay, nextWeek int, planDone bool) {
	nextDay = plan.CurrentDay + 1
	nextWeek = plan.CurrentWeek
	if nextDay > len(plan.Days) {
		nextDay = 1
		nextWeek++
	}
	return nextDay, nextWeek, nextWeek > plan.TotalWeeks
}

// previousPointer rewinds the plan pointer one day, unwrapping across the
// week boundary. ok is false at the very start of the plan.
func previousPointer(plan *models.TrainingPlan) (prevDay, prevWeek int, ok bool) {
	prevDay = plan.CurrentDay - 1
	prevWeek = plan.CurrentWeek
	if prevDay < 1 {
		prevDay = len(plan.Days)
		prevWeek--
	}
	if prevWeek < 1 {
		return 0, 0, false
	}
	return prevDay, prevWeek, true
}

// buildState assembles the runtime view of a session: per-slot set counts
// for the week, previously logged sets merged in, and advisory targets from
// the last completed session.
func buildState(sess models.WorkoutSession, day models.WorkoutDay, week int, logs []models.SetLogRecord, prev map[string]models.PreviousSet) *models.SessionState {
	state := &models.SessionState{
		SessionID:  sess.ID,
		PlanID:     sess.PlanID,
		DayID:      day.ID,
		DayName:    day.Name,
		WeekNumber: week,
	}

	for i, slot := range day.Slots {
		setsThisWeek := progression.SetsForWeek(slot.BaseSets, slot.SetIncrement, week)
		ex := models.ExerciseRuntime{
			Slot:         slot,
			SetsThisWeek: setsThisWeek,
			Expanded:     i == 0,
		}
		for n := 1; n <= setsThisWeek; n++ {
			set := models.SetRuntime{
				SetNumber:  n,
				TargetReps: progression.TargetReps(slot),
			}
			if p, ok := prev[remote.PreviousSetKey(slot.ID, n)]; ok {
				prevCopy := p
				set.Previous = &prevCopy
				set.TargetWeight = p.Weight
				if sugg := progression.Suggest(&prevCopy, slot.RepRangeMin, slot.RepRangeMax, progression.DefaultWeightIncrement); sugg != nil {
					w := sugg.Weight
					set.TargetWeight = &w
					set.TargetReps = sugg.Reps
				}
			}
			if logged := findLog(logs, slot.ID, n); logged != nil {
				set.RemoteID = logged.ID
				set.ActualWeight = logged.ActualWeight
				set.ActualReps = logged.ActualReps
				set.RIR = logged.RIR
				set.Completed = logged.Completed
			}
			ex.Sets = append(ex.Sets, set)
		}
		state.Exercises = append(state.Exercises, ex)
	}
	return state
}

func findLog(logs []models.SetLogRecord, slotID string, setNumber int) *models.SetLogRecord {
	for i := range logs {
		if logs[i].ExerciseSlotID == slotID && logs[i].SetNumber == setNumber {
			return &logs[i]
		}
	}
	return nil
}

func copyState(s *models.SessionState) *models.SessionState {
	if s == nil {
		return nil
	}
	out := *s
	out.Exercises = make([]models.ExerciseRuntime, len(s.Exercises))
	for i, ex := range s.Exercises {
		exCopy := ex
		exCopy.Sets = append([]models.SetRuntime(nil), ex.Sets...)
		out.Exercises[i] = exCopy
	}
	return &out
}
