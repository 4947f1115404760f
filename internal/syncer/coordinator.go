package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meltforce/liftlog/internal/connectivity"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/offline"
	"github.com/meltforce/liftlog/internal/remote"
)

// ErrSyncInProgress is returned when a drain is requested while one is
// already running. The caller's request is rejected, not queued; the running
// drain will pick up anything new.
var ErrSyncInProgress = errors.New("sync already in progress")

// Result summarizes one drain of the pending-set queue.
type Result struct {
	Success     bool      `json:"success"`
	SyncedCount int       `json:"synced_count"`
	FailedCount int       `json:"failed_count"`
	Errors      []string  `json:"errors,omitempty"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Coordinator reconciles the pending-set queue against the remote system of
// record. At most one drain runs at a time; two drains racing on the same
// mutation could double-write, so re-entrant calls are rejected outright.
type Coordinator struct {
	remote  remote.Store
	queue   *offline.Queue
	monitor *connectivity.Monitor
	log     *slog.Logger

	draining atomic.Bool

	mu       sync.Mutex
	lastSync *Result
	sessions map[string]string // session id minted offline -> remote id
}

// New wires a coordinator. The coordinator owns the lifecycle of queued
// mutations: it is the only component that deletes them.
func New(rs remote.Store, queue *offline.Queue, monitor *connectivity.Monitor, log *slog.Logger) *Coordinator {
	return &Coordinator{
		remote:  rs,
		queue:   queue,
		monitor: monitor,
		log:     log,
	}
}

// Online mirrors the platform connectivity signal.
func (c *Coordinator) Online() bool {
	return c.monitor.Online()
}

// Draining reports whether a drain is currently running.
func (c *Coordinator) Draining() bool {
	return c.draining.Load()
}

// LastResult returns the summary of the most recent completed drain, or nil.
func (c *Coordinator) LastResult() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSync
}

// Sync drains the queue once. Each mutation is processed independently in
// creation order: a remote existence check on (session, slot, set number),
// then an update or insert, then immediate removal from the queue. A failure
// leaves that mutation queued and moves on; one bad record must not block
// the rest of a gym session's data. Returns ErrSyncInProgress if a drain is
// already running.
func (c *Coordinator) Sync(ctx context.Context) (Result, error) {
	if !c.draining.CompareAndSwap(false, true) {
		return Result{}, ErrSyncInProgress
	}
	defer c.draining.Store(false)

	result := Result{Success: true}

	if c.queue == nil {
		result.FinishedAt = time.Now()
		return result, nil
	}

	pending, err := c.queue.ListAll(ctx)
	if err != nil {
		result.Success = false
		result.Errors = append(result.Errors, fmt.Sprintf("listing queue: %v", err))
		result.FinishedAt = time.Now()
		return result, nil
	}

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			// Torn down between mutations; the unprocessed tail stays
			// queued for the next trigger.
			result.Success = false
			result.Errors = append(result.Errors, "sync abandoned: "+err.Error())
			break
		}
		if err := c.syncOne(ctx, p); err != nil {
			c.log.Warn("pending set sync failed",
				"mutation", p.MutationID, "set", p.SetNumber, "error", err)
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("set %d: %v", p.SetNumber, err))
			continue
		}
		result.SyncedCount++
	}

	result.Success = result.Success && result.FailedCount == 0
	result.FinishedAt = time.Now()

	c.mu.Lock()
	c.lastSync = &result
	c.mu.Unlock()

	c.log.Info("sync finished",
		"synced", result.SyncedCount, "failed", result.FailedCount)
	return result, nil
}

// syncOne replays a single mutation idempotently: a session minted offline
// is resolved to its remote row first, then the natural key lookup decides
// between update and insert, and the queue entry is removed only after the
// remote write is confirmed. A crash between the write and the removal
// replays the mutation as an update next time, which converges.
func (c *Coordinator) syncOne(ctx context.Context, p models.PendingSetLog) error {
	sessionID := p.SessionID
	if p.LocalSession {
		id, err := c.resolveSession(ctx, p)
		if err != nil {
			return fmt.Errorf("resolving session: %w", err)
		}
		sessionID = id
	}

	existing, found, err := c.remote.GetSetLog(ctx, sessionID, p.ExerciseSlotID, p.SetNumber)
	if err != nil {
		return fmt.Errorf("existence check: %w", err)
	}

	in := remote.SetLogInput{
		SessionID:      sessionID,
		ExerciseSlotID: p.ExerciseSlotID,
		ExerciseID:     p.ExerciseID,
		SetNumber:      p.SetNumber,
		ActualWeight:   p.Weight,
		ActualReps:     p.Reps,
		RIR:            p.RIR,
	}

	if found {
		if err := c.remote.UpdateSetLog(ctx, existing.ID, in); err != nil {
			return fmt.Errorf("updating: %w", err)
		}
	} else {
		if _, err := c.remote.InsertSetLog(ctx, in); err != nil {
			return fmt.Errorf("inserting: %w", err)
		}
	}

	if err := c.queue.Remove(ctx, p.MutationID); err != nil {
		// The remote write landed; the worst case on the next drain is a
		// redundant update.
		return fmt.Errorf("removing from queue: %w", err)
	}
	return nil
}

// resolveSession maps a session id minted offline to its remote row, creating
// the row when absent. The session engine performs the same resolution for
// its live state; the (plan, day, week) unique key makes both sides converge
// on one row. Resolutions are cached across drains.
func (c *Coordinator) resolveSession(ctx context.Context, p models.PendingSetLog) (string, error) {
	c.mu.Lock()
	id, ok := c.sessions[p.SessionID]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	sess, _, found, err := c.remote.GetSessionByKey(ctx, p.PlanID, p.DayID, p.WeekNumber)
	if err != nil {
		return "", err
	}
	if !found {
		sess, err = c.remote.CreateSession(ctx, p.PlanID, p.DayID, p.WeekNumber)
		if err != nil {
			return "", err
		}
		c.log.Info("remote session created for offline work",
			"local", p.SessionID, "remote", sess.ID)
	}

	c.mu.Lock()
	if c.sessions == nil {
		c.sessions = make(map[string]string)
	}
	c.sessions[p.SessionID] = sess.ID
	c.mu.Unlock()
	return sess.ID, nil
}

// Watch subscribes to connectivity transitions and triggers a drain on every
// offline-to-online flip until ctx is cancelled. Nothing polls while
// offline.
func (c *Coordinator) Watch(ctx context.Context) {
	ch := c.monitor.Subscribe()
	defer c.monitor.Unsubscribe(ch)

	// A flip that fired before the subscription registered is invisible, so
	// drain once if the connection is already up.
	if c.monitor.Online() {
		if _, err := c.Sync(ctx); errors.Is(err, ErrSyncInProgress) {
			c.log.Info("drain already running, initial trigger skipped")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case online := <-ch:
			if !online {
				continue
			}
			c.log.Info("connectivity restored, draining queue")
			if _, err := c.Sync(ctx); errors.Is(err, ErrSyncInProgress) {
				c.log.Info("drain already running, reconnect trigger skipped")
			}
		}
	}
}
