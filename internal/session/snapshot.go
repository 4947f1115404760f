package session

import (
	"context"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/offline"
	"github.com/meltforce/liftlog/internal/remote"
)

// persistSnapshot captures the live session after a mutation. Snapshot
// trouble never fails the mutation that triggered it; losing snapshot
// durability is degraded service. Caller holds the lock.
func (m *Manager) persistSnapshot(ctx context.Context) {
	if m.local == nil || m.state == nil {
		return
	}
	snap := models.Snapshot{
		PlanID:     m.state.PlanID,
		DayID:      m.state.DayID,
		WeekNumber: m.state.WeekNumber,
		SessionID:  m.state.SessionID,
		SavedAt:    time.Now(),
		State:      *copyState(m.state),
	}
	if err := m.local.PutSnapshot(ctx, snap); err != nil {
		m.log.Warn("snapshot save failed, continuing in memory",
			"session", m.state.SessionID, "error", err)
	}
}

// restoreSnapshot looks for a usable snapshot for (plan, day, week). A
// snapshot is restored only when it is fresh enough and its remote session
// has not already reached a terminal state. Rejected snapshots are deleted
// rather than skipped, so dead data is never re-evaluated on the next open.
// When the status probe itself cannot reach the remote the snapshot is
// accepted; resuming without connectivity is the point of having one.
// Caller holds the lock.
func (m *Manager) restoreSnapshot(ctx context.Context, planID, dayID string, week int) (*models.SessionState, bool) {
	if m.local == nil {
		return nil, false
	}
	key := offline.SnapshotKey(planID, dayID, week)
	snap, found, err := m.local.Snapshot(ctx, key)
	if err != nil {
		m.log.Warn("snapshot load failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	if time.Since(snap.SavedAt) > m.policy.SnapshotTTL {
		m.log.Info("stale snapshot discarded", "key", key, "saved_at", snap.SavedAt)
		m.deleteSnapshot(ctx, key)
		return nil, false
	}

	status, exists, err := m.remote.GetSessionStatus(ctx, snap.SessionID)
	switch {
	case err != nil && remote.IsTransient(err):
		// Can't verify; trust the snapshot.
	case err != nil:
		m.log.Warn("snapshot status check failed", "session", snap.SessionID, "error", err)
		return nil, false
	case !exists:
		if !snap.State.LocalOnly {
			// The session this snapshot describes is gone remotely.
			m.deleteSnapshot(ctx, key)
			return nil, false
		}
	case status == models.SessionCompleted || status == models.SessionSkipped:
		m.deleteSnapshot(ctx, key)
		return nil, false
	}

	state := snap.State
	return &state, true
}

// invalidateSnapshot removes the snapshot for a key. Called on completion
// and whenever the current plan/day/week pointer changes, so a stale
// snapshot can never be restored over a different day.
func (m *Manager) invalidateSnapshot(ctx context.Context, planID, dayID string, week int) {
	if m.local == nil {
		return
	}
	m.deleteSnapshot(ctx, offline.SnapshotKey(planID, dayID, week))
}

func (m *Manager) deleteSnapshot(ctx context.Context, key string) {
	if err := m.local.DeleteSnapshot(ctx, key); err != nil {
		m.log.Warn("snapshot delete failed", "key", key, "error", err)
	}
}
