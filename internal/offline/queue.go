package offline

import (
	"context"

	"github.com/meltforce/liftlog/internal/models"
)

// Queue is the durable staging area for sets logged while disconnected.
// Entries are append-only and replayed at-least-once in creation order: a
// set corrected twice while offline produces two entries, and the later one
// wins on replay. The synchronization coordinator is the only deleter.
type Queue struct {
	store *Store
}

// NewQueue wraps the pending-sets partition of a store.
func NewQueue(store *Store) *Queue {
	return &Queue{store: store}
}

// Enqueue appends one pending set. No batching, no coalescing.
func (q *Queue) Enqueue(ctx context.Context, p models.PendingSetLog) error {
	return q.store.putPending(ctx, p)
}

// ListAll returns every pending set ordered by creation time.
func (q *Queue) ListAll(ctx context.Context) ([]models.PendingSetLog, error) {
	return q.store.pendingWhere(ctx, "")
}

// BySession returns the pending sets for one session, ordered by creation
// time.
func (q *Queue) BySession(ctx context.Context, sessionID string) ([]models.PendingSetLog, error) {
	return q.store.pendingWhere(ctx, "WHERE session_id = ?", sessionID)
}

// Remove deletes one entry after its remote write was confirmed.
func (q *Queue) Remove(ctx context.Context, mutationID string) error {
	return q.store.deletePending(ctx, mutationID)
}

// Count reports how many sets are waiting to sync. Drives the pending
// indicator, so it must never undercount.
func (q *Queue) Count(ctx context.Context) (int, error) {
	return q.store.pendingCount(ctx)
}

// Clear empties the queue. Only used when wiping all offline data.
func (q *Queue) Clear(ctx context.Context) error {
	return q.store.clearPending(ctx)
}
