package offline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/meltforce/liftlog/internal/models"
)

func pendingSet(id, sessionID string, setNumber int, createdAt time.Time) models.PendingSetLog {
	return models.PendingSetLog{
		MutationID:     id,
		SessionID:      sessionID,
		ExerciseSlotID: "slot-1",
		ExerciseID:     "ex-1",
		SetNumber:      setNumber,
		Weight:         135,
		Reps:           8,
		CreatedAt:      createdAt,
	}
}

// TestQueueOrdering verifies that ListAll replays in creation order even
// when enqueue calls arrive out of timestamp order.
func TestQueueOrdering(t *testing.T) {
	q := NewQueue(testStore(t))
	ctx := context.Background()
	base := time.Now()

	// Enqueue newest first to prove ordering comes from CreatedAt.
	for i := 3; i >= 1; i-- {
		p := pendingSet(fmt.Sprintf("m-%d", i), "sess-1", i, base.Add(time.Duration(i)*time.Second))
		if err := q.Enqueue(ctx, p); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	all, err := q.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, p := range all {
		if p.SetNumber != i+1 {
			t.Errorf("position %d has set %d, want %d", i, p.SetNumber, i+1)
		}
	}
}

// TestQueueDuplicateCorrections verifies that correcting the same set twice
// while offline keeps both entries, later one last.
func TestQueueDuplicateCorrections(t *testing.T) {
	q := NewQueue(testStore(t))
	ctx := context.Background()
	base := time.Now()

	first := pendingSet("m-1", "sess-1", 1, base)
	first.Weight = 135
	second := pendingSet("m-2", "sess-1", 1, base.Add(time.Second))
	second.Weight = 140

	if err := q.Enqueue(ctx, first); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, second); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	all, err := q.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want both corrections queued", len(all))
	}
	if all[1].Weight != 140 {
		t.Errorf("last entry weight = %v, want the later correction (140)", all[1].Weight)
	}
}

// TestQueueCountAndRemove verifies the count query and per-entry removal.
func TestQueueCountAndRemove(t *testing.T) {
	q := NewQueue(testStore(t))
	ctx := context.Background()
	base := time.Now()

	count, err := q.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}

	for i := 1; i <= 3; i++ {
		if err := q.Enqueue(ctx, pendingSet(fmt.Sprintf("m-%d", i), "sess-1", i, base.Add(time.Duration(i)*time.Millisecond))); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	count, err = q.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	if err := q.Remove(ctx, "m-2"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	count, err = q.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Errorf("count after remove = %d, want 2", count)
	}
}

// TestQueueBySession verifies the session-scoped listing backed by the
// secondary index.
func TestQueueBySession(t *testing.T) {
	q := NewQueue(testStore(t))
	ctx := context.Background()
	base := time.Now()

	if err := q.Enqueue(ctx, pendingSet("m-1", "sess-1", 1, base)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, pendingSet("m-2", "sess-2", 1, base.Add(time.Millisecond))); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, pendingSet("m-3", "sess-1", 2, base.Add(2*time.Millisecond))); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	got, err := q.BySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("BySession: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, p := range got {
		if p.SessionID != "sess-1" {
			t.Errorf("entry %s has session %s", p.MutationID, p.SessionID)
		}
	}
}
