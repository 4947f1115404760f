package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/meltforce/liftlog/internal/models"
)

// Store is the crash-surviving local store backing offline operation. It has
// three partitions: downloaded workout days, the pending set queue, and
// session snapshots. Every write is flushed before the call returns, so a
// completed call means the data survives a crash immediately after.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the offline store at dir/offline.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating offline dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "offline.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening offline db: %w", err)
	}

	// Serialize access; the engine mutates from handler goroutines.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL`,
		`PRAGMA synchronous=FULL`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring offline db: %w", err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS workout_days (
			day_id        TEXT PRIMARY KEY,
			payload       BLOB NOT NULL,
			downloaded_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pending_sets (
			mutation_id TEXT PRIMARY KEY,
			session_id  TEXT NOT NULL,
			created_at  INTEGER NOT NULL,
			payload     BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS pending_sets_by_session ON pending_sets(session_id)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			snapshot_key TEXT PRIMARY KEY,
			saved_at     INTEGER NOT NULL,
			payload      BLOB NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating offline schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- Workout days partition ---

// SaveDay stores a downloaded day bundle, replacing any prior download of
// the same day.
func (s *Store) SaveDay(ctx context.Context, bundle models.DayBundle) error {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encoding day bundle: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO workout_days (day_id, payload, downloaded_at) VALUES (?, ?, ?)`,
		bundle.Day.ID, payload, bundle.DownloadedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("saving workout day: %w", err)
	}
	return nil
}

// Day loads a downloaded day bundle. Absence is not an error.
func (s *Store) Day(ctx context.Context, dayID string) (models.DayBundle, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM workout_days WHERE day_id = ?`, dayID).Scan(&payload)
	if err == sql.ErrNoRows {
		return models.DayBundle{}, false, nil
	}
	if err != nil {
		return models.DayBundle{}, false, fmt.Errorf("loading workout day: %w", err)
	}
	var bundle models.DayBundle
	if err := json.Unmarshal(payload, &bundle); err != nil {
		return models.DayBundle{}, false, fmt.Errorf("decoding day bundle: %w", err)
	}
	return bundle, true, nil
}

// DownloadedDayIDs lists the IDs of every downloaded day.
func (s *Store) DownloadedDayIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT day_id FROM workout_days ORDER BY day_id`)
	if err != nil {
		return nil, fmt.Errorf("listing workout days: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning day id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteDay removes a downloaded day. Deleting an absent day is a no-op.
func (s *Store) DeleteDay(ctx context.Context, dayID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM workout_days WHERE day_id = ?`, dayID); err != nil {
		return fmt.Errorf("deleting workout day: %w", err)
	}
	return nil
}

// ClearDays empties the workout-days partition.
func (s *Store) ClearDays(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM workout_days`); err != nil {
		return fmt.Errorf("clearing workout days: %w", err)
	}
	return nil
}

// --- Snapshots partition ---

// SnapshotKey builds the natural key identifying which day and week a
// snapshot belongs to.
func SnapshotKey(planID, dayID string, week int) string {
	return fmt.Sprintf("%s/%s/%d", planID, dayID, week)
}

// PutSnapshot stores a snapshot, superseding any prior one for the same key.
func (s *Store) PutSnapshot(ctx context.Context, snap models.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	key := SnapshotKey(snap.PlanID, snap.DayID, snap.WeekNumber)
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (snapshot_key, saved_at, payload) VALUES (?, ?, ?)`,
		key, snap.SavedAt.UnixMilli(), payload)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Snapshot loads the snapshot for a key. Absence is not an error.
func (s *Store) Snapshot(ctx context.Context, key string) (models.Snapshot, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE snapshot_key = ?`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return models.Snapshot{}, false, nil
	}
	if err != nil {
		return models.Snapshot{}, false, fmt.Errorf("loading snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return models.Snapshot{}, false, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap, true, nil
}

// DeleteSnapshot removes the snapshot for a key.
func (s *Store) DeleteSnapshot(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE snapshot_key = ?`, key); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}

// ClearSnapshots empties the snapshots partition.
func (s *Store) ClearSnapshots(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("clearing snapshots: %w", err)
	}
	return nil
}

// --- Pending sets partition (see queue.go for the queue semantics) ---

func (s *Store) putPending(ctx context.Context, p models.PendingSetLog) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding pending set: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO pending_sets (mutation_id, session_id, created_at, payload) VALUES (?, ?, ?, ?)`,
		p.MutationID, p.SessionID, p.CreatedAt.UnixNano(), payload)
	if err != nil {
		return fmt.Errorf("saving pending set: %w", err)
	}
	return nil
}

func (s *Store) pendingWhere(ctx context.Context, where string, args ...any) ([]models.PendingSetLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM pending_sets `+where+` ORDER BY created_at ASC, mutation_id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pending sets: %w", err)
	}
	defer rows.Close()

	var result []models.PendingSetLog
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning pending set: %w", err)
		}
		var p models.PendingSetLog
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decoding pending set: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) deletePending(ctx context.Context, mutationID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_sets WHERE mutation_id = ?`, mutationID); err != nil {
		return fmt.Errorf("deleting pending set: %w", err)
	}
	return nil
}

func (s *Store) pendingCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_sets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting pending sets: %w", err)
	}
	return count, nil
}

func (s *Store) clearPending(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_sets`); err != nil {
		return fmt.Errorf("clearing pending sets: %w", err)
	}
	return nil
}
