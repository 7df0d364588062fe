// Package outbox is a durable retry queue for finish-time writes that
// failed against the primary store. Entries live in a local SQLite file;
// a Retrier drains them in the background. At-least-once redelivery is
// safe because both write paths are idempotent.
package outbox

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/meltforce/repcoach/internal/models"
)

// Write kinds stored in the queue.
const (
	KindExerciseLogs   = "exercise_logs"
	KindDailyAggregate = "daily_aggregate"
)

// Entry is one queued write.
type Entry struct {
	ID       int64
	Kind     string
	Payload  []byte
	Attempts int
}

// exerciseLogsPayload is the stored form of a queued exercise-log write.
type exerciseLogsPayload struct {
	UserID  int                     `json:"user_id"`
	LogDate time.Time               `json:"log_date"`
	Rows    []models.ExerciseLogRow `json:"rows"`
}

// aggregatePayload wraps an upsert with its user ID, which the upsert type
// itself does not serialize.
type aggregatePayload struct {
	UserID int                         `json:"user_id"`
	Upsert models.DailyAggregateUpsert `json:"upsert"`
}

// Queue is the SQLite-backed write queue.
type Queue struct {
	db *sql.DB
}

// Open opens (or creates) the queue database at dir/outbox.db.
func Open(dir string) (*Queue, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating outbox dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "outbox.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening outbox db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS pending_writes (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		kind       TEXT NOT NULL,
		payload    TEXT NOT NULL,
		attempts   INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating outbox table: %w", err)
	}

	return &Queue{db: db}, nil
}

// Close closes the queue database.
func (q *Queue) Close() error {
	return q.db.Close()
}

// EnqueueExerciseLogs queues a failed exercise-log replace for retry.
func (q *Queue) EnqueueExerciseLogs(userID int, logDate time.Time, rows []models.ExerciseLogRow) error {
	return q.enqueue(KindExerciseLogs, exerciseLogsPayload{UserID: userID, LogDate: logDate, Rows: rows})
}

// EnqueueAggregate queues a failed daily-aggregate upsert for retry.
func (q *Queue) EnqueueAggregate(up models.DailyAggregateUpsert) error {
	return q.enqueue(KindDailyAggregate, aggregatePayload{UserID: up.UserID, Upsert: up})
}

func (q *Queue) enqueue(kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", kind, err)
	}
	if _, err := q.db.Exec(
		`INSERT INTO pending_writes (kind, payload) VALUES (?, ?)`,
		kind, string(data)); err != nil {
		return fmt.Errorf("queueing %s write: %w", kind, err)
	}
	return nil
}

// Pending returns up to limit queued entries, oldest first.
func (q *Queue) Pending(limit int) ([]Entry, error) {
	rows, err := q.db.Query(
		`SELECT id, kind, payload, attempts FROM pending_writes ORDER BY id ASC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying pending writes: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var e Entry
		var payload string
		if err := rows.Scan(&e.ID, &e.Kind, &payload, &e.Attempts); err != nil {
			return nil, fmt.Errorf("scanning pending write: %w", err)
		}
		e.Payload = []byte(payload)
		result = append(result, e)
	}
	return result, rows.Err()
}

// MarkDone removes a delivered entry.
func (q *Queue) MarkDone(id int64) error {
	_, err := q.db.Exec(`DELETE FROM pending_writes WHERE id = ?`, id)
	return err
}

// MarkFailed bumps an entry's attempt count after a failed delivery.
func (q *Queue) MarkFailed(id int64) error {
	_, err := q.db.Exec(`UPDATE pending_writes SET attempts = attempts + 1 WHERE id = ?`, id)
	return err
}

// Len returns the number of queued entries.
func (q *Queue) Len() (int, error) {
	var n int
	err := q.db.QueryRow(`SELECT COUNT(*) FROM pending_writes`).Scan(&n)
	return n, err
}
