package eventlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"task-tracker/pkg/task"
)

// PgLog is a PostgreSQL-backed Log with hash-chained integrity.
type PgLog struct {
	pool *pgxpool.Pool
}

// NewPgLog creates a PgLog.
func NewPgLog(pool *pgxpool.Pool) *PgLog {
	return &PgLog{pool: pool}
}

// EnsureTable creates the task_events table if it doesn't exist.
func (l *PgLog) EnsureTable(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS task_events (
			id        TEXT PRIMARY KEY,
			type      TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			kind      TEXT NOT NULL,
			entity_id BIGINT NOT NULL DEFAULT 0,
			title     TEXT NOT NULL DEFAULT '',
			hash      TEXT NOT NULL,
			prev_hash TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_task_events_timestamp_id ON task_events(timestamp, id)`)
	return err
}

// Append stores a new event, linking it to the latest one.
func (l *PgLog) Append(ctx context.Context, eventType string, kind task.Kind, entityID int, title string) (*Event, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Truncate(time.Microsecond)

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serializes appenders so two events never share a prev_hash.
	if _, err := tx.Exec(ctx, `LOCK TABLE task_events IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("lock events: %w", err)
	}

	var prevHash string
	err = tx.QueryRow(ctx, `SELECT hash FROM task_events ORDER BY timestamp DESC, id DESC LIMIT 1`).Scan(&prevHash)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("read chain head: %w", err)
	}

	e := &Event{
		ID:        id.String(),
		Type:      eventType,
		Timestamp: now,
		Kind:      kind,
		EntityID:  entityID,
		Title:     title,
		PrevHash:  prevHash,
	}
	e.Hash = computeHash(prevHash, e.ID, e.Type, e.Kind, e.EntityID, e.Title, e.Timestamp)

	_, err = tx.Exec(ctx, `
		INSERT INTO task_events (id, type, timestamp, kind, entity_id, title, hash, prev_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Type, e.Timestamp, string(e.Kind), e.EntityID, e.Title, e.Hash, e.PrevHash)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit event: %w", err)
	}
	return e, nil
}

func (l *PgLog) Recent(ctx context.Context, limit int) ([]Event, error) {
	return l.scanMany(ctx, `
		SELECT id, type, timestamp, kind, entity_id, title, hash, prev_hash
		FROM task_events ORDER BY timestamp DESC, id DESC LIMIT $1`, sqlLimit(limit))
}

// Since returns events created after the given ID, for polling.
func (l *PgLog) Since(ctx context.Context, afterID string, limit int) ([]Event, error) {
	return l.scanMany(ctx, `
		SELECT id, type, timestamp, kind, entity_id, title, hash, prev_hash
		FROM task_events
		WHERE NOT EXISTS (SELECT 1 FROM task_events WHERE id = $1)
		   OR (timestamp, id) > (SELECT timestamp, id FROM task_events WHERE id = $1)
		ORDER BY timestamp ASC, id ASC LIMIT $2`, afterID, sqlLimit(limit))
}

// sqlLimit maps a non-positive limit to NULL, which LIMIT treats as ALL.
func sqlLimit(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

func (l *PgLog) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.pool.QueryRow(ctx, `SELECT COUNT(*) FROM task_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// VerifyChain walks the entire chain chronologically and verifies hash integrity.
func (l *PgLog) VerifyChain(ctx context.Context) error {
	events, err := l.scanMany(ctx, `
		SELECT id, type, timestamp, kind, entity_id, title, hash, prev_hash
		FROM task_events ORDER BY timestamp ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("verify chain query: %w", err)
	}
	return verify("", events)
}

func (l *PgLog) scanMany(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e    Event
			kind string
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.Timestamp, &kind, &e.EntityID, &e.Title, &e.Hash, &e.PrevHash); err != nil {
			return nil, err
		}
		e.Kind = task.Kind(kind)
		e.Timestamp = e.Timestamp.UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return events, nil
}
