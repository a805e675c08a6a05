package task

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgSnapshotter is a PostgreSQL-backed Snapshotter.
type PgSnapshotter struct {
	pool *pgxpool.Pool
}

// NewPgSnapshotter creates a PgSnapshotter.
func NewPgSnapshotter(pool *pgxpool.Pool) *PgSnapshotter {
	return &PgSnapshotter{pool: pool}
}

// Pool returns the underlying connection pool.
func (s *PgSnapshotter) Pool() *pgxpool.Pool {
	return s.pool
}

// EnsureTable creates the task_records table if it doesn't exist.
func (s *PgSnapshotter) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS task_records (
			id          BIGINT PRIMARY KEY,
			type        TEXT NOT NULL,
			name        TEXT NOT NULL,
			status      TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			duration    BIGINT,
			start_time  TIMESTAMP,
			end_time    TIMESTAMP,
			epic        BIGINT
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_task_records_epic ON task_records(epic) WHERE epic IS NOT NULL`)
	return err
}

// Save replaces the table contents in one transaction, sending the inserts
// as a single batch.
func (s *PgSnapshotter) Save(ctx context.Context, records []Task) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM task_records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range records {
		r := toRow(&records[i])
		batch.Queue(`
			INSERT INTO task_records (id, type, name, status, description, duration, start_time, end_time, epic)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			r.ID, r.Type, r.Name, r.Status, r.Description, r.Minutes, r.Start, r.End, r.Epic)
	}
	results := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert records: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit records: %w", err)
	}
	return nil
}

// Load returns every record ordered by id.
func (s *PgSnapshotter) Load(ctx context.Context) ([]Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, type, name, status, description, duration, start_time, end_time, epic
		FROM task_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.ID, &r.Type, &r.Name, &r.Status, &r.Description, &r.Minutes, &r.Start, &r.End, &r.Epic); err != nil {
			return nil, err
		}
		t, err := fromRow(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", r.ID, err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return out, nil
}
