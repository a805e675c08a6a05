package task

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSnapshotter keeps records in a task_records table of a SQLite file.
type SQLiteSnapshotter struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteSnapshotter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	s := &SQLiteSnapshotter{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return s, nil
}

func (s *SQLiteSnapshotter) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS task_records (
			id          INTEGER PRIMARY KEY,
			type        TEXT NOT NULL,
			name        TEXT NOT NULL,
			status      TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			duration    INTEGER,
			start_time  TEXT,
			end_time    TEXT,
			epic        INTEGER
		)`)
	return err
}

func (s *SQLiteSnapshotter) Close() error {
	return s.db.Close()
}

// Save replaces the table contents in one transaction.
func (s *SQLiteSnapshotter) Save(ctx context.Context, records []Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO task_records (id, type, name, status, description, duration, start_time, end_time, epic)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		r := toRow(&records[i])
		_, err := stmt.ExecContext(ctx, r.ID, r.Type, r.Name, r.Status, r.Description,
			r.Minutes, nullTime(r.Start), nullTime(r.End), r.Epic)
		if err != nil {
			return fmt.Errorf("insert record %d: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit records: %w", err)
	}
	return nil
}

func (s *SQLiteSnapshotter) Load(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, name, status, description, duration, start_time, end_time, epic
		FROM task_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var (
			r          row
			minutes    sql.NullInt64
			epic       sql.NullInt64
			start, end sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Type, &r.Name, &r.Status, &r.Description, &minutes, &start, &end, &epic); err != nil {
			return nil, err
		}
		if minutes.Valid {
			r.Minutes = &minutes.Int64
		}
		if epic.Valid {
			r.Epic = &epic.Int64
		}
		if r.Start, err = parseTime(start.String); err != nil {
			return nil, fmt.Errorf("%w: record %d: start_time %q", ErrInvalid, r.ID, start.String)
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

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}
