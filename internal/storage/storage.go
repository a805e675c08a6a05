// Package storage opens the task store and change log for a configured
// backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"

	"task-tracker/internal/config"
	"task-tracker/internal/db"
	"task-tracker/pkg/eventlog"
	"task-tracker/pkg/task"
)

// Backend is an opened store together with its change log.
type Backend struct {
	Store task.Store
	Log   eventlog.Log

	closers []func()
}

// Close releases database handles.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// Open builds the store for cfg.Backend and loads any saved state. A file
// backend whose file does not exist yet starts empty.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	opts := task.Options{HistoryLimit: cfg.HistoryLimit}
	if cfg.Backend == config.BackendMemory {
		return &Backend{
			Store: task.NewMemStore(opts),
			Log:   eventlog.NewMemLog(cfg.EventLogSize),
		}, nil
	}

	snap, closeSnap, err := OpenSnapshotter(ctx, cfg, cfg.Backend)
	if err != nil {
		return nil, err
	}
	b := &Backend{closers: []func(){closeSnap}}

	store, err := task.Load(ctx, snap, opts)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("storage: %s not found, starting empty", cfg.FilePath)
		store = task.NewPersistent(task.NewMemStore(opts), snap)
	case err != nil:
		b.Close()
		return nil, err
	}
	b.Store = store

	if pg, ok := snap.(*task.PgSnapshotter); ok {
		l := eventlog.NewPgLog(pg.Pool())
		if err := l.EnsureTable(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("ensure events table: %w", err)
		}
		b.Log = l
	} else {
		b.Log = eventlog.NewMemLog(cfg.EventLogSize)
	}
	return b, nil
}

// OpenSnapshotter opens the durable backend named backend using the paths
// and URL in cfg. The returned func releases it.
func OpenSnapshotter(ctx context.Context, cfg *config.Config, backend string) (task.Snapshotter, func(), error) {
	switch backend {
	case config.BackendFile:
		return task.NewFileSnapshotter(cfg.FilePath), func() {}, nil

	case config.BackendSQLite:
		s, err := task.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Printf("storage: close sqlite: %v", err)
			}
		}, nil

	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		s := task.NewPgSnapshotter(pool)
		if err := s.EnsureTable(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ensure task_records table: %w", err)
		}
		return s, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("backend %q has no durable storage", backend)
}

// Migrate copies every record from one durable backend to another. The
// records are validated before anything is written.
func Migrate(ctx context.Context, cfg *config.Config, from, to string) (int, error) {
	if from == to {
		return 0, fmt.Errorf("source and target are both %s", from)
	}
	src, closeSrc, err := OpenSnapshotter(ctx, cfg, from)
	if err != nil {
		return 0, err
	}
	defer closeSrc()
	dst, closeDst, err := OpenSnapshotter(ctx, cfg, to)
	if err != nil {
		return 0, err
	}
	defer closeDst()

	records, err := src.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", task.ErrLoad, err)
	}
	mem, err := task.Restore(records, task.Options{})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", task.ErrLoad, err)
	}
	out := mem.Records()
	if err := dst.Save(ctx, out); err != nil {
		return 0, fmt.Errorf("%w: %w", task.ErrSave, err)
	}
	return len(out), nil
}
