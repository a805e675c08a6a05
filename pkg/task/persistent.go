package task

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Snapshotter reads and writes the full set of entity records.
// Save replaces whatever the backend held before.
type Snapshotter interface {
	Save(ctx context.Context, records []Task) error
	Load(ctx context.Context) ([]Task, error)
}

// Persistent wraps a MemStore and writes a full snapshot after every
// mutating call that succeeds in memory. Reads go straight to the MemStore.
//
// A failed save does not undo the in-memory change: the call returns its
// result together with an error wrapping ErrSave, and memory and backend
// stay out of step until the next successful save.
type Persistent struct {
	*MemStore
	mu   sync.Mutex
	snap Snapshotter
}

// NewPersistent decorates mem with snapshot persistence.
func NewPersistent(mem *MemStore, snap Snapshotter) *Persistent {
	return &Persistent{MemStore: mem, snap: snap}
}

// Load rebuilds a store from the records held by snap.
func Load(ctx context.Context, snap Snapshotter, opts Options) (*Persistent, error) {
	records, err := snap.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	mem, err := Restore(records, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return NewPersistent(mem, snap), nil
}

// Save writes the current state to the backend.
func (p *Persistent) Save(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.save(ctx)
}

func (p *Persistent) save(ctx context.Context) error {
	if err := p.snap.Save(ctx, p.MemStore.Records()); err != nil {
		log.Printf("store: save snapshot: %v", err)
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	return nil
}

// mutate runs fn under the persistence lock and saves when fn succeeded.
func mutate[R any](ctx context.Context, p *Persistent, fn func() (R, error)) (R, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out, err := fn()
	if err != nil {
		return out, err
	}
	return out, p.save(ctx)
}

func (p *Persistent) CreateTask(ctx context.Context, t *Task) (*Task, error) {
	return mutate(ctx, p, func() (*Task, error) { return p.MemStore.CreateTask(ctx, t) })
}

func (p *Persistent) UpdateTask(ctx context.Context, t *Task) (*Task, error) {
	return mutate(ctx, p, func() (*Task, error) { return p.MemStore.UpdateTask(ctx, t) })
}

func (p *Persistent) DeleteTask(ctx context.Context, id int) (bool, error) {
	return mutate(ctx, p, func() (bool, error) { return p.MemStore.DeleteTask(ctx, id) })
}

func (p *Persistent) DeleteAllTasks(ctx context.Context) error {
	_, err := mutate(ctx, p, func() (struct{}, error) { return struct{}{}, p.MemStore.DeleteAllTasks(ctx) })
	return err
}

func (p *Persistent) CreateEpic(ctx context.Context, e *Task) (*Task, error) {
	return mutate(ctx, p, func() (*Task, error) { return p.MemStore.CreateEpic(ctx, e) })
}

func (p *Persistent) UpdateEpic(ctx context.Context, e *Task) (*Task, error) {
	return mutate(ctx, p, func() (*Task, error) { return p.MemStore.UpdateEpic(ctx, e) })
}

func (p *Persistent) DeleteEpic(ctx context.Context, id int) (bool, error) {
	return mutate(ctx, p, func() (bool, error) { return p.MemStore.DeleteEpic(ctx, id) })
}

func (p *Persistent) DeleteAllEpics(ctx context.Context) error {
	_, err := mutate(ctx, p, func() (struct{}, error) { return struct{}{}, p.MemStore.DeleteAllEpics(ctx) })
	return err
}

func (p *Persistent) CreateSubtask(ctx context.Context, s *Task) (*Task, error) {
	return mutate(ctx, p, func() (*Task, error) { return p.MemStore.CreateSubtask(ctx, s) })
}

func (p *Persistent) UpdateSubtask(ctx context.Context, s *Task) (*Task, error) {
	return mutate(ctx, p, func() (*Task, error) { return p.MemStore.UpdateSubtask(ctx, s) })
}

func (p *Persistent) DeleteSubtask(ctx context.Context, id int) (bool, error) {
	return mutate(ctx, p, func() (bool, error) { return p.MemStore.DeleteSubtask(ctx, id) })
}

func (p *Persistent) DeleteAllSubtasks(ctx context.Context) error {
	_, err := mutate(ctx, p, func() (struct{}, error) { return struct{}{}, p.MemStore.DeleteAllSubtasks(ctx) })
	return err
}
