package eventlog

import (
	"context"
	"errors"
	"log"

	"task-tracker/pkg/task"
)

// Recorder wraps a task.Store and appends an event for every mutation that
// changed state. Reads pass straight through.
//
// A mutation whose snapshot save failed still changed memory, so it is
// recorded too. Append failures are logged and never fail the mutation.
type Recorder struct {
	task.Store
	log Log
}

// NewRecorder decorates store.
func NewRecorder(store task.Store, log Log) *Recorder {
	return &Recorder{Store: store, log: log}
}

// applied reports whether a mutation that returned err took effect.
func applied(err error) bool {
	return err == nil || errors.Is(err, task.ErrSave)
}

func (r *Recorder) record(ctx context.Context, kind task.Kind, action string, id int, title string) {
	typ := TypeOf(kind, action)
	if _, err := r.log.Append(ctx, typ, kind, id, title); err != nil {
		log.Printf("eventlog: append %s %d: %v", typ, id, err)
	}
}

func (r *Recorder) created(ctx context.Context, t *task.Task, err error) (*task.Task, error) {
	if t != nil && applied(err) {
		r.record(ctx, t.Kind, Created, t.ID, t.Title)
	}
	return t, err
}

func (r *Recorder) updated(ctx context.Context, t *task.Task, err error) (*task.Task, error) {
	if t != nil && applied(err) {
		r.record(ctx, t.Kind, Updated, t.ID, t.Title)
	}
	return t, err
}

func (r *Recorder) deleted(ctx context.Context, kind task.Kind, id int, ok bool, err error) (bool, error) {
	if ok && applied(err) {
		r.record(ctx, kind, Deleted, id, "")
	}
	return ok, err
}

func (r *Recorder) cleared(ctx context.Context, kind task.Kind, err error) error {
	if applied(err) {
		r.record(ctx, kind, Cleared, 0, "")
	}
	return err
}

func (r *Recorder) CreateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	out, err := r.Store.CreateTask(ctx, t)
	return r.created(ctx, out, err)
}

func (r *Recorder) UpdateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	out, err := r.Store.UpdateTask(ctx, t)
	return r.updated(ctx, out, err)
}

func (r *Recorder) DeleteTask(ctx context.Context, id int) (bool, error) {
	ok, err := r.Store.DeleteTask(ctx, id)
	return r.deleted(ctx, task.KindTask, id, ok, err)
}

func (r *Recorder) DeleteAllTasks(ctx context.Context) error {
	return r.cleared(ctx, task.KindTask, r.Store.DeleteAllTasks(ctx))
}

func (r *Recorder) CreateEpic(ctx context.Context, e *task.Task) (*task.Task, error) {
	out, err := r.Store.CreateEpic(ctx, e)
	return r.created(ctx, out, err)
}

func (r *Recorder) UpdateEpic(ctx context.Context, e *task.Task) (*task.Task, error) {
	out, err := r.Store.UpdateEpic(ctx, e)
	return r.updated(ctx, out, err)
}

func (r *Recorder) DeleteEpic(ctx context.Context, id int) (bool, error) {
	ok, err := r.Store.DeleteEpic(ctx, id)
	return r.deleted(ctx, task.KindEpic, id, ok, err)
}

func (r *Recorder) DeleteAllEpics(ctx context.Context) error {
	return r.cleared(ctx, task.KindEpic, r.Store.DeleteAllEpics(ctx))
}

func (r *Recorder) CreateSubtask(ctx context.Context, s *task.Task) (*task.Task, error) {
	out, err := r.Store.CreateSubtask(ctx, s)
	return r.created(ctx, out, err)
}

func (r *Recorder) UpdateSubtask(ctx context.Context, s *task.Task) (*task.Task, error) {
	out, err := r.Store.UpdateSubtask(ctx, s)
	return r.updated(ctx, out, err)
}

func (r *Recorder) DeleteSubtask(ctx context.Context, id int) (bool, error) {
	ok, err := r.Store.DeleteSubtask(ctx, id)
	return r.deleted(ctx, task.KindSubtask, id, ok, err)
}

func (r *Recorder) DeleteAllSubtasks(ctx context.Context) error {
	return r.cleared(ctx, task.KindSubtask, r.Store.DeleteAllSubtasks(ctx))
}
