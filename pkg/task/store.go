package task

import (
	"context"
)

// Store is the contract for task, epic and subtask state.
//
// Lookups and no-op updates return a nil *Task and a nil error. A create that
// would overlap an existing scheduled item fails with a *ConflictError;
// CreateSubtask against an unknown epic returns nil, nil.
type Store interface {
	ListTasks(ctx context.Context) ([]Task, error)
	GetTask(ctx context.Context, id int) (*Task, error)
	CreateTask(ctx context.Context, t *Task) (*Task, error)
	UpdateTask(ctx context.Context, t *Task) (*Task, error)
	DeleteTask(ctx context.Context, id int) (bool, error)
	DeleteAllTasks(ctx context.Context) error

	ListEpics(ctx context.Context) ([]Task, error)
	GetEpic(ctx context.Context, id int) (*Task, error)
	CreateEpic(ctx context.Context, e *Task) (*Task, error)
	UpdateEpic(ctx context.Context, e *Task) (*Task, error)
	DeleteEpic(ctx context.Context, id int) (bool, error)
	DeleteAllEpics(ctx context.Context) error

	ListSubtasks(ctx context.Context) ([]Task, error)
	GetSubtask(ctx context.Context, id int) (*Task, error)
	CreateSubtask(ctx context.Context, s *Task) (*Task, error)
	UpdateSubtask(ctx context.Context, s *Task) (*Task, error)
	DeleteSubtask(ctx context.Context, id int) (bool, error)
	DeleteAllSubtasks(ctx context.Context) error

	// SubtasksByEpic returns the epic's subtasks in link order, or an empty
	// slice when the epic does not exist.
	SubtasksByEpic(ctx context.Context, epicID int) ([]Task, error)
	// Prioritized returns tasks and subtasks that have a start time,
	// ordered by start, kind and id.
	Prioritized(ctx context.Context) ([]Task, error)
	// History returns recently accessed entities, oldest first.
	History(ctx context.Context) ([]Task, error)
}
