package task

import (
	"fmt"
	"slices"
	"time"
)

// Kind tags which of the three entity variants a Task is.
type Kind string

const (
	KindTask    Kind = "TASK"
	KindEpic    Kind = "EPIC"
	KindSubtask Kind = "SUBTASK"
)

// rank orders kinds for the priority view.
func (k Kind) rank() int {
	switch k {
	case KindTask:
		return 0
	case KindEpic:
		return 1
	default:
		return 2
	}
}

// ParseKind parses a persisted type tag.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindTask, KindEpic, KindSubtask:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown type %q", ErrInvalid, s)
}

// Status is the progress state of a task, epic or subtask.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// ParseStatus parses a status name. Empty means NEW.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusNew, StatusInProgress, StatusDone:
		return st, nil
	case "":
		return StatusNew, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalid, s)
}

// Task is a standalone task, an epic or a subtask, depending on Kind.
//
// Epic fields (SubtaskIDs, End and the derived Status/StartTime/Duration) are
// owned by the store. EpicID is set only on subtasks.
type Task struct {
	ID          int
	Kind        Kind
	Title       string
	Description string
	Status      Status
	Duration    *time.Duration // optional
	StartTime   *time.Time     // optional

	EpicID     int
	SubtaskIDs []int
	End        *time.Time // epics only: latest subtask end
}

// New returns a NEW standalone task.
func New(title, description string) *Task {
	return &Task{Kind: KindTask, Title: title, Description: description, Status: StatusNew}
}

// NewEpic returns an empty epic.
func NewEpic(title, description string) *Task {
	return &Task{Kind: KindEpic, Title: title, Description: description, Status: StatusNew}
}

// NewSubtask returns a NEW subtask of the given epic.
func NewSubtask(epicID int, title, description string) *Task {
	return &Task{Kind: KindSubtask, EpicID: epicID, Title: title, Description: description, Status: StatusNew}
}

// WithSchedule sets the start time and duration and returns t.
func (t *Task) WithSchedule(start time.Time, d time.Duration) *Task {
	t.StartTime = &start
	t.Duration = &d
	return t
}

// EndTime is StartTime+Duration, or nil when either is missing.
// For epics it is the derived end of the latest subtask.
func (t *Task) EndTime() *time.Time {
	if t.Kind == KindEpic {
		return t.End
	}
	if t.StartTime == nil || t.Duration == nil {
		return nil
	}
	end := t.StartTime.Add(*t.Duration)
	return &end
}

// Scheduled reports whether t takes part in overlap checks.
func (t *Task) Scheduled() bool {
	return t.Kind != KindEpic && t.StartTime != nil && t.Duration != nil
}

// Overlaps reports whether the half-open intervals of a and b intersect.
// Touching endpoints do not overlap.
func Overlaps(a, b *Task) bool {
	if !a.Scheduled() || !b.Scheduled() {
		return false
	}
	return a.StartTime.Before(*b.EndTime()) && a.EndTime().After(*b.StartTime)
}

// Equal compares tasks by identity only.
func Equal(a, b *Task) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.Duration != nil {
		d := *t.Duration
		c.Duration = &d
	}
	if t.StartTime != nil {
		s := *t.StartTime
		c.StartTime = &s
	}
	if t.End != nil {
		e := *t.End
		c.End = &e
	}
	c.SubtaskIDs = slices.Clone(t.SubtaskIDs)
	return &c
}

func (t *Task) String() string {
	return fmt.Sprintf("%s#%d(%q, %s)", t.Kind, t.ID, t.Title, t.Status)
}
