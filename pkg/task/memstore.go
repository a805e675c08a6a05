package task

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"task-tracker/pkg/history"
	"task-tracker/pkg/priority"
)

// Options configures a MemStore.
type Options struct {
	// HistoryLimit caps the view history. Zero or less keeps everything.
	HistoryLimit int
}

// MemStore is the in-memory Store. It owns every entity and keeps the epic
// aggregates, the priority index and the history consistent.
//
// All methods are serialized by a single mutex; reads take it too because
// Get* records history.
type MemStore struct {
	mu     sync.Mutex
	lastID int

	tasks    map[int]*Task
	epics    map[int]*Task
	subtasks map[int]*Task

	// insertion order per kind
	taskOrder    []int
	epicOrder    []int
	subtaskOrder []int

	history  *history.Tracker[*Task]
	schedule *priority.Index[*Task]
}

// NewMemStore creates an empty MemStore.
func NewMemStore(opts Options) *MemStore {
	return &MemStore{
		tasks:    make(map[int]*Task),
		epics:    make(map[int]*Task),
		subtasks: make(map[int]*Task),
		history:  history.New(opts.HistoryLimit, historyKey),
		schedule: priority.New(scheduleLess),
	}
}

func historyKey(t *Task) (int, bool) {
	if t == nil {
		return 0, false
	}
	return t.ID, true
}

// scheduleLess orders by start time, then kind, then id. Only values with a
// start time are ever indexed.
func scheduleLess(a, b *Task) bool {
	if !a.StartTime.Equal(*b.StartTime) {
		return a.StartTime.Before(*b.StartTime)
	}
	if a.Kind != b.Kind {
		return a.Kind.rank() < b.Kind.rank()
	}
	return a.ID < b.ID
}

// --- Tasks ---

func (s *MemStore) ListTasks(_ context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collect(s.taskOrder, s.tasks), nil
}

func (s *MemStore) GetTask(_ context.Context, id int) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(s.tasks, id), nil
}

func (s *MemStore) CreateTask(_ context.Context, t *Task) (*Task, error) {
	c, err := prepare(t, KindTask)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkID(c.ID); err != nil {
		return nil, err
	}
	if err := s.conflict(c); err != nil {
		return nil, err
	}
	s.assignID(c)
	s.tasks[c.ID] = c
	s.taskOrder = append(s.taskOrder, c.ID)
	s.index(c)
	return c.Clone(), nil
}

func (s *MemStore) UpdateTask(_ context.Context, t *Task) (*Task, error) {
	c, err := prepare(t, KindTask)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.tasks[c.ID]
	if !ok {
		return nil, nil
	}
	if err := s.conflict(c); err != nil {
		return nil, err
	}
	s.unindex(old)
	s.tasks[c.ID] = c
	s.index(c)
	return c.Clone(), nil
}

func (s *MemStore) DeleteTask(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return false, nil
	}
	s.unindex(t)
	delete(s.tasks, id)
	s.taskOrder = without(s.taskOrder, id)
	s.history.Remove(id)
	return true, nil
}

func (s *MemStore) DeleteAllTasks(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.tasks {
		s.unindex(t)
		s.history.Remove(id)
	}
	clear(s.tasks)
	s.taskOrder = nil
	return nil
}

// --- Epics ---

func (s *MemStore) ListEpics(_ context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collect(s.epicOrder, s.epics), nil
}

func (s *MemStore) GetEpic(_ context.Context, id int) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(s.epics, id), nil
}

// CreateEpic stores a new, empty epic. Status, schedule and subtask ids on e
// are ignored.
func (s *MemStore) CreateEpic(_ context.Context, e *Task) (*Task, error) {
	c, err := prepare(e, KindEpic)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkID(c.ID); err != nil {
		return nil, err
	}
	s.assignID(c)
	s.epics[c.ID] = c
	s.epicOrder = append(s.epicOrder, c.ID)
	s.recompute(c)
	return c.Clone(), nil
}

// UpdateEpic copies the title and description of e onto the stored epic.
func (s *MemStore) UpdateEpic(_ context.Context, e *Task) (*Task, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil epic", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved, ok := s.epics[e.ID]
	if !ok {
		return nil, nil
	}
	saved.Title = e.Title
	saved.Description = e.Description
	return saved.Clone(), nil
}

// DeleteEpic removes the epic together with all of its subtasks.
func (s *MemStore) DeleteEpic(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.epics[id]
	if !ok {
		return false, nil
	}
	s.dropSubtasks(e.SubtaskIDs)
	delete(s.epics, id)
	s.epicOrder = without(s.epicOrder, id)
	s.history.Remove(id)
	return true, nil
}

func (s *MemStore) DeleteAllEpics(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sub := range s.subtasks {
		s.unindex(sub)
		s.history.Remove(id)
	}
	for id := range s.epics {
		s.history.Remove(id)
	}
	clear(s.subtasks)
	clear(s.epics)
	s.subtaskOrder = nil
	s.epicOrder = nil
	return nil
}

// --- Subtasks ---

func (s *MemStore) ListSubtasks(_ context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collect(s.subtaskOrder, s.subtasks), nil
}

func (s *MemStore) GetSubtask(_ context.Context, id int) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(s.subtasks, id), nil
}

func (s *MemStore) CreateSubtask(_ context.Context, st *Task) (*Task, error) {
	c, err := prepare(st, KindSubtask)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	epic, ok := s.epics[c.EpicID]
	if !ok {
		return nil, nil
	}
	if err := s.checkID(c.ID); err != nil {
		return nil, err
	}
	if err := s.conflict(c); err != nil {
		return nil, err
	}
	s.assignID(c)
	s.subtasks[c.ID] = c
	s.subtaskOrder = append(s.subtaskOrder, c.ID)
	s.index(c)
	epic.SubtaskIDs = append(epic.SubtaskIDs, c.ID)
	s.recompute(epic)
	return c.Clone(), nil
}

// UpdateSubtask replaces the stored subtask. The owning epic never changes.
func (s *MemStore) UpdateSubtask(_ context.Context, st *Task) (*Task, error) {
	c, err := prepare(st, KindSubtask)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.subtasks[c.ID]
	if !ok {
		return nil, nil
	}
	c.EpicID = old.EpicID
	if err := s.conflict(c); err != nil {
		return nil, err
	}
	s.unindex(old)
	s.subtasks[c.ID] = c
	s.index(c)
	if epic, ok := s.epics[c.EpicID]; ok {
		s.recompute(epic)
	}
	return c.Clone(), nil
}

func (s *MemStore) DeleteSubtask(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subtasks[id]
	if !ok {
		return false, nil
	}
	s.dropSubtask(id)
	if epic, ok := s.epics[sub.EpicID]; ok {
		epic.SubtaskIDs = without(epic.SubtaskIDs, id)
		s.recompute(epic)
	}
	return true, nil
}

// DeleteAllSubtasks removes every subtask and resets every epic to the
// empty state.
func (s *MemStore) DeleteAllSubtasks(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sub := range s.subtasks {
		s.unindex(sub)
		s.history.Remove(id)
	}
	clear(s.subtasks)
	s.subtaskOrder = nil
	for _, epic := range s.epics {
		epic.SubtaskIDs = nil
		s.recompute(epic)
	}
	return nil
}

func (s *MemStore) SubtasksByEpic(_ context.Context, epicID int) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	epic, ok := s.epics[epicID]
	if !ok {
		return []Task{}, nil
	}
	return collect(epic.SubtaskIDs, s.subtasks), nil
}

// --- Views ---

func (s *MemStore) Prioritized(_ context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, 0, s.schedule.Len())
	s.schedule.Each(func(t *Task) bool {
		out = append(out, *t.Clone())
		return true
	})
	return out, nil
}

// History returns the entities as they were when last read.
func (s *MemStore) History(_ context.Context) ([]Task, error) {
	entries := s.history.List()
	out := make([]Task, 0, len(entries))
	for _, t := range entries {
		out = append(out, *t.Clone())
	}
	return out, nil
}

// Records returns every entity ordered by id, without touching history.
func (s *MemStore) Records() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, 0, len(s.tasks)+len(s.epics)+len(s.subtasks))
	for _, m := range []map[int]*Task{s.tasks, s.epics, s.subtasks} {
		for _, t := range m {
			out = append(out, *t.Clone())
		}
	}
	slices.SortFunc(out, func(a, b Task) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// --- internals; callers hold s.mu ---

func (s *MemStore) lookup(m map[int]*Task, id int) *Task {
	t, ok := m[id]
	if !ok {
		return nil
	}
	s.history.Record(t.Clone())
	return t.Clone()
}

func (s *MemStore) exists(id int) bool {
	_, t := s.tasks[id]
	_, e := s.epics[id]
	_, st := s.subtasks[id]
	return t || e || st
}

func (s *MemStore) checkID(id int) error {
	if id != 0 && s.exists(id) {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	return nil
}

// assignID gives c the next free id unless the caller set one. Ids handed
// out by the generator only grow.
func (s *MemStore) assignID(c *Task) {
	if c.ID != 0 {
		return
	}
	for {
		s.lastID++
		if !s.exists(s.lastID) {
			c.ID = s.lastID
			return
		}
	}
}

// conflict checks c against every other scheduled item. The index is
// sorted by start, so the scan stops at the first item starting at or after
// c's end.
func (s *MemStore) conflict(c *Task) error {
	if !c.Scheduled() {
		return nil
	}
	end := *c.EndTime()
	var hit bool
	s.schedule.Each(func(other *Task) bool {
		if !other.StartTime.Before(end) {
			return false
		}
		if other.ID != c.ID && Overlaps(c, other) {
			hit = true
			return false
		}
		return true
	})
	if hit {
		return &ConflictError{Kind: c.Kind, Title: c.Title}
	}
	return nil
}

func (s *MemStore) index(t *Task) {
	if t.Kind != KindEpic && t.StartTime != nil {
		s.schedule.Add(t)
	}
}

func (s *MemStore) unindex(t *Task) {
	if t.Kind != KindEpic && t.StartTime != nil {
		s.schedule.Remove(t)
	}
}

// dropSubtask removes a subtask from the table, index, order and history.
// It does not touch the parent epic.
func (s *MemStore) dropSubtask(id int) {
	sub, ok := s.subtasks[id]
	if !ok {
		return
	}
	s.unindex(sub)
	delete(s.subtasks, id)
	s.subtaskOrder = without(s.subtaskOrder, id)
	s.history.Remove(id)
}

// dropSubtasks is dropSubtask for many ids with a single pass over the
// insertion order.
func (s *MemStore) dropSubtasks(ids []int) {
	gone := make(map[int]bool, len(ids))
	for _, id := range ids {
		sub, ok := s.subtasks[id]
		if !ok {
			continue
		}
		s.unindex(sub)
		delete(s.subtasks, id)
		s.history.Remove(id)
		gone[id] = true
	}
	if len(gone) == 0 {
		return
	}
	s.subtaskOrder = slices.DeleteFunc(s.subtaskOrder, func(v int) bool { return gone[v] })
}

// recompute derives an epic's status and time window from its subtasks.
func (s *MemStore) recompute(epic *Task) {
	var (
		total      time.Duration
		start, end *time.Time
		allNew     = true
		allDone    = true
	)
	for _, id := range epic.SubtaskIDs {
		sub, ok := s.subtasks[id]
		if !ok {
			continue
		}
		switch sub.Status {
		case StatusNew:
			allDone = false
		case StatusDone:
			allNew = false
		default:
			allNew, allDone = false, false
		}
		if sub.Duration != nil {
			total += *sub.Duration
		}
		if sub.StartTime != nil && (start == nil || sub.StartTime.Before(*start)) {
			v := *sub.StartTime
			start = &v
		}
		if e := sub.EndTime(); e != nil && (end == nil || e.After(*end)) {
			end = e
		}
	}

	switch {
	case allNew:
		epic.Status = StatusNew
	case allDone:
		epic.Status = StatusDone
	default:
		epic.Status = StatusInProgress
	}
	epic.Duration = &total
	epic.StartTime = start
	epic.End = end
}

// prepare copies t, forces its kind and validates client-settable fields.
func prepare(t *Task, kind Kind) (*Task, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil %s", ErrInvalid, kind)
	}
	if t.ID < 0 {
		return nil, fmt.Errorf("%w: negative id %d", ErrInvalid, t.ID)
	}
	c := t.Clone()
	c.Kind = kind
	c.End = nil
	switch kind {
	case KindEpic:
		c.Status = StatusNew
		c.Duration = nil
		c.StartTime = nil
		c.SubtaskIDs = nil
		c.EpicID = 0
		return c, nil
	case KindTask:
		c.EpicID = 0
	}
	c.SubtaskIDs = nil

	st, err := ParseStatus(string(c.Status))
	if err != nil {
		return nil, err
	}
	c.Status = st
	if c.Duration != nil {
		if *c.Duration < 0 {
			return nil, fmt.Errorf("%w: negative duration", ErrInvalid)
		}
		if *c.Duration%time.Minute != 0 {
			return nil, fmt.Errorf("%w: duration %s is not a whole number of minutes", ErrInvalid, *c.Duration)
		}
	}
	// Records keep naive UTC timestamps to the second.
	if c.StartTime != nil {
		start := c.StartTime.UTC().Truncate(time.Second)
		c.StartTime = &start
	}
	return c, nil
}

func collect(order []int, m map[int]*Task) []Task {
	out := make([]Task, 0, len(order))
	for _, id := range order {
		if t, ok := m[id]; ok {
			out = append(out, *t.Clone())
		}
	}
	return out
}

func without(ids []int, id int) []int {
	return slices.DeleteFunc(ids, func(v int) bool { return v == id })
}
