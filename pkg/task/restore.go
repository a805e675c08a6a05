package task

import (
	"fmt"
)

// Restore builds a MemStore from persisted records. Overlap checks are not
// replayed. Subtasks are linked to their epics in record order, every epic
// is recomputed once, and the id generator continues after the largest id.
//
// Persisted epic status and times are ignored. A subtask whose epic is not
// among the records makes the whole restore fail.
func Restore(records []Task, opts Options) (*MemStore, error) {
	s := NewMemStore(opts)

	for i := range records {
		r := &records[i]
		if r.ID <= 0 {
			return nil, fmt.Errorf("%w: record %d: id %d", ErrInvalid, i+1, r.ID)
		}
		if s.exists(r.ID) {
			return nil, fmt.Errorf("%w: record %d: duplicate id %d", ErrInvalid, i+1, r.ID)
		}
		c := r.Clone()
		c.SubtaskIDs = nil
		c.End = nil

		switch c.Kind {
		case KindTask:
			c.EpicID = 0
			s.tasks[c.ID] = c
			s.taskOrder = append(s.taskOrder, c.ID)
			s.index(c)
		case KindEpic:
			c.EpicID = 0
			s.epics[c.ID] = c
			s.epicOrder = append(s.epicOrder, c.ID)
		case KindSubtask:
			s.subtasks[c.ID] = c
			s.subtaskOrder = append(s.subtaskOrder, c.ID)
			s.index(c)
		default:
			return nil, fmt.Errorf("%w: record %d: unknown type %q", ErrInvalid, i+1, c.Kind)
		}
		s.lastID = max(s.lastID, c.ID)
	}

	for _, id := range s.subtaskOrder {
		sub := s.subtasks[id]
		epic, ok := s.epics[sub.EpicID]
		if !ok {
			return nil, fmt.Errorf("%w: subtask %d references missing epic %d", ErrInvalid, id, sub.EpicID)
		}
		epic.SubtaskIDs = append(epic.SubtaskIDs, id)
	}
	for _, epic := range s.epics {
		s.recompute(epic)
	}
	return s, nil
}
