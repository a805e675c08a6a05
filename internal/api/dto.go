package api

import (
	"fmt"
	"time"

	"task-tracker/pkg/task"
)

// TaskJSON is the wire form of a task, epic or subtask. Durations are whole
// minutes and times use task.TimeLayout.
type TaskJSON struct {
	ID          int         `json:"id"`
	Type        task.Kind   `json:"type,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      task.Status `json:"status,omitempty"`
	Duration    *int64      `json:"duration,omitempty"`
	StartTime   string      `json:"startTime,omitempty"`
	EndTime     string      `json:"endTime,omitempty"`
	EpicID      int         `json:"epicId,omitempty"`
	SubtaskIDs  []int       `json:"subtaskIds,omitempty"`
}

// ToJSON converts t to its wire form.
func ToJSON(t *task.Task) TaskJSON {
	out := TaskJSON{
		ID:          t.ID,
		Type:        t.Kind,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		EpicID:      t.EpicID,
		SubtaskIDs:  t.SubtaskIDs,
	}
	if t.Duration != nil {
		m := int64(*t.Duration / time.Minute)
		out.Duration = &m
	}
	if t.StartTime != nil {
		out.StartTime = t.StartTime.Format(task.TimeLayout)
	}
	if end := t.EndTime(); end != nil {
		out.EndTime = end.Format(task.TimeLayout)
	}
	return out
}

func ToJSONList(ts []task.Task) []TaskJSON {
	out := make([]TaskJSON, 0, len(ts))
	for i := range ts {
		out = append(out, ToJSON(&ts[i]))
	}
	return out
}

// Task builds the store input. Type, endTime and subtaskIds are derived
// by the store and ignored here.
func (d TaskJSON) Task() (*task.Task, error) {
	t := &task.Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		EpicID:      d.EpicID,
	}
	if d.Duration != nil {
		v := time.Duration(*d.Duration) * time.Minute
		t.Duration = &v
	}
	if d.StartTime != "" {
		start, err := task.ParseTime(d.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%w: startTime %q", task.ErrInvalid, d.StartTime)
		}
		t.StartTime = &start
	}
	return t, nil
}
