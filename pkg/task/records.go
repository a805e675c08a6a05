package task

import (
	"fmt"
	"strconv"
	"time"
)

// TimeLayout is the textual date-time encoding used in persisted records.
// Times are wall-clock values and are read back in UTC.
const TimeLayout = "2006-01-02T15:04:05"

// shortTimeLayout is what java.time.LocalDateTime prints when seconds are 0.
const shortTimeLayout = "2006-01-02T15:04"

// recordHeader names the columns of a persisted record, in order.
var recordHeader = []string{"id", "type", "name", "status", "description", "duration", "startTime", "endTime", "epic"}

// row is the column form shared by every backend.
type row struct {
	ID          int64
	Type        string
	Name        string
	Status      string
	Description string
	Minutes     *int64
	Start       *time.Time
	End         *time.Time
	Epic        *int64
}

func toRow(t *Task) row {
	r := row{
		ID:          int64(t.ID),
		Type:        string(t.Kind),
		Name:        t.Title,
		Status:      string(t.Status),
		Description: t.Description,
		Start:       utc(t.StartTime),
		End:         utc(t.EndTime()),
	}
	if t.Duration != nil {
		m := int64(*t.Duration / time.Minute)
		r.Minutes = &m
	}
	if t.Kind == KindSubtask {
		e := int64(t.EpicID)
		r.Epic = &e
	}
	return r
}

func fromRow(r row) (*Task, error) {
	kind, err := ParseKind(r.Type)
	if err != nil {
		return nil, err
	}
	status, err := ParseStatus(r.Status)
	if err != nil {
		return nil, err
	}
	t := &Task{
		ID:          int(r.ID),
		Kind:        kind,
		Title:       r.Name,
		Description: r.Description,
		Status:      status,
	}
	if r.Minutes != nil {
		if *r.Minutes < 0 {
			return nil, fmt.Errorf("%w: negative duration %d", ErrInvalid, *r.Minutes)
		}
		d := time.Duration(*r.Minutes) * time.Minute
		t.Duration = &d
	}
	if r.Start != nil {
		s := r.Start.UTC()
		t.StartTime = &s
	}
	if kind == KindSubtask {
		if r.Epic == nil {
			return nil, fmt.Errorf("%w: subtask %d without epic", ErrInvalid, r.ID)
		}
		t.EpicID = int(*r.Epic)
	}
	return t, nil
}

// encodeFields renders t as a flat text record.
func encodeFields(t *Task) []string {
	r := toRow(t)
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Type,
		r.Name,
		r.Status,
		r.Description,
		formatInt(r.Minutes),
		formatTime(r.Start),
		formatTime(r.End),
		formatInt(r.Epic),
	}
}

// decodeFields parses a flat text record. The endTime column is validated
// but not used: it is derived on the way back in.
func decodeFields(f []string) (*Task, error) {
	if len(f) != len(recordHeader) {
		return nil, fmt.Errorf("%w: want %d fields, got %d", ErrInvalid, len(recordHeader), len(f))
	}
	id, err := strconv.ParseInt(f[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: id %q", ErrInvalid, f[0])
	}
	r := row{ID: id, Type: f[1], Name: f[2], Status: f[3], Description: f[4]}
	if r.Minutes, err = parseInt(f[5]); err != nil {
		return nil, fmt.Errorf("%w: duration %q", ErrInvalid, f[5])
	}
	if r.Start, err = parseTime(f[6]); err != nil {
		return nil, fmt.Errorf("%w: startTime %q", ErrInvalid, f[6])
	}
	if r.End, err = parseTime(f[7]); err != nil {
		return nil, fmt.Errorf("%w: endTime %q", ErrInvalid, f[7])
	}
	if r.Epic, err = parseInt(f[8]); err != nil {
		return nil, fmt.Errorf("%w: epic %q", ErrInvalid, f[8])
	}
	return fromRow(r)
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func parseInt(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// ParseTime reads a record timestamp. Seconds may be omitted.
func ParseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimeLayout, s, time.UTC)
	if err == nil {
		return t, nil
	}
	if t, err2 := time.ParseInLocation(shortTimeLayout, s, time.UTC); err2 == nil {
		return t, nil
	}
	return time.Time{}, err
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
