package eventlog

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"task-tracker/pkg/task"
)

// MemLog is an in-memory Log that keeps the most recent events. Evicted
// events still anchor the chain: the oldest retained event links to the
// hash of the last one dropped.
type MemLog struct {
	mu     sync.Mutex
	size   int
	events []Event
	anchor string // hash before events[0]
}

// NewMemLog creates a MemLog holding at most size events. Zero or less
// keeps everything.
func NewMemLog(size int) *MemLog {
	return &MemLog{size: size}
}

func (l *MemLog) Append(_ context.Context, eventType string, kind task.Kind, entityID int, title string) (*Event, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	prevHash := l.anchor
	if n := len(l.events); n > 0 {
		prevHash = l.events[n-1].Hash
	}
	e := Event{
		ID:        id.String(),
		Type:      eventType,
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
		Kind:      kind,
		EntityID:  entityID,
		Title:     title,
		PrevHash:  prevHash,
	}
	e.Hash = computeHash(prevHash, e.ID, e.Type, e.Kind, e.EntityID, e.Title, e.Timestamp)

	l.events = append(l.events, e)
	if l.size > 0 && len(l.events) > l.size {
		drop := len(l.events) - l.size
		l.anchor = l.events[drop-1].Hash
		l.events = slices.Delete(l.events, 0, drop)
	}
	return &e, nil
}

func (l *MemLog) Recent(_ context.Context, limit int) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, 0, n)
	for i := len(l.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.events[i])
	}
	return out, nil
}

// Since returns events after afterID. When afterID is unknown, having been
// evicted or never issued, every retained event is returned.
func (l *MemLog) Since(_ context.Context, afterID string, limit int) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := 0
	if i := slices.IndexFunc(l.events, func(e Event) bool { return e.ID == afterID }); i >= 0 {
		start = i + 1
	}
	rest := l.events[start:]
	if limit > 0 && limit < len(rest) {
		rest = rest[:limit]
	}
	return slices.Clone(rest), nil
}

func (l *MemLog) Count(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events), nil
}

// VerifyChain checks the retained events.
func (l *MemLog) VerifyChain(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return verify(l.anchor, l.events)
}
