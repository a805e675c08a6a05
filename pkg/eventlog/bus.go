package eventlog

import (
	"context"
	"sync"

	"task-tracker/pkg/task"
)

// Bus is a Log that also pushes every appended event to live subscribers.
type Bus struct {
	Log
	mu   sync.RWMutex
	subs map[chan *Event]struct{}
}

// NewBus wraps log.
func NewBus(log Log) *Bus {
	return &Bus{
		Log:  log,
		subs: make(map[chan *Event]struct{}),
	}
}

// Append stores the event, then offers it to each subscriber without
// blocking. A subscriber whose buffer is full misses the event.
func (b *Bus) Append(ctx context.Context, eventType string, kind task.Kind, entityID int, title string) (*Event, error) {
	e, err := b.Log.Append(ctx, eventType, kind, entityID, title)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
	return e, nil
}

// Subscribe registers a new subscriber with a buffer of 64 events.
func (b *Bus) Subscribe() chan *Event {
	ch := make(chan *Event, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes ch and closes it. Unknown channels are ignored.
func (b *Bus) Unsubscribe(ch chan *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; !ok {
		return
	}
	delete(b.subs, ch)
	close(ch)
}

// Subscribers returns the number of live subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
