// Package history keeps a de-duplicated, recency-ordered list of accessed
// values.
package history

import (
	"container/list"
	"sync"
)

// Tracker remembers the last accessed values, at most one entry per key.
// The zero value is not usable; use New.
type Tracker[V any] struct {
	mu    sync.Mutex
	key   func(V) (int, bool)
	limit int
	order *list.List
	nodes map[int]*list.Element
}

// New creates a Tracker. key extracts the identity of a value and reports
// false for absent values, which are never recorded. A limit of zero or less
// keeps every entry.
func New[V any](limit int, key func(V) (int, bool)) *Tracker[V] {
	return &Tracker[V]{
		key:   key,
		limit: limit,
		order: list.New(),
		nodes: make(map[int]*list.Element),
	}
}

// Record moves v to the most recent position. When the limit is exceeded
// the oldest entry is evicted.
func (t *Tracker[V]) Record(v V) {
	k, ok := t.key(v)
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.nodes[k]; ok {
		t.order.Remove(e)
	}
	t.nodes[k] = t.order.PushBack(v)

	if t.limit > 0 && t.order.Len() > t.limit {
		oldest := t.order.Front()
		t.order.Remove(oldest)
		old, _ := t.key(oldest.Value.(V))
		delete(t.nodes, old)
	}
}

// Remove drops the entry for id. Unknown ids are ignored.
func (t *Tracker[V]) Remove(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.nodes[id]; ok {
		t.order.Remove(e)
		delete(t.nodes, id)
	}
}

// List returns the entries oldest first.
func (t *Tracker[V]) List() []V {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]V, 0, t.order.Len())
	for e := t.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(V))
	}
	return out
}

func (t *Tracker[V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order.Len()
}
