package history

import (
	"testing"
)

type item struct {
	id    int
	state string
}

func newTracker(limit int) *Tracker[*item] {
	return New(limit, func(it *item) (int, bool) {
		if it == nil {
			return 0, false
		}
		return it.id, true
	})
}

func ids(items []*item) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.id)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRecordOrder(t *testing.T) {
	h := newTracker(0)
	h.Record(&item{id: 1})
	h.Record(&item{id: 2})
	h.Record(&item{id: 3})

	if got := ids(h.List()); !equalInts(got, []int{1, 2, 3}) {
		t.Fatalf("List() = %v, want [1 2 3]", got)
	}
}

func TestRecordDuplicateMovesToEnd(t *testing.T) {
	h := newTracker(0)
	h.Record(&item{id: 1})
	h.Record(&item{id: 2})
	h.Record(&item{id: 3})
	h.Record(&item{id: 1})
	h.Record(&item{id: 1})

	if got := ids(h.List()); !equalInts(got, []int{2, 3, 1}) {
		t.Fatalf("List() = %v, want [2 3 1]", got)
	}
	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}
}

func TestRecordNilIgnored(t *testing.T) {
	h := newTracker(0)
	h.Record(nil)

	if got := h.List(); len(got) != 0 {
		t.Fatalf("List() = %v, want empty", got)
	}
}

func TestRemove(t *testing.T) {
	h := newTracker(0)
	h.Record(&item{id: 1})
	h.Record(&item{id: 2})
	h.Record(&item{id: 3})

	h.Remove(2)
	if got := ids(h.List()); !equalInts(got, []int{1, 3}) {
		t.Fatalf("List() = %v, want [1 3]", got)
	}

	h.Remove(999)
	if got := ids(h.List()); !equalInts(got, []int{1, 3}) {
		t.Fatalf("List() after removing unknown id = %v, want [1 3]", got)
	}
}

func TestLimitEvictsOldest(t *testing.T) {
	h := newTracker(3)
	for i := 1; i <= 5; i++ {
		h.Record(&item{id: i})
	}

	if got := ids(h.List()); !equalInts(got, []int{3, 4, 5}) {
		t.Fatalf("List() = %v, want [3 4 5]", got)
	}

	// 3 was re-accessed, so 4 is now the oldest.
	h.Record(&item{id: 3})
	h.Record(&item{id: 6})
	if got := ids(h.List()); !equalInts(got, []int{5, 3, 6}) {
		t.Fatalf("List() = %v, want [5 3 6]", got)
	}
}

func TestEntryIsTheRecordedValue(t *testing.T) {
	h := newTracker(0)
	it := &item{id: 1, state: "NEW"}
	h.Record(it)

	// Pointers are stored as given; callers that need a frozen view record
	// a copy.
	it.state = "DONE"
	if got := h.List()[0].state; got != "DONE" {
		t.Fatalf("state = %q, want DONE", got)
	}

	frozen := *it
	h.Record(&frozen)
	it.state = "IN_PROGRESS"
	if got := h.List()[0].state; got != "DONE" {
		t.Fatalf("state = %q, want DONE", got)
	}
}

func TestEmptyListNotNil(t *testing.T) {
	h := newTracker(0)
	if got := h.List(); got == nil {
		t.Fatal("List() = nil, want empty slice")
	}
}
