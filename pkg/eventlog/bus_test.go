package eventlog

import (
	"context"
	"testing"

	"task-tracker/pkg/task"
)

func TestBusFanOut(t *testing.T) {
	b := NewBus(NewMemLog(0))
	a, c := b.Subscribe(), b.Subscribe()

	e, err := b.Append(context.Background(), "task.created", task.KindTask, 1, "a")
	if err != nil {
		t.Fatal(err)
	}
	for _, ch := range []chan *Event{a, c} {
		select {
		case got := <-ch:
			if got.ID != e.ID {
				t.Fatalf("got %s, want %s", got.ID, e.ID)
			}
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}

	b.Unsubscribe(a)
	b.Unsubscribe(a)
	if _, ok := <-a; ok {
		t.Fatal("unsubscribed channel should be closed")
	}
	if n := b.Subscribers(); n != 1 {
		t.Fatalf("Subscribers() = %d, want 1", n)
	}
}

func TestBusDoesNotBlockOnSlowSubscriber(t *testing.T) {
	b := NewBus(NewMemLog(0))
	ch := b.Subscribe()
	appendN(t, b, 100)

	if len(ch) != cap(ch) {
		t.Fatalf("buffer holds %d events, want %d", len(ch), cap(ch))
	}
	if n, _ := b.Count(context.Background()); n != 100 {
		t.Fatalf("Count() = %d, want 100", n)
	}
}
