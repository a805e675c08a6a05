package eventlog

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"task-tracker/pkg/task"
)

// checkLimits asserts the limit and afterID rules every Log shares.
// l must start empty.
func checkLimits(t *testing.T, l Log) {
	t.Helper()
	ctx := context.Background()
	var ids []string
	for i := 1; i <= 3; i++ {
		e, err := l.Append(ctx, TypeOf(task.KindTask, Created), task.KindTask, i, "t")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, e.ID)
	}

	for _, limit := range []int{0, -1} {
		recent, err := l.Recent(ctx, limit)
		if err != nil || len(recent) != 3 || recent[0].ID != ids[2] {
			t.Errorf("Recent(%d) = %d events, %v; want all 3 newest first", limit, len(recent), err)
		}
		since, err := l.Since(ctx, ids[0], limit)
		if err != nil || len(since) != 2 || since[0].ID != ids[1] {
			t.Errorf("Since(first, %d) = %d events, %v; want 2", limit, len(since), err)
		}
	}

	all, err := l.Since(ctx, "no-such-event", 0)
	if err != nil || len(all) != 3 || all[0].ID != ids[0] {
		t.Errorf("Since(unknown) = %d events, %v; want all 3 oldest first", len(all), err)
	}
	if two, _ := l.Since(ctx, "no-such-event", 2); len(two) != 2 {
		t.Errorf("Since(unknown, 2) = %d events, want 2", len(two))
	}
	if none, _ := l.Since(ctx, ids[2], 0); len(none) != 0 {
		t.Errorf("Since(last) = %d events, want 0", len(none))
	}
}

func TestMemLogLimits(t *testing.T) {
	checkLimits(t, NewMemLog(10))
}

func TestPgLogLimits(t *testing.T) {
	url := os.Getenv("TT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	l := NewPgLog(pool)
	if err := l.EnsureTable(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Exec(ctx, `DELETE FROM task_events`); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pool.Exec(context.Background(), `DELETE FROM task_events`) })

	checkLimits(t, l)
	if err := l.VerifyChain(ctx); err != nil {
		t.Fatalf("VerifyChain() = %v", err)
	}
}
