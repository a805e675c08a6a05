package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"task-tracker/internal/config"
	"task-tracker/pkg/task"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Backend = backend
	cfg.FilePath = filepath.Join(dir, "tasks.csv")
	cfg.SQLitePath = filepath.Join(dir, "tasks.db")
	return cfg
}

func TestOpenMemory(t *testing.T) {
	b, err := Open(context.Background(), testConfig(t, config.BackendMemory))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if _, ok := b.Store.(*task.MemStore); !ok {
		t.Fatalf("Store = %T, want *task.MemStore", b.Store)
	}
}

func TestOpenFileStartsEmptyAndPersists(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.BackendFile)

	b, err := Open(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Store.CreateTask(ctx, task.New("A", "")); err != nil {
		t.Fatal(err)
	}
	b.Close()

	if _, err := os.Stat(cfg.FilePath); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	b, err = Open(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	tasks, _ := b.Store.ListTasks(ctx)
	if len(tasks) != 1 || tasks[0].Title != "A" {
		t.Fatalf("reopened tasks = %+v", tasks)
	}
}

func TestOpenFileRejectsCorruptFile(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	if err := os.WriteFile(cfg.FilePath, []byte("not,a,header\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(context.Background(), cfg); !errors.Is(err, task.ErrLoad) {
		t.Fatalf("Open() err = %v, want ErrLoad", err)
	}
}

func TestMigrateFileToSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.BackendFile)

	b, err := Open(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	e, _ := b.Store.CreateEpic(ctx, task.NewEpic("E", ""))
	b.Store.CreateSubtask(ctx, task.NewSubtask(e.ID, "S", ""))
	b.Store.CreateTask(ctx, task.New("T", ""))
	b.Close()

	n, err := Migrate(ctx, cfg, config.BackendFile, config.BackendSQLite)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("migrated %d records, want 3", n)
	}

	cfg.Backend = config.BackendSQLite
	b, err = Open(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	subs, _ := b.Store.SubtasksByEpic(ctx, e.ID)
	if len(subs) != 1 || subs[0].Title != "S" {
		t.Fatalf("subtasks after migrate = %+v", subs)
	}
}

func TestMigrateErrors(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.BackendFile)
	if _, err := Migrate(ctx, cfg, config.BackendFile, config.BackendFile); err == nil {
		t.Error("same source and target should fail")
	}
	if _, err := Migrate(ctx, cfg, config.BackendMemory, config.BackendFile); err == nil {
		t.Error("memory source should fail")
	}
	if _, err := Migrate(ctx, cfg, config.BackendFile, config.BackendSQLite); !errors.Is(err, task.ErrLoad) {
		t.Errorf("missing source file err = %v, want ErrLoad", err)
	}
}
