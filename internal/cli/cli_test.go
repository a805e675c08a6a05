package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"task-tracker/internal/api"
)

// setup writes a config that points the file and sqlite backends into a
// temp dir and returns its path.
func setup(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"PORT", "DATABASE_URL", "TT_ADDR", "TT_BACKEND", "TT_FILE_PATH", "TT_SQLITE_PATH"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "tt.yaml")
	body := "backend: file\nfile_path: " + filepath.Join(dir, "tasks.csv") +
		"\nsqlite_path: " + filepath.Join(dir, "tasks.db") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()
	out, err := run(t, cfgPath, args...)
	if err != nil {
		t.Fatalf("tt %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestAddListAcrossRuns(t *testing.T) {
	cfg := setup(t)

	out := mustRun(t, cfg, "epic", "add", "--title", "Move")
	var epic api.TaskJSON
	if err := json.Unmarshal([]byte(out), &epic); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	mustRun(t, cfg, "subtask", "add", "--epic", "1", "--title", "Pack", "--status", "done",
		"--start", "2025-03-10T09:00", "--duration", "60")
	mustRun(t, cfg, "task", "add", "--title", "Call", "--start", "2025-03-10T08:00:00", "--duration", "30")

	out = mustRun(t, cfg, "epic", "get", "1")
	if err := json.Unmarshal([]byte(out), &epic); err != nil {
		t.Fatal(err)
	}
	if epic.Status != "DONE" || epic.EndTime != "2025-03-10T10:00:00" {
		t.Fatalf("epic = %+v", epic)
	}

	out = mustRun(t, cfg, "--format", "short", "prioritized")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "Call") || !strings.Contains(lines[1], "Pack") {
		t.Fatalf("prioritized =\n%s", out)
	}
}

func TestAddRejections(t *testing.T) {
	cfg := setup(t)
	mustRun(t, cfg, "task", "add", "--title", "A", "--start", "2025-03-10T10:00:00", "--duration", "60")

	if _, err := run(t, cfg, "task", "add", "--title", "B", "--start", "2025-03-10T10:30:00", "--duration", "60"); err == nil {
		t.Error("overlapping task should fail")
	}
	if _, err := run(t, cfg, "subtask", "add", "--epic", "99", "--title", "orphan"); err == nil || !strings.Contains(err.Error(), "epic 99 not found") {
		t.Errorf("missing epic err = %v", err)
	}
	if _, err := run(t, cfg, "task", "add"); err == nil {
		t.Error("missing --title should fail")
	}
	if _, err := run(t, cfg, "task", "get", "x"); err == nil {
		t.Error("bad id should fail")
	}
}

func TestUpdateAndRemove(t *testing.T) {
	cfg := setup(t)
	mustRun(t, cfg, "task", "add", "--title", "A")

	out := mustRun(t, cfg, "task", "update", "1", "--status", "IN_PROGRESS")
	var got api.TaskJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "IN_PROGRESS" || got.Title != "A" {
		t.Fatalf("updated = %+v", got)
	}

	mustRun(t, cfg, "task", "rm", "1")
	if _, err := run(t, cfg, "task", "rm", "1"); err == nil {
		t.Error("second rm should fail")
	}
	if out := mustRun(t, cfg, "task", "list"); strings.TrimSpace(out) != "[]" {
		t.Fatalf("list = %s", out)
	}
}

func TestMigrateAndBackendFlag(t *testing.T) {
	cfg := setup(t)
	mustRun(t, cfg, "task", "add", "--title", "A")

	out := mustRun(t, cfg, "migrate", "--to", "sqlite")
	if !strings.Contains(out, "copied 1 records") {
		t.Fatalf("migrate = %s", out)
	}
	out = mustRun(t, cfg, "--backend", "sqlite", "--format", "short", "task", "list")
	if !strings.Contains(out, "A") {
		t.Fatalf("sqlite list = %s", out)
	}

	if _, err := run(t, cfg, "--backend", "memory", "task", "list"); err == nil {
		t.Error("memory backend should be refused")
	}
}

func TestConfigInit(t *testing.T) {
	setup(t)
	path := filepath.Join(t.TempDir(), "new.yaml")
	mustRun(t, path, "config", "init")
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
	out := mustRun(t, path, "config", "show")
	if !strings.Contains(out, "backend: file") {
		t.Fatalf("config show = %s", out)
	}
}

func TestUnknownFormatRejected(t *testing.T) {
	cfg := setup(t)

	out, err := run(t, cfg, "--format", "table", "task", "list")
	if err == nil || !strings.Contains(err.Error(), `unknown --format "table"`) {
		t.Fatalf("err = %v, want unknown format\n%s", err, out)
	}
	if _, statErr := os.Stat(filepath.Join(filepath.Dir(cfg), "tasks.csv")); !os.IsNotExist(statErr) {
		t.Errorf("tasks.csv should not be touched, stat err = %v", statErr)
	}
}
