package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks variables Load reads so the host environment does not leak
// into the results.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "DATABASE_URL", "TT_ADDR", "TT_BACKEND", "TT_DATABASE_URL", "TT_HISTORY_LIMIT"} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Backend != BackendFile {
		t.Errorf("Backend = %q, want file", cfg.Backend)
	}
	if cfg.HistoryLimit != 10 {
		t.Errorf("HistoryLimit = %d, want 10", cfg.HistoryLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *Default() {
		t.Fatalf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tt.yaml")
	body := "backend: sqlite\nsqlite_path: /tmp/x.db\nhistory_limit: 3\nshutdown_timeout: 2s\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != BackendSQLite || cfg.SQLitePath != "/tmp/x.db" || cfg.HistoryLimit != 3 {
		t.Fatalf("Load() = %+v", cfg)
	}
	if cfg.ShutdownTimeout != 2*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 2s", cfg.ShutdownTimeout)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want default", cfg.Addr)
	}
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tt.yaml")
	if err := os.WriteFile(path, []byte("backend: sqlite\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TT_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/tt")
	t.Setenv("PORT", "9090")
	t.Setenv("TT_HISTORY_LIMIT", "0")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != BackendPostgres || cfg.DatabaseURL != "postgres://localhost/tt" {
		t.Fatalf("Load() = %+v", cfg)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", cfg.Addr)
	}
	if cfg.HistoryLimit != 0 {
		t.Errorf("HistoryLimit = %d, want 0", cfg.HistoryLimit)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"memory", func(c *Config) { c.Backend = BackendMemory; c.FilePath = "" }, true},
		{"unknown backend", func(c *Config) { c.Backend = "redis" }, false},
		{"file without path", func(c *Config) { c.FilePath = "" }, false},
		{"postgres without url", func(c *Config) { c.Backend = BackendPostgres }, false},
		{"postgres", func(c *Config) { c.Backend = BackendPostgres; c.DatabaseURL = "postgres://x" }, true},
		{"negative timeout", func(c *Config) { c.ShutdownTimeout = -time.Second }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "conf", "tt.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "shutdown_timeout: 10s") {
		t.Errorf("written config:\n%s", data)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *Default() {
		t.Fatalf("reloaded %+v, want defaults", cfg)
	}

	if err := WriteDefault(path); err == nil {
		t.Fatal("WriteDefault should refuse to overwrite")
	}
}
