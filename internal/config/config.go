// Package config loads server and CLI settings from an optional yaml file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds every setting. Env overrides use the TT_ prefix and the
// upper-cased key, e.g. TT_BACKEND. PORT and DATABASE_URL are honored too.
type Config struct {
	Addr        string `yaml:"addr" mapstructure:"addr"`
	Backend     string `yaml:"backend" mapstructure:"backend"`
	FilePath    string `yaml:"file_path" mapstructure:"file_path"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`

	// Entries kept in the view history; zero or less keeps all.
	HistoryLimit int `yaml:"history_limit" mapstructure:"history_limit"`
	// Change events kept in memory when not on postgres.
	EventLogSize int `yaml:"event_log_size" mapstructure:"event_log_size"`

	ShutdownTimeout time.Duration `yaml:"-" mapstructure:"shutdown_timeout"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		Backend:         BackendFile,
		FilePath:        filepath.Join("data", "tasks.csv"),
		SQLitePath:      filepath.Join("data", "tasks.db"),
		HistoryLimit:    10,
		EventLogSize:    1000,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load returns the defaults overlaid with the file at path, if any, and then
// the environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	def := Default()
	v := viper.New()
	v.SetDefault("addr", def.Addr)
	v.SetDefault("backend", def.Backend)
	v.SetDefault("file_path", def.FilePath)
	v.SetDefault("sqlite_path", def.SQLitePath)
	v.SetDefault("database_url", "")
	v.SetDefault("history_limit", def.HistoryLimit)
	v.SetDefault("event_log_size", def.EventLogSize)
	v.SetDefault("shutdown_timeout", def.ShutdownTimeout)

	v.SetEnvPrefix("TT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", "TT_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if port := os.Getenv("PORT"); port != "" && os.Getenv("TT_ADDR") == "" {
		cfg.Addr = ":" + port
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendFile:
		if c.FilePath == "" {
			return errors.New("file backend needs file_path")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite backend needs sqlite_path")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("postgres backend needs database_url (or DATABASE_URL)")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if c.ShutdownTimeout < 0 {
		return errors.New("shutdown_timeout must not be negative")
	}
	return nil
}

// MarshalYAML writes durations in their string form.
func (c Config) MarshalYAML() (any, error) {
	type Fields Config
	return struct {
		Fields          `yaml:",inline"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	}{Fields(c), c.ShutdownTimeout.String()}, nil
}

// WriteDefault writes the default configuration to path. An existing file
// is left alone.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	header := "# task tracker configuration\n# backend: memory | file | sqlite | postgres\n"
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}
