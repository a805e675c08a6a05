// Package cli implements the tt command line tool. It works directly on the
// configured durable backend, without a running server.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"task-tracker/internal/api"
	"task-tracker/internal/config"
	"task-tracker/internal/storage"
	"task-tracker/pkg/task"
)

// Output formats.
const (
	formatJSON  = "json"
	formatShort = "short"
)

// app carries the global flags and loaded config for one invocation.
type app struct {
	cfgPath string
	backend string
	format  string
	cfg     *config.Config
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "tt",
		Short:         "Track tasks, epics and subtasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch a.format {
			case formatJSON, formatShort:
			default:
				return fmt.Errorf("unknown --format %q (want %s or %s)", a.format, formatJSON, formatShort)
			}
			return a.loadConfig()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "tt.yaml", "config file")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "override the configured backend (file, sqlite, postgres)")
	root.PersistentFlags().StringVar(&a.format, "format", formatJSON, "output format: json or short")

	root.AddCommand(
		a.kindCmd(task.KindTask),
		a.kindCmd(task.KindEpic),
		a.kindCmd(task.KindSubtask),
		a.prioritizedCmd(),
		a.migrateCmd(),
		a.configCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute(version string) error {
	root := NewRootCmd()
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.backend != "" {
		cfg.Backend = a.backend
	}
	a.cfg = cfg
	return nil
}

// withStore opens the backend, runs fn and closes it again.
func (a *app) withStore(ctx context.Context, fn func(task.Store) error) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if a.cfg.Backend == config.BackendMemory {
		return errors.New("the memory backend keeps nothing between runs; pick file, sqlite or postgres")
	}
	b, err := storage.Open(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b.Store)
}

func (a *app) printTasks(w io.Writer, ts []task.Task) error {
	if a.format == formatShort {
		for i := range ts {
			printShort(w, &ts[i])
		}
		return nil
	}
	return printJSON(w, api.ToJSONList(ts))
}

func (a *app) printTask(w io.Writer, t *task.Task) error {
	if a.format == formatShort {
		printShort(w, t)
		return nil
	}
	return printJSON(w, api.ToJSON(t))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printShort(w io.Writer, t *task.Task) {
	when := ""
	if t.StartTime != nil {
		when = t.StartTime.Format("2006-01-02 15:04")
	}
	fmt.Fprintf(w, "%-6d  %-8s  %-12s  %-16s  %s\n", t.ID, t.Kind, t.Status, when, truncStr(t.Title, 60))
}

func truncStr(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
