package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"task-tracker/pkg/task"
)

// kindOps selects the store methods for one entity kind.
type kindOps struct {
	list   func(context.Context) ([]task.Task, error)
	get    func(context.Context, int) (*task.Task, error)
	create func(context.Context, *task.Task) (*task.Task, error)
	update func(context.Context, *task.Task) (*task.Task, error)
	remove func(context.Context, int) (bool, error)
	clear  func(context.Context) error
}

func opsFor(s task.Store, kind task.Kind) kindOps {
	switch kind {
	case task.KindEpic:
		return kindOps{s.ListEpics, s.GetEpic, s.CreateEpic, s.UpdateEpic, s.DeleteEpic, s.DeleteAllEpics}
	case task.KindSubtask:
		return kindOps{s.ListSubtasks, s.GetSubtask, s.CreateSubtask, s.UpdateSubtask, s.DeleteSubtask, s.DeleteAllSubtasks}
	}
	return kindOps{s.ListTasks, s.GetTask, s.CreateTask, s.UpdateTask, s.DeleteTask, s.DeleteAllTasks}
}

// itemFlags are the editable fields shared by add and update.
type itemFlags struct {
	title    string
	desc     string
	status   string
	start    string
	duration int
	epic     int
}

func (f *itemFlags) register(cmd *cobra.Command, kind task.Kind) {
	cmd.Flags().StringVar(&f.title, "title", "", "title")
	cmd.Flags().StringVar(&f.desc, "desc", "", "description")
	if kind == task.KindEpic {
		return
	}
	cmd.Flags().StringVar(&f.status, "status", "", "NEW, IN_PROGRESS or DONE")
	cmd.Flags().StringVar(&f.start, "start", "", "start time, "+task.TimeLayout)
	cmd.Flags().IntVar(&f.duration, "duration", 0, "duration in minutes")
}

// apply copies the flags the user set onto t.
func (f *itemFlags) apply(cmd *cobra.Command, t *task.Task) error {
	changed := cmd.Flags().Changed
	if changed("title") {
		t.Title = f.title
	}
	if changed("desc") {
		t.Description = f.desc
	}
	if changed("status") {
		st, err := task.ParseStatus(strings.ToUpper(f.status))
		if err != nil {
			return err
		}
		t.Status = st
	}
	if changed("start") {
		if f.start == "" {
			t.StartTime = nil
		} else {
			start, err := task.ParseTime(f.start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			t.StartTime = &start
		}
	}
	if changed("duration") {
		d := time.Duration(f.duration) * time.Minute
		t.Duration = &d
	}
	return nil
}

func (a *app) kindCmd(kind task.Kind) *cobra.Command {
	name := strings.ToLower(string(kind))
	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Manage %ss", name),
	}
	cmd.AddCommand(
		a.addCmd(kind, name),
		a.updateCmd(kind, name),
		&cobra.Command{
			Use:   "list",
			Short: fmt.Sprintf("List %ss", name),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(cmd.Context(), func(s task.Store) error {
					ts, err := opsFor(s, kind).list(cmd.Context())
					if err != nil {
						return err
					}
					return a.printTasks(cmd.OutOrStdout(), ts)
				})
			},
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: fmt.Sprintf("Show one %s", name),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return a.withStore(cmd.Context(), func(s task.Store) error {
					t, err := opsFor(s, kind).get(cmd.Context(), id)
					if err != nil {
						return err
					}
					if t == nil {
						return fmt.Errorf("%s %d not found", name, id)
					}
					return a.printTask(cmd.OutOrStdout(), t)
				})
			},
		},
		&cobra.Command{
			Use:   "rm <id>",
			Short: fmt.Sprintf("Delete a %s", name),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return a.withStore(cmd.Context(), func(s task.Store) error {
					ok, err := opsFor(s, kind).remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("%s %d not found", name, id)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %d\n", name, id)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: fmt.Sprintf("Delete every %s", name),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(cmd.Context(), func(s task.Store) error {
					if err := opsFor(s, kind).clear(cmd.Context()); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "deleted all %ss\n", name)
					return nil
				})
			},
		},
	)
	return cmd
}

func (a *app) addCmd(kind task.Kind, name string) *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: fmt.Sprintf("Create a %s", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := &task.Task{Kind: kind, Status: task.StatusNew, EpicID: f.epic}
			if err := f.apply(cmd, t); err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s task.Store) error {
				out, err := opsFor(s, kind).create(cmd.Context(), t)
				if err != nil {
					return err
				}
				if out == nil {
					return fmt.Errorf("epic %d not found", f.epic)
				}
				return a.printTask(cmd.OutOrStdout(), out)
			})
		},
	}
	f.register(cmd, kind)
	cmd.MarkFlagRequired("title")
	if kind == task.KindSubtask {
		cmd.Flags().IntVar(&f.epic, "epic", 0, "id of the owning epic")
		cmd.MarkFlagRequired("epic")
	}
	return cmd
}

func (a *app) updateCmd(kind task.Kind, name string) *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: fmt.Sprintf("Change fields of a %s", name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s task.Store) error {
				ops := opsFor(s, kind)
				t, err := ops.get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if t == nil {
					return fmt.Errorf("%s %d not found", name, id)
				}
				if err := f.apply(cmd, t); err != nil {
					return err
				}
				out, err := ops.update(cmd.Context(), t)
				if err != nil {
					return err
				}
				return a.printTask(cmd.OutOrStdout(), out)
			})
		},
	}
	f.register(cmd, kind)
	return cmd
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
