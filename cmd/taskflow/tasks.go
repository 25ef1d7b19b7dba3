package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/source"
	"github.com/nhle/taskflow/internal/tasks"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/ui"
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"t"},
	Short:   "List and change tasks",
	GroupID: "tasks",
}

var tasksListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List cached tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		filters := model.DefaultTaskFilters()
		filters.Status, _ = cmd.Flags().GetString("status")
		filters.Search, _ = cmd.Flags().GetString("search")
		filters.SortBy, _ = cmd.Flags().GetString("sort")
		if desc, _ := cmd.Flags().GetBool("desc"); desc {
			filters.SortOrder = "desc"
		}

		list, err := rt.tasks.List(cmd.Context(), filters)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No tasks.")
			return nil
		}
		fmt.Println(renderTaskTable(list, rt))
		return nil
	},
}

func renderTaskTable(list []model.Task, rt *runtime) string {
	now := rt.clock.Now()
	rows := make([][]string, 0, len(list))
	for _, t := range list {
		due := "?"
		if at, err := t.EffectiveDue(rt.loc); err == nil {
			due = ui.RelativeTime(at, now)
			if !t.IsCompleted() && at.Before(now) {
				due += " OVERDUE"
			}
		}
		rows = append(rows, []string{t.ID, string(t.Status), t.Title, due})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(theme.DimmedStyle).
		Headers("ID", "STATUS", "TITLE", "DUE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TitleStyle.Padding(0, 1)
			}
			if col == 1 && row < len(list) {
				return theme.StatusStyle(list[row].Status).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		String()
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Example: `  taskflow tasks add "Submit report" --due 2026-10-20 --time 17:00
  taskflow tasks add "Plan sprint" --enhance`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		in := tasks.NewTask{Title: strings.Join(args, " ")}
		in.Description, _ = cmd.Flags().GetString("description")
		in.DueDate, _ = cmd.Flags().GetString("due")
		in.DueTime, _ = cmd.Flags().GetString("time")

		if enhance, _ := cmd.Flags().GetBool("enhance"); enhance {
			e := rt.heuristic.Enhance(in.Title, in.Description)
			in.Description = e.Message
			if in.DueDate == "" && e.SuggestedDue != nil {
				in.DueDate = e.SuggestedDue.In(rt.loc).Format("2006-01-02")
			}
			fmt.Printf("Suggested: priority %s, about %s", e.Priority, e.EstimatedDuration)
			if len(e.Tags) > 0 {
				fmt.Printf(", tags %s", strings.Join(e.Tags, ", "))
			}
			fmt.Println()
		}

		created, err := rt.tasks.Create(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Printf("ADDED %s %s\n", created.ID, created.Title)
		return nil
	},
}

var tasksEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a task's title, description or due date",
	Example: `  taskflow tasks edit 42 --due 2026-10-24 --time 09:30
  taskflow tasks edit 42 --title "Submit final report" -d ""`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		task, err := rt.tasks.Update(cmd.Context(), args[0], taskUpdateFromFlags(cmd))
		if err != nil {
			return err
		}
		fmt.Printf("UPDATED %s %s\n", task.ID, task.Title)
		return nil
	},
}

func addEditFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().StringP("description", "d", "", "new description; empty clears it")
	cmd.Flags().String("due", "", "new due date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().String("time", "", "new due time of day (HH:MM); empty clears it")
}

// taskUpdateFromFlags sets only the fields whose flags were given.
func taskUpdateFromFlags(cmd *cobra.Command) source.TaskUpdate {
	changed := func(name string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, _ := cmd.Flags().GetString(name)
		return &v
	}
	return source.TaskUpdate{
		Title:       changed("title"),
		Description: changed("description"),
		DueDate:     changed("due"),
		DueTime:     changed("time"),
	}
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done <id...>",
	Short: "Mark tasks completed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := model.StatusCompleted
		if undo, _ := cmd.Flags().GetBool("undo"); undo {
			status = model.StatusPending
		}
		return setStatus(cmd.Context(), args, status)
	},
}

var tasksStartCmd = &cobra.Command{
	Use:   "start <id...>",
	Short: "Mark tasks in progress",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd.Context(), args, model.StatusInProgress)
	},
}

func setStatus(ctx context.Context, ids []string, status model.TaskStatus) error {
	rt, err := openRuntime(runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	var errs []error
	for _, id := range ids {
		task, err := rt.tasks.SetStatus(ctx, id, status)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		fmt.Printf("%s %s %s\n", strings.ToUpper(string(status)), task.ID, task.Title)
	}
	return errors.Join(errs...)
}

var tasksRmCmd = &cobra.Command{
	Use:     "rm <id...>",
	Aliases: []string{"delete"},
	Short:   "Delete tasks",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		var errs []error
		for _, id := range args {
			if err := rt.tasks.Delete(cmd.Context(), id); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
				continue
			}
			fmt.Printf("DELETED %s\n", id)
		}
		return errors.Join(errs...)
	},
}

var tasksSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch tasks from the backend into the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		p, err := rt.poller()
		if err != nil {
			return err
		}
		res := p.SyncOnce(cmd.Context())
		if res.AuthError != nil {
			return errors.New(res.AuthError.Message)
		}
		if res.Error != nil {
			return res.Error
		}
		fmt.Printf("Synced %d tasks (%d new)\n", len(res.Tasks), res.NewTaskCount)
		return nil
	},
}

func init() {
	tasksListCmd.Flags().String("status", "all", "filter by status (all, pending, in-progress, completed)")
	tasksListCmd.Flags().String("search", "", "match title or description")
	tasksListCmd.Flags().String("sort", "due_date", "sort by due_date, created_at or title")
	tasksListCmd.Flags().Bool("desc", false, "sort descending")

	tasksAddCmd.Flags().StringP("description", "d", "", "task description")
	tasksAddCmd.Flags().String("due", "", "due date (YYYY-MM-DD or RFC 3339)")
	tasksAddCmd.Flags().String("time", "", "due time of day (HH:MM)")
	tasksAddCmd.Flags().Bool("enhance", false, "fill in description and due date from the title")

	addEditFlags(tasksEditCmd)

	tasksDoneCmd.Flags().Bool("undo", false, "reopen the tasks instead")

	tasksCmd.AddCommand(tasksListCmd, tasksAddCmd, tasksEditCmd, tasksDoneCmd, tasksStartCmd, tasksRmCmd, tasksSyncCmd)
	rootCmd.AddCommand(tasksCmd)
}
