package tasklist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/ui"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

func (i TaskItem) FilterValue() string { return i.Task.Title }

// TaskDelegate renders one task per line: completion marker, status,
// title and relative due time. Overdue open tasks are highlighted.
type TaskDelegate struct {
	now func() time.Time
	loc *time.Location
}

func (d TaskDelegate) Height() int { return 1 }

func (d TaskDelegate) Spacing() int { return 0 }

func (d TaskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

// Render draws a single list item line.
func (d TaskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	fmt.Fprint(w, d.renderLine(ti.Task, index == m.Index()))
}

func (d TaskDelegate) renderLine(task model.Task, selected bool) string {
	prefix := "○"
	if task.IsCompleted() {
		prefix = "✓"
	}

	status := theme.StatusStyle(task.Status).Render(fmt.Sprintf("%-11s", task.Status))

	due := ""
	overdue := ""
	if at, err := task.EffectiveDue(d.loc); err == nil {
		now := d.now()
		due = theme.DueDateStyle.Render("  due " + ui.RelativeTime(at, now))
		if !task.IsCompleted() && at.Before(now) {
			overdue = theme.OverdueStyle.Render(" OVERDUE")
		}
	} else {
		due = theme.DueDateStyle.Render("  due ?")
	}

	line := fmt.Sprintf("%s %s %s%s%s", prefix, status, task.Title, due, overdue)
	if task.IsCompleted() {
		line = theme.DimmedStyle.Render(line)
	}
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}
