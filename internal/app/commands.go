package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/notify"
	"github.com/nhle/taskflow/internal/source"
	"github.com/nhle/taskflow/internal/tasks"
	"github.com/nhle/taskflow/internal/ui/detail"
)

// allTasksMsg carries the full cached task list.
type allTasksMsg struct {
	tasks []model.Task
	err   error
}

// mountedMsg is sent once the engine has seen the initial task list.
type mountedMsg struct {
	allTasksMsg
}

// notificationsMsg carries the notification list after an engine change.
type notificationsMsg struct {
	list []model.Notification
}

// permissionMsg reports the outcome of a permission request.
type permissionMsg struct {
	permission notify.Permission
	err        error
}

// mutationMsg is sent after a task create, update or delete.
type mutationMsg struct {
	action string
	task   *model.Task
	err    error
}

const mutationTimeout = 15 * time.Second

func (m Model) loadAll() tea.Cmd {
	svc := m.tasks
	return func() tea.Msg {
		all, err := svc.All(context.Background())
		return allTasksMsg{tasks: all, err: err}
	}
}

// mount loads every task and hands it to the engine, which schedules the
// first due-date check.
func (m Model) mount() tea.Cmd {
	svc, engine := m.tasks, m.engine
	return func() tea.Msg {
		all, err := svc.All(context.Background())
		if err == nil {
			engine.Mount(all)
		}
		return mountedMsg{allTasksMsg{tasks: all, err: err}}
	}
}

// waitForNotifications blocks until the engine publishes a new list.
func (m Model) waitForNotifications() tea.Cmd {
	ch := m.notifyCh
	return func() tea.Msg {
		list, ok := <-ch
		if !ok {
			return nil
		}
		return notificationsMsg{list: list}
	}
}

func (m Model) requestPermission() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		p, err := engine.RequestPermission(context.Background())
		return permissionMsg{permission: p, err: err}
	}
}

func (m Model) toggleDone(task model.Task) tea.Cmd {
	svc := m.tasks
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		updated, err := svc.ToggleDone(ctx, task)
		return mutationMsg{action: "update", task: updated, err: err}
	}
}

func (m Model) updateTask(id string, u source.TaskUpdate) tea.Cmd {
	svc := m.tasks
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		updated, err := svc.Update(ctx, id, u)
		return mutationMsg{action: "edit", task: updated, err: err}
	}
}

// createFromSuggestion adds a task for an accepted suggestion, due on the
// date the heuristic proposes for its title.
func (m Model) createFromSuggestion(s model.Suggestion) tea.Cmd {
	svc, h := m.tasks, m.heuristic
	loc := m.loc
	return func() tea.Msg {
		in := tasks.NewTask{Title: s.Title, Description: s.Message}
		if e := h.Enhance(s.Title, s.Message); e.SuggestedDue != nil {
			in.DueDate = e.SuggestedDue.In(loc).Format("2006-01-02")
		}
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		created, err := svc.Create(ctx, in)
		return mutationMsg{action: "create", task: created, err: err}
	}
}

// loadDetail loads a task with its notifications and an enhancement hint.
func (m Model) loadDetail(id string) tea.Cmd {
	svc, engine, h := m.tasks, m.engine, m.heuristic
	return func() tea.Msg {
		task, err := svc.Get(context.Background(), id)
		if err != nil {
			return detail.DetailLoadedMsg{}
		}
		var related []model.Notification
		for _, n := range engine.Notifications() {
			if n.TaskID == id {
				related = append(related, n)
			}
		}
		e := h.Enhance(task.Title, task.Description)
		return detail.DetailLoadedMsg{Task: task, Notifications: related, Enhancement: &e}
	}
}

// mutationNotice turns a mutation result into a short-lived notification.
func mutationNotice(msg mutationMsg) model.NotificationDraft {
	if msg.err != nil {
		return model.NotificationDraft{
			Title:   "Task " + msg.action + " failed",
			Message: msg.err.Error(),
			Type:    model.NotificationError,
		}
	}
	d := model.NotificationDraft{Type: model.NotificationSuccess}
	switch msg.action {
	case "create":
		d.Title = "Task Added"
		d.Message = msg.task.Title
	case "edit":
		d.Title = "Task Updated"
		d.Message = msg.task.Title + " saved"
	default:
		d.Title = "Task Updated"
		d.Message = msg.task.Title + " is now " + string(msg.task.Status)
	}
	if msg.task != nil {
		d.TaskID = msg.task.ID
	}
	return d
}
