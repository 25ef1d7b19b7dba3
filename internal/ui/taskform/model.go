// Package taskform is the watch-mode form for editing a task's title,
// description and due date.
package taskform

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/source"
	"github.com/nhle/taskflow/internal/theme"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// SubmitMsg carries the fields the user changed.
type SubmitMsg struct {
	TaskID string
	Update source.TaskUpdate
}

// CancelMsg is sent when the form is aborted or submitted unchanged.
type CancelMsg struct{}

// formBindings holds field values on the heap so huh's Value() pointers
// stay valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	dueDate     string
	dueTime     string
}

// Model is the Bubble Tea model for the edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	original formBindings
	taskID   string
	loc      *time.Location
	width    int
	height   int
}

// New creates an idle form. Due values are shown in loc.
func New(loc *time.Location, width, height int) Model {
	if loc == nil {
		loc = time.Local
	}
	return Model{fb: &formBindings{}, loc: loc, width: width, height: height}
}

// StartEdit fills the form from task and focuses its first field.
func (m *Model) StartEdit(task model.Task) tea.Cmd {
	m.taskID = task.ID
	m.original = formBindings{
		title:       task.Title,
		description: task.Description,
	}
	m.original.dueDate, m.original.dueTime = splitDue(task, m.loc)
	*m.fb = m.original
	m.form = m.buildForm()
	return m.form.Init()
}

// Active reports whether a form is open.
func (m Model) Active() bool { return m.form != nil }

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		done := m.result()
		return m, func() tea.Msg { return done }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	content := theme.TitleStyle.MarginBottom(1).Render("Edit Task") + "\n" + m.form.View()
	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth()).WithHeight(m.formHeight())
	}
}

func (m Model) result() tea.Msg {
	u := m.changes()
	if u.IsZero() {
		return CancelMsg{}
	}
	return SubmitMsg{TaskID: m.taskID, Update: u}
}

// changes returns the fields that differ from the prefilled values. The due
// date and time travel together so the backend never combines an edited
// half with a stale one.
func (m Model) changes() source.TaskUpdate {
	cur := formBindings{
		title:       strings.TrimSpace(m.fb.title),
		description: strings.TrimSpace(m.fb.description),
		dueDate:     strings.TrimSpace(m.fb.dueDate),
		dueTime:     strings.TrimSpace(m.fb.dueTime),
	}

	var u source.TaskUpdate
	if cur.title != m.original.title {
		u.Title = &cur.title
	}
	if cur.description != m.original.description {
		u.Description = &cur.description
	}
	if cur.dueDate != m.original.dueDate || cur.dueTime != m.original.dueTime {
		u.DueDate = &cur.dueDate
		u.DueTime = &cur.dueTime
	}
	return u
}

func (m *Model) buildForm() *huh.Form {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&m.fb.title).
				Validate(validateRequired("Title")),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details...").
				Value(&m.fb.description),
			huh.NewInput().
				Title("Due Date").
				Placeholder("YYYY-MM-DD").
				Value(&m.fb.dueDate).
				Validate(validateDate),
			huh.NewInput().
				Title("Due Time").
				Placeholder("HH:MM (optional)").
				Value(&m.fb.dueTime).
				Validate(validateOptionalTime),
		),
	).WithKeyMap(km).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// splitDue returns the date and time-of-day fields for task. A due_date
// carrying its own time is split in loc; unparseable values are shown raw.
func splitDue(task model.Task, loc *time.Location) (date, clock string) {
	if task.DueTime != "" {
		date, _, _ = strings.Cut(task.DueDate, "T")
		return date, task.DueTime
	}
	if _, err := time.ParseInLocation(dateLayout, task.DueDate, loc); err == nil {
		return task.DueDate, ""
	}
	due, err := task.EffectiveDue(loc)
	if err != nil {
		return task.DueDate, ""
	}
	due = due.In(loc)
	return due.Format(dateLayout), due.Format(timeLayout)
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateDate(s string) error {
	if _, err := time.Parse(dateLayout, strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

func validateOptionalTime(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(timeLayout, s); err != nil {
		return fmt.Errorf("invalid time format, use HH:MM")
	}
	return nil
}
