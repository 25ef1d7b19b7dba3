package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/ui"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// EditMsg asks the parent to open the edit form for the displayed task.
type EditMsg struct {
	Task model.Task
}

// DetailLoadedMsg carries a task together with its active notifications
// and an optional enhancement hint.
type DetailLoadedMsg struct {
	Task          *model.Task
	Notifications []model.Notification
	Enhancement   *model.Suggestion
}

// Model is the task detail view component.
type Model struct {
	detail   DetailLoadedMsg
	viewport viewport.Model
	keys     *keys.KeyMap
	now      func() time.Time
	loc      *time.Location
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(k *keys.KeyMap, now func() time.Time, loc *time.Location, width, height int) Model {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		now:      now,
		loc:      loc,
		width:    width,
		height:   height,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.SetDetail(msg)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return BackMsg{} }
		}
		if key.Matches(msg, m.keys.Edit) && m.detail.Task != nil && !m.loading {
			task := *m.detail.Task
			return m, func() tea.Msg { return EditMsg{Task: task} }
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	centered := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loading {
		return centered.Render("Loading task details...")
	}
	if m.detail.Task == nil {
		return centered.Render("Task not found")
	}
	return m.viewport.View()
}

// TaskID returns the ID of the displayed task, or "".
func (m Model) TaskID() string {
	if m.detail.Task == nil {
		return ""
	}
	return m.detail.Task.ID
}

func (m Model) renderContent() string {
	task := m.detail.Task
	if task == nil {
		return ""
	}

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(0, min(m.width-4, 80))))
	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", metaStyle.Render(fmt.Sprintf("%-9s", label+":")), value)
	}

	sections := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(task.Title),
		theme.StatusStyle(task.Status).Render(string(task.Status)),
		"",
	}

	now := m.now()
	if due, err := task.EffectiveDue(m.loc); err == nil {
		value := fmt.Sprintf("%s (%s)", due.In(m.loc).Format("Mon Jan 2 2006, 3:04 PM"), ui.RelativeTime(due, now))
		if !task.IsCompleted() && due.Before(now) {
			value = theme.OverdueStyle.Render(value + " OVERDUE")
		}
		sections = append(sections, row("Due", value))
	} else {
		sections = append(sections, row("Due", task.DueDate+" (unreadable)"))
	}
	if !task.CreatedAt.IsZero() {
		sections = append(sections, row("Created", task.CreatedAt.In(m.loc).Format("2006-01-02 15:04")))
	}
	if !task.UpdatedAt.IsZero() {
		sections = append(sections, row("Updated", task.UpdatedAt.In(m.loc).Format("2006-01-02 15:04")))
	}

	sections = append(sections, "", separator, "", theme.TitleStyle.Render("Description"))
	if task.Description == "" {
		sections = append(sections, theme.DimmedStyle.Italic(true).Render("No description"))
	} else {
		sections = append(sections, task.Description)
	}

	if len(m.detail.Notifications) > 0 {
		sections = append(sections, "", separator, "",
			theme.TitleStyle.Render(fmt.Sprintf("Notifications (%d)", len(m.detail.Notifications))))
		for _, n := range m.detail.Notifications {
			accent := theme.NotificationStyle(n.Type)
			sections = append(sections, fmt.Sprintf("%s %s", accent.Render(n.Title), n.Message))
		}
	}

	if e := m.detail.Enhancement; e != nil && !task.IsCompleted() {
		sections = append(sections, "", separator, "", theme.TitleStyle.Render("Suggested"))
		sections = append(sections,
			row("Priority", theme.PriorityStyle(e.Priority).Render(string(e.Priority))),
			row("Effort", e.EstimatedDuration),
		)
		if len(e.Tags) > 0 {
			sections = append(sections, row("Tags", strings.Join(e.Tags, ", ")))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDetail updates the displayed task and re-renders the content.
func (m *Model) SetDetail(d DetailLoadedMsg) {
	m.detail = d
	m.loading = false
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}
