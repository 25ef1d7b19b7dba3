package tasklist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/store"
	"github.com/nhle/taskflow/internal/theme"
)

// TasksLoadedMsg is sent when tasks have been loaded from the store.
type TasksLoadedMsg struct {
	Tasks []model.Task
	Err   error
}

// SelectedTaskMsg is sent when a user opens a task.
type SelectedTaskMsg struct {
	TaskID string
}

// ToggleDoneMsg asks the parent to flip a task between completed and
// pending.
type ToggleDoneMsg struct {
	Task model.Task
}

// EditTaskMsg asks the parent to open the edit form for a task.
type EditTaskMsg struct {
	Task model.Task
}

var statusFilters = []string{"all", string(model.StatusPending), string(model.StatusInProgress), string(model.StatusCompleted)}

var sortModes = []string{"due_date", "created_at", "title"}

// Model is the task list view component.
type Model struct {
	list        list.Model
	store       store.Store
	keys        *keys.KeyMap
	filters     model.TaskFilters
	statusIndex int
	sortIndex   int
	searchMode  bool
	searchInput textinput.Model
	loadErr     error
	width       int
	height      int
}

// New creates a task list reading from s. now and loc drive the due-time
// column.
func New(s store.Store, k *keys.KeyMap, now func() time.Time, loc *time.Location, width, height int) Model {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}

	l := list.New([]list.Item{}, TaskDelegate{now: now, loc: loc}, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search title or description..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		store:       s,
		keys:        k,
		filters:     model.DefaultTaskFilters(),
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial set of tasks.
func (m Model) Init() tea.Cmd {
	return m.LoadTasks()
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksLoadedMsg:
		m.loadErr = msg.Err
		items := make([]list.Item, len(msg.Tasks))
		for i, task := range msg.Tasks {
			items[i] = TaskItem{Task: task}
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.filters.Search = strings.TrimSpace(m.searchInput.Value())
		return m, m.LoadTasks()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filters.Search = ""
		return m, m.LoadTasks()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(TaskItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedTaskMsg{TaskID: item.Task.ID}
		}

	case key.Matches(msg, m.keys.ToggleDone):
		item, ok := m.list.SelectedItem().(TaskItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return ToggleDoneMsg{Task: item.Task}
		}

	case key.Matches(msg, m.keys.Edit):
		item, ok := m.list.SelectedItem().(TaskItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return EditTaskMsg{Task: item.Task}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleStatus):
		m.statusIndex = (m.statusIndex + 1) % len(statusFilters)
		m.filters.Status = statusFilters[m.statusIndex]
		return m, m.LoadTasks()

	case key.Matches(msg, m.keys.CycleSort):
		m.sortIndex = (m.sortIndex + 1) % len(sortModes)
		m.filters.SortBy = sortModes[m.sortIndex]
		return m, m.LoadTasks()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Filters returns the active filters.
func (m Model) Filters() model.TaskFilters {
	return m.filters
}

// FilterSummary describes the active filters for the status bar, or ""
// when the defaults are in effect.
func (m Model) FilterSummary() string {
	var parts []string
	if m.filters.Status != "" && m.filters.Status != "all" {
		parts = append(parts, "status:"+m.filters.Status)
	}
	if m.filters.Search != "" {
		parts = append(parts, fmt.Sprintf("search:%q", m.filters.Search))
	}
	if m.filters.SortBy != "" && m.filters.SortBy != "due_date" {
		parts = append(parts, "sort:"+m.filters.SortBy)
	}
	return strings.Join(parts, " ")
}

// View renders the task list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.loadErr != nil:
		return style.Render("Could not load tasks.\n" + m.loadErr.Error())
	case m.FilterSummary() != "":
		return style.Render("No matching tasks.\nTry adjusting your filters.")
	default:
		return style.Render("No tasks yet.\n\nAdd one with 'taskflow tasks add' or press r to sync.")
	}
}

// LoadTasks returns a tea.Cmd that queries the store with the current
// filters.
func (m Model) LoadTasks() tea.Cmd {
	filters := m.filters
	s := m.store
	return func() tea.Msg {
		tasks, err := s.GetTasks(context.Background(), filters)
		return TasksLoadedMsg{Tasks: tasks, Err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
