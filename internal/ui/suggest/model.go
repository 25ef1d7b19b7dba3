// Package suggest shows task suggestions, insights and the urgency
// grouping produced by the ai package.
package suggest

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/ai"
	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
)

// LoadedMsg carries freshly generated suggestions.
type LoadedMsg struct {
	Suggestions  []model.Suggestion
	Insights     []model.Suggestion
	Organization ai.Organization
	Err          error
}

// AcceptMsg asks the parent to create a task from a suggestion.
type AcceptMsg struct {
	Suggestion model.Suggestion
}

// Model is the suggestions panel.
type Model struct {
	suggester ai.Suggester
	heuristic *ai.Heuristic
	keys      *keys.KeyMap
	spinner   spinner.Model
	loading   bool
	data      LoadedMsg
	cursor    int
	width     int
	height    int
}

// New creates the panel. suggester proposes new tasks; heuristic supplies
// insights and the urgency grouping.
func New(suggester ai.Suggester, heuristic *ai.Heuristic, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		suggester: suggester,
		heuristic: heuristic,
		keys:      k,
		spinner:   sp,
		width:     width,
		height:    height,
	}
}

// Generate starts an asynchronous suggestion run for tasks.
func (m *Model) Generate(tasks []model.Task) tea.Cmd {
	m.loading = true
	suggester, h := m.suggester, m.heuristic
	run := func() tea.Msg {
		msg := LoadedMsg{
			Insights:     h.Insights(tasks),
			Organization: h.Organize(tasks),
		}
		msg.Suggestions, msg.Err = suggester.Suggest(context.Background(), tasks)
		return msg
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m Model) Init() tea.Cmd { return nil }

// Update handles loading results, spinner ticks and selection.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		m.data = msg
		m.cursor = 0
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.data.Suggestions)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Select):
			if m.cursor < len(m.data.Suggestions) {
				s := m.data.Suggestions[m.cursor]
				return m, func() tea.Msg { return AcceptMsg{Suggestion: s} }
			}
		}
	}
	return m, nil
}

// View renders suggestions, insights and bucket counts.
func (m Model) View() string {
	if m.loading {
		return m.spinner.View() + " Thinking about your tasks..."
	}

	sections := []string{theme.TitleStyle.Render("Suggested tasks")}
	switch {
	case m.data.Err != nil:
		sections = append(sections, theme.OverdueStyle.Render("Could not generate suggestions: "+m.data.Err.Error()))
	case len(m.data.Suggestions) == 0:
		sections = append(sections, theme.DimmedStyle.Render("Nothing to suggest right now."))
	}
	for i, s := range m.data.Suggestions {
		line := fmt.Sprintf("%s %s  %s\n  %s",
			theme.PriorityStyle(s.Priority).Render(strings.ToUpper(string(s.Priority))),
			s.Title,
			theme.DimmedStyle.Render(strings.TrimSpace(s.Category+" · "+s.EstimatedDuration)),
			s.Message,
		)
		if i == m.cursor {
			sections = append(sections, theme.SelectedItemStyle.Render(line))
		} else {
			sections = append(sections, theme.ListItemStyle.Render(line))
		}
	}

	if len(m.data.Insights) > 0 {
		sections = append(sections, "", theme.TitleStyle.Render("Insights"))
		for _, in := range m.data.Insights {
			sections = append(sections, fmt.Sprintf("%s %s", lipgloss.NewStyle().Bold(true).Render(in.Title), in.Message))
		}
	}

	if len(m.data.Organization.Buckets) > 0 {
		sections = append(sections, "", theme.TitleStyle.Render("By urgency"))
		for _, b := range m.data.Organization.Buckets {
			sections = append(sections, fmt.Sprintf("%-14s %d", b.Name, len(b.Tasks)))
		}
	}

	sections = append(sections, "", theme.HelpStyle.Render("enter add as task"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
