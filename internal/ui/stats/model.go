// Package stats renders the analytics report.
package stats

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/analytics"
	"github.com/nhle/taskflow/internal/theme"
)

const barWidth = 20

// Model shows completion statistics for the current task list.
type Model struct {
	report analytics.Report
	width  int
	height int
}

func New(width, height int) Model {
	return Model{width: width, height: height}
}

// SetReport replaces the displayed report.
func (m *Model) SetReport(r analytics.Report) {
	m.report = r
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(tea.Msg) (Model, tea.Cmd) { return m, nil }

// View renders counts, rates, the seven-day pattern and insights.
func (m Model) View() string {
	r := m.report
	label := lipgloss.NewStyle().Foreground(theme.ColorGray)

	counts := lipgloss.JoinHorizontal(lipgloss.Top,
		stat("Total", r.Total, theme.ColorBlue),
		stat("Pending", r.Pending, theme.ColorYellow),
		stat("In Progress", r.InProgress, theme.ColorMagenta),
		stat("Completed", r.Completed, theme.ColorGreen),
		stat("Overdue", r.Overdue, theme.ColorRed),
	)

	rates := strings.Join([]string{
		fmt.Sprintf("%s %.1f%%", label.Render("Completion rate:"), r.CompletionRate),
		fmt.Sprintf("%s %.1f%% (%d done)", label.Render("This week:"), r.WeeklyCompletionRate, r.ThisWeekCompleted),
		fmt.Sprintf("%s %+.1f%% (%d done this month)", label.Render("Monthly growth:"), r.MonthlyGrowth, r.ThisMonthCompleted),
		fmt.Sprintf("%s %.1f days", label.Render("Avg completion:"), r.AvgCompletionDays),
	}, "\n")

	sections := []string{
		theme.TitleStyle.Render("Analytics"),
		counts,
		"",
		rates,
		"",
		theme.TitleStyle.Render("Last 7 days"),
		renderPattern(r.DailyPattern),
	}

	if len(r.Insights) > 0 {
		sections = append(sections, "", theme.TitleStyle.Render("Insights"))
		for _, in := range r.Insights {
			sections = append(sections, fmt.Sprintf("%s %s",
				theme.NotificationStyle(in.Type).Render(in.Title), in.Message))
		}
	}

	return theme.PanelStyle.Width(max(20, m.width-4)).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func stat(name string, n int, color lipgloss.AdaptiveColor) string {
	return lipgloss.NewStyle().PaddingRight(3).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Foreground(color).Render(fmt.Sprint(n)),
		lipgloss.NewStyle().Foreground(theme.ColorGray).Render(name),
	))
}

func renderPattern(days []analytics.DayCount) string {
	peak := 1
	for _, d := range days {
		peak = max(peak, d.Completed)
	}
	bar := lipgloss.NewStyle().Foreground(theme.ColorGreen)

	lines := make([]string, 0, len(days))
	for _, d := range days {
		n := d.Completed * barWidth / peak
		lines = append(lines, fmt.Sprintf("%s %s %d", d.Weekday, bar.Render(strings.Repeat("█", n)), d.Completed))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
