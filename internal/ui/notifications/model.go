// Package notifications renders the notification center: the active
// notification list, newest first, and the desktop permission banner.
package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/ui"
)

// DismissMsg asks the parent to remove one notification.
type DismissMsg struct {
	ID string
}

// ClearAllMsg asks the parent to remove every notification.
type ClearAllMsg struct{}

// EnableMsg asks the parent to request desktop notification permission.
type EnableMsg struct{}

// DismissBannerMsg hides the permission banner for this session.
type DismissBannerMsg struct{}

// Model is the notification center view.
type Model struct {
	items   []model.Notification
	cursor  int
	enabled bool
	banner  bool
	keys    *keys.KeyMap
	now     func() time.Time
	width   int
	height  int
}

// New creates the notification center.
func New(k *keys.KeyMap, now func() time.Time, width, height int) Model {
	if now == nil {
		now = time.Now
	}
	return Model{keys: k, now: now, width: width, height: height}
}

// SetNotifications replaces the displayed list, keeping the cursor in range.
func (m *Model) SetNotifications(list []model.Notification) {
	m.items = list
	if m.cursor >= len(m.items) {
		m.cursor = max(0, len(m.items)-1)
	}
}

// SetPermission records whether desktop delivery is on and whether the
// enable banner should be offered.
func (m *Model) SetPermission(enabled, banner bool) {
	m.enabled = enabled
	m.banner = banner
}

// Len returns the number of displayed notifications.
func (m Model) Len() int {
	return len(m.items)
}

// Selected returns the notification under the cursor.
func (m Model) Selected() (model.Notification, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return model.Notification{}, false
	}
	return m.items[m.cursor], true
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles navigation and notification actions.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Dismiss):
		if n, ok := m.Selected(); ok {
			return m, func() tea.Msg { return DismissMsg{ID: n.ID} }
		}
	case key.Matches(keyMsg, m.keys.ClearAll):
		if len(m.items) > 0 {
			return m, func() tea.Msg { return ClearAllMsg{} }
		}
	case key.Matches(keyMsg, m.keys.Enable):
		if !m.enabled {
			return m, func() tea.Msg { return EnableMsg{} }
		}
	case key.Matches(keyMsg, m.keys.DismissBanner):
		if m.banner && !m.enabled {
			return m, func() tea.Msg { return DismissBannerMsg{} }
		}
	}
	return m, nil
}

// View renders the banner (when offered) above the list.
func (m Model) View() string {
	var sections []string

	if m.banner && !m.enabled {
		sections = append(sections, theme.BannerStyle.Width(max(20, m.width-4)).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				lipgloss.NewStyle().Bold(true).Render("Enable Notifications"),
				"Get notified about important updates and deadlines.",
				theme.HelpStyle.Render("e enable · l maybe later"),
			),
		))
	}

	title := "Notifications"
	if m.enabled {
		title += theme.DimmedStyle.Render("  (desktop alerts on)")
	}
	sections = append(sections, theme.TitleStyle.Render(title))

	if len(m.items) == 0 {
		sections = append(sections, theme.DimmedStyle.Render("No notifications"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	now := m.now()
	for i, n := range m.items {
		sections = append(sections, m.renderItem(n, i == m.cursor, now))
	}
	sections = append(sections, theme.HelpStyle.Render("d dismiss · C clear all"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderItem(n model.Notification, selected bool, now time.Time) string {
	accent := theme.NotificationStyle(n.Type)
	head := fmt.Sprintf("%s %s  %s",
		accent.Render(theme.NotificationIcon(n.Type)),
		accent.Render(n.Title),
		theme.DimmedStyle.Render(ui.RelativeTime(n.Timestamp, now)),
	)
	body := strings.TrimSpace(n.Message)
	line := lipgloss.JoinVertical(lipgloss.Left, head, "  "+body)
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
