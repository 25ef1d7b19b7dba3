package notifications

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
)

var testNow = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func sample() []model.Notification {
	return []model.Notification{
		{ID: "n2", Title: "Task Overdue", Message: `"A" was due 2 day(s) ago`, Type: model.NotificationError, Timestamp: testNow.Add(-time.Minute)},
		{ID: "n1", Title: "Task Due Tomorrow", Message: `"B" is due tomorrow at 2:00 PM`, Type: model.NotificationInfo, Timestamp: testNow.Add(-time.Hour)},
	}
}

func newModel() Model {
	return New(keys.DefaultKeyMap(), func() time.Time { return testNow }, 80, 20)
}

func TestNavigateAndDismiss(t *testing.T) {
	m := newModel()
	m.SetNotifications(sample())

	m, _ = m.Update(runeKey('j'))
	m, _ = m.Update(runeKey('j'))
	n, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "n1", n.ID)

	_, cmd := m.Update(runeKey('d'))
	require.NotNil(t, cmd)
	assert.Equal(t, DismissMsg{ID: "n1"}, cmd())

	m.SetNotifications(sample()[:1])
	n, _ = m.Selected()
	assert.Equal(t, "n2", n.ID)
}

func TestClearAllOnlyWithItems(t *testing.T) {
	m := newModel()
	_, cmd := m.Update(runeKey('C'))
	assert.Nil(t, cmd)

	m.SetNotifications(sample())
	_, cmd = m.Update(runeKey('C'))
	require.NotNil(t, cmd)
	assert.Equal(t, ClearAllMsg{}, cmd())
}

func TestBannerActions(t *testing.T) {
	m := newModel()
	m.SetPermission(false, true)

	_, cmd := m.Update(runeKey('e'))
	require.NotNil(t, cmd)
	assert.Equal(t, EnableMsg{}, cmd())

	_, cmd = m.Update(runeKey('l'))
	require.NotNil(t, cmd)
	assert.Equal(t, DismissBannerMsg{}, cmd())
	assert.Contains(t, m.View(), "Enable Notifications")

	m.SetPermission(true, false)
	_, cmd = m.Update(runeKey('e'))
	assert.Nil(t, cmd)
	assert.NotContains(t, m.View(), "Enable Notifications")
}

func TestView(t *testing.T) {
	m := newModel()
	assert.Contains(t, m.View(), "No notifications")

	m.SetNotifications(sample())
	view := m.View()
	assert.Contains(t, view, "Task Overdue")
	assert.Contains(t, view, `"A" was due 2 day(s) ago`)
	assert.Contains(t, view, "1m ago")
}
