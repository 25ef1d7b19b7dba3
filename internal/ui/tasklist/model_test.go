package tasklist

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/tests/testutil"
)

var testNow = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newModel(t *testing.T, tasks ...model.Task) Model {
	t.Helper()
	s := testutil.NewTestStore(t)
	testutil.SeedTasks(t, s, tasks...)
	return New(s, keys.DefaultKeyMap(), func() time.Time { return testNow }, time.UTC, 80, 20)
}

func load(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.LoadTasks()()
	loaded, ok := msg.(TasksLoadedMsg)
	require.True(t, ok)
	require.NoError(t, loaded.Err)
	m, _ = m.Update(loaded)
	return m
}

func TestLoadAndSelect(t *testing.T) {
	m := newModel(t,
		testutil.Task("b", "Later", testNow.Add(48*time.Hour)),
		testutil.Task("a", "Sooner", testNow.Add(time.Hour)),
	)
	m = load(t, m)

	require.Len(t, m.list.Items(), 2)
	assert.Equal(t, "a", m.list.Items()[0].(TaskItem).Task.ID)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, SelectedTaskMsg{TaskID: "a"}, cmd())

	_, cmd = m.Update(runeKey('x'))
	require.NotNil(t, cmd)
	toggle, ok := cmd().(ToggleDoneMsg)
	require.True(t, ok)
	assert.Equal(t, "a", toggle.Task.ID)

	_, cmd = m.Update(runeKey('e'))
	require.NotNil(t, cmd)
	edit, ok := cmd().(EditTaskMsg)
	require.True(t, ok)
	assert.Equal(t, "Sooner", edit.Task.Title)
}

func TestCycleStatusFilter(t *testing.T) {
	done := testutil.Task("d", "Done", testNow)
	done.Status = model.StatusCompleted
	m := newModel(t, testutil.Task("p", "Open", testNow), done)

	m, cmd := m.Update(runeKey('f'))
	assert.Equal(t, "pending", m.Filters().Status)
	assert.Equal(t, "status:pending", m.FilterSummary())

	loaded := cmd().(TasksLoadedMsg)
	require.Len(t, loaded.Tasks, 1)
	assert.Equal(t, "p", loaded.Tasks[0].ID)

	for i := 0; i < 3; i++ {
		m, _ = m.Update(runeKey('f'))
	}
	assert.Equal(t, "all", m.Filters().Status)
	assert.Empty(t, m.FilterSummary())
}

func TestSearchMode(t *testing.T) {
	m := newModel(t,
		testutil.Task("1", "Write report", testNow),
		testutil.Task("2", "Buy milk", testNow),
	)

	m, _ = m.Update(runeKey('/'))
	require.True(t, m.Searching())
	for _, r := range "MILK" {
		m, _ = m.Update(runeKey(r))
	}
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Searching())
	assert.Equal(t, "MILK", m.Filters().Search)

	loaded := cmd().(TasksLoadedMsg)
	require.Len(t, loaded.Tasks, 1)
	assert.Equal(t, "2", loaded.Tasks[0].ID)

	m, _ = m.Update(runeKey('/'))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.Filters().Search)
}

func TestDelegateMarksOverdue(t *testing.T) {
	d := TaskDelegate{now: func() time.Time { return testNow }, loc: time.UTC}

	late := d.renderLine(testutil.Task("1", "Late", testNow.Add(-time.Hour)), false)
	assert.Contains(t, late, "OVERDUE")
	assert.Contains(t, late, "due 1h ago")

	done := testutil.Task("2", "Done", testNow.Add(-time.Hour))
	done.Status = model.StatusCompleted
	assert.NotContains(t, d.renderLine(done, false), "OVERDUE")

	bad := testutil.Task("3", "Bad", testNow)
	bad.DueDate = "soon"
	assert.Contains(t, d.renderLine(bad, true), "due ?")
}
