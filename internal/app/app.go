// Package app holds the root Bubble Tea model of the watch interface.
package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/nhle/taskflow/internal/ai"
	"github.com/nhle/taskflow/internal/analytics"
	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/logging"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/notify"
	"github.com/nhle/taskflow/internal/store"
	appsync "github.com/nhle/taskflow/internal/sync"
	"github.com/nhle/taskflow/internal/tasks"
	"github.com/nhle/taskflow/internal/ui"
	"github.com/nhle/taskflow/internal/ui/command"
	"github.com/nhle/taskflow/internal/ui/detail"
	helpview "github.com/nhle/taskflow/internal/ui/help"
	"github.com/nhle/taskflow/internal/ui/notifications"
	"github.com/nhle/taskflow/internal/ui/stats"
	"github.com/nhle/taskflow/internal/ui/suggest"
	"github.com/nhle/taskflow/internal/ui/taskform"
	"github.com/nhle/taskflow/internal/ui/tasklist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewTasks ViewState = iota
	ViewNotifications
	ViewDetail
	ViewStats
	ViewSuggest
	ViewHelp
	ViewCommand
	ViewEdit
)

const appTitle = "TaskFlow"

// Deps are the services the root model drives.
type Deps struct {
	Store  store.Store
	Tasks  *tasks.Service
	Engine *notify.Engine

	// Poller is nil when no backend is configured.
	Poller *appsync.Poller

	Suggester ai.Suggester
	Heuristic *ai.Heuristic

	Clock    clockwork.Clock
	Location *time.Location
	Logger   *zap.Logger
}

// Model is the root Bubble Tea model that manages view routing and
// connects the views to the task service and notification engine.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	tasks     *tasks.Service
	engine    *notify.Engine
	poller    *appsync.Poller
	heuristic *ai.Heuristic
	clock     clockwork.Clock
	loc       *time.Location
	logger    *zap.Logger

	notifyCh    chan []model.Notification
	unsubscribe func()

	taskList      tasklist.Model
	notifications notifications.Model
	detail        detail.Model
	stats         stats.Model
	suggest       suggest.Model
	helpView      helpview.Model
	commandView   command.Model
	editForm      taskform.Model

	allTasks      []model.Task
	notifyCount   int
	statusMessage string
	ready         bool
}

// New creates the root model and subscribes it to engine changes.
func New(d Deps) Model {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Heuristic == nil {
		d.Heuristic = ai.NewHeuristic(d.Clock, d.Location)
	}
	if d.Suggester == nil {
		d.Suggester = d.Heuristic
	}

	k := keys.DefaultKeyMap()
	now := d.Clock.Now

	// Only the latest list matters; a stale pending one is replaced.
	ch := make(chan []model.Notification, 1)
	unsubscribe := d.Engine.Subscribe(func(list []model.Notification) {
		for {
			select {
			case ch <- list:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	})

	m := Model{
		currentView:   ViewTasks,
		keys:          k,
		tasks:         d.Tasks,
		engine:        d.Engine,
		poller:        d.Poller,
		heuristic:     d.Heuristic,
		clock:         d.Clock,
		loc:           d.Location,
		logger:        logging.OrNop(d.Logger),
		notifyCh:      ch,
		unsubscribe:   unsubscribe,
		taskList:      tasklist.New(d.Store, k, now, d.Location, 80, 24),
		notifications: notifications.New(k, now, 80, 24),
		detail:        detail.New(k, now, d.Location, 80, 24),
		stats:         stats.New(80, 24),
		suggest:       suggest.New(d.Suggester, d.Heuristic, k, 80, 24),
		helpView:      helpview.New(k, 80, 24),
		commandView:   command.New(80, 24),
		editForm:      taskform.New(d.Location, 80, 24),
	}
	m.setNotifications(d.Engine.Notifications())
	return m
}

// Init loads tasks, mounts the engine and starts polling.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.taskList.Init(),
		m.mount(),
		m.waitForNotifications(),
	}
	if m.poller != nil {
		cmds = append(cmds, m.poller.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.taskList.SetSize(w, h)
		m.notifications.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.stats.SetSize(w, h)
		m.suggest.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.editForm.SetSize(w, h)
		return m, nil

	case appsync.SyncResultMsg:
		switch {
		case msg.AuthError != nil:
			m.statusMessage = msg.AuthError.Message
		case msg.Error != nil:
			m.statusMessage = "sync failed: " + msg.Error.Error()
		default:
			m.statusMessage = ""
			m.allTasks = msg.Tasks
			m.refreshStats()
		}
		return m, tea.Batch(m.taskList.LoadTasks(), m.poller.WaitForNextResult())

	case mountedMsg:
		return m.applyAllTasks(msg.allTasksMsg), nil

	case allTasksMsg:
		return m.applyAllTasks(msg), nil

	case notificationsMsg:
		m.setNotifications(msg.list)
		return m, m.waitForNotifications()

	case permissionMsg:
		if msg.err != nil {
			m.statusMessage = "notifications: " + msg.err.Error()
		} else {
			m.statusMessage = "notifications " + string(msg.permission)
		}
		m.notifications.SetPermission(m.engine.NotificationsEnabled(), m.engine.ShowNotificationBanner())
		return m, nil

	case mutationMsg:
		m.engine.AddNotification(mutationNotice(msg))
		if msg.err != nil {
			m.logger.Warn("task mutation failed", zap.String("action", msg.action), zap.Error(msg.err))
			return m, nil
		}
		cmds := []tea.Cmd{m.taskList.LoadTasks(), m.loadAll()}
		if m.currentView == ViewDetail && msg.task != nil && msg.task.ID == m.detail.TaskID() {
			cmds = append(cmds, m.loadDetail(msg.task.ID))
		}
		return m, tea.Batch(cmds...)

	case tasklist.SelectedTaskMsg:
		m.switchTo(ViewDetail)
		m.detail.SetLoading(true)
		return m, m.loadDetail(msg.TaskID)

	case tasklist.ToggleDoneMsg:
		return m, m.toggleDone(msg.Task)

	case tasklist.EditTaskMsg:
		return m.startEdit(msg.Task)

	case detail.EditMsg:
		return m.startEdit(msg.Task)

	case taskform.SubmitMsg:
		m.currentView = m.previousView
		return m, m.updateTask(msg.TaskID, msg.Update)

	case taskform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = ViewTasks
		return m, nil

	case suggest.LoadedMsg:
		var cmd tea.Cmd
		m.suggest, cmd = m.suggest.Update(msg)
		return m, cmd

	case suggest.AcceptMsg:
		return m, m.createFromSuggestion(msg.Suggestion)

	case notifications.DismissMsg:
		m.engine.RemoveNotification(msg.ID)
		return m, nil

	case notifications.ClearAllMsg:
		m.engine.ClearAllNotifications()
		return m, nil

	case notifications.EnableMsg:
		return m, m.requestPermission()

	case notifications.DismissBannerMsg:
		m.engine.DismissNotificationBanner()
		m.notifications.SetPermission(m.engine.NotificationsEnabled(), false)
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work across views. Text inputs keep
// every key but ctrl+c.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, m.quit(), true
	}
	if m.currentView == ViewCommand || m.currentView == ViewEdit || (m.currentView == ViewTasks && m.taskList.Searching()) {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit(), true

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
		} else {
			m.switchTo(ViewHelp)
		}
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.switchTo(ViewCommand)
		return m, m.commandView.Focus(), true

	case key.Matches(msg, m.keys.Tasks):
		m.switchTo(ViewTasks)
		return m, nil, true

	case key.Matches(msg, m.keys.Notifications):
		m.switchTo(ViewNotifications)
		return m, nil, true

	case key.Matches(msg, m.keys.Stats):
		m.switchTo(ViewStats)
		m.refreshStats()
		return m, nil, true

	case key.Matches(msg, m.keys.Suggest):
		m.switchTo(ViewSuggest)
		return m, m.suggest.Generate(m.allTasks), true

	case key.Matches(msg, m.keys.Refresh) && m.currentView == ViewTasks:
		return m, m.refresh(), true

	case key.Matches(msg, m.keys.CheckDueDate) && m.currentView == ViewTasks:
		m.engine.CheckDueDates(m.allTasks)
		return m, nil, true

	case key.Matches(msg, m.keys.Back) && (m.currentView == ViewHelp || m.currentView == ViewStats || m.currentView == ViewSuggest || m.currentView == ViewNotifications):
		m.currentView = ViewTasks
		return m, nil, true
	}
	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewTasks:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewNotifications:
		m.notifications, cmd = m.notifications.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewStats:
		m.stats, cmd = m.stats.Update(msg)
	case ViewSuggest:
		m.suggest, cmd = m.suggest.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewEdit:
		m.editForm, cmd = m.editForm.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(ui.HeaderTitle(appTitle, m.notifyCount), m.syncStatus())
	return m.layout.RenderWithFrame(header, m.renderContent(), m.layout.RenderStatusBar(m.keyHints()))
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewTasks:
		return m.taskList.View()
	case ViewNotifications:
		return m.notifications.View()
	case ViewDetail:
		return m.detail.View()
	case ViewStats:
		return m.stats.View()
	case ViewSuggest:
		return m.suggest.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewEdit:
		return m.editForm.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the sync state.
func (m Model) syncStatus() string {
	if m.poller == nil {
		return "offline"
	}
	st := m.poller.Status()
	switch st.State {
	case appsync.SyncRunning:
		return "syncing"
	case appsync.SyncError:
		return "⚠ unreachable"
	}
	if st.LastSync.IsZero() {
		return st.State.String()
	}
	return "synced " + ui.RelativeTime(st.LastSync, m.clock.Now())
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMessage != "" && m.currentView == ViewTasks {
		return m.statusMessage
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc cancel"
	case ViewDetail:
		return "e edit | esc back | j/k scroll"
	case ViewEdit:
		return "tab next field | enter submit | esc cancel"
	case ViewNotifications:
		return "d dismiss | C clear all | e enable | esc back"
	case ViewStats:
		return "1 tasks | 4 suggest | esc back"
	case ViewSuggest:
		return "enter add task | j/k move | esc back"
	default:
		if summary := m.taskList.FilterSummary(); summary != "" {
			return summary + " | f status | tab sort"
		}
		return "q quit | ? help | / search | x done | e edit | r sync | c check | 2 notifications"
	}
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "sync", "refresh":
		return m, m.refresh()
	case "check":
		m.engine.CheckDueDates(m.allTasks)
		return m, nil
	case "clear":
		m.engine.ClearAllNotifications()
		return m, nil
	case "enable":
		return m, m.requestPermission()
	case "tasks":
		m.switchTo(ViewTasks)
		return m, nil
	case "notifications":
		m.switchTo(ViewNotifications)
		return m, nil
	case "stats":
		m.switchTo(ViewStats)
		m.refreshStats()
		return m, nil
	case "suggest":
		m.switchTo(ViewSuggest)
		return m, m.suggest.Generate(m.allTasks)
	case "quit", "q":
		return m, m.quit()
	default:
		m.statusMessage = fmt.Sprintf("unknown command %q", cmd)
		return m, nil
	}
}

// startEdit opens the edit form for task over the current view.
func (m Model) startEdit(task model.Task) (tea.Model, tea.Cmd) {
	m.switchTo(ViewEdit)
	cmd := m.editForm.StartEdit(task)
	return m, cmd
}

func (m *Model) switchTo(v ViewState) {
	if m.currentView != v {
		m.previousView = m.currentView
	}
	m.currentView = v
}

// refresh asks the poller for an immediate sync, or reloads the cache when
// offline.
func (m Model) refresh() tea.Cmd {
	if m.poller != nil {
		return m.poller.Refresh()
	}
	return tea.Batch(m.taskList.LoadTasks(), m.loadAll())
}

func (m Model) applyAllTasks(msg allTasksMsg) Model {
	if msg.err != nil {
		m.logger.Warn("loading tasks", zap.Error(msg.err))
		return m
	}
	m.allTasks = msg.tasks
	m.refreshStats()
	return m
}

func (m *Model) refreshStats() {
	m.stats.SetReport(analytics.Compute(m.allTasks, m.clock.Now(), m.loc))
}

func (m *Model) setNotifications(list []model.Notification) {
	m.notifyCount = len(list)
	m.notifications.SetNotifications(list)
	m.notifications.SetPermission(m.engine.NotificationsEnabled(), m.engine.ShowNotificationBanner())
}

// quit stops background work before exiting.
func (m Model) quit() tea.Cmd {
	if m.poller != nil {
		m.poller.Stop()
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	return tea.Quit
}
