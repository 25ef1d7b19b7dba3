package notify

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/nhle/taskflow/internal/kv"
	"github.com/nhle/taskflow/internal/model"
)

// DefaultMountDelay defers the post-mount due-date check so late-arriving
// task data is included.
const DefaultMountDelay = time.Second

// Confirmation shown once the user grants native notification permission.
const (
	TitlePermissionGranted   = "Notifications Enabled"
	MessagePermissionGranted = "You will now receive alerts for due dates and overdue tasks"
)

// Options configures an Engine. KV is required; every other field has a
// usable zero value.
type Options struct {
	// KV holds persistent notifications and daily dedup markers.
	KV kv.Store

	// Platform is the native notification surface. Nil disables delivery.
	Platform Platform

	Clock    clockwork.Clock
	Location *time.Location
	Logger   *zap.Logger

	// Expiry is the lifetime of non-persistent notifications.
	Expiry time.Duration

	// MountDelay defers the check scheduled by Mount.
	MountDelay time.Duration

	// Icon is passed to the platform with every delivery.
	Icon string
}

// Engine runs the due-date pipeline: evaluate tasks, drop those already
// notified today, upsert the rest into the Store and mirror them to the
// platform when permitted.
type Engine struct {
	store  *Store
	dedup  *Deduplicator
	sink   *Sink
	clock  clockwork.Clock
	loc    *time.Location
	logger *zap.Logger

	mountDelay time.Duration

	// runMu serializes pipeline runs; timers fire on their own goroutines.
	runMu sync.Mutex

	mu         sync.Mutex
	enabled    bool
	banner     bool
	lastTasks  []model.Task
	mountTimer clockwork.Timer
}

// New creates an Engine and loads persisted notifications from opts.KV.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MountDelay <= 0 {
		opts.MountDelay = DefaultMountDelay
	}
	if opts.KV == nil {
		opts.KV = kv.NewMemory()
	}

	e := &Engine{
		store: NewStore(opts.KV,
			WithClock(opts.Clock),
			WithExpiry(opts.Expiry),
			WithLogger(opts.Logger),
		),
		dedup:      NewDeduplicator(opts.KV, opts.Location, opts.Logger),
		sink:       NewSink(opts.Platform, opts.Icon, opts.Logger),
		clock:      opts.Clock,
		loc:        opts.Location,
		logger:     opts.Logger,
		mountDelay: opts.MountDelay,
		banner:     true,
	}
	e.enabled = e.sink.Permission() == PermissionGranted
	return e
}

// Notifications returns the active notifications, newest first.
func (e *Engine) Notifications() []model.Notification {
	return e.store.List()
}

// NotificationsEnabled reports whether native delivery is permitted.
func (e *Engine) NotificationsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// ShowNotificationBanner reports whether the permission banner should still
// be shown this session.
func (e *Engine) ShowNotificationBanner() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.banner
}

// DismissNotificationBanner hides the permission banner for this session.
func (e *Engine) DismissNotificationBanner() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.banner = false
}

// AddNotification upserts d and mirrors it to the platform when enabled.
func (e *Engine) AddNotification(d model.NotificationDraft) model.Notification {
	n, _ := e.store.Upsert(d)
	if n.ID == "" {
		return n
	}
	if e.NotificationsEnabled() {
		e.sink.Deliver(n)
	}
	return n
}

// RemoveNotification removes a notification by id. Unknown ids are ignored.
func (e *Engine) RemoveNotification(id string) {
	e.store.Remove(id)
}

// ClearAllNotifications removes every notification, persisted ones included.
func (e *Engine) ClearAllNotifications() {
	e.store.ClearAll()
}

// RequestPermission asks the platform for native notification permission.
// It is only ever called on explicit user action. On grant a short-lived
// confirmation notification is added.
func (e *Engine) RequestPermission(ctx context.Context) (Permission, error) {
	p, err := e.sink.Request(ctx)

	e.mu.Lock()
	e.enabled = err == nil && p == PermissionGranted
	e.banner = false
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("requesting notification permission", zap.Error(err))
		return PermissionDenied, err
	}

	if p == PermissionGranted {
		e.AddNotification(model.NotificationDraft{
			Title:      TitlePermissionGranted,
			Message:    MessagePermissionGranted,
			Type:       model.NotificationSuccess,
			Persistent: false,
		})
	}
	return p, nil
}

// CheckDueDates runs the pipeline over tasks. Tasks already notified today
// are skipped, as are tasks whose due date cannot be parsed.
func (e *Engine) CheckDueDates(tasks []model.Task) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	now := e.clock.Now()
	for _, task := range tasks {
		if task.IsCompleted() {
			continue
		}
		if e.dedup.NotifiedToday(task.ID, now) {
			continue
		}

		draft, ok, err := Evaluate(task, now, e.loc)
		if err != nil {
			e.logger.Warn("skipping task with malformed due date",
				zap.String("task_id", task.ID),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}

		// A closed store drops the draft; leave the day unmarked.
		if n := e.AddNotification(draft); n.ID == "" {
			continue
		}
		if err := e.dedup.Mark(task.ID, now); err != nil {
			e.logger.Warn("marking task notified", zap.String("task_id", task.ID), zap.Error(err))
		}
	}
}

// TasksChanged handles a new task list: notifications of completed tasks are
// pruned and the remaining tasks are checked.
func (e *Engine) TasksChanged(tasks []model.Task) {
	snapshot := slices.Clone(tasks)

	e.mu.Lock()
	previous := e.lastTasks
	e.lastTasks = snapshot
	e.mu.Unlock()

	var completed []string
	for _, t := range snapshot {
		if t.IsCompleted() {
			completed = append(completed, t.ID)
		}
	}
	e.store.PruneCompleted(completed)
	e.forget(rescheduled(previous, snapshot))

	e.CheckDueDates(snapshot)
}

// TaskRescheduled drops the notifications of a task whose due date changed
// and clears its marker for today, so the next check classifies the new
// date instead of waiting for tomorrow.
func (e *Engine) TaskRescheduled(taskID string) {
	e.forget([]string{taskID})
}

func (e *Engine) forget(taskIDs []string) {
	if len(taskIDs) == 0 {
		return
	}
	e.runMu.Lock()
	defer e.runMu.Unlock()

	now := e.clock.Now()
	e.store.PruneCompleted(taskIDs)
	for _, id := range taskIDs {
		if err := e.dedup.Clear(id, now); err != nil {
			e.logger.Warn("clearing dedup marker", zap.String("task_id", id), zap.Error(err))
		}
	}
}

// rescheduled returns the open tasks of current whose due date or time
// differs from previous.
func rescheduled(previous, current []model.Task) []string {
	if len(previous) == 0 {
		return nil
	}
	before := make(map[string]model.Task, len(previous))
	for _, t := range previous {
		before[t.ID] = t
	}

	var ids []string
	for _, t := range current {
		p, ok := before[t.ID]
		if ok && !t.IsCompleted() && (p.DueDate != t.DueDate || p.DueTime != t.DueTime) {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Mount processes the initial task list and schedules one more check after
// the mount delay. The deferred check uses the latest list seen by
// TasksChanged and is skipped if that list is empty.
func (e *Engine) Mount(tasks []model.Task) {
	e.TasksChanged(tasks)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mountTimer != nil {
		e.mountTimer.Stop()
	}
	e.mountTimer = e.clock.AfterFunc(e.mountDelay, func() {
		e.mu.Lock()
		latest := e.lastTasks
		e.mountTimer = nil
		e.mu.Unlock()

		if len(latest) > 0 {
			e.CheckDueDates(latest)
		}
	})
}

// Subscribe registers fn to receive the notification list after every
// change. The returned function unregisters it.
func (e *Engine) Subscribe(fn func([]model.Notification)) func() {
	return e.store.Subscribe(fn)
}

// Close cancels the pending mount check and all expiry timers.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.mountTimer != nil {
		e.mountTimer.Stop()
		e.mountTimer = nil
	}
	e.mu.Unlock()

	e.store.Close()
}
