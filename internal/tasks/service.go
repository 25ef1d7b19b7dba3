// Package tasks coordinates task mutations between the backend, the local
// cache and the notification engine. The backend is the source of truth
// when one is configured; without one the cache is authoritative.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/taskflow/internal/logging"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/source"
	"github.com/nhle/taskflow/internal/store"
	appsync "github.com/nhle/taskflow/internal/sync"
)

// ErrInvalid wraps validation failures of task input.
var ErrInvalid = errors.New("invalid task")

// NewTask is the input for Create.
type NewTask struct {
	Title       string
	Description string
	// DueDate is "2006-01-02" or an RFC 3339 instant.
	DueDate string
	// DueTime optionally sets the time of day ("15:04").
	DueTime string
}

// Rescheduler is implemented by listeners that track per-task state keyed on
// the due date. TaskRescheduled runs before the refresh that follows an edit
// of the due date or time.
type Rescheduler interface {
	TaskRescheduled(taskID string)
}

// Service performs task CRUD and refreshes the listener afterwards.
type Service struct {
	store    store.Store
	src      source.Source
	listener appsync.TaskListener
	loc      *time.Location
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSource routes mutations through the backend.
func WithSource(src source.Source) Option {
	return func(s *Service) { s.src = src }
}

// WithListener receives the full task list after every mutation.
func WithListener(l appsync.TaskListener) Option {
	return func(s *Service) { s.listener = l }
}

// WithLocation sets the zone used to validate due dates.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service over the local cache st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, loc: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

// Online reports whether a backend is configured.
func (s *Service) Online() bool {
	return s.src != nil
}

// List returns cached tasks matching filters.
func (s *Service) List(ctx context.Context, filters model.TaskFilters) ([]model.Task, error) {
	return s.store.GetTasks(ctx, filters)
}

// All returns every cached task in the default order.
func (s *Service) All(ctx context.Context) ([]model.Task, error) {
	return s.store.GetTasks(ctx, model.DefaultTaskFilters())
}

// Get returns one cached task.
func (s *Service) Get(ctx context.Context, id string) (*model.Task, error) {
	return s.store.GetTaskByID(ctx, id)
}

// Create validates in and stores a new pending task.
func (s *Service) Create(ctx context.Context, in NewTask) (*model.Task, error) {
	task := model.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		DueDate:     strings.TrimSpace(in.DueDate),
		DueTime:     strings.TrimSpace(in.DueTime),
		Status:      model.StatusPending,
	}
	if task.Title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalid)
	}
	if _, err := task.EffectiveDue(s.loc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var created *model.Task
	if s.src != nil {
		saved, err := s.src.CreateTask(ctx, task)
		if err != nil {
			return nil, err
		}
		if err := s.store.UpsertTasks(ctx, []model.Task{*saved}); err != nil {
			return nil, fmt.Errorf("caching created task: %w", err)
		}
		created = saved
	} else {
		saved, err := s.store.CreateTask(ctx, task)
		if err != nil {
			return nil, err
		}
		created = saved
	}

	s.logger.Info("task created", zap.String("id", created.ID), zap.String("title", created.Title))
	s.refresh(ctx)
	return created, nil
}

// SetStatus moves a task to status.
func (s *Service) SetStatus(ctx context.Context, id string, status model.TaskStatus) (*model.Task, error) {
	return s.Update(ctx, id, source.TaskUpdate{Status: &status})
}

// Update applies a partial edit to a task. A new due date or time is
// validated against the task's other due field and takes effect on the
// listener's next due-date check.
func (s *Service) Update(ctx context.Context, id string, u source.TaskUpdate) (*model.Task, error) {
	u = trimUpdate(u)
	if u.IsZero() {
		return nil, fmt.Errorf("%w: nothing to change", ErrInvalid)
	}
	if u.Title != nil && *u.Title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalid)
	}
	if u.Status != nil && !u.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, *u.Status)
	}

	cached := true
	current, err := s.store.GetTaskByID(ctx, id)
	switch {
	case err == nil:
	case s.src != nil && errors.Is(err, store.ErrNotFound):
		// Not cached yet; the backend decides whether the task exists.
		cached = false
		current = &model.Task{ID: id}
	default:
		return nil, err
	}

	edited := u.Apply(*current)
	if u.DueDate != nil || (cached && u.DueTime != nil) {
		if _, err := edited.EffectiveDue(s.loc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}

	var updated *model.Task
	if s.src != nil {
		saved, err := s.src.UpdateTask(ctx, id, u)
		if err != nil {
			return nil, err
		}
		if err := s.store.UpsertTasks(ctx, []model.Task{*saved}); err != nil {
			return nil, fmt.Errorf("caching updated task: %w", err)
		}
		updated = saved
	} else {
		if err := s.store.UpdateTask(ctx, edited); err != nil {
			return nil, err
		}
		if updated, err = s.store.GetTaskByID(ctx, id); err != nil {
			return nil, err
		}
	}

	s.logger.Info("task updated",
		zap.String("id", id),
		zap.String("status", string(updated.Status)),
		zap.String("due_date", updated.DueDate),
	)
	if u.DueDate != nil || u.DueTime != nil {
		if r, ok := s.listener.(Rescheduler); ok {
			r.TaskRescheduled(id)
		}
	}
	s.refresh(ctx)
	return updated, nil
}

func trimUpdate(u source.TaskUpdate) source.TaskUpdate {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	u.Title = trim(u.Title)
	u.Description = trim(u.Description)
	u.DueDate = trim(u.DueDate)
	u.DueTime = trim(u.DueTime)
	return u
}

// ToggleDone flips a task between completed and pending.
func (s *Service) ToggleDone(ctx context.Context, task model.Task) (*model.Task, error) {
	next := model.StatusCompleted
	if task.IsCompleted() {
		next = model.StatusPending
	}
	return s.SetStatus(ctx, task.ID, next)
}

// Delete removes a task from the backend (when configured) and the cache.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.src != nil {
		if err := s.src.DeleteTask(ctx, id); err != nil {
			return err
		}
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		if s.src == nil || !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	s.logger.Info("task deleted", zap.String("id", id))
	s.refresh(ctx)
	return nil
}

// refresh hands the full cached list to the listener.
func (s *Service) refresh(ctx context.Context) {
	if s.listener == nil {
		return
	}
	all, err := s.All(ctx)
	if err != nil {
		s.logger.Warn("reloading tasks after mutation", zap.Error(err))
		return
	}
	s.listener.TasksChanged(all)
}
