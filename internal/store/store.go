package store

import (
	"context"
	"errors"

	"github.com/nhle/taskflow/internal/model"
)

// ErrNotFound is returned when a task or key does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the local persistence interface for cached tasks.
type Store interface {
	// === Tasks ===

	// UpsertTasks inserts or replaces a batch of tasks.
	UpsertTasks(ctx context.Context, tasks []model.Task) error

	// ReplaceTasks makes tasks the complete cached task list.
	ReplaceTasks(ctx context.Context, tasks []model.Task) error

	GetTasks(ctx context.Context, filters model.TaskFilters) ([]model.Task, error)
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	CreateTask(ctx context.Context, task model.Task) (*model.Task, error)
	UpdateTask(ctx context.Context, task model.Task) error
	DeleteTask(ctx context.Context, id string) error

	// CountByStatus returns the number of cached tasks per status.
	CountByStatus(ctx context.Context) (map[model.TaskStatus]int, error)

	// === Key-value ===

	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key, value string) error
	DeleteValue(ctx context.Context, key string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}
