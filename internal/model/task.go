package model

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task status constants, as stored by the backend.
const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// IsValid reports whether s is one of the known task statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Task is a single to-do item owned by the backend task table.
type Task struct {
	// ID is the backend-assigned unique identifier.
	ID string `json:"id" db:"id"`

	// Title is the human-readable summary of the task.
	Title string `json:"title" db:"title"`

	// Description is the optional body text.
	Description string `json:"description" db:"description"`

	// Status is one of the Status* constants.
	Status TaskStatus `json:"status" db:"status"`

	// DueDate is an ISO date ("2006-01-02") or date-time string.
	DueDate string `json:"due_date" db:"due_date"`

	// DueTime optionally overrides the time of day of DueDate ("15:04" or "15:04:05").
	DueTime string `json:"due_time,omitempty" db:"due_time"`

	// UserID is the owning account.
	UserID string `json:"user_id" db:"user_id"`

	// CreatedAt is when the task was first created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is when the task was last modified. For completed tasks it
	// doubles as the completion instant.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsCompleted reports whether the task has been finished.
func (t Task) IsCompleted() bool { return t.Status == StatusCompleted }

// dateTimeLayouts are tried in order when DueDate carries a time component.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var timeOfDayLayouts = []string{"15:04:05", "15:04"}

// EffectiveDue returns the instant the task is due. When DueTime is set it is
// applied to the date portion of DueDate; otherwise DueDate is parsed as a
// full instant. Values without an explicit offset are read in loc.
func (t Task) EffectiveDue(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	raw := strings.TrimSpace(t.DueDate)
	if raw == "" {
		return time.Time{}, fmt.Errorf("task %s: due_date is empty", t.ID)
	}

	if dueTime := strings.TrimSpace(t.DueTime); dueTime != "" {
		datePart, _, _ := strings.Cut(raw, "T")
		datePart, _, _ = strings.Cut(datePart, " ")
		day, err := time.ParseInLocation("2006-01-02", datePart, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("task %s: parsing due_date %q: %w", t.ID, t.DueDate, err)
		}
		for _, layout := range timeOfDayLayouts {
			tod, err := time.Parse(layout, dueTime)
			if err != nil {
				continue
			}
			return time.Date(day.Year(), day.Month(), day.Day(),
				tod.Hour(), tod.Minute(), tod.Second(), 0, loc), nil
		}
		return time.Time{}, fmt.Errorf("task %s: parsing due_time %q", t.ID, t.DueTime)
	}

	if due, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return due, nil
	}
	for _, layout := range dateTimeLayouts {
		if due, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return due, nil
		}
	}
	return time.Time{}, fmt.Errorf("task %s: parsing due_date %q", t.ID, t.DueDate)
}

// TaskFilters controls filtering and ordering of task lists.
type TaskFilters struct {
	// Status restricts results to one status; empty or "all" means no filter.
	Status string

	// Search matches case-insensitively against title and description.
	Search string

	// SortBy is one of "due_date", "created_at" or "title".
	SortBy string

	// SortOrder is "asc" or "desc".
	SortOrder string
}

// DefaultTaskFilters mirrors the initial filter state of the task list.
func DefaultTaskFilters() TaskFilters {
	return TaskFilters{
		Status:    "all",
		SortBy:    "due_date",
		SortOrder: "asc",
	}
}

// TaskStats summarizes task counts by status.
type TaskStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Overdue    int `json:"overdue"`
}
