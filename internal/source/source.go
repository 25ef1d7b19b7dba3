package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/taskflow/internal/model"
)

// AuthError indicates that authentication has failed or expired for a source.
// It is returned by source clients when a 401 response is received.
type AuthError struct {
	SourceType SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// SourceType identifies the kind of task backend.
type SourceType string

const (
	// SourceTypeBackend is the hosted PostgREST task table.
	SourceTypeBackend SourceType = "backend"
)

// TaskUpdate is a partial task update. Nil fields are left unchanged.
type TaskUpdate struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Status      *model.TaskStatus `json:"status,omitempty"`
	DueDate     *string           `json:"due_date,omitempty"`
	DueTime     *string           `json:"due_time,omitempty"`
}

// IsZero reports whether u changes nothing.
func (u TaskUpdate) IsZero() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.DueDate == nil && u.DueTime == nil
}

// Apply returns t with the non-nil fields of u written over it.
func (u TaskUpdate) Apply(t model.Task) model.Task {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.DueDate != nil {
		t.DueDate = *u.DueDate
	}
	if u.DueTime != nil {
		t.DueTime = *u.DueTime
	}
	return t
}

// Session is an authenticated user session.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	UserID       string `json:"-"`
	Email        string `json:"-"`
}

// Source defines the contract of the remote task store. The backend is the
// source of truth; the local store only caches what FetchTasks returns.
type Source interface {
	// Type returns the source type identifier.
	Type() SourceType

	// ValidateConnection verifies credentials and connectivity.
	// Returns a human-readable status message on success.
	ValidateConnection(ctx context.Context) (string, error)

	// FetchTasks returns every task of the configured user, newest first.
	FetchTasks(ctx context.Context) ([]model.Task, error)

	// CreateTask stores a new task and returns it as saved.
	CreateTask(ctx context.Context, task model.Task) (*model.Task, error)

	// UpdateTask applies a partial update and returns the saved task.
	UpdateTask(ctx context.Context, id string, update TaskUpdate) (*model.Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, id string) error
}
