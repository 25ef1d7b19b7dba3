// Package backend talks to the hosted task table over its REST API.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/source"
)

const (
	restPrefix = "/rest/v1/"
	authUser   = "/auth/v1/user"
	authToken  = "/auth/v1/token"
)

// Adapter implements source.Source for the hosted tasks table.
type Adapter struct {
	client *Client
	table  string
	userID string
	now    func() time.Time
}

var _ source.Source = (*Adapter)(nil)

// NewAdapter creates a new backend source adapter scoped to userID.
func NewAdapter(client *Client, table, userID string) *Adapter {
	if table == "" {
		table = "tasks"
	}
	return &Adapter{
		client: client,
		table:  table,
		userID: userID,
		now:    time.Now,
	}
}

// Type returns the source type identifier for the backend.
func (a *Adapter) Type() source.SourceType {
	return source.SourceTypeBackend
}

// UserID returns the user the adapter is scoped to.
func (a *Adapter) UserID() string {
	return a.userID
}

// ValidateConnection verifies credentials by calling GET /auth/v1/user.
// Returns the user's email on success and adopts the user's ID when the
// adapter was created without one.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	var me User
	if err := a.client.Get(ctx, authUser, nil, &me); err != nil {
		return "", fmt.Errorf("validating backend connection: %w", err)
	}
	if a.userID == "" {
		a.userID = me.ID
	}
	return me.Email, nil
}

// SignIn exchanges an email and password for a session using the password
// grant. The client adopts the returned access token.
func (a *Adapter) SignIn(ctx context.Context, email, password string) (*source.Session, error) {
	query := url.Values{"grant_type": {"password"}}
	body := map[string]string{"email": email, "password": password}

	var resp tokenResponse
	if err := a.client.Post(ctx, authToken, query, body, &resp); err != nil {
		return nil, fmt.Errorf("signing in %s: %w", email, err)
	}
	if resp.AccessToken == "" {
		return nil, errors.New("signing in: response carried no access token")
	}

	a.client.SetToken(resp.AccessToken)
	a.userID = resp.User.ID

	return &source.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		UserID:       resp.User.ID,
		Email:        resp.User.Email,
	}, nil
}

// FetchTasks retrieves every task of the user, newest first.
func (a *Adapter) FetchTasks(ctx context.Context) ([]model.Task, error) {
	if err := a.requireUser(); err != nil {
		return nil, err
	}

	query := url.Values{
		"select":  {"*"},
		"user_id": {"eq." + a.userID},
		"order":   {"created_at.desc"},
	}

	var rows []taskRow
	if err := a.client.Get(ctx, a.path(), query, &rows); err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toTask())
	}
	return tasks, nil
}

// CreateTask inserts task for the user and returns the stored row.
func (a *Adapter) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(task.Title) == "" {
		return nil, errors.New("task title must not be empty")
	}
	if task.Status == "" {
		task.Status = model.StatusPending
	}

	now := a.now().UTC()
	task.ID = ""
	task.UserID = a.userID
	task.CreatedAt = now
	task.UpdatedAt = now

	var rows []taskRow
	if err := a.client.Post(ctx, a.path(), nil, []taskRow{rowFromTask(task)}, &rows); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return singleRow(rows, "creating task")
}

// UpdateTask applies update to the task with id and bumps updated_at.
func (a *Adapter) UpdateTask(ctx context.Context, id string, update source.TaskUpdate) (*model.Task, error) {
	if err := a.requireUser(); err != nil {
		return nil, err
	}

	body := struct {
		source.TaskUpdate
		UpdatedAt time.Time `json:"updated_at"`
	}{update, a.now().UTC()}

	var rows []taskRow
	if err := a.client.Patch(ctx, a.path(), a.rowQuery(id), body, &rows); err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}
	return singleRow(rows, "updating task "+id)
}

// DeleteTask removes the task with id.
func (a *Adapter) DeleteTask(ctx context.Context, id string) error {
	if err := a.requireUser(); err != nil {
		return err
	}
	if err := a.client.Delete(ctx, a.path(), a.rowQuery(id)); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return nil
}

func (a *Adapter) path() string {
	return restPrefix + a.table
}

func (a *Adapter) rowQuery(id string) url.Values {
	return url.Values{
		"id":      {"eq." + id},
		"user_id": {"eq." + a.userID},
	}
}

func (a *Adapter) requireUser() error {
	if a.userID == "" {
		return &source.AuthError{
			SourceType: source.SourceTypeBackend,
			Message:    "no user configured; run `taskflow auth login`",
		}
	}
	return nil
}

func singleRow(rows []taskRow, op string) (*model.Task, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: backend returned no row", op)
	}
	t := rows[0].toTask()
	return &t, nil
}
