package backend

import (
	"time"

	"github.com/nhle/taskflow/internal/model"
)

// ErrorResponse is the PostgREST / GoTrue error body.
type ErrorResponse struct {
	Message          string `json:"message"`
	Code             string `json:"code"`
	Details          string `json:"details"`
	Hint             string `json:"hint"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// text returns the most specific message present.
func (e ErrorResponse) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.ErrorDescription != "":
		return e.ErrorDescription
	default:
		return e.Error
	}
}

// taskRow is the JSON shape of a row in the tasks table.
type taskRow struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	DueDate     string     `json:"due_date"`
	DueTime     *string    `json:"due_time"`
	UserID      string     `json:"user_id"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func (r taskRow) toTask() model.Task {
	t := model.Task{
		ID:      r.ID,
		Title:   r.Title,
		Status:  model.TaskStatus(r.Status),
		DueDate: r.DueDate,
		UserID:  r.UserID,
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.DueTime != nil {
		t.DueTime = *r.DueTime
	}
	if r.CreatedAt != nil {
		t.CreatedAt = *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		t.UpdatedAt = *r.UpdatedAt
	}
	if !t.Status.IsValid() {
		t.Status = model.StatusPending
	}
	return t
}

func rowFromTask(t model.Task) taskRow {
	row := taskRow{
		ID:      t.ID,
		Title:   t.Title,
		Status:  string(t.Status),
		DueDate: t.DueDate,
		UserID:  t.UserID,
	}
	desc := t.Description
	row.Description = &desc
	if t.DueTime != "" {
		dueTime := t.DueTime
		row.DueTime = &dueTime
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt.UTC()
		row.CreatedAt = &created
	}
	if !t.UpdatedAt.IsZero() {
		updated := t.UpdatedAt.UTC()
		row.UpdatedAt = &updated
	}
	return row
}

// User is the GoTrue user object.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// tokenResponse is returned by the password grant.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}
