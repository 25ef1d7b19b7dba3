package model

import "time"

// NotificationType is the severity of a notification.
type NotificationType string

// Notification type constants.
const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
	NotificationSuccess NotificationType = "success"
)

// Notification represents an alert surfaced to the user, usually about a
// task whose due date is approaching or has passed.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// Title is the short headline.
	Title string `json:"title"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Type is the severity of the notification.
	Type NotificationType `json:"type"`

	// Timestamp is when this notification was created or last refreshed.
	Timestamp time.Time `json:"timestamp"`

	// TaskID optionally links this notification to the originating task.
	TaskID string `json:"taskId,omitempty"`

	// Persistent notifications survive restarts and stay until removed.
	// Non-persistent ones expire on their own.
	Persistent bool `json:"persistent"`
}

// NotificationDraft is the caller-supplied part of a notification; the
// engine assigns ID and Timestamp.
type NotificationDraft struct {
	Title      string
	Message    string
	Type       NotificationType
	TaskID     string
	Persistent bool
}

// SameSubject reports whether n describes the same (task, type, title)
// condition as d.
func (n Notification) SameSubject(d NotificationDraft) bool {
	return n.TaskID == d.TaskID && n.Type == d.Type && n.Title == d.Title
}
