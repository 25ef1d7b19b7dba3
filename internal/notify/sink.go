package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/nhle/taskflow/internal/model"
)

// Permission is the user's decision about native notifications.
type Permission string

const (
	// PermissionDefault means permission has not been requested yet.
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// DefaultTag groups native notifications that are not tied to a task.
const DefaultTag = "general"

// DeliveryOptions accompany a native notification.
type DeliveryOptions struct {
	Body string
	Icon string

	// Tag lets the platform replace an earlier notification with the same tag.
	Tag string
}

// Platform is the host's native notification surface.
type Platform interface {
	// Permission returns the current permission state without prompting.
	Permission() Permission

	// RequestPermission prompts the user and returns the resulting state.
	RequestPermission(ctx context.Context) (Permission, error)

	// Show displays a native notification.
	Show(title string, opts DeliveryOptions) error
}

// Sink mirrors notifications to a Platform. A Sink with a nil platform
// never delivers.
type Sink struct {
	platform Platform
	icon     string
	logger   *zap.Logger
}

// NewSink creates a Sink for platform.
func NewSink(platform Platform, icon string, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{platform: platform, icon: icon, logger: logger}
}

// Permission reports the platform permission, or PermissionDenied when
// there is no platform.
func (s *Sink) Permission() Permission {
	if s.platform == nil {
		return PermissionDenied
	}
	return s.platform.Permission()
}

// Request asks the platform for permission.
func (s *Sink) Request(ctx context.Context) (Permission, error) {
	if s.platform == nil {
		return PermissionDenied, nil
	}
	return s.platform.RequestPermission(ctx)
}

// Deliver shows n natively. Failures are logged and otherwise ignored.
func (s *Sink) Deliver(n model.Notification) {
	if s.platform == nil {
		return
	}

	tag := n.TaskID
	if tag == "" {
		tag = DefaultTag
	}

	err := s.platform.Show(n.Title, DeliveryOptions{
		Body: n.Message,
		Icon: s.icon,
		Tag:  tag,
	})
	if err != nil {
		s.logger.Warn("delivering native notification",
			zap.String("id", n.ID),
			zap.String("title", n.Title),
			zap.Error(err),
		)
	}
}
