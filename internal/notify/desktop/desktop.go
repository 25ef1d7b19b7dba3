// Package desktop implements notify.Platform with the operating system's
// notification tools: notify-send on Linux and osascript on macOS. The
// user's permission decision is kept in the key-value store.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/huh"
	"go.uber.org/zap"

	"github.com/nhle/taskflow/internal/kv"
	"github.com/nhle/taskflow/internal/logging"
	"github.com/nhle/taskflow/internal/notify"
)

// PermissionKey holds the stored permission decision.
const PermissionKey = "taskflow_notification_permission"

const appName = "taskflow"

// ErrUnsupported is returned by Show on platforms without a notifier.
var ErrUnsupported = errors.New("desktop notifications are not supported on this platform")

// Prompter asks the user a yes/no question. ok is false when the user
// declines; dismissed is true when the prompt was closed without an answer.
type Prompter interface {
	Confirm(ctx context.Context, title, description string) (ok, dismissed bool, err error)
}

// Runner executes an external command.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Platform delivers notifications through OS commands.
type Platform struct {
	kv       kv.Store
	prompter Prompter
	run      Runner
	goos     string
	logger   *zap.Logger
}

// Option configures a Platform.
type Option func(*Platform)

// WithPrompter replaces the interactive permission prompt.
func WithPrompter(p Prompter) Option {
	return func(d *Platform) { d.prompter = p }
}

// WithRunner replaces command execution.
func WithRunner(r Runner) Option {
	return func(d *Platform) { d.run = r }
}

// WithGOOS overrides the detected operating system.
func WithGOOS(goos string) Option {
	return func(d *Platform) { d.goos = goos }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Platform) { d.logger = l }
}

// New creates a Platform storing its permission in store.
func New(store kv.Store, opts ...Option) *Platform {
	p := &Platform{
		kv:       store,
		prompter: HuhPrompter{},
		run:      execRunner,
		goos:     runtime.GOOS,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrNop(p.logger)
	return p
}

var _ notify.Platform = (*Platform)(nil)

// Supported reports whether the operating system has a notifier.
func (p *Platform) Supported() bool {
	return p.goos == "linux" || p.goos == "darwin"
}

// Permission returns the stored decision. Unsupported systems are always
// denied.
func (p *Platform) Permission() notify.Permission {
	if !p.Supported() {
		return notify.PermissionDenied
	}
	raw, err := p.kv.Get(PermissionKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			p.logger.Warn("reading notification permission", zap.Error(err))
		}
		return notify.PermissionDefault
	}
	switch perm := notify.Permission(raw); perm {
	case notify.PermissionGranted, notify.PermissionDenied:
		return perm
	default:
		return notify.PermissionDefault
	}
}

// RequestPermission prompts once. A stored decision is returned without
// prompting; a dismissed prompt leaves the permission at default.
func (p *Platform) RequestPermission(ctx context.Context) (notify.Permission, error) {
	if perm := p.Permission(); perm != notify.PermissionDefault {
		return perm, nil
	}

	ok, dismissed, err := p.prompter.Confirm(ctx,
		"Allow desktop notifications?",
		"taskflow will alert you when tasks are due soon or overdue.")
	if err != nil {
		return notify.PermissionDefault, fmt.Errorf("prompting for notification permission: %w", err)
	}
	if dismissed {
		return notify.PermissionDefault, nil
	}

	perm := notify.PermissionDenied
	if ok {
		perm = notify.PermissionGranted
	}
	if err := p.kv.Set(PermissionKey, string(perm)); err != nil {
		return perm, fmt.Errorf("saving notification permission: %w", err)
	}
	return perm, nil
}

// Reset forgets the stored decision so the next request prompts again.
func (p *Platform) Reset() error {
	return p.kv.Remove(PermissionKey)
}

// Show displays a notification. On Linux the tag is passed as a
// synchronous hint so a newer notification for the same task replaces
// the older one.
func (p *Platform) Show(title string, opts notify.DeliveryOptions) error {
	ctx := context.Background()
	switch p.goos {
	case "linux":
		args := []string{"--app-name", appName}
		if opts.Icon != "" {
			args = append(args, "--icon", opts.Icon)
		}
		if opts.Tag != "" {
			args = append(args, "--hint", "string:x-canonical-private-synchronous:"+opts.Tag)
		}
		args = append(args, title, opts.Body)
		return p.run(ctx, "notify-send", args...)
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`,
			escapeAppleScript(opts.Body), escapeAppleScript(title))
		return p.run(ctx, "osascript", "-e", script)
	default:
		return ErrUnsupported
	}
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// HuhPrompter asks in the terminal with a huh confirm field.
type HuhPrompter struct{}

func (HuhPrompter) Confirm(ctx context.Context, title, description string) (bool, bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Allow").
				Negative("Block").
				Value(&ok),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, true, nil
		}
		return false, false, err
	}
	return ok, false, nil
}

// Granted answers yes without asking. The watch interface uses it because
// the keypress that triggers the request is already the user's answer.
type Granted struct{}

func (Granted) Confirm(context.Context, string, string) (bool, bool, error) {
	return true, false, nil
}
