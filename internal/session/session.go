// Package session controls capture session lifecycle and user-facing feedback
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/motionsnap/platform/internal/sampler"
	"github.com/motionsnap/platform/internal/syncx"
)

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Notifier delivers fire-and-forget user-facing notifications.
type Notifier interface {
	Notify(title, message string, severity Severity)
}

// LogNotifier writes notifications to the structured log. Used as the
// fallback when no UI surface is connected.
type LogNotifier struct{}

func (LogNotifier) Notify(title, message string, severity Severity) {
	switch severity {
	case SeverityError:
		slog.Error(title, "message", message)
	case SeverityWarn:
		slog.Warn(title, "message", message)
	default:
		slog.Info(title, "message", message)
	}
}

// Info describes the current (or most recent) session.
type Info struct {
	ID        string
	StartedAt time.Time
}

// Controller wraps the sampler's start/stop with session identity and
// notifications, and exposes the externally observable capture state.
type Controller struct {
	sampler  *sampler.Sampler
	notifier *syncx.RWGuard[Notifier]
	current  *syncx.RWGuard[Info]
}

// NewController creates a session controller. A nil notifier falls back
// to log-only notifications.
func NewController(s *sampler.Sampler, n Notifier) *Controller {
	if n == nil {
		n = LogNotifier{}
	}
	return &Controller{
		sampler:  s,
		notifier: syncx.NewGuard(n),
		current:  syncx.NewGuard(Info{}),
	}
}

// SetNotifier swaps the notification sink. Used to attach the UI surface
// after construction.
func (c *Controller) SetNotifier(n Notifier) {
	if n == nil {
		n = LogNotifier{}
	}
	c.notifier.Set(n)
}

// Start begins a new capture session.
func (c *Controller) Start(ctx context.Context) (Info, error) {
	if err := c.sampler.Start(ctx); err != nil {
		return Info{}, err
	}

	info := Info{ID: uuid.NewString(), StartedAt: time.Now()}
	c.current.Set(info)

	slog.Info("capture session started", "session_id", info.ID)
	c.notifier.Get().Notify("Capture started", "Watching for changes every 500ms", SeverityInfo)
	return info, nil
}

// Stop ends the active capture session.
func (c *Controller) Stop() (Info, error) {
	count := c.sampler.SavedCount()
	if err := c.sampler.Stop(); err != nil {
		return Info{}, err
	}

	info := c.current.Get()
	slog.Info("capture session stopped", "session_id", info.ID, "saved", count)
	c.notifier.Get().Notify("Capture stopped", fmt.Sprintf("Saved %d photos", count), SeverityInfo)
	return info, nil
}

// Capturing reports whether a session is active.
func (c *Controller) Capturing() bool { return c.sampler.Running() }

// SavedCount returns the active session's saved-frame count.
func (c *Controller) SavedCount() int { return c.sampler.SavedCount() }

// Current returns the current (or most recent) session info.
func (c *Controller) Current() Info { return c.current.Get() }

// Events exposes the sampler's accepted-frame events for the UI surface.
func (c *Controller) Events() <-chan sampler.Event { return c.sampler.Events() }
