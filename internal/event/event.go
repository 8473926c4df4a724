package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/reflex-emulator/internal/config/notify"
	"github.com/dshills/reflex-emulator/internal/settings"
)

// TopicSettingsUpdated names the settings-updated event.
const TopicSettingsUpdated = "settings.updated"

// SettingsUpdated announces a change to the emulator settings and carries
// the complete snapshot taken right after it.
type SettingsUpdated struct {
	// ID uniquely identifies the event.
	ID uuid.UUID `json:"id"`

	// Topic is always TopicSettingsUpdated.
	Topic string `json:"topic"`

	// Field is the record key of the changed setting. Empty when the whole
	// snapshot was replaced by a restore or reset.
	Field string `json:"field,omitempty"`

	// Source tells what caused the change ("set", "restore", "reset").
	Source string `json:"source"`

	// Time is when the change was observed.
	Time time.Time `json:"time"`

	// Snapshot is the complete settings state after the change.
	Snapshot settings.Snapshot `json:"snapshot"`
}

// NewSettingsUpdated builds an event for change.
func NewSettingsUpdated(change notify.Change, snap settings.Snapshot, now time.Time) SettingsUpdated {
	return SettingsUpdated{
		ID:       uuid.New(),
		Topic:    TopicSettingsUpdated,
		Field:    change.Field,
		Source:   change.Source,
		Time:     now,
		Snapshot: snap,
	}
}

// Publisher delivers settings-updated events.
type Publisher interface {
	Publish(ctx context.Context, evt SettingsUpdated) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, evt SettingsUpdated) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, evt SettingsUpdated) error {
	return f(ctx, evt)
}
