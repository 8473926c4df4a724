package configstore

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/reflex-emulator/internal/settings"
)

// Field describes one persisted setting.
type Field struct {
	// Name is the record key.
	Name string

	// Description is a short human-readable summary.
	Description string

	// Observable reports whether changes are broadcast to subscribers.
	Observable bool

	// Replay reports whether new subscribers receive the current value.
	Replay bool

	decode func(raw []byte) (any, error)
	set    func(s *Store, v any, sink changeSink) error
	get    func(snap settings.Snapshot) any
}

// defineField binds a typed setter and getter to a record key.
func defineField[T any](name, desc string, observable, replay bool,
	set func(*Store, T, changeSink) error, get func(settings.Snapshot) T) Field {
	return Field{
		Name:        name,
		Description: desc,
		Observable:  observable,
		Replay:      replay,
		decode: func(raw []byte) (any, error) {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			return v, nil
		},
		set: func(s *Store, v any, sink changeSink) error {
			return set(s, v.(T), sink)
		},
		get: func(snap settings.Snapshot) any {
			return get(snap)
		},
	}
}

// fields lists every persisted setting in record order.
var fields = []Field{
	defineField(settings.FieldProjectionLayers, "number of projection layers", false, false,
		(*Store).setProjectionLayers,
		func(s settings.Snapshot) int { return s.ProjectionLayerCount }),
	defineField(settings.FieldTouchPoints, "number of emulated touch points", true, true,
		(*Store).setTouchPoints,
		func(s settings.Snapshot) int { return s.TouchPointCount }),
	defineField(settings.FieldBackgroundImage, "selected background image path", true, false,
		(*Store).setBackgroundImage,
		func(s settings.Snapshot) string { return s.BackgroundImage }),
	defineField(settings.FieldBackgroundSources, "background image catalog", false, false,
		(*Store).setBackgroundSources,
		func(s settings.Snapshot) []settings.BackgroundSource { return s.BackgroundSources }),
	defineField(settings.FieldCamera, "emulated depth sensor", false, false,
		(*Store).setCamera,
		func(s settings.Snapshot) settings.Camera { return s.Camera }),
	defineField(settings.FieldCircleSize, "touch circle radius bounds", false, false,
		(*Store).setCircleSize,
		func(s settings.Snapshot) settings.CircleSize { return s.CircleSize }),
	defineField(settings.FieldLayers, "projection layers above and below the surface", true, true,
		(*Store).setLayers,
		func(s settings.Snapshot) settings.Layers { return s.Layers }),
	defineField(settings.FieldNormalizedPoints, "touch points in normalized coordinates", true, true,
		(*Store).setNormalizedPoints,
		func(s settings.Snapshot) []settings.NormalizedPoint { return s.NormalizedPoints }),
	defineField(settings.FieldSendInterval, "interval between emulated frames in milliseconds", false, false,
		(*Store).setSendInterval,
		func(s settings.Snapshot) int { return s.SendIntervalMs }),
	defineField(settings.FieldServerConnection, "tracking server URI", false, false,
		(*Store).setServerConnection,
		func(s settings.Snapshot) string { return s.ServerConnection }),
	defineField(settings.FieldViewOptions, "display toggles", false, false,
		(*Store).setViewOptions,
		func(s settings.Snapshot) []settings.ViewOption { return s.ViewOptions }),
	defineField(settings.FieldViewPort, "surface size in pixels", false, false,
		(*Store).setViewPort,
		func(s settings.Snapshot) settings.ViewPort { return s.ViewPort }),
}

// Fields returns the descriptors of every persisted setting in record order.
func (s *Store) Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

func lookupField(name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// SetField sets the setting stored under the record key name from its JSON
// encoding.
func (s *Store) SetField(name string, raw []byte) error {
	f, ok := lookupField(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	v, err := f.decode(raw)
	if err != nil {
		return &settings.ValidationError{Field: name, Value: string(raw), Message: err.Error()}
	}
	return f.set(s, v, s.direct(SourceSet))
}

// Value returns the field's value in snap.
func (f Field) Value(snap settings.Snapshot) any {
	return f.get(snap)
}
