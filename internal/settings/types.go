package settings

import "time"

// Camera identifies the depth sensor being emulated.
type Camera struct {
	// Model is the device name (e.g., "Azure Kinect DK").
	Model string `json:"model"`

	// Resolution is the human-readable depth resolution (e.g., "640 × 576").
	Resolution string `json:"resolution"`

	// Version distinguishes hardware revisions of the same model.
	Version *int `json:"version,omitempty"`
}

// Equal reports whether two camera selections describe the same device.
func (c Camera) Equal(o Camera) bool {
	if c.Model != o.Model || c.Resolution != o.Resolution {
		return false
	}
	switch {
	case c.Version == nil && o.Version == nil:
		return true
	case c.Version == nil || o.Version == nil:
		return false
	default:
		return *c.Version == *o.Version
	}
}

// CircleSize bounds the radius of rendered touch circles.
type CircleSize struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Layers describes how many projection layers lie above and below the
// surface and the colors used to draw them.
type Layers struct {
	Up        int    `json:"up"`
	Down      int    `json:"down"`
	ColorUp   string `json:"colorUp,omitempty"`
	ColorDown string `json:"colorDown,omitempty"`
}

// ViewOption is a named display toggle.
type ViewOption struct {
	Option string `json:"option"`
	Active bool   `json:"active"`
}

// ViewPort is the size of the emulated sensor surface in pixels.
type ViewPort struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NormalizedPoint is a touch point in surface coordinates scaled to [0, 1].
type NormalizedPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BackgroundSource is one entry of the background image catalog.
type BackgroundSource struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Snapshot is the complete configuration at one instant.
//
// Field tags are the keys of the persisted backup record.
type Snapshot struct {
	ProjectionLayerCount int                `json:"amountProjectionLayers"`
	TouchPointCount      int                `json:"amountTouchPoints"`
	BackgroundImage      string             `json:"backgroundImage"`
	BackgroundSources    []BackgroundSource `json:"backgroundSources"`
	Camera               Camera             `json:"camera"`
	CircleSize           CircleSize         `json:"circleSize"`
	Layers               Layers             `json:"layers"`
	NormalizedPoints     []NormalizedPoint  `json:"normalizedPoints"`
	SendIntervalMs       int                `json:"sendInterval"`
	ServerConnection     string             `json:"serverConnection"`
	ViewOptions          []ViewOption       `json:"viewOptions"`
	ViewPort             ViewPort           `json:"viewPort"`

	// LastBackup is derived from the durable record and never persisted
	// as part of the snapshot body.
	LastBackup *time.Time `json:"-"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.BackgroundSources = CloneSlice(s.BackgroundSources)
	out.NormalizedPoints = CloneSlice(s.NormalizedPoints)
	out.ViewOptions = CloneSlice(s.ViewOptions)
	out.Camera = s.Camera.Clone()
	if s.LastBackup != nil {
		ts := *s.LastBackup
		out.LastBackup = &ts
	}
	return out
}

// Clone returns a copy that shares no memory with c.
func (c Camera) Clone() Camera {
	if c.Version == nil {
		return c
	}
	v := *c.Version
	c.Version = &v
	return c
}

// CloneSlice copies a slice of plain values. A nil input stays nil.
func CloneSlice[T any](src []T) []T {
	if src == nil {
		return nil
	}
	dst := make([]T, len(src))
	copy(dst, src)
	return dst
}
