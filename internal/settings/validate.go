package settings

import (
	"math"
	"net/url"

	"github.com/lucasb-eyer/go-colorful"
)

// Record keys of the snapshot fields.
const (
	FieldProjectionLayers  = "amountProjectionLayers"
	FieldTouchPoints       = "amountTouchPoints"
	FieldBackgroundImage   = "backgroundImage"
	FieldBackgroundSources = "backgroundSources"
	FieldCamera            = "camera"
	FieldCircleSize        = "circleSize"
	FieldLayers            = "layers"
	FieldNormalizedPoints  = "normalizedPoints"
	FieldSendInterval      = "sendInterval"
	FieldServerConnection  = "serverConnection"
	FieldViewOptions       = "viewOptions"
	FieldViewPort          = "viewPort"
)

// ValidateProjectionLayerCount requires at least one projection layer.
func ValidateProjectionLayerCount(n int) error {
	if n < 1 {
		return invalid(FieldProjectionLayers, n, "must be at least 1")
	}
	return nil
}

// ValidateTouchPointCount rejects negative counts.
func ValidateTouchPointCount(n int) error {
	if n < 0 {
		return invalid(FieldTouchPoints, n, "must not be negative")
	}
	return nil
}

// ValidateSendInterval requires a positive interval in milliseconds.
func ValidateSendInterval(ms int) error {
	if ms <= 0 {
		return invalid(FieldSendInterval, ms, "must be positive")
	}
	return nil
}

// ValidateServerConnection requires an absolute URI with scheme and host.
func ValidateServerConnection(uri string) error {
	if uri == "" {
		return invalid(FieldServerConnection, uri, "must not be empty")
	}
	u, err := url.Parse(uri)
	if err != nil {
		return invalid(FieldServerConnection, uri, "unparseable: %v", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return invalid(FieldServerConnection, uri, "must include scheme and host")
	}
	return nil
}

// Validate checks the camera selection.
func (c Camera) Validate() error {
	if c.Model == "" {
		return invalid(FieldCamera, c, "model must not be empty")
	}
	if c.Version != nil && *c.Version < 0 {
		return invalid(FieldCamera, *c.Version, "version must not be negative")
	}
	return nil
}

// Validate checks min <= max and that neither bound is negative.
func (c CircleSize) Validate() error {
	if c.Min < 0 {
		return invalid(FieldCircleSize, c, "min must not be negative")
	}
	if c.Min > c.Max {
		return invalid(FieldCircleSize, c, "min must not exceed max")
	}
	return nil
}

// Validate checks layer counts and colors.
func (l Layers) Validate() error {
	if l.Up < 0 || l.Down < 0 {
		return invalid(FieldLayers, l, "layer counts must not be negative")
	}
	for _, c := range []string{l.ColorUp, l.ColorDown} {
		if c == "" {
			continue
		}
		if _, err := colorful.Hex(c); err != nil {
			return invalid(FieldLayers, c, "not a hex color")
		}
	}
	return nil
}

// Validate requires a positive surface size.
func (v ViewPort) Validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return invalid(FieldViewPort, v, "width and height must be positive")
	}
	return nil
}

// ValidateViewOptions requires every toggle to be named.
func ValidateViewOptions(opts []ViewOption) error {
	for i, o := range opts {
		if o.Option == "" {
			return invalid(FieldViewOptions, i, "option name must not be empty")
		}
	}
	return nil
}

// ValidateBackgroundSources requires every source to be named.
func ValidateBackgroundSources(sources []BackgroundSource) error {
	for i, s := range sources {
		if s.Name == "" {
			return invalid(FieldBackgroundSources, i, "source name must not be empty")
		}
	}
	return nil
}

// ValidateNormalizedPoints rejects NaN and infinite coordinates.
func ValidateNormalizedPoints(points []NormalizedPoint) error {
	for i, p := range points {
		if !finite(p.X) || !finite(p.Y) {
			return invalid(FieldNormalizedPoints, i, "coordinates must be finite")
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
