package settings

// Default values of a freshly constructed store.
const (
	DefaultProjectionLayerCount = 7
	DefaultTouchPointCount      = 3
	DefaultSendIntervalMs       = 100
	DefaultServerConnection     = "ws://127.0.0.1:40000/ReFlex"
)

// DefaultCamera is the device selected on first start.
func DefaultCamera() Camera {
	return Camera{Model: "Azure Kinect DK", Resolution: "640 × 576"}
}

// DefaultCircleSize returns the default touch circle bounds.
func DefaultCircleSize() CircleSize {
	return CircleSize{Min: 20, Max: 400}
}

// DefaultLayers returns the default projection layer configuration.
func DefaultLayers() Layers {
	return Layers{Up: 2, Down: 7, ColorUp: "#b9a14b", ColorDown: "#111722"}
}

// DefaultViewOptions returns the fixed list of display toggles.
func DefaultViewOptions() []ViewOption {
	return []ViewOption{
		{Option: "Contours", Active: false},
		{Option: "Depth Image", Active: false},
		{Option: "Extrema", Active: true},
		{Option: "Vectors", Active: false},
	}
}

// DefaultViewPort returns the default surface size.
func DefaultViewPort() ViewPort {
	return ViewPort{Width: 640, Height: 480}
}

// Defaults returns the snapshot every store starts from.
func Defaults() Snapshot {
	return Snapshot{
		ProjectionLayerCount: DefaultProjectionLayerCount,
		TouchPointCount:      DefaultTouchPointCount,
		BackgroundImage:      "",
		BackgroundSources:    BackgroundSources(),
		Camera:               DefaultCamera(),
		CircleSize:           DefaultCircleSize(),
		Layers:               DefaultLayers(),
		NormalizedPoints:     []NormalizedPoint{},
		SendIntervalMs:       DefaultSendIntervalMs,
		ServerConnection:     DefaultServerConnection,
		ViewOptions:          DefaultViewOptions(),
		ViewPort:             DefaultViewPort(),
	}
}
