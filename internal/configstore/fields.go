package configstore

import (
	"time"

	"github.com/dshills/reflex-emulator/internal/config/notify"
	"github.com/dshills/reflex-emulator/internal/settings"
)

// ProjectionLayerCount returns the number of projection layers.
func (s *Store) ProjectionLayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectionLayers
}

// SetProjectionLayerCount sets the number of projection layers.
func (s *Store) SetProjectionLayerCount(n int) error {
	return s.setProjectionLayers(n, s.direct(SourceSet))
}

func (s *Store) setProjectionLayers(n int, sink changeSink) error {
	if err := settings.ValidateProjectionLayerCount(n); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.projectionLayers
	s.projectionLayers = n
	s.mu.Unlock()

	sink(settings.FieldProjectionLayers, old, n)
	return nil
}

// TouchPointCount returns the number of emulated touch points.
func (s *Store) TouchPointCount() int {
	return s.touchPoints.Value()
}

// SetTouchPointCount sets the number of touch points and broadcasts it.
func (s *Store) SetTouchPointCount(n int) error {
	return s.setTouchPoints(n, s.direct(SourceSet))
}

// ObserveTouchPointCount subscribes to the touch point count. fn receives
// the current count immediately.
func (s *Store) ObserveTouchPointCount(fn func(int)) *notify.Subscription {
	return s.touchPoints.Subscribe(fn)
}

func (s *Store) setTouchPoints(n int, sink changeSink) error {
	if err := settings.ValidateTouchPointCount(n); err != nil {
		return err
	}
	if s.isClosed() {
		return ErrClosed
	}
	old := s.touchPoints.Value()
	s.touchPoints.Next(n)
	s.metrics.Emitted(settings.FieldTouchPoints)

	sink(settings.FieldTouchPoints, old, n)
	return nil
}

// BackgroundImage returns the selected background image path.
func (s *Store) BackgroundImage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backgroundImage
}

// SetBackgroundImage selects a background image and announces it to
// background observers. An empty path clears the background.
func (s *Store) SetBackgroundImage(path string) error {
	return s.setBackgroundImage(path, s.direct(SourceSet))
}

// ObserveBackgroundImage subscribes to background image changes made after
// the call. The current image is not replayed.
func (s *Store) ObserveBackgroundImage(fn func(string)) *notify.Subscription {
	return s.background.Subscribe(fn)
}

func (s *Store) setBackgroundImage(path string, sink changeSink) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.backgroundImage
	s.backgroundImage = path
	s.mu.Unlock()

	s.background.Next(path)
	s.metrics.Emitted(settings.FieldBackgroundImage)

	sink(settings.FieldBackgroundImage, old, path)
	return nil
}

// BackgroundSources returns the background image catalog.
func (s *Store) BackgroundSources() []settings.BackgroundSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return settings.CloneSlice(s.backgroundSources)
}

// SetBackgroundSources replaces the background image catalog.
func (s *Store) SetBackgroundSources(sources []settings.BackgroundSource) error {
	return s.setBackgroundSources(sources, s.direct(SourceSet))
}

func (s *Store) setBackgroundSources(sources []settings.BackgroundSource, sink changeSink) error {
	if err := settings.ValidateBackgroundSources(sources); err != nil {
		return err
	}
	sources = settings.CloneSlice(sources)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.backgroundSources
	s.backgroundSources = sources
	s.mu.Unlock()

	sink(settings.FieldBackgroundSources, old, settings.CloneSlice(sources))
	return nil
}

// Camera returns the selected camera.
func (s *Store) Camera() settings.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera.Clone()
}

// SetCamera selects a camera.
func (s *Store) SetCamera(c settings.Camera) error {
	return s.setCamera(c, s.direct(SourceSet))
}

// CameraOptions returns the catalog of selectable cameras.
func (s *Store) CameraOptions() []settings.Camera {
	return settings.Cameras()
}

func (s *Store) setCamera(c settings.Camera, sink changeSink) error {
	c = c.Clone()
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.camera
	s.camera = c
	s.mu.Unlock()

	sink(settings.FieldCamera, old, c.Clone())
	return nil
}

// CircleSize returns the touch circle bounds.
func (s *Store) CircleSize() settings.CircleSize {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.circleSize
}

// SetCircleSize sets the touch circle bounds. Min must not exceed Max.
func (s *Store) SetCircleSize(c settings.CircleSize) error {
	return s.setCircleSize(c, s.direct(SourceSet))
}

func (s *Store) setCircleSize(c settings.CircleSize, sink changeSink) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.circleSize
	s.circleSize = c
	s.mu.Unlock()

	sink(settings.FieldCircleSize, old, c)
	return nil
}

// Layers returns the projection layer configuration.
func (s *Store) Layers() settings.Layers {
	return s.layers.Value()
}

// SetLayers sets the projection layer configuration and broadcasts it.
func (s *Store) SetLayers(l settings.Layers) error {
	return s.setLayers(l, s.direct(SourceSet))
}

// ObserveLayers subscribes to the layer configuration. fn receives the
// current configuration immediately.
func (s *Store) ObserveLayers(fn func(settings.Layers)) *notify.Subscription {
	return s.layers.Subscribe(fn)
}

func (s *Store) setLayers(l settings.Layers, sink changeSink) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if s.isClosed() {
		return ErrClosed
	}
	old := s.layers.Value()
	s.layers.Next(l)
	s.metrics.Emitted(settings.FieldLayers)

	sink(settings.FieldLayers, old, l)
	return nil
}

// NormalizedPoints returns the current normalized touch points.
func (s *Store) NormalizedPoints() []settings.NormalizedPoint {
	return settings.CloneSlice(s.normalizedPoints.Value())
}

// SetNormalizedPoints replaces the normalized touch points and broadcasts
// them. Subscribers share the delivered slice and must not modify it.
func (s *Store) SetNormalizedPoints(points []settings.NormalizedPoint) error {
	return s.setNormalizedPoints(points, s.direct(SourceSet))
}

// ObserveNormalizedPoints subscribes to the normalized touch points. fn
// receives the current points immediately.
func (s *Store) ObserveNormalizedPoints(fn func([]settings.NormalizedPoint)) *notify.Subscription {
	return s.normalizedPoints.Subscribe(fn)
}

func (s *Store) setNormalizedPoints(points []settings.NormalizedPoint, sink changeSink) error {
	if err := settings.ValidateNormalizedPoints(points); err != nil {
		return err
	}
	if s.isClosed() {
		return ErrClosed
	}
	if points == nil {
		points = []settings.NormalizedPoint{}
	}
	points = settings.CloneSlice(points)

	old := s.normalizedPoints.Value()
	s.normalizedPoints.Next(points)
	s.metrics.Emitted(settings.FieldNormalizedPoints)

	sink(settings.FieldNormalizedPoints, old, settings.CloneSlice(points))
	return nil
}

// SendIntervalMs returns the interval between emulated frames in milliseconds.
func (s *Store) SendIntervalMs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sendInterval
}

// SendInterval returns the send interval as a duration.
func (s *Store) SendInterval() time.Duration {
	return time.Duration(s.SendIntervalMs()) * time.Millisecond
}

// SetSendIntervalMs sets the interval between emulated frames.
func (s *Store) SetSendIntervalMs(ms int) error {
	return s.setSendInterval(ms, s.direct(SourceSet))
}

func (s *Store) setSendInterval(ms int, sink changeSink) error {
	if err := settings.ValidateSendInterval(ms); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.sendInterval
	s.sendInterval = ms
	s.mu.Unlock()

	sink(settings.FieldSendInterval, old, ms)
	return nil
}

// ServerConnection returns the tracking server URI.
func (s *Store) ServerConnection() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverConnection
}

// SetServerConnection sets the tracking server URI.
func (s *Store) SetServerConnection(uri string) error {
	return s.setServerConnection(uri, s.direct(SourceSet))
}

func (s *Store) setServerConnection(uri string, sink changeSink) error {
	if err := settings.ValidateServerConnection(uri); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.serverConnection
	s.serverConnection = uri
	s.mu.Unlock()

	sink(settings.FieldServerConnection, old, uri)
	return nil
}

// ViewOptions returns the display toggles.
func (s *Store) ViewOptions() []settings.ViewOption {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return settings.CloneSlice(s.viewOptions)
}

// SetViewOptions replaces the display toggles.
func (s *Store) SetViewOptions(opts []settings.ViewOption) error {
	return s.setViewOptions(opts, s.direct(SourceSet))
}

func (s *Store) setViewOptions(opts []settings.ViewOption, sink changeSink) error {
	if err := settings.ValidateViewOptions(opts); err != nil {
		return err
	}
	opts = settings.CloneSlice(opts)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.viewOptions
	s.viewOptions = opts
	s.mu.Unlock()

	sink(settings.FieldViewOptions, old, settings.CloneSlice(opts))
	return nil
}

// ViewPort returns the surface size.
func (s *Store) ViewPort() settings.ViewPort {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewPort
}

// SetViewPort sets the surface size.
func (s *Store) SetViewPort(v settings.ViewPort) error {
	return s.setViewPort(v, s.direct(SourceSet))
}

func (s *Store) setViewPort(v settings.ViewPort, sink changeSink) error {
	if err := v.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.viewPort
	s.viewPort = v
	s.mu.Unlock()

	sink(settings.FieldViewPort, old, v)
	return nil
}

// ActivePoint returns the index of the touch point last announced as
// active, or 0 if none was.
func (s *Store) ActivePoint() int {
	return s.activePoint.Value()
}

// SetActivePoint announces the touch point being manipulated. The value is
// transient: it is neither persisted nor reported on the Changes feed.
func (s *Store) SetActivePoint(index int) error {
	if s.isClosed() {
		return ErrClosed
	}
	s.activePoint.Next(index)
	return nil
}

// ObserveActivePoint subscribes to active point announcements made after
// the call.
func (s *Store) ObserveActivePoint(fn func(int)) *notify.Subscription {
	return s.activePoint.Subscribe(fn)
}

// LastBackup returns the timestamp of the record currently in the durable
// store, or nil if there is none or it cannot be read.
func (s *Store) LastBackup() *time.Time {
	ts := s.lastBackup.Value()
	if ts == nil {
		return nil
	}
	out := *ts
	return &out
}

// ObserveLastBackup subscribes to the backup timestamp. fn receives the
// current value (possibly nil) immediately.
func (s *Store) ObserveLastBackup(fn func(*time.Time)) *notify.Subscription {
	return s.lastBackup.Subscribe(fn)
}
