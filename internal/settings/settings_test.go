package settings

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	d := Defaults()

	assert.Equal(t, 7, d.ProjectionLayerCount)
	assert.Equal(t, 3, d.TouchPointCount)
	assert.Equal(t, "", d.BackgroundImage)
	assert.Equal(t, CircleSize{Min: 20, Max: 400}, d.CircleSize)
	assert.Equal(t, 100, d.SendIntervalMs)
	assert.Equal(t, "ws://127.0.0.1:40000/ReFlex", d.ServerConnection)
	assert.Equal(t, ViewPort{Width: 640, Height: 480}, d.ViewPort)
	assert.Len(t, d.ViewOptions, 4)
	assert.Equal(t, "Extrema", d.ViewOptions[2].Option)
	assert.True(t, d.ViewOptions[2].Active)
	assert.NotEmpty(t, d.BackgroundSources)
	assert.Nil(t, d.LastBackup)
}

func TestSnapshot_JSONKeys(t *testing.T) {
	data, err := json.Marshal(Defaults())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	for _, key := range []string{
		FieldProjectionLayers, FieldTouchPoints, FieldBackgroundImage,
		FieldBackgroundSources, FieldCamera, FieldCircleSize, FieldLayers,
		FieldNormalizedPoints, FieldSendInterval, FieldServerConnection,
		FieldViewOptions, FieldViewPort,
	} {
		assert.Contains(t, m, key)
	}
	assert.Len(t, m, 12)
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	s := Defaults()
	s.Camera.Version = intPtr(2)
	c := s.Clone()

	c.ViewOptions[0].Active = true
	c.BackgroundSources[0].Name = "changed"
	*c.Camera.Version = 3

	assert.False(t, s.ViewOptions[0].Active)
	assert.NotEqual(t, "changed", s.BackgroundSources[0].Name)
	assert.Equal(t, 2, *s.Camera.Version)
}

func TestCatalogsAreCopies(t *testing.T) {
	cams := Cameras()
	require.NotEmpty(t, cams)
	cams[0].Model = "mutated"
	assert.NotEqual(t, "mutated", Cameras()[0].Model)

	bg := BackgroundSources()
	bg[0].Name = "mutated"
	assert.NotEqual(t, "mutated", BackgroundSources()[0].Name)
}

func TestCamera_Equal(t *testing.T) {
	a := Camera{Model: "Kinect", Resolution: "512 × 424", Version: intPtr(2)}
	b := Camera{Model: "Kinect", Resolution: "512 × 424", Version: intPtr(2)}
	c := Camera{Model: "Kinect", Resolution: "512 × 424"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, c.Equal(c))
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		ok   bool
	}{
		{"layers count ok", ValidateProjectionLayerCount(1), true},
		{"layers count zero", ValidateProjectionLayerCount(0), false},
		{"touch points zero", ValidateTouchPointCount(0), true},
		{"touch points negative", ValidateTouchPointCount(-1), false},
		{"interval ok", ValidateSendInterval(1), true},
		{"interval zero", ValidateSendInterval(0), false},
		{"connection ok", ValidateServerConnection("ws://localhost:40000/ReFlex"), true},
		{"connection empty", ValidateServerConnection(""), false},
		{"connection no scheme", ValidateServerConnection("localhost"), false},
		{"circle ok", CircleSize{Min: 20, Max: 20}.Validate(), true},
		{"circle inverted", CircleSize{Min: 400, Max: 20}.Validate(), false},
		{"circle negative", CircleSize{Min: -1, Max: 20}.Validate(), false},
		{"viewport ok", ViewPort{Width: 1, Height: 1}.Validate(), true},
		{"viewport zero", ViewPort{Width: 0, Height: 480}.Validate(), false},
		{"camera ok", DefaultCamera().Validate(), true},
		{"camera unnamed", Camera{}.Validate(), false},
		{"layers ok", DefaultLayers().Validate(), true},
		{"layers no colors", Layers{Up: 1, Down: 1}.Validate(), true},
		{"layers bad color", Layers{ColorUp: "yellowish"}.Validate(), false},
		{"layers negative", Layers{Up: -1}.Validate(), false},
		{"view options ok", ValidateViewOptions(DefaultViewOptions()), true},
		{"view options unnamed", ValidateViewOptions([]ViewOption{{}}), false},
		{"sources unnamed", ValidateBackgroundSources([]BackgroundSource{{Path: "x"}}), false},
		{"points ok", ValidateNormalizedPoints([]NormalizedPoint{{X: 0.5, Y: 1}}), true},
		{"points nan", ValidateNormalizedPoints([]NormalizedPoint{{X: math.NaN()}}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.ok {
				assert.NoError(t, tt.err)
				return
			}
			require.Error(t, tt.err)
			assert.True(t, errors.Is(tt.err, ErrInvalidSetting))

			var verr *ValidationError
			assert.True(t, errors.As(tt.err, &verr))
		})
	}
}
