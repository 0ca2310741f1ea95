package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/depthportrait/internal/segment"
)

func TestDefault(t *testing.T) {
	s := Default()

	assert.Equal(t, 230, s.NearThreshold)
	assert.Equal(t, 100, s.FarThreshold)
	assert.Equal(t, 10000, s.BlobAreaThreshold)
	assert.Equal(t, 18, s.TiltAngle)
	assert.False(t, s.ShowDepth)
	assert.False(t, s.PointCloud)
	assert.Equal(t, segment.Inverted, s.NearPolarity)
	assert.Equal(t, segment.Normal, s.FarPolarity)
}

func TestSettings_Apply(t *testing.T) {
	tests := []struct {
		name  string
		start Settings
		event Event
		want  Settings
	}{
		{
			name:  "far up",
			start: Settings{FarThreshold: 100},
			event: FarUp,
			want:  Settings{FarThreshold: 101},
		},
		{
			name:  "far down at zero stays zero",
			start: Settings{FarThreshold: 0},
			event: FarDown,
			want:  Settings{FarThreshold: 0},
		},
		{
			name:  "near up at max stays max",
			start: Settings{NearThreshold: 255},
			event: NearUp,
			want:  Settings{NearThreshold: 255},
		},
		{
			name:  "near down",
			start: Settings{NearThreshold: 230},
			event: NearDown,
			want:  Settings{NearThreshold: 229},
		},
		{
			name:  "toggle depth",
			start: Settings{},
			event: ToggleDepth,
			want:  Settings{ShowDepth: true},
		},
		{
			name:  "toggle point cloud off",
			start: Settings{PointCloud: true},
			event: TogglePointCloud,
			want:  Settings{},
		},
		{
			name:  "tilt up clamps at 30",
			start: Settings{TiltAngle: 30},
			event: TiltUp,
			want:  Settings{TiltAngle: 30},
		},
		{
			name:  "tilt down clamps at -30",
			start: Settings{TiltAngle: -30},
			event: TiltDown,
			want:  Settings{TiltAngle: -30},
		},
		{
			name:  "unknown event is a no-op",
			start: Settings{NearThreshold: 7},
			event: Event(99),
			want:  Settings{NearThreshold: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.start.Apply(tt.event))
		})
	}
}

func TestSettings_Apply_DoesNotMutateReceiver(t *testing.T) {
	s := Default()
	_ = s.Apply(NearUp)
	assert.Equal(t, DefaultNearThreshold, s.NearThreshold)
}

func TestSettings_Apply_ClampingSequences(t *testing.T) {
	s := Settings{NearThreshold: 230}
	for i := 0; i < 30; i++ {
		s = s.Apply(NearUp)
	}
	require.Equal(t, 255, s.NearThreshold)

	for i := 0; i < 300; i++ {
		s = s.Apply(NearDown)
	}
	require.Equal(t, 0, s.NearThreshold)
}

func TestSettings_Normalize(t *testing.T) {
	s := Settings{
		NearThreshold:     400,
		FarThreshold:      -3,
		BlobAreaThreshold: -1,
		TiltAngle:         45,
		NearPolarity:      segment.Polarity(9),
		FarPolarity:       segment.Inverted,
	}.Normalize()

	assert.Equal(t, 255, s.NearThreshold)
	assert.Equal(t, 0, s.FarThreshold)
	assert.Equal(t, 0, s.BlobAreaThreshold)
	assert.Equal(t, 30, s.TiltAngle)
	assert.Equal(t, segment.Inverted, s.NearPolarity)
	assert.Equal(t, segment.Inverted, s.FarPolarity)
}

func TestSettings_Passes(t *testing.T) {
	s := Default()

	assert.Equal(t, segment.Pass{Threshold: 230, Polarity: segment.Inverted}, s.NearPass())
	assert.Equal(t, segment.Pass{Threshold: 100, Polarity: segment.Normal}, s.FarPass())
}

func TestKeyEvent(t *testing.T) {
	tests := []struct {
		key  int
		want Event
		ok   bool
	}{
		{'>', FarUp, true},
		{'.', FarUp, true},
		{'<', FarDown, true},
		{',', FarDown, true},
		{'+', NearUp, true},
		{'=', NearUp, true},
		{'-', NearDown, true},
		{'x', ToggleDepth, true},
		{'p', TogglePointCloud, true},
		{KeyUpGTK, TiltUp, true},
		{KeyDownWin32, TiltDown, true},
		{KeyUpCocoa, TiltUp, true},
		{'z', 0, false},
		{-1, 0, false},
	}

	for _, tt := range tests {
		got, ok := KeyEvent(tt.key)
		assert.Equal(t, tt.ok, ok, "key %d", tt.key)
		assert.Equal(t, tt.want, got, "key %d", tt.key)
	}
}

func TestParseEvent(t *testing.T) {
	for e, name := range eventNames {
		got, err := ParseEvent(name)
		require.NoError(t, err)
		assert.Equal(t, e, got)
		assert.Equal(t, name, e.String())
	}

	_, err := ParseEvent("jump")
	assert.Error(t, err)
	assert.Equal(t, "event(42)", Event(42).String())
}
