package segment

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/depthportrait/internal/fixtures"
)

var (
	defaultNear = Pass{Threshold: 230, Polarity: Inverted}
	defaultFar  = Pass{Threshold: 100, Polarity: Normal}
)

func TestPass_Accepts(t *testing.T) {
	tests := []struct {
		name  string
		pass  Pass
		depth uint8
		want  bool
	}{
		{"normal above", Pass{100, Normal}, 101, true},
		{"normal equal", Pass{100, Normal}, 100, false},
		{"normal below", Pass{100, Normal}, 0, false},
		{"inverted below", Pass{230, Inverted}, 229, true},
		{"inverted equal", Pass{230, Inverted}, 230, true},
		{"inverted above", Pass{230, Inverted}, 255, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pass.Accepts(tt.depth))
		})
	}
}

func TestPolarity_Text(t *testing.T) {
	b, err := json.Marshal(struct {
		P Polarity `json:"p"`
	}{Inverted})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"inverted"}`, string(b))

	var p Polarity
	require.NoError(t, p.UnmarshalText([]byte("normal")))
	assert.Equal(t, Normal, p)
	assert.Error(t, p.UnmarshalText([]byte("sideways")))

	_, err = Polarity(5).MarshalText()
	assert.Error(t, err)
	assert.False(t, Polarity(5).Valid())
}

func TestSegment_RejectsInvalidInput(t *testing.T) {
	dst := gocv.NewMat()
	defer dst.Close()

	empty := gocv.NewMat()
	defer empty.Close()
	assert.ErrorIs(t, Segment(empty, defaultNear, defaultFar, &dst), ErrInvalidDepth)

	color := fixtures.SolidColor(8, 8, 1, 2, 3)
	defer color.Close()
	assert.ErrorIs(t, Segment(color, defaultNear, defaultFar, &dst), ErrInvalidDepth)
}

func TestSegment_DimensionsMatchDepth(t *testing.T) {
	sizes := []image.Point{{640, 480}, {320, 240}, {17, 3}, {1, 1}}

	for _, size := range sizes {
		depth := fixtures.UniformDepth(size.X, size.Y, 150)
		mask := gocv.NewMat()

		require.NoError(t, Segment(depth, defaultNear, defaultFar, &mask))
		assert.Equal(t, size.X, mask.Cols())
		assert.Equal(t, size.Y, mask.Rows())
		assert.Equal(t, gocv.MatTypeCV8UC1, mask.Type())
		assert.Equal(t, size.X*size.Y, gocv.CountNonZero(mask), "150 lies inside the default band")

		mask.Close()
		depth.Close()
	}
}

func TestSegment_BandBoundaries(t *testing.T) {
	tests := []struct {
		depth uint8
		set   bool
	}{
		{0, false},
		{100, false},
		{101, true},
		{230, true},
		{231, false},
		{255, false},
	}

	for _, tt := range tests {
		depth := fixtures.UniformDepth(4, 4, tt.depth)
		mask := gocv.NewMat()

		require.NoError(t, Segment(depth, defaultNear, defaultFar, &mask))
		want := uint8(0)
		if tt.set {
			want = MaskValue
		}
		assert.Equal(t, want, mask.GetUCharAt(2, 2), "depth %d", tt.depth)
		assert.Equal(t, tt.set, defaultNear.Accepts(tt.depth) && defaultFar.Accepts(tt.depth))

		mask.Close()
		depth.Close()
	}
}

func TestSegment_CrossedThresholdsGiveEmptyMask(t *testing.T) {
	depth := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC1)
	defer depth.Close()
	gocv.RandU(&depth, gocv.NewScalar(0, 0, 0, 0), gocv.NewScalar(256, 0, 0, 0))

	for _, pair := range [][2]int{{0, 1}, {99, 100}, {100, 230}, {254, 255}} {
		near := Pass{Threshold: pair[0], Polarity: Inverted}
		far := Pass{Threshold: pair[1], Polarity: Normal}

		mask := gocv.NewMat()
		require.NoError(t, Segment(depth, near, far, &mask))
		assert.Zero(t, gocv.CountNonZero(mask), "near=%d far=%d", pair[0], pair[1])
		mask.Close()
	}
}

func TestSegment_Idempotent(t *testing.T) {
	depth := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC1)
	defer depth.Close()
	gocv.RandU(&depth, gocv.NewScalar(0, 0, 0, 0), gocv.NewScalar(256, 0, 0, 0))

	first := gocv.NewMat()
	defer first.Close()
	second := gocv.NewMat()
	defer second.Close()

	require.NoError(t, Segment(depth, defaultNear, defaultFar, &first))
	require.NoError(t, Segment(depth, defaultNear, defaultFar, &second))

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(first, second, &diff)
	assert.Zero(t, gocv.CountNonZero(diff))
}

func TestSegment_ZeroFrameIsEmpty(t *testing.T) {
	depth := fixtures.UniformDepth(fixtures.Width, fixtures.Height, 0)
	defer depth.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	require.NoError(t, Segment(depth, defaultNear, defaultFar, &mask))
	assert.Zero(t, gocv.CountNonZero(mask))
}

// A closer-is-brighter sensor reports the square at 255. With the near pass
// in Normal polarity the square survives both passes.
func TestSegment_SquareWithNormalNearPolarity(t *testing.T) {
	square := image.Rect(100, 100, 150, 150)
	depth := fixtures.SquareDepth(fixtures.Width, fixtures.Height, 0, 255, square)
	defer depth.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	near := Pass{Threshold: 230, Polarity: Normal}
	require.NoError(t, Segment(depth, near, defaultFar, &mask))
	assert.Equal(t, 2500, gocv.CountNonZero(mask))
	assert.Equal(t, uint8(MaskValue), mask.GetUCharAt(125, 125))
	assert.Equal(t, uint8(0), mask.GetUCharAt(10, 10))

	// The same frame with the default inverted near pass rejects the square.
	require.NoError(t, Segment(depth, defaultNear, defaultFar, &mask))
	assert.Zero(t, gocv.CountNonZero(mask))
}
