// Package fixtures builds synthetic depth and color frames for tests.
package fixtures

import (
	"image"

	"gocv.io/x/gocv"
)

// Sensor resolution used by most fixtures.
const (
	Width  = 640
	Height = 480
)

// UniformDepth returns an 8-bit single-channel depth frame filled with value.
// The caller is responsible for closing the returned Mat.
func UniformDepth(width, height int, value uint8) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(value), 0, 0, 0), height, width, gocv.MatTypeCV8UC1)
}

// SquareDepth returns a depth frame with background value bg and the
// rectangle r filled with value fg.
func SquareDepth(width, height int, bg, fg uint8, r image.Rectangle) gocv.Mat {
	m := UniformDepth(width, height, bg)
	Fill(&m, r, fg)
	return m
}

// Fill sets every pixel of r in m to value.
func Fill(m *gocv.Mat, r image.Rectangle, value uint8) {
	region := m.Region(r.Intersect(image.Rect(0, 0, m.Cols(), m.Rows())))
	defer region.Close()
	region.SetTo(gocv.NewScalar(float64(value), float64(value), float64(value), 0))
}

// RingDepth returns a depth frame holding a filled square outer with the
// square hole cut back to the background value.
func RingDepth(width, height int, bg, fg uint8, outer, hole image.Rectangle) gocv.Mat {
	m := SquareDepth(width, height, bg, fg, outer)
	Fill(&m, hole, bg)
	return m
}

// SolidColor returns a BGR frame filled with the given color.
func SolidColor(width, height int, b, g, r uint8) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(b), float64(g), float64(r), 0), height, width, gocv.MatTypeCV8UC3)
}

// RawDepth returns a 16-bit depth frame in millimetres filled with mm.
func RawDepth(width, height int, mm uint16) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(mm), 0, 0, 0), height, width, gocv.MatTypeCV16UC1)
}
