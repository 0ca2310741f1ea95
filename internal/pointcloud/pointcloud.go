// Package pointcloud samples a depth frame into colored 3D points.
package pointcloud

import (
	"image/color"

	"github.com/golang/geo/r3"
	"gocv.io/x/gocv"
)

// DefaultStep is the sampling stride in pixels.
const DefaultStep = 2

// Point is one sample. Position holds the pixel column and row in X and Y
// and the 8-bit depth value in Z.
type Point struct {
	Position r3.Vector
	Color    color.RGBA
}

// Build samples every step-th pixel of depth in both directions, skipping
// pixels with no reading. Colors come from bgr when it matches the depth
// size and are white otherwise.
func Build(depth gocv.Mat, bgr *gocv.Mat, step int) []Point {
	if depth.Empty() || depth.Type() != gocv.MatTypeCV8UC1 {
		return nil
	}
	if step <= 0 {
		step = DefaultStep
	}

	useColor := bgr != nil && !bgr.Empty() &&
		bgr.Type() == gocv.MatTypeCV8UC3 &&
		bgr.Rows() == depth.Rows() && bgr.Cols() == depth.Cols()

	points := make([]Point, 0, (depth.Rows()/step+1)*(depth.Cols()/step+1))
	for y := 0; y < depth.Rows(); y += step {
		for x := 0; x < depth.Cols(); x += step {
			d := depth.GetUCharAt(y, x)
			if d == 0 {
				continue
			}
			p := Point{
				Position: r3.Vector{X: float64(x), Y: float64(y), Z: float64(d)},
				Color:    white,
			}
			if useColor {
				v := bgr.GetVecbAt(y, x)
				p.Color = rgba(v[2], v[1], v[0])
			}
			points = append(points, p)
		}
	}
	return points
}

// Centroid returns the mean position of points, or the zero vector when
// there are none.
func Centroid(points []Point) r3.Vector {
	var sum r3.Vector
	if len(points) == 0 {
		return sum
	}
	for _, p := range points {
		sum = sum.Add(p.Position)
	}
	return sum.Mul(1 / float64(len(points)))
}

var white = rgba(255, 255, 255)

func rgba(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
