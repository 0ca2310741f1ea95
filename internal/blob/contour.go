package blob

import (
	"errors"
	"image"
	"image/color"
	"sort"

	"gocv.io/x/gocv"
)

// ErrInvalidMask is returned for masks that are empty or not 8-bit single channel.
var ErrInvalidMask = errors.New("mask must be non-empty 8-bit single channel")

var fillColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// ContourExtractor finds blobs by tracing mask contours with OpenCV.
//
// Regions take their area and centroid from connected-component labelling,
// so Area is the region's own pixel count: it excludes its holes and any
// separate region sitting inside them. Holes are filled and cut back to the
// background pixels they enclose.
type ContourExtractor struct{}

// NewContourExtractor creates a ContourExtractor.
func NewContourExtractor() *ContourExtractor {
	return &ContourExtractor{}
}

// FindBlobs implements Extractor. Blobs are ordered by descending area
// before MaxBlobs is applied.
func (e *ContourExtractor) FindBlobs(mask gocv.Mat, opts Options) ([]Blob, error) {
	if mask.Empty() || mask.Type() != gocv.MatTypeCV8UC1 {
		return nil, ErrInvalidMask
	}

	// Two-level hierarchy: outer boundaries at the top level, their holes
	// below. Regions inside a hole are top level again.
	hierarchy := gocv.NewMat()
	defer hierarchy.Close()

	contours := gocv.FindContoursWithParams(mask, &hierarchy, gocv.RetrievalCComp, gocv.ChainApproxSimple)
	defer contours.Close()

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()
	gocv.ConnectedComponentsWithStats(mask, &labels, &stats, &centroids)

	scratch := gocv.Zeros(mask.Rows(), mask.Cols(), gocv.MatTypeCV8UC1)
	defer scratch.Close()

	blobs := make([]Blob, 0)
	for i := 0; i < contours.Size(); i++ {
		hole := isHole(hierarchy, i)
		if hole && !opts.FindHoles {
			continue
		}

		contour := contours.At(i)
		bounds := gocv.BoundingRect(contour)

		// A region never holds more pixels than its bounding box.
		if bounds.Dx()*bounds.Dy() < opts.MinArea {
			continue
		}

		points := contour.ToPoints()
		var (
			b  Blob
			ok bool
		)
		if hole {
			b, ok = measureHole(&scratch, mask, contours, i, bounds)
		} else {
			b, ok = measureRegion(labels, stats, centroids, points, bounds)
		}
		if !ok || !opts.accepts(b.Area) {
			continue
		}

		b.Boundary = points
		blobs = append(blobs, b)
	}

	sort.SliceStable(blobs, func(i, j int) bool { return blobs[i].Area > blobs[j].Area })
	if opts.MaxBlobs > 0 && len(blobs) > opts.MaxBlobs {
		blobs = blobs[:opts.MaxBlobs]
	}

	return blobs, nil
}

// isHole reports whether contour i has a parent in a CComp hierarchy.
func isHole(hierarchy gocv.Mat, i int) bool {
	if hierarchy.Empty() || i >= hierarchy.Cols() {
		return false
	}
	return hierarchy.GetVeciAt(0, i)[3] >= 0
}

// measureRegion reads area and centroid of the connected component that the
// outer contour traces. Every contour point is a pixel of that component.
func measureRegion(labels, stats, centroids gocv.Mat, points []image.Point, bounds image.Rectangle) (Blob, bool) {
	if len(points) == 0 {
		return Blob{}, false
	}

	label := int(labels.GetIntAt(points[0].Y, points[0].X))
	if label <= 0 || label >= stats.Rows() {
		return Blob{}, false
	}

	return Blob{
		Area: int(stats.GetIntAt(label, int(gocv.CC_STAT_AREA))),
		Centroid: Point{
			X: centroids.GetDoubleAt(label, 0),
			Y: centroids.GetDoubleAt(label, 1),
		},
		Bounds: bounds,
	}, true
}

// measureHole fills hole contour idx into scratch and keeps the background
// pixels it encloses. scratch is left zeroed.
func measureHole(scratch *gocv.Mat, mask gocv.Mat, contours gocv.PointsVector, idx int, bounds image.Rectangle) (Blob, bool) {
	gocv.DrawContours(scratch, contours, idx, fillColor, -1)

	region := scratch.Region(bounds)
	defer region.Close()
	maskRegion := mask.Region(bounds)
	defer maskRegion.Close()

	gocv.Subtract(region, maskRegion, &region)

	area := gocv.CountNonZero(region)
	if area == 0 {
		region.SetTo(gocv.NewScalar(0, 0, 0, 0))
		return Blob{}, false
	}

	m := gocv.Moments(region, true)
	region.SetTo(gocv.NewScalar(0, 0, 0, 0))

	return Blob{
		Area: area,
		Centroid: Point{
			X: m["m10"]/m["m00"] + float64(bounds.Min.X),
			Y: m["m01"]/m["m00"] + float64(bounds.Min.Y),
		},
		Bounds: bounds,
		Hole:   true,
	}, true
}
