// Package overlay composes the displayed frame: the depth mask and blob
// outlines, the optional point cloud and the portrait drawn over the first
// person.
package overlay

import (
	"errors"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/depthportrait/internal/assets"
	"github.com/ayusman/depthportrait/internal/blob"
	"github.com/ayusman/depthportrait/internal/control"
	"github.com/ayusman/depthportrait/internal/pipeline"
	"github.com/ayusman/depthportrait/internal/pointcloud"
)

// Portrait placement.
const (
	PortraitSize = assets.DefaultSize
	PortraitTop  = 10
)

// Background is the gray level of an empty canvas.
const Background = 100

var (
	maskColor     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor  = color.RGBA{R: 0, G: 200, B: 255, A: 255}
	centroidColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// OverlayRect returns where the portrait goes for the current people set:
// a PortraitSize square whose left edge is the first person's centroid x
// and whose top is PortraitTop. Only people[0] is consulted. The rectangle
// is not clipped to the canvas.
func OverlayRect(people []blob.Blob) (image.Rectangle, bool) {
	if len(people) == 0 {
		return image.Rectangle{}, false
	}
	x := int(people[0].Centroid.X)
	return image.Rect(x, PortraitTop, x+PortraitSize, PortraitTop+PortraitSize), true
}

// Renderer draws result frames onto a BGR canvas.
type Renderer struct {
	portraits []assets.Portrait
}

// NewRenderer creates a Renderer. The first portrait, if any, is the one
// drawn.
func NewRenderer(portraits []assets.Portrait) *Renderer {
	return &Renderer{portraits: portraits}
}

// Render draws one frame into dst, which is reallocated to the depth size.
// The mask and the outlines of the people appear when ShowDepth is set and the cloud
// points when PointCloud is set. The portrait is drawn last, clipped to the
// canvas, and only when there is at least one person.
func (r *Renderer) Render(res *pipeline.Result, cloud []pointcloud.Point, s control.Settings, dst *gocv.Mat) error {
	if res == nil || res.Mask.Empty() {
		return errors.New("nothing to render")
	}

	rows, cols := res.Mask.Rows(), res.Mask.Cols()
	canvas := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(Background, Background, Background, 0), rows, cols, gocv.MatTypeCV8UC3)
	defer canvas.Close()

	if s.ShowDepth {
		drawMask(&canvas, res.Mask)
		drawOutlines(&canvas, res.People)
	}

	if s.PointCloud {
		drawCloud(&canvas, cloud)
	}

	if rect, ok := OverlayRect(res.People); ok && len(r.portraits) > 0 {
		drawPortrait(&canvas, r.portraits[0].Image, rect)
	}

	canvas.CopyTo(dst)
	return nil
}

func drawMask(canvas *gocv.Mat, mask gocv.Mat) {
	fill := gocv.NewMatWithSizeFromScalar(toScalar(maskColor), canvas.Rows(), canvas.Cols(), gocv.MatTypeCV8UC3)
	defer fill.Close()
	fill.CopyToWithMask(canvas, mask)
}

func drawOutlines(canvas *gocv.Mat, blobs []blob.Blob) {
	if len(blobs) == 0 {
		return
	}

	var outlines [][]image.Point
	for _, b := range blobs {
		if len(b.Boundary) > 0 {
			outlines = append(outlines, b.Boundary)
		} else {
			gocv.Rectangle(canvas, b.Bounds, outlineColor, 2)
		}
		c := image.Pt(int(b.Centroid.X), int(b.Centroid.Y))
		gocv.Circle(canvas, c, 4, centroidColor, -1)
	}

	if len(outlines) > 0 {
		pv := gocv.NewPointsVectorFromPoints(outlines)
		defer pv.Close()
		gocv.DrawContours(canvas, pv, -1, outlineColor, 2)
	}
}

func drawCloud(canvas *gocv.Mat, cloud []pointcloud.Point) {
	bounds := image.Rect(0, 0, canvas.Cols(), canvas.Rows())
	for _, p := range cloud {
		pt := image.Pt(int(p.Position.X), int(p.Position.Y))
		if !pt.In(bounds) {
			continue
		}
		// 3 bytes per pixel, BGR
		canvas.SetUCharAt(pt.Y, pt.X*3, p.Color.B)
		canvas.SetUCharAt(pt.Y, pt.X*3+1, p.Color.G)
		canvas.SetUCharAt(pt.Y, pt.X*3+2, p.Color.R)
	}
}

// drawPortrait copies the part of portrait that falls inside the canvas.
func drawPortrait(canvas *gocv.Mat, portrait gocv.Mat, rect image.Rectangle) {
	if portrait.Empty() || portrait.Type() != canvas.Type() {
		return
	}

	clip := rect.Intersect(image.Rect(0, 0, canvas.Cols(), canvas.Rows()))
	if clip.Empty() {
		return
	}
	src := clip.Sub(rect.Min).Intersect(image.Rect(0, 0, portrait.Cols(), portrait.Rows()))
	if src.Empty() {
		return
	}
	clip = src.Add(rect.Min)

	from := portrait.Region(src)
	defer from.Close()
	to := canvas.Region(clip)
	defer to.Close()
	from.CopyTo(&to)
}

func toScalar(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
}
