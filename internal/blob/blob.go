// Package blob finds connected foreground regions in binary masks and
// filters them by area.
package blob

import (
	"image"

	"gocv.io/x/gocv"
)

// Point is a sub-pixel image position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Blob is one connected region of a mask.
type Blob struct {
	// Area is the number of pixels in the region.
	Area int `json:"area"`
	// Centroid is the mean position of the region's pixels.
	Centroid Point `json:"centroid"`
	// Bounds is the bounding box of the boundary.
	Bounds image.Rectangle `json:"bounds"`
	// Boundary is the ordered outline of the region.
	Boundary []image.Point `json:"boundary,omitempty"`
	// Hole is true for background regions enclosed by foreground.
	Hole bool `json:"hole"`
}

// Options bound what an Extractor returns.
type Options struct {
	// MinArea and MaxArea are inclusive pixel-count bounds.
	MinArea int
	MaxArea int
	// MaxBlobs keeps only the largest blobs; zero means no cap.
	MaxBlobs int
	// FindHoles also returns enclosed background regions.
	FindHoles bool
}

// DefaultOptions returns the bounds used for a width x height mask: at least
// 10 pixels, at most half the frame, 20 blobs, no holes.
func DefaultOptions(width, height int) Options {
	return Options{
		MinArea:  10,
		MaxArea:  width * height / 2,
		MaxBlobs: 20,
	}
}

func (o Options) accepts(area int) bool {
	return area >= o.MinArea && area <= o.MaxArea
}

// Extractor finds blobs in a binary mask.
type Extractor interface {
	// FindBlobs returns the regions of mask whose area lies within the
	// bounds of opts, largest first.
	FindBlobs(mask gocv.Mat, opts Options) ([]Blob, error)
}

// Filter returns the blobs whose area is strictly greater than threshold.
// Relative order is preserved and the input slice is not modified.
func Filter(blobs []Blob, threshold int) []Blob {
	people := make([]Blob, 0, len(blobs))
	for _, b := range blobs {
		if b.Area > threshold {
			people = append(people, b)
		}
	}
	return people
}

func rect(x, y, side int) image.Rectangle {
	return image.Rect(x, y, x+side, y+side)
}
