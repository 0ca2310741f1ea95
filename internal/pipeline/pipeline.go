// Package pipeline runs the per-frame depth processing: segment the depth
// image into a near/far band, extract blobs and keep the ones large enough
// to be people.
package pipeline

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/depthportrait/internal/blob"
	"github.com/ayusman/depthportrait/internal/control"
	"github.com/ayusman/depthportrait/internal/segment"
)

// Params are the inputs of one frame pass.
type Params struct {
	Near              segment.Pass
	Far               segment.Pass
	BlobAreaThreshold int
	Extract           blob.Options
}

// ParamsFrom builds the frame parameters for a width x height depth image
// from the runtime settings.
func ParamsFrom(s control.Settings, width, height int) Params {
	return Params{
		Near:              s.NearPass(),
		Far:               s.FarPass(),
		BlobAreaThreshold: s.BlobAreaThreshold,
		Extract:           blob.DefaultOptions(width, height),
	}
}

// Result is the output of one frame pass. People is rebuilt from Blobs on
// every frame; blobs carry no identity across frames.
type Result struct {
	Mask   gocv.Mat
	Blobs  []blob.Blob
	People []blob.Blob
}

// Close releases the mask.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	return r.Mask.Close()
}

// Processor runs frame passes with a given blob extractor.
type Processor struct {
	extractor blob.Extractor
}

// NewProcessor creates a Processor. A nil extractor selects the OpenCV
// contour extractor.
func NewProcessor(extractor blob.Extractor) *Processor {
	if extractor == nil {
		extractor = blob.NewContourExtractor()
	}
	return &Processor{extractor: extractor}
}

// ProcessFrame segments depth, extracts blobs and filters them into the
// people set. The caller owns the returned Result and must Close it.
func (p *Processor) ProcessFrame(depth gocv.Mat, params Params) (*Result, error) {
	mask := gocv.NewMat()
	if err := segment.Segment(depth, params.Near, params.Far, &mask); err != nil {
		mask.Close()
		return nil, fmt.Errorf("segment depth: %w", err)
	}

	blobs, err := p.extractor.FindBlobs(mask, params.Extract)
	if err != nil {
		mask.Close()
		return nil, fmt.Errorf("find blobs: %w", err)
	}

	return &Result{
		Mask:   mask,
		Blobs:  blobs,
		People: blob.Filter(blobs, params.BlobAreaThreshold),
	}, nil
}

// ProcessFrame is the single-call form of the pipeline: default polarities
// (near inverted, far normal), default extraction bounds and the contour
// extractor. It returns only the people set.
func ProcessFrame(depth gocv.Mat, nearThreshold, farThreshold, blobAreaThreshold int) ([]blob.Blob, error) {
	s := control.Default()
	s.NearThreshold = nearThreshold
	s.FarThreshold = farThreshold
	s.BlobAreaThreshold = blobAreaThreshold

	res, err := NewProcessor(nil).ProcessFrame(depth, ParamsFrom(s.Normalize(), depth.Cols(), depth.Rows()))
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return res.People, nil
}
