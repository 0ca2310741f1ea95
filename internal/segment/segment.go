// Package segment converts 8-bit depth images into binary foreground masks
// by combining a near-plane and a far-plane threshold pass.
package segment

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// MaskValue is the value of a set pixel in a mask.
const MaskValue = 255

// ErrInvalidDepth is returned when the depth image is empty or is not an
// 8-bit single-channel image.
var ErrInvalidDepth = errors.New("depth image must be non-empty 8-bit single channel")

// Polarity selects which side of a threshold counts as foreground.
type Polarity int

const (
	// Normal sets a pixel when depth > threshold.
	Normal Polarity = iota
	// Inverted sets a pixel when depth <= threshold.
	Inverted
)

// Valid reports whether p is a known polarity.
func (p Polarity) Valid() bool {
	return p == Normal || p == Inverted
}

// String returns "normal" or "inverted".
func (p Polarity) String() string {
	switch p {
	case Normal:
		return "normal"
	case Inverted:
		return "inverted"
	}
	return fmt.Sprintf("polarity(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Polarity) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid polarity %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Polarity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "normal":
		*p = Normal
	case "inverted":
		*p = Inverted
	default:
		return fmt.Errorf("unknown polarity %q", string(text))
	}
	return nil
}

func (p Polarity) thresholdType() gocv.ThresholdType {
	if p == Inverted {
		return gocv.ThresholdBinaryInv
	}
	return gocv.ThresholdBinary
}

// Pass is a single threshold comparison.
type Pass struct {
	Threshold int
	Polarity  Polarity
}

// Accepts reports whether a single depth sample passes the comparison.
// It mirrors what Segment computes per pixel.
func (p Pass) Accepts(depth uint8) bool {
	if p.Polarity == Inverted {
		return int(depth) <= p.Threshold
	}
	return int(depth) > p.Threshold
}

// Segment writes into dst the logical AND of the near and far passes over
// depth. dst is reallocated to the dimensions of depth; set pixels hold
// MaskValue and all others hold zero.
//
// With the default polarities (near Inverted, far Normal) a pixel is set
// when far < depth <= near, so a near threshold below the far threshold
// yields an empty mask.
func Segment(depth gocv.Mat, near, far Pass, dst *gocv.Mat) error {
	if depth.Empty() || depth.Type() != gocv.MatTypeCV8UC1 {
		return ErrInvalidDepth
	}

	nearMask := gocv.NewMat()
	defer nearMask.Close()
	gocv.Threshold(depth, &nearMask, float32(near.Threshold), MaskValue, near.Polarity.thresholdType())

	farMask := gocv.NewMat()
	defer farMask.Close()
	gocv.Threshold(depth, &farMask, float32(far.Threshold), MaskValue, far.Polarity.thresholdType())

	gocv.BitwiseAnd(nearMask, farMask, dst)
	return nil
}
