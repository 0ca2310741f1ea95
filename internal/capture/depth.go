// Package capture acquires depth (and optionally color) frames from a
// Kinect-class sensor using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/ayusman/depthportrait/internal/control"
)

// Sensor resolution and depth range defaults.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
	// DefaultMaxRangeMM is the distance mapped to the darkest depth value.
	DefaultMaxRangeMM = 4000
)

var (
	// ErrSourceNotOpen is returned when reading from a source that is not open.
	ErrSourceNotOpen = errors.New("depth source is not open")
	// ErrNoFrame is returned when no new frame is available. Callers skip
	// the frame; it is not a failure.
	ErrNoFrame = errors.New("no new frame available")
)

// Frame is one acquisition: an 8-bit depth image where nearer is brighter
// and 0 means no reading, plus an optional BGR color image.
type Frame struct {
	Depth     gocv.Mat
	Color     *gocv.Mat
	Timestamp time.Time
}

// Width returns the depth image width.
func (f *Frame) Width() int { return f.Depth.Cols() }

// Height returns the depth image height.
func (f *Frame) Height() int { return f.Depth.Rows() }

// Close releases the frame images.
func (f *Frame) Close() error {
	if f == nil {
		return nil
	}
	err := f.Depth.Close()
	if f.Color != nil {
		err = multierr.Append(err, f.Color.Close())
	}
	return err
}

// EncodeDepth converts a raw depth image into the 8-bit convention used by
// the pipeline. 16-bit input is read as millimetres: 0 stays 0 (no reading),
// anything else maps linearly so that 0mm is 255 and maxRangeMM or further
// is 0. 8-bit single-channel input is copied as is, and 3 or 4 channel
// input (a depth video recorded as color) is converted to gray.
func EncodeDepth(raw gocv.Mat, maxRangeMM float64, dst *gocv.Mat) error {
	if raw.Empty() {
		return errors.New("empty depth image")
	}

	switch raw.Type() {
	case gocv.MatTypeCV8UC1:
		raw.CopyTo(dst)
		return nil
	case gocv.MatTypeCV8UC3:
		gocv.CvtColor(raw, dst, gocv.ColorBGRToGray)
		return nil
	case gocv.MatTypeCV8UC4:
		gocv.CvtColor(raw, dst, gocv.ColorBGRAToGray)
		return nil
	case gocv.MatTypeCV16UC1:
	default:
		return fmt.Errorf("unsupported depth image type %d", raw.Type())
	}

	if maxRangeMM <= 0 {
		maxRangeMM = DefaultMaxRangeMM
	}

	// 255 - mm*255/max, saturated to [0,255].
	scaled := gocv.NewMat()
	defer scaled.Close()
	raw.ConvertToWithParams(&scaled, gocv.MatTypeCV8U, float32(-255/maxRangeMM), 255)

	valid := gocv.NewMat()
	defer valid.Close()
	gocv.InRangeWithScalar(raw, gocv.NewScalar(1, 0, 0, 0), gocv.NewScalar(65535, 0, 0, 0), &valid)

	out := gocv.Zeros(raw.Rows(), raw.Cols(), gocv.MatTypeCV8UC1)
	defer out.Close()
	scaled.CopyToWithMask(&out, valid)
	out.CopyTo(dst)
	return nil
}

// DepthSource is a sensor that delivers depth frames and accepts tilt
// requests.
type DepthSource interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame, or ErrNoFrame when none is ready.
	// The caller is responsible for closing the returned frame.
	ReadFrame() (*Frame, error)
	// SetTiltAngle requests a tilt in degrees, clamped to [-30, 30].
	SetTiltAngle(degrees int) error
	TiltAngle() int
	IsOpen() bool
}

func clampTilt(degrees int) int {
	if degrees < control.MinTilt {
		return control.MinTilt
	}
	if degrees > control.MaxTilt {
		return control.MaxTilt
	}
	return degrees
}
