package capture

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// SensorConfig selects the devices behind a sensor source.
type SensorConfig struct {
	// DepthDevice is an OpenNI2 device index ("0") or the path of a
	// recorded depth video.
	DepthDevice string
	// ColorDevice is an optional camera index or color video path.
	ColorDevice string
	// MaxRangeMM is the distance mapped to the darkest depth value.
	MaxRangeMM float64
	Logger     *zap.SugaredLogger
}

// sensorImpl reads depth through OpenCV's OpenNI2 backend (or a recorded
// file) and color through a regular video capture.
type sensorImpl struct {
	config  SensorConfig
	logger  *zap.SugaredLogger
	depth   *gocv.VideoCapture
	color   *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	tilt    int
}

// NewSensor creates a DepthSource for the given devices. Nothing is opened
// until Open is called.
func NewSensor(config SensorConfig) DepthSource {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &sensorImpl{
		config: config,
		logger: logger,
	}
}

// Open opens the depth device and, when configured, the color device.
func (s *sensorImpl) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	depth, err := openDepth(s.config.DepthDevice)
	if err != nil {
		return fmt.Errorf("open depth device %q: %w", s.config.DepthDevice, err)
	}

	var color *gocv.VideoCapture
	if s.config.ColorDevice != "" {
		color, err = gocv.OpenVideoCapture(s.config.ColorDevice)
		if err != nil {
			depth.Close()
			return fmt.Errorf("open color device %q: %w", s.config.ColorDevice, err)
		}
		color.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
		color.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	}

	s.depth = depth
	s.color = color
	s.running = true

	s.logger.Infow("depth sensor opened", "depth", s.config.DepthDevice, "color", s.config.ColorDevice)
	return nil
}

// openDepth opens an OpenNI2 device when device is an index and a plain
// video file otherwise.
func openDepth(device string) (*gocv.VideoCapture, error) {
	if id, err := strconv.Atoi(device); err == nil {
		return gocv.OpenVideoCaptureWithAPI(id, gocv.VideoCaptureOpenNI2)
	}
	return gocv.OpenVideoCapture(device)
}

// Close closes the devices and releases resources.
func (s *sensorImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	var err error
	if s.depth != nil {
		err = multierr.Append(err, s.depth.Close())
	}
	if s.color != nil {
		err = multierr.Append(err, s.color.Close())
	}
	s.depth = nil
	s.color = nil
	s.running = false

	return err
}

// ReadFrame grabs the next depth frame and, if available, a color frame.
func (s *sensorImpl) ReadFrame() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.depth == nil {
		return nil, ErrSourceNotOpen
	}

	raw := gocv.NewMat()
	defer raw.Close()
	if ok := s.depth.Read(&raw); !ok || raw.Empty() {
		return nil, ErrNoFrame
	}

	frame := &Frame{Depth: gocv.NewMat(), Timestamp: time.Now()}
	if err := EncodeDepth(raw, s.config.MaxRangeMM, &frame.Depth); err != nil {
		frame.Close()
		return nil, fmt.Errorf("encode depth: %w", err)
	}

	if s.color != nil {
		color := gocv.NewMat()
		if ok := s.color.Read(&color); ok && !color.Empty() {
			frame.Color = &color
		} else {
			color.Close()
		}
	}

	return frame, nil
}

// SetTiltAngle records the requested tilt. OpenCV's OpenNI2 backend exposes
// no motor control, so the angle is only tracked.
func (s *sensorImpl) SetTiltAngle(degrees int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tilt = clampTilt(degrees)
	s.logger.Debugw("tilt requested; motor control unavailable through OpenNI2", "angle", s.tilt)
	return nil
}

// TiltAngle returns the last requested tilt.
func (s *sensorImpl) TiltAngle() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tilt
}

// IsOpen returns true if the devices are open.
func (s *sensorImpl) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}
