package capture

import (
	"errors"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockSource plays back pre-recorded depth (and optional color) frames for
// testing and records tilt requests.
type MockSource struct {
	depth   []*gocv.Mat
	color   []*gocv.Mat
	index   int
	loop    bool
	mu      sync.Mutex
	running bool
	tilt    int
	tilts   []int
}

// NewMockSource creates a MockSource playing depth frames in order. When
// loop is false the source reports ErrNoFrame after the last frame.
func NewMockSource(depth []*gocv.Mat, loop bool) *MockSource {
	return &MockSource{
		depth: depth,
		loop:  loop,
	}
}

// SetColor sets color frames paired by index with the depth frames.
func (c *MockSource) SetColor(color []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.color = color
}

func (c *MockSource) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	return nil
}

func (c *MockSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockSource) ReadFrame() (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrSourceNotOpen
	}

	if len(c.depth) == 0 {
		return nil, ErrNoFrame
	}

	if c.index >= len(c.depth) {
		if !c.loop {
			return nil, ErrNoFrame
		}
		c.index = 0
	}

	// Clone so the recorded frames aren't modified
	frame := &Frame{
		Depth:     c.depth[c.index].Clone(),
		Timestamp: time.Now(),
	}
	if c.index < len(c.color) && c.color[c.index] != nil {
		color := c.color[c.index].Clone()
		frame.Color = &color
	}
	c.index++

	return frame, nil
}

func (c *MockSource) SetTiltAngle(degrees int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return errors.New("mock source not open")
	}
	c.tilt = clampTilt(degrees)
	c.tilts = append(c.tilts, c.tilt)
	return nil
}

func (c *MockSource) TiltAngle() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tilt
}

// Tilts returns every tilt angle applied so far.
func (c *MockSource) Tilts() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.tilts...)
}

func (c *MockSource) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SetFrames replaces the depth frame sequence
func (c *MockSource) SetFrames(depth []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.depth = depth
	c.index = 0
}

// Reset restarts playback from the beginning
func (c *MockSource) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
}
