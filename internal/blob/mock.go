package blob

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockExtractor is a test implementation of the Extractor interface.
// It allows tests to control the extraction results.
type MockExtractor struct {
	mu    sync.Mutex
	blobs []Blob
	err   error
	calls int
}

// NewMockExtractor creates a new MockExtractor instance.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

// SetBlobs sets the blobs that will be returned by FindBlobs.
func (m *MockExtractor) SetBlobs(blobs []Blob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs = blobs
}

// SetError sets the error that will be returned by FindBlobs.
func (m *MockExtractor) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times FindBlobs has been called.
func (m *MockExtractor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// FindBlobs returns a copy of the pre-configured blobs or error.
func (m *MockExtractor) FindBlobs(mask gocv.Mat, opts Options) ([]Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]Blob(nil), m.blobs...), nil
}

// SquareBlob returns a preset blob for a filled side x side square whose top
// left pixel is at (x, y).
func SquareBlob(x, y, side int) Blob {
	c := float64(side-1) / 2
	return Blob{
		Area:     side * side,
		Centroid: Point{X: float64(x) + c, Y: float64(y) + c},
		Bounds:   rect(x, y, side),
	}
}
