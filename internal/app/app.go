// Package app provides the main application logic: it owns the depth source,
// runs the per-frame pipeline and exposes the current state to the server,
// the tray and the window.
package app

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/depthportrait/internal/assets"
	"github.com/ayusman/depthportrait/internal/blob"
	"github.com/ayusman/depthportrait/internal/capture"
	"github.com/ayusman/depthportrait/internal/control"
	"github.com/ayusman/depthportrait/internal/overlay"
	"github.com/ayusman/depthportrait/internal/pipeline"
	"github.com/ayusman/depthportrait/internal/pointcloud"
	"github.com/ayusman/depthportrait/internal/store"
)

// Pipeline timing constants.
const (
	// DefaultFPS is the frame loop rate.
	DefaultFPS = 60
	// EventQueueSize is the number of input events buffered between frames.
	EventQueueSize = 256
)

// ErrNoSource is returned by New when no depth source is configured.
var ErrNoSource = errors.New("no depth source configured")

// Config holds configuration options for the application.
type Config struct {
	Store       *store.Store
	Source      capture.DepthSource
	Extractor   blob.Extractor
	Portraits   []assets.Portrait
	Logger      *zap.SugaredLogger
	FPS         int
	SnapshotDir string
	CloudStep   int
}

// Update is published to subscribers after every processed frame.
type Update struct {
	Frame     uint64      `json:"frame"`
	People    []blob.Blob `json:"people"`
	Timestamp time.Time   `json:"timestamp"`
}

// App is the main application that runs the depth pipeline.
type App struct {
	config    Config
	logger    *zap.SugaredLogger
	source    capture.DepthSource
	processor *pipeline.Processor
	renderer  *overlay.Renderer
	events    chan control.Event

	// stepMu keeps frame passes single-threaded.
	stepMu sync.Mutex

	mu          sync.RWMutex
	settings    control.Settings
	pending     *control.Settings
	people      []blob.Blob
	rendered    gocv.Mat
	frame       uint64
	jpeg        []byte
	jpegFrame   uint64
	stopCh      chan struct{}
	doneCh      chan struct{}
	subscribers map[chan Update]struct{}
}

// New creates a new App instance with the given configuration. Stored
// settings, when present, replace the defaults.
func New(config Config) (*App, error) {
	if config.Source == nil {
		return nil, ErrNoSource
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop().Sugar()
	}
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	if config.CloudStep <= 0 {
		config.CloudStep = pointcloud.DefaultStep
	}

	a := &App{
		config:      config,
		logger:      config.Logger,
		source:      config.Source,
		processor:   pipeline.NewProcessor(config.Extractor),
		renderer:    overlay.NewRenderer(config.Portraits),
		events:      make(chan control.Event, EventQueueSize),
		settings:    control.Default(),
		rendered:    gocv.NewMat(),
		subscribers: make(map[chan Update]struct{}),
	}

	if config.Store != nil {
		settings, ok, err := config.Store.Settings().Load()
		switch {
		case err != nil:
			a.logger.Warnw("failed to load stored settings, using defaults", "error", err)
		case ok:
			a.settings = settings
			a.logger.Infow("loaded stored settings", "settings", settings)
		}
	}

	return a, nil
}

// Start opens the depth source, applies the configured tilt and begins the
// frame loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.source.Open(); err != nil {
		return err
	}

	if err := a.source.SetTiltAngle(a.settings.TiltAngle); err != nil {
		a.logger.Warnw("failed to set initial tilt", "angle", a.settings.TiltAngle, "error", err)
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	a.logger.Infow("depth pipeline started", "fps", a.config.FPS)
	return nil
}

// Stop halts the frame loop, levels the sensor and releases resources.
func (a *App) Stop() error {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	var err error
	if a.source.IsOpen() {
		err = multierr.Append(err, a.source.SetTiltAngle(0))
		err = multierr.Append(err, a.source.Close())
	}

	a.mu.Lock()
	err = multierr.Append(err, a.rendered.Close())
	a.rendered = gocv.NewMat()
	for ch := range a.subscribers {
		delete(a.subscribers, ch)
		close(ch)
	}
	a.mu.Unlock()

	a.logger.Info("depth pipeline stopped")
	return err
}

// Running reports whether the frame loop is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Apply queues an input event. Events take effect at the start of the next
// frame pass, in the order they were queued.
func (a *App) Apply(e control.Event) {
	select {
	case a.events <- e:
	default:
		a.logger.Warnw("event queue full, dropping event", "event", e)
	}
}

// UpdateSettings replaces the settings at the start of the next frame pass.
func (a *App) UpdateSettings(s control.Settings) {
	s = s.Normalize()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = &s
}

// Settings returns the settings used by the most recent frame pass.
func (a *App) Settings() control.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// People returns the people set of the most recent frame.
func (a *App) People() []blob.Blob {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]blob.Blob(nil), a.people...)
}

// FrameCount returns the number of frames processed.
func (a *App) FrameCount() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.frame
}

// RenderedFrame returns a copy of the most recent rendered frame. The
// caller must close it.
func (a *App) RenderedFrame() gocv.Mat {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.rendered.Clone()
}

// LatestJPEG returns the most recent rendered frame encoded as JPEG, or nil
// before the first frame.
func (a *App) LatestJPEG() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.rendered.Empty() {
		return nil
	}
	if a.jpeg != nil && a.jpegFrame == a.frame {
		return a.jpeg
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, a.rendered)
	if err != nil {
		a.logger.Warnw("failed to encode frame", "error", err)
		return nil
	}
	defer buf.Close()

	a.jpeg = append([]byte(nil), buf.GetBytes()...)
	a.jpegFrame = a.frame
	return a.jpeg
}

// Subscribe registers for per-frame updates. Slow subscribers only see the
// latest update. The returned function unsubscribes.
func (a *App) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 1)

	a.mu.Lock()
	a.subscribers[ch] = struct{}{}
	a.mu.Unlock()

	return ch, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
	}
}
