package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/depthportrait/internal/blob"
	"github.com/ayusman/depthportrait/internal/capture"
	"github.com/ayusman/depthportrait/internal/control"
	"github.com/ayusman/depthportrait/internal/pipeline"
	"github.com/ayusman/depthportrait/internal/pointcloud"
)

// runPipeline is the frame loop. Each tick runs one Step.
func (a *App) runPipeline(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := a.Step(); err != nil {
				a.logger.Warnw("frame pass failed", "error", err)
			}
		}
	}
}

// Step runs one frame pass:
// 1. Apply queued settings and input events
// 2. Read a frame (a missing frame skips the pass)
// 3. Segment, extract blobs, filter people
// 4. Build the point cloud when enabled
// 5. Render and publish
func (a *App) Step() error {
	a.stepMu.Lock()
	defer a.stepMu.Unlock()

	settings := a.applyPending()

	frame, err := a.source.ReadFrame()
	if err != nil {
		if errors.Is(err, capture.ErrNoFrame) {
			return nil
		}
		return fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	params := pipeline.ParamsFrom(settings, frame.Width(), frame.Height())
	res, err := a.processor.ProcessFrame(frame.Depth, params)
	if err != nil {
		return err
	}
	defer res.Close()

	var cloud []pointcloud.Point
	if settings.PointCloud {
		cloud = pointcloud.Build(frame.Depth, frame.Color, a.config.CloudStep)
		a.logger.Debugw("point cloud built", "points", len(cloud), "centroid", pointcloud.Centroid(cloud))
	}

	a.mu.Lock()
	err = a.renderer.Render(res, cloud, settings, &a.rendered)
	a.mu.Unlock()
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	a.publish(res.People, frame.Timestamp)
	return nil
}

// applyPending folds queued settings and events into the current settings,
// forwards tilt changes to the source and persists the result.
func (a *App) applyPending() control.Settings {
	a.mu.Lock()
	current := a.settings
	next := current
	if a.pending != nil {
		next = *a.pending
		a.pending = nil
	}
	a.mu.Unlock()

	for drained := false; !drained; {
		select {
		case e := <-a.events:
			next = next.Apply(e)
		default:
			drained = true
		}
	}

	if next == current {
		return current
	}

	if next.TiltAngle != current.TiltAngle {
		if err := a.source.SetTiltAngle(next.TiltAngle); err != nil {
			a.logger.Warnw("failed to set tilt", "angle", next.TiltAngle, "error", err)
		}
	}

	a.mu.Lock()
	a.settings = next
	a.mu.Unlock()

	a.logger.Debugw("settings changed",
		"near", next.NearThreshold,
		"far", next.FarThreshold,
		"tilt", next.TiltAngle,
		"depth", next.ShowDepth,
		"cloud", next.PointCloud,
	)

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Save(next); err != nil {
			a.logger.Warnw("failed to persist settings", "error", err)
		}
	}

	return next
}

// publish records the people set and notifies subscribers.
func (a *App) publish(people []blob.Blob, ts time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.frame++
	a.people = people

	update := Update{
		Frame:     a.frame,
		People:    append([]blob.Blob(nil), people...),
		Timestamp: ts,
	}

	for ch := range a.subscribers {
		// Drop the stale update so the subscriber sees the latest one
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- update:
		default:
		}
	}
}
