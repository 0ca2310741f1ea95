package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/depthportrait/internal/store"
)

// Snapshot errors.
var (
	ErrNoSnapshotDir = errors.New("snapshot directory not configured")
	ErrNoFrameYet    = errors.New("no frame rendered yet")
)

// SaveSnapshot writes the most recent rendered frame as a PNG in the
// snapshot directory and records it, with the current people set, in the
// store when one is configured.
func (a *App) SaveSnapshot() (*store.Snapshot, error) {
	if a.config.SnapshotDir == "" {
		return nil, ErrNoSnapshotDir
	}

	a.mu.RLock()
	frame := a.rendered.Clone()
	people := append(a.people[:0:0], a.people...)
	settings := a.settings
	a.mu.RUnlock()
	defer frame.Close()

	if frame.Empty() {
		return nil, ErrNoFrameYet
	}

	if err := os.MkdirAll(a.config.SnapshotDir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}

	snap := &store.Snapshot{
		ID:                uuid.NewString(),
		NearThreshold:     settings.NearThreshold,
		FarThreshold:      settings.FarThreshold,
		BlobAreaThreshold: settings.BlobAreaThreshold,
		People:            make([]store.SnapshotPerson, 0, len(people)),
	}
	snap.Path = filepath.Join(a.config.SnapshotDir, snap.ID+".png")

	for _, p := range people {
		snap.People = append(snap.People, store.SnapshotPerson{
			Area:      p.Area,
			CentroidX: p.Centroid.X,
			CentroidY: p.Centroid.Y,
		})
	}

	if ok := gocv.IMWrite(snap.Path, frame); !ok {
		return nil, fmt.Errorf("write snapshot %s", snap.Path)
	}

	if a.config.Store != nil {
		if err := a.config.Store.Snapshots().Create(snap); err != nil {
			os.Remove(snap.Path)
			return nil, fmt.Errorf("record snapshot: %w", err)
		}
	}

	a.logger.Infow("snapshot saved", "id", snap.ID, "path", snap.Path, "people", len(people))
	return snap, nil
}

// DeleteSnapshot removes a recorded snapshot and its image file.
func (a *App) DeleteSnapshot(id string) error {
	if a.config.Store == nil {
		return store.ErrNotFound
	}

	snap, err := a.config.Store.Snapshots().GetByID(id)
	if err != nil {
		return err
	}
	if err := a.config.Store.Snapshots().Delete(id); err != nil {
		return err
	}
	if err := os.Remove(snap.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		a.logger.Warnw("failed to remove snapshot file", "path", snap.Path, "error", err)
	}
	return nil
}
