// Package api provides the HTTP API handlers for the depth portrait runtime.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/depthportrait/internal/blob"
	"github.com/ayusman/depthportrait/internal/control"
	"github.com/ayusman/depthportrait/internal/store"
)

// SettingsController is the part of the running pipeline driven by the
// settings endpoints.
type SettingsController interface {
	Settings() control.Settings
	UpdateSettings(control.Settings)
	Apply(control.Event)
}

// PeopleSource reports the people set of the latest frame.
type PeopleSource interface {
	People() []blob.Blob
	FrameCount() uint64
}

// SnapshotTaker saves and removes snapshots of the rendered stream.
type SnapshotTaker interface {
	SaveSnapshot() (*store.Snapshot, error)
	DeleteSnapshot(id string) error
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
