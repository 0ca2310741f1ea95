package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/depthportrait/internal/store"
)

// SnapshotsHandler handles HTTP requests for snapshot resources.
type SnapshotsHandler struct {
	store *store.Store
	taker SnapshotTaker
}

// NewSnapshotsHandler creates a new SnapshotsHandler. A nil taker disables
// POST and DELETE.
func NewSnapshotsHandler(s *store.Store, taker SnapshotTaker) *SnapshotsHandler {
	return &SnapshotsHandler{store: s, taker: taker}
}

type listSnapshotsResponse struct {
	Snapshots []*store.Snapshot `json:"snapshots"`
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SnapshotsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/snapshots or /api/snapshots/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/snapshots")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// list handles GET /api/snapshots.
func (h *SnapshotsHandler) list(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.store.Snapshots().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}
	if snapshots == nil {
		snapshots = []*store.Snapshot{}
	}

	writeJSON(w, http.StatusOK, listSnapshotsResponse{Snapshots: snapshots})
}

// get handles GET /api/snapshots/{id}.
func (h *SnapshotsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	snap, err := h.store.Snapshots().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// create handles POST /api/snapshots by saving the current rendered frame.
func (h *SnapshotsHandler) create(w http.ResponseWriter, r *http.Request) {
	if h.taker == nil {
		writeError(w, http.StatusServiceUnavailable, "Snapshots unavailable")
		return
	}

	snap, err := h.taker.SaveSnapshot()
	if err != nil {
		writeError(w, http.StatusConflict, "Failed to save snapshot: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, snap)
}

// delete handles DELETE /api/snapshots/{id}.
func (h *SnapshotsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if h.taker == nil {
		writeError(w, http.StatusServiceUnavailable, "Snapshots unavailable")
		return
	}

	if err := h.taker.DeleteSnapshot(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete snapshot")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
