package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ayusman/depthportrait/internal/control"
)

// SettingsHandler handles /api/settings and /api/settings/events.
type SettingsHandler struct {
	ctl SettingsController
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(ctl SettingsController) *SettingsHandler {
	return &SettingsHandler{ctl: ctl}
}

type eventRequest struct {
	Event string `json:"event"`
}

// eventResponse acknowledges a queued event. The resulting settings are
// only known after the next frame, so clients read them from GET
// /api/settings.
type eventResponse struct {
	Event  string `json:"event"`
	Queued bool   `json:"queued"`
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/settings")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, h.ctl.Settings())
		case http.MethodPut:
			h.update(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "events":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.event(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// update handles PUT /api/settings. Fields missing from the body keep their
// current value. The change is applied before the next frame.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	settings := h.ctl.Settings()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings: "+err.Error())
		return
	}

	settings = settings.Normalize()
	h.ctl.UpdateSettings(settings)
	writeJSON(w, http.StatusAccepted, settings)
}

// event handles POST /api/settings/events, the API form of a key press.
func (h *SettingsHandler) event(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	e, err := control.ParseEvent(req.Event)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.ctl.Apply(e)
	writeJSON(w, http.StatusAccepted, eventResponse{Event: e.String(), Queued: true})
}
