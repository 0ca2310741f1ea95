package api

import (
	"net/http"

	"github.com/ayusman/depthportrait/internal/blob"
)

// PeopleHandler handles GET /api/people.
type PeopleHandler struct {
	source PeopleSource
}

// NewPeopleHandler creates a new PeopleHandler.
func NewPeopleHandler(source PeopleSource) *PeopleHandler {
	return &PeopleHandler{source: source}
}

// PersonResponse is the wire form of one member of the people set.
type PersonResponse struct {
	Area      int     `json:"area"`
	CentroidX float64 `json:"centroid_x"`
	CentroidY float64 `json:"centroid_y"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

// PeopleResponse is the people set of one frame.
type PeopleResponse struct {
	Frame  uint64           `json:"frame"`
	People []PersonResponse `json:"people"`
}

// ToPeopleResponse converts blobs to their wire form, keeping their order.
func ToPeopleResponse(frame uint64, people []blob.Blob) PeopleResponse {
	resp := PeopleResponse{
		Frame:  frame,
		People: make([]PersonResponse, 0, len(people)),
	}
	for _, p := range people {
		resp.People = append(resp.People, PersonResponse{
			Area:      p.Area,
			CentroidX: p.Centroid.X,
			CentroidY: p.Centroid.Y,
			X:         p.Bounds.Min.X,
			Y:         p.Bounds.Min.Y,
			Width:     p.Bounds.Dx(),
			Height:    p.Bounds.Dy(),
		})
	}
	return resp
}

// ServeHTTP implements the http.Handler interface.
func (h *PeopleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, ToPeopleResponse(h.source.FrameCount(), h.source.People()))
}
