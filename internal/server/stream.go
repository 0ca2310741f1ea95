package server

import (
	"bytes"
	"fmt"
	"net/http"
	"time"
)

// DefaultStreamFPS is the MJPEG rate when none is configured.
const DefaultStreamFPS = 15

// FrameSource supplies the latest rendered frame as JPEG.
type FrameSource interface {
	LatestJPEG() []byte
}

// StreamHandler serves MJPEG frames of the rendered output.
type StreamHandler struct {
	source   FrameSource
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(source FrameSource, fps int) *StreamHandler {
	if fps <= 0 {
		fps = DefaultStreamFPS
	}
	return &StreamHandler{
		source:   source,
		interval: time.Second / time.Duration(fps),
	}
}

// ServeHTTP streams MJPEG frames to connected clients. A frame is only sent
// when it differs from the previous one.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last []byte
	for {
		jpeg := h.source.LatestJPEG()
		if len(jpeg) > 0 && !bytes.Equal(jpeg, last) {
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
			if _, err := w.Write(jpeg); err != nil {
				return
			}
			fmt.Fprintf(w, "\r\n")

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
			last = jpeg
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
