// Package server provides the HTTP server for the depth portrait runtime.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/depthportrait/internal/app"
	"github.com/ayusman/depthportrait/internal/server/api"
	"github.com/ayusman/depthportrait/internal/store"
)

// Runtime is the running pipeline as seen by the HTTP surface.
type Runtime interface {
	api.SettingsController
	api.PeopleSource
	api.SnapshotTaker
	FrameSource
	Subscribe() (<-chan app.Update, func())
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Runtime   Runtime
	Logger    *zap.SugaredLogger
	// StreamFPS caps the MJPEG stream rate.
	StreamFPS int
}

// Server represents the HTTP server.
type Server struct {
	config      Config
	logger      *zap.SugaredLogger
	mux         *http.ServeMux
	start       time.Time
	broadcaster *PeopleBroadcaster
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = zap.NewNop().Sugar()
	}
	s := &Server{
		config: config,
		logger: config.Logger,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if rt := s.config.Runtime; rt != nil {
		settings := api.NewSettingsHandler(rt)
		s.mux.Handle("/api/settings", settings)
		s.mux.Handle("/api/settings/", settings)

		s.mux.Handle("/api/people", api.NewPeopleHandler(rt))
		s.mux.Handle("/api/stream", NewStreamHandler(rt, s.config.StreamFPS))

		s.broadcaster = NewPeopleBroadcaster(rt, s.logger)
		s.mux.Handle("/api/people/ws", s.broadcaster)
	}

	if s.config.Store != nil {
		var taker api.SnapshotTaker
		if s.config.Runtime != nil {
			taker = s.config.Runtime
		}
		snapshots := api.NewSnapshotsHandler(s.config.Store, taker)
		s.mux.Handle("/api/snapshots", snapshots)
		s.mux.Handle("/api/snapshots/", snapshots)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Runtime != nil {
		response["frames"] = s.config.Runtime.FrameCount()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Close stops the WebSocket broadcaster and disconnects its clients.
func (s *Server) Close() {
	if s.broadcaster != nil {
		s.broadcaster.Close()
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
