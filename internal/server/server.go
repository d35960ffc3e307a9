// Package server provides the HTTP server for the Kathakali avatar
// animation service.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/kathakali/internal/rig"
	"github.com/ayusman/kathakali/internal/server/api"
	"github.com/ayusman/kathakali/internal/store"
)

// Config holds the server configuration. Nil parts leave their routes
// unregistered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Session   api.Controller

	// Aliases is the joint alias table the session resolves with.
	Aliases rig.AliasTable

	Frames    *FrameBuffer
	Landmarks *LandmarksHub
	Rig       *RigStream

	// ApplySignTable switches the running session to a sign table variant.
	ApplySignTable func(variant string) error

	// ReloadClips reloads the clip library from the store.
	ReloadClips func() error

	Logger *log.Logger
}

// Server represents the HTTP server for the Kathakali application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		clips := api.NewClipHandler(s.config.Store, s.config.ReloadClips, s.config.Logger)
		s.mux.Handle("/api/clips", clips)
		s.mux.Handle("/api/clips/", clips)
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.Store, s.config.ApplySignTable))
		s.mux.Handle("/api/events", api.NewEventsHandler(s.config.Store))
	}

	if s.config.Session != nil {
		s.mux.Handle("/api/playback", api.NewPlaybackHandler(s.config.Session))
		s.mux.Handle("/api/tracking", api.NewTrackingHandler(s.config.Session, s.config.Store, s.config.Logger))
		s.mux.Handle("/api/rig", api.NewRigHandler(s.config.Session, s.config.Aliases))
	}

	if s.config.Rig != nil {
		s.mux.Handle("/api/rig/stream", s.config.Rig)
	}
	if s.config.Landmarks != nil {
		s.mux.Handle("/api/landmarks", s.config.Landmarks)
	}
	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

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
	if s.config.Session != nil {
		response["tracking"] = s.config.Session.Status().State
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// Handler returns an http.Server for addr so the caller can shut it down.
func (s *Server) Handler(addr string) *http.Server {
	return &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 10 * time.Second}
}
