package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Server is the admin HTTP API with WebSocket support. It combines the
// HTTP router with the WebSocket hub for real-time decision broadcast.
type Server struct {
	engine      AdminEngine
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
}

// NewServer creates a new API server with default production configuration.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(eng AdminEngine, loader ConfigLoader) *Server {
	return NewServerWithHub(eng, loader, NewWebSocketHub())
}

// NewServerWithHub is like NewServer but binds an already-constructed
// WebSocketHub, so callers can wire the same hub into a dispatch sink
// before the engine that feeds this server even exists.
func NewServerWithHub(eng AdminEngine, loader ConfigLoader, hub *WebSocketHub) *Server {
	s := &Server{
		engine: eng,
		wsHub:  hub,
	}

	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)

	s.router = NewRouter(RouterConfig{
		Engine:       eng,
		ConfigLoader: loader,
		RateLimiter:  s.rateLimiter,
	})

	s.setupWebSocketRoutes()

	return s
}

// setupWebSocketRoutes adds WebSocket-specific routes to the router.
// These routes need access to the wsHub instance, so they can't be
// part of the generic NewRouter factory.
func (s *Server) setupWebSocketRoutes() {
	s.router.Get("/ws", s.handleWS)
}

// Start begins the HTTP server AND starts background workers.
// This is the ONLY method that starts goroutines or opens network listeners.
//
// Call this method only once. To stop the server, signal the process.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()

	log.Printf("admin API listening on %s", addr)

	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
//
// Example:
//
//	server := api.NewServer(eng, loader)
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/status")
func (s *Server) Router() http.Handler {
	return s.router
}

// Broadcaster returns the WebSocket hub so it can be wired into a
// dispatch sink as a dispatch.Broadcaster.
func (s *Server) Broadcaster() *WebSocketHub {
	return s.wsHub
}

// Stop performs graceful shutdown of background workers.
// Call this before process exit to ensure clean cleanup.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.wsHub.HandleWebSocket(w, r)
}
