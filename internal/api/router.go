package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"sentinel/internal/config"
	"sentinel/internal/engine"
	"sentinel/internal/metrics"
	"sentinel/internal/model"
)

// AdminEngine defines the engine methods the admin API calls. This
// interface enables mocking for tests without constructing a full
// pipeline. Keep it minimal — only what handlers actually call.
type AdminEngine interface {
	// Status returns a snapshot of engine health.
	Status() engine.Status
	// Reload rebuilds the check registry and reconfigures the
	// aggregator and mitigation policy from cfg.
	Reload(cfg config.EngineConfig) error
	// Exempt adds a player id to the mitigation policy's whitelist.
	Exempt(id model.PlayerID)
	// Unexempt removes a player id from the mitigation policy's whitelist.
	Unexempt(id model.PlayerID)
}

// ConfigLoader re-reads configuration from its backing source for the
// reload endpoint. Kept separate from AdminEngine so tests can supply a
// fixed config without touching the filesystem.
type ConfigLoader interface {
	Load() (config.EngineConfig, []error)
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the detection engine (required).
	Engine AdminEngine

	// ConfigLoader re-reads configuration for the reload endpoint. If
	// nil, /reload responds with 501 Not Implemented.
	ConfigLoader ConfigLoader

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses localhost only.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine AdminEngine
	loader ConfigLoader
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// It opens no network listeners, which makes it safe to use in tests
// with httptest.NewServer. When cfg.RateLimiter is nil, the
// IPRateLimiter it creates starts its own cleanup goroutine.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		engine: cfg.Engine,
		loader: cfg.ConfigLoader,
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.handleStatus)
		r.Post("/reload", h.handleReload)
		r.Post("/exempt/{playerID}", h.handleExempt)
		r.Post("/unexempt/{playerID}", h.handleUnexempt)
	})

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"service": "sentinel"})
	})

	return r
}

// metricsMiddleware records request latency and counts against the
// matched route pattern rather than the raw path, so a path parameter
// like {playerID} never becomes an unbounded label value.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		metrics.RecordRequest(r.Method, endpoint, ww.Status(), time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *routerHandlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Status())
}

func (h *routerHandlers) handleReload(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "reload is not configured"})
		return
	}

	cfg, errs := h.loader.Load()
	if err := h.engine.Reload(cfg); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	warnings := make([]string, 0, len(errs))
	for _, e := range errs {
		warnings = append(warnings, e.Error())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reloaded": true, "warnings": warnings})
}

func (h *routerHandlers) handleExempt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "playerID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid playerID"})
		return
	}
	h.engine.Exempt(model.PlayerID(id))
	writeJSON(w, http.StatusOK, map[string]string{"exempted": id.String()})
}

func (h *routerHandlers) handleUnexempt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "playerID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid playerID"})
		return
	}
	h.engine.Unexempt(model.PlayerID(id))
	writeJSON(w, http.StatusOK, map[string]string{"unexempted": id.String()})
}
