package handlers

import (
	"net/http"

	"github.com/creativecanvas/backend/internal/auth"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Identity is resolved
// per route so the mux still records the matched pattern on the incoming request.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Checks: deps.HealthChecks}
	api := RelayHandler{
		Relay:        deps.Relay,
		Limiter:      deps.Limiter,
		Metrics:      deps.RateLimitMetrics,
		MaxBodyBytes: deps.MaxBodyBytes,
	}

	mux.HandleFunc("/healthz", health.Handle)
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics)
	}

	withIdentity := func(h http.HandlerFunc) http.Handler { return auth.Middleware(h) }
	mux.Handle("/api/understand", withIdentity(api.Understand))
	mux.Handle("/api/generate", withIdentity(api.Generate))
	mux.Handle("/api/save-creation", withIdentity(api.SaveCreation))
	mux.Handle("/api/generate-video", withIdentity(api.GenerateVideo))
	mux.Handle("/api/video-status", withIdentity(api.VideoStatus))
	mux.Handle("/api/user", withIdentity(api.User))
	mux.Handle("/api/creations", withIdentity(api.Creations))
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Relay            Relay
	Limiter          RateLimiter
	RateLimitMetrics RateLimitRecorder
	Metrics          http.Handler
	HealthChecks     map[string]HealthCheck
	MaxBodyBytes     int64
}
