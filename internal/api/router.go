// Package api is a read-only diagnostics HTTP surface over the Focus
// Manager, Directive Processor, and Dialog UX Aggregator: GET /channels,
// GET /directives/queue, GET /dialog/state, plus an unauthenticated
// GET /health liveness probe. Grounded on pkg/api/router.go's chi
// middleware stack and route-grouping shape (request ID, real IP,
// request logging, panic recovery, timeout, then an authenticated
// route group), trimmed from dittofs's full user-management API surface
// to this SDK's three read-only snapshots.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/voxcore/assistant-sdk/internal/dialogux"
	"github.com/voxcore/assistant-sdk/internal/directive"
	"github.com/voxcore/assistant-sdk/internal/focus"
	"github.com/voxcore/assistant-sdk/internal/logger"
)

// NewRouter builds the diagnostics API's chi router. jwtService may be
// nil to disable authentication entirely (e.g. for local development
// against a loopback-only listener).
func NewRouter(fm *focus.Manager, proc *directive.Processor, agg *dialogux.Aggregator, jwtService *JWTService, startedAt time.Time) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/health", (&livenessHandler{startedAt: startedAt}).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		if jwtService != nil {
			r.Use(jwtAuth(jwtService))
		}
		r.Handle("/channels", &channelsHandler{focus: fm})
		r.Handle("/directives/queue", &directiveQueueHandler{processor: proc})
		r.Handle("/dialog/state", &dialogStateHandler{aggregator: agg})
	})

	return r
}

// requestLogger logs each request's method/path/status/duration through
// the shared structured logger, matching pkg/api/router.go's
// requestLogger shape.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Info("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
