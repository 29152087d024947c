// Package server assembles the HTTP routes of calc_service.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ai-calculator/internal/auth"
	"ai-calculator/internal/calculations"
	"ai-calculator/internal/explain"
	"ai-calculator/internal/respond"
	"ai-calculator/internal/solver"
	"ai-calculator/internal/web"
)

// Deps are the services behind the routes. Explainer may be nil.
type Deps struct {
	Auth         *auth.Service
	Calculations *calculations.Service
	Solver       *solver.Service
	Explainer    *explain.Service
	Pages        *web.Pages
	Log          *slog.Logger
}

// New returns the root handler with request logging applied.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/register", auth.RegisterHandler(d.Auth, d.Log))
	mux.Handle("POST /api/auth/login", auth.LoginHandler(d.Auth, d.Log))
	calculations.NewHandler(d.Calculations, d.Log).Register(mux, d.Auth)
	mux.Handle("POST /api/solve", solver.SolveHandler(d.Solver, d.Log))
	mux.Handle("GET /api/health", healthHandler(d.Explainer))

	if d.Pages != nil {
		d.Pages.Register(mux)
	}
	return requestLogger(d.Log, mux)
}

func healthHandler(exp *explain.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok", "explainer_available": false}
		if exp != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			body["explainer_available"] = exp.Available(ctx)
			body["usage"] = exp.Usage()
			body["cache"] = exp.CacheStats()
		}
		respond.JSON(w, http.StatusOK, body)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

const requestIDHeader = "X-Request-ID"

// requestLogger tags every request with an id and logs its outcome.
func requestLogger(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(r.Context(), level, "request",
			slog.String("request_id", id),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}
