// Package httpapi serves anagram queries over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Aman-CERP/otherwords/internal/index"
	"github.com/Aman-CERP/otherwords/internal/store"
	"github.com/Aman-CERP/otherwords/internal/telemetry"
)

// Querier is the read side of *index.Indexer.
type Querier interface {
	Find(ctx context.Context, phrase string) (*index.FindResult, error)
	Lookup(ctx context.Context, signature string) ([]store.Hit, error)
	CheckSignature(signature string) error
	Sources(ctx context.Context) ([]store.SourceRecord, error)
	Stats(ctx context.Context) (*index.Status, error)
}

// Deps holds the router's collaborators.
type Deps struct {
	Index Querier

	// Metrics, when set, is exposed at /metrics.
	Metrics *telemetry.Metrics

	Logger *slog.Logger
}

// NewRouter builds the HTTP handler.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{index: deps.Index, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))

	r.Get("/healthz", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/anagrams", h.find)
		r.Get("/signatures/{signature}", h.lookup)
		r.Get("/sources", h.sources)
		r.Get("/stats", h.stats)
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	return r
}

// RequestLogger logs one line per request. Health checks that succeed are
// not logged.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if r.URL.Path == "/healthz" && status == http.StatusOK {
				return
			}
			logger.Info("http_request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		})
	}
}
