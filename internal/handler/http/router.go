package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gopikant21/jumbotail/internal/service"
	"github.com/gopikant21/jumbotail/pkg/health"
	"github.com/gopikant21/jumbotail/pkg/middleware"
)

// NewRouter creates a chi router with all search service routes registered.
// baseCtx parents handler-spawned background work; cancel it to stop that
// work at shutdown.
func NewRouter(
	baseCtx context.Context,
	searchService *service.SearchService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("search"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	searchHandler := NewSearchHandler(baseCtx, searchService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/search", func(r chi.Router) {
			r.Get("/", searchHandler.Search)
			r.Get("/suggest", searchHandler.Suggest)
			r.Get("/stats", searchHandler.Stats)
			r.Post("/reindex", searchHandler.Reindex)
		})

		r.Get("/categories", searchHandler.Categories)
		r.Get("/brands", searchHandler.Brands)

		r.Route("/products", func(r chi.Router) {
			r.Get("/{id}/similar", searchHandler.Similar)

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Post("/", searchHandler.IndexProduct)
				r.Post("/bulk", searchHandler.BulkIndex)
				r.Put("/{id}", searchHandler.UpdateProduct)
				r.Patch("/{id}/metadata", searchHandler.UpdateMetadata)
			})

			r.Delete("/{id}", searchHandler.DeleteProduct)
		})
	})

	return r
}

// ContentTypeJSON rejects mutating requests whose body is not declared as JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
