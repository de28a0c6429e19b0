package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arkivdb/arkiv/pkg/config"
)

// NewRouter builds the HTTP router for a record service. The /metrics
// and /health endpoints are left unprotected for scraping and probes;
// everything under /api/v1 goes through the API key middleware.
func NewRouter(service RecordService, cfg config.ServerConfig, metrics *Metrics) http.Handler {
	server := NewServer(service, metrics)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", server.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyMiddleware(cfg.APIKey, metrics))

		r.Get("/records", metrics.InstrumentHandler("GET", "/api/v1/records", server.handleListRecords))
		r.Post("/records/{name}", metrics.InstrumentHandler("POST", "/api/v1/records/{name}", server.handleInsertRecord))
		r.Get("/records/{name}", metrics.InstrumentHandler("GET", "/api/v1/records/{name}", server.handleGetRecord))
		r.Put("/records/{name}", metrics.InstrumentHandler("PUT", "/api/v1/records/{name}", server.handleUpdateRecord))
		r.Delete("/records/{name}", metrics.InstrumentHandler("DELETE", "/api/v1/records/{name}", server.handleDeleteRecord))

		r.Post("/compact", metrics.InstrumentHandler("POST", "/api/v1/compact", server.handleCompact))
		r.Post("/backup", metrics.InstrumentHandler("POST", "/api/v1/backup", server.handleBackup))
		r.Get("/stats", metrics.InstrumentHandler("GET", "/api/v1/stats", server.handleStats))
	})

	return r
}

// StartServer starts the HTTP server with all routes configured. It
// blocks until the listener fails.
func StartServer(service RecordService, cfg config.ServerConfig) error {
	metrics := NewMetrics(prometheus.DefaultRegisterer)
	router := NewRouter(service, cfg, metrics)

	addr := fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port)
	slog.Info("starting API server", "addr", addr)
	return http.ListenAndServe(addr, router)
}
