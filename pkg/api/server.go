// Package api serves GSE2 container decoding, conversion and the header
// catalog over HTTP.
//
// All routes under /api/v1 accept an X-API-Key header, which is enforced
// only when the server is configured with a key. Prometheus metrics are
// served unauthenticated at /metrics.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ssargent/gse2/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// NewRouter returns the HTTP handler with all routes configured
func NewRouter(server *Server) http.Handler {
	metrics := server.metrics

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-GSE2-Records", "X-GSE2-Truncated"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(server.registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(server.config.APIKey)))

		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", server.handleHealth))

		// Containers
		r.Post("/probe", metrics.InstrumentHandler("POST", "/api/v1/probe", server.handleProbe))
		r.Post("/traces", metrics.InstrumentHandler("POST", "/api/v1/traces", server.handleTraces))
		r.Post("/convert", metrics.InstrumentHandler("POST", "/api/v1/convert", server.handleConvert))

		// Header catalog
		r.Post("/catalog", metrics.InstrumentHandler("POST", "/api/v1/catalog", server.handleCatalogAdd))
		r.Get("/catalog", metrics.InstrumentHandler("GET", "/api/v1/catalog", server.handleCatalogList))
		r.Get("/catalog/{id}", metrics.InstrumentHandler("GET", "/api/v1/catalog/{id}", server.handleCatalogGet))
		r.Delete("/catalog/{id}", metrics.InstrumentHandler("DELETE", "/api/v1/catalog/{id}", server.handleCatalogDelete))
	})

	return r
}

// StartServer serves the API on config.Bind:config.Port until ctx is
// cancelled, then shuts down gracefully
func StartServer(ctx context.Context, cat HeaderCatalog, config ServerConfig) error {
	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, l, NewServer(cat, config))
}

// Serve serves the API on l until ctx is cancelled
func Serve(ctx context.Context, l net.Listener, server *Server) error {
	log := logger.Get("api")
	srv := &http.Server{
		Handler:           NewRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(l) }()

	log.Info().
		Str("addr", l.Addr().String()).
		Bool("auth", server.config.APIKey != "").
		Bool("catalog", server.catalog != nil).
		Msg("serving GSE2 API")

	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(cctx)
	case err := <-errCh:
		return err
	}
}
