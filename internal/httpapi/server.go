// Package httpapi serves the export engine over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/prajwal-pl/dnd-pdf-zone/asset"
	"github.com/prajwal-pl/dnd-pdf-zone/internal/config"
	"github.com/prajwal-pl/dnd-pdf-zone/internal/metrics"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	config     *config.Config
	metrics    *metrics.Metrics
	fetcher    asset.Fetcher
	logger     *slog.Logger
	version    string
	startTime  time.Time
}

// NewServer creates a new API server. m may be nil when metrics are
// disabled.
func NewServer(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger, version string) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		metrics:   m,
		fetcher:   cfg.Assets.Fetcher(),
		logger:    logger,
		version:   version,
		startTime: time.Now(),
	}
	if m != nil {
		s.fetcher = m.InstrumentFetcher(s.fetcher)
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}

	s.router.Get("/health", s.handleHealth)
	if s.metrics != nil && s.config.Metrics.Enabled {
		s.router.Method(http.MethodGet, s.config.Metrics.Path, s.metrics.Handler())
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/export", s.handleExport)
		r.Post("/validate", s.handleValidate)
		r.Post("/resolve", s.handleResolve)
		r.Post("/inspect", s.handleInspect)
	})
}

// ServeHTTP lets the server be mounted or tested directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:         s.config.Server.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	s.logger.Info("starting HTTP API server", "addr", s.config.Server.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP API server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"bytes", ww.BytesWritten(),
		)
	})
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n := s.config.Server.MaxBodyBytes; n > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, n)
		}
		next.ServeHTTP(w, r)
	})
}
