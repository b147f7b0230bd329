package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/groundwater-monthly/internal/domain"
	"github.com/couchcryptid/groundwater-monthly/internal/pipeline"
)

// Reporter computes monthly reports.
type Reporter interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Report, error)
	Wells(ctx context.Context, v domain.Variant) ([]string, error)
	ListTables(ctx context.Context) ([]string, error)
}

// Options tunes request handling.
type Options struct {
	DefaultStatistics []string // used when a request names none
	AllowedOrigins    []string // CORS origins for the report API
}

// Server exposes the report API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	reporter   Reporter
	opts       Options
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and /api routes.
func NewServer(addr string, reporter Reporter, ready sharedobs.ReadinessChecker, opts Options, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reporter: reporter,
		opts:     opts,
		logger:   logger,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		if len(opts.AllowedOrigins) > 0 {
			api.Use(cors.Handler(cors.Options{
				AllowedOrigins: opts.AllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type"},
				ExposedHeaders: []string{"Content-Disposition"},
				MaxAge:         300,
			}))
		}
		api.Get("/tables", s.handleTables)
		api.Route("/monthly/{variant}", func(mr chi.Router) {
			mr.Get("/", s.handleLong)
			mr.Get("/wells", s.handleWells)
			mr.Get("/series", s.handleSeries)
			mr.Get("/wide", s.handleWide)
		})
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
