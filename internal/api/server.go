package api

import (
	"net/http"
	"time"

	"packhouse-temporal/internal/metrics"
	"packhouse-temporal/internal/reference"
	"packhouse-temporal/internal/temporal"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Server exposes the packhouse pipeline over HTTP.
type Server struct {
	records *temporal.Service
	configs *reference.Loader
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewServer(records *temporal.Service, configs *reference.Loader, m *metrics.Metrics) *Server {
	return &Server{
		records: records,
		configs: configs,
		metrics: m,
		now:     time.Now,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/packhouse", func(api chi.Router) {
		api.Use(noStore)
		api.Method(http.MethodGet, "/temporal", s.metrics.Middleware("temporal", http.HandlerFunc(s.handleTemporal)))
		api.Method(http.MethodGet, "/temporal/rollup", s.metrics.Middleware("rollup", http.HandlerFunc(s.handleRollup)))
		api.Method(http.MethodGet, "/temporal/export.xlsx", s.metrics.Middleware("export", http.HandlerFunc(s.handleExport)))
		api.Method(http.MethodGet, "/master-config", s.metrics.Middleware("master_config", http.HandlerFunc(s.handleMasterConfig)))
		api.Method(http.MethodPost, "/cache/invalidate", s.metrics.Middleware("invalidate", http.HandlerFunc(s.handleInvalidate)))
	})

	return r
}
