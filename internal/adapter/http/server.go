package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Predictor answers scenario predictions.
type Predictor interface {
	PredictScenario(ctx context.Context, horizonMonths int, scenario string, level *float64) (domain.ScenarioResponse, error)
}

// Catalog exposes the fitted model's reference data.
type Catalog interface {
	Thresholds() (domain.Thresholds, error)
	Scenarios() map[domain.Scenario]float64
}

// Publisher receives every successful prediction. It may be nil.
type Publisher interface {
	Publish(ctx context.Context, resp domain.ScenarioResponse) error
}

// Server exposes the prediction API alongside health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	predictor  Predictor
	catalog    Catalog
	publisher  Publisher
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// /v1 prediction routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, predictor Predictor, catalog Catalog, publisher Publisher, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		predictor: predictor,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/predict", s.handlePredict)
	mux.HandleFunc("GET /v1/scenarios", s.handleScenarios)
	mux.HandleFunc("GET /v1/thresholds", s.handleThresholds)

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
