package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
)

// Predictor is the prediction service as seen by the HTTP layer.
type Predictor interface {
	PredictFields(ctx context.Context, fields domain.FieldGetter) (domain.PredictionRecord, error)
	History(ctx context.Context) ([]domain.PredictionRecord, error)
}

// Server exposes the flood-risk pages, the JSON API, and health, readiness
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        Predictor
	pages      *pages
	logger     *slog.Logger
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(addr string, svc Predictor, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		pages:  mustParsePages(),
		logger: logger,
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /predict", s.handlePredictForm)
	mux.HandleFunc("GET /gujarat_flood_map1", s.handleStatic("gujarat_flood_map1.html"))
	mux.HandleFunc("GET /compare", s.handleStatic("compare.html"))
	mux.HandleFunc("GET /compare/chart", s.handleCompareChart)

	mux.HandleFunc("POST /api/predict", s.handleAPIPredict)
	mux.HandleFunc("GET /api/history", s.handleAPIHistory)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

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
