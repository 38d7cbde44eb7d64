// Package http exposes the score API plus health, readiness, and metrics
// endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/civic-score-service/internal/domain"
)

// Scorer produces the raw record and score set for a validated ZIP code.
type Scorer interface {
	Analyze(ctx context.Context, zip string) (domain.RawDataRecord, domain.ScoreSet, bool)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the score API along with health, readiness, and metrics
// HTTP endpoints.
type Server struct {
	httpServer *http.Server
	scorer     Scorer
	logger     *slog.Logger
}

// scoreResponse is the payload for GET /api/v1/score/{zip}.
type scoreResponse struct {
	ZipCode string               `json:"zip_code"`
	Cached  bool                 `json:"cached"`
	Scores  domain.ScoreSet      `json:"scores"`
	Summary string               `json:"summary"`
	Data    domain.RawDataRecord `json:"data"`
}

// NewServer creates an HTTP server with the score route plus /healthz,
// /readyz, and /metrics.
func NewServer(addr string, scorer Scorer, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		scorer: scorer,
		logger: logger,
	}

	mux.HandleFunc("GET /api/v1/score/{zip}", s.handleScore)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
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

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	zip := domain.NormalizeZip(r.PathValue("zip"))
	if !domain.IsValidZip(zip) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "zip must be a 5-digit US ZIP code",
		})
		return
	}

	rec, scores, cached := s.scorer.Analyze(r.Context(), zip)

	s.logger.Info("score request served",
		"zip", zip,
		"cached", cached,
		"overall", scores[domain.OverallKey],
	)

	writeJSON(w, http.StatusOK, scoreResponse{
		ZipCode: zip,
		Cached:  cached,
		Scores:  scores,
		Summary: domain.FeatureSummary(scores),
		Data:    rec,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
