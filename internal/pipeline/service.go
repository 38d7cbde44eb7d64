package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/civic-score-service/internal/domain"
	"github.com/couchcryptid/civic-score-service/internal/observability"
)

// Publisher delivers a scored record to a downstream sink.
type Publisher interface {
	Publish(ctx context.Context, zip string, rec domain.RawDataRecord, scores domain.ScoreSet) error
}

// Service runs the full score lookup: aggregate raw data, score it, and
// publish the result when a sink is configured. Publishing is best effort
// and never fails the request.
type Service struct {
	aggregator *Aggregator
	weights    domain.Weights
	publisher  Publisher
	logger     *slog.Logger
	metrics    *observability.Metrics
}

func NewService(aggregator *Aggregator, weights domain.Weights, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		aggregator: aggregator,
		weights:    weights,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
	}
}

// Analyze returns the raw record and its scores for a normalized ZIP code.
// The cached flag reports whether the record came from the cache rather
// than a live aggregation.
func (s *Service) Analyze(ctx context.Context, zip string) (domain.RawDataRecord, domain.ScoreSet, bool) {
	rec, cached := s.aggregator.Collect(ctx, zip)

	scores := domain.ComputeScores(rec, s.weights)
	s.metrics.OverallScore.Observe(scores[domain.OverallKey])

	if s.publisher != nil && !cached {
		if err := s.publisher.Publish(ctx, zip, rec, scores); err != nil {
			s.logger.Warn("score publish failed", "zip", zip, "error", err)
			s.metrics.ScorePublishes.WithLabelValues("error").Inc()
		} else {
			s.metrics.ScorePublishes.WithLabelValues("success").Inc()
		}
	}

	return rec, scores, cached
}
