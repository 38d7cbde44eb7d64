package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/civic-score-service/internal/domain"
	"github.com/couchcryptid/civic-score-service/internal/observability"
)

type recordingPublisher struct {
	calls int
	err   error
}

func (p *recordingPublisher) Publish(context.Context, string, domain.RawDataRecord, domain.ScoreSet) error {
	p.calls++
	return p.err
}

func testService(store domain.Store, sources Sources, publisher Publisher) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	agg := NewAggregator(store, sources, logger, metrics, clockwork.NewFakeClock())
	return NewService(agg, domain.DefaultWeights(), publisher, logger, metrics)
}

func TestAnalyze_ScoresLiveRecordAndPublishes(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := testService(newMemStore(), (&stubSources{}).bundle(), publisher)

	rec, scores, cached := svc.Analyze(context.Background(), "07306")

	assert.False(t, cached)
	assert.Equal(t, 1, publisher.calls)
	assert.Equal(t, 42, rec.AirQuality.AQI)
	assert.Contains(t, scores, domain.OverallKey)
	for _, name := range domain.MetricNames {
		assert.Contains(t, scores, name)
		assert.GreaterOrEqual(t, scores[name], 0.0)
		assert.LessOrEqual(t, scores[name], 100.0)
	}
}

func TestAnalyze_CachedRecordSkipsPublish(t *testing.T) {
	store := newMemStore()
	store.records["07306"] = domain.RawDataRecord{
		AirQuality: domain.AirQualityData{AQI: 55, Category: "Moderate", Pollutant: "Unknown"},
	}
	publisher := &recordingPublisher{}
	svc := testService(store, (&stubSources{}).bundle(), publisher)

	_, scores, cached := svc.Analyze(context.Background(), "07306")

	assert.True(t, cached)
	assert.Zero(t, publisher.calls)
	assert.Contains(t, scores, domain.OverallKey)
}

func TestAnalyze_PublishFailureDoesNotFailRequest(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("broker unreachable")}
	svc := testService(newMemStore(), (&stubSources{}).bundle(), publisher)

	_, scores, cached := svc.Analyze(context.Background(), "07306")

	assert.False(t, cached)
	assert.Equal(t, 1, publisher.calls)
	assert.NotEmpty(t, scores)
}

func TestAnalyze_NilPublisher(t *testing.T) {
	svc := testService(newMemStore(), (&stubSources{}).bundle(), nil)

	_, scores, _ := svc.Analyze(context.Background(), "07306")

	assert.Contains(t, scores, domain.OverallKey)
}
