package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/civic-score-service/internal/adapter/airnow"
	"github.com/couchcryptid/civic-score-service/internal/adapter/census"
	"github.com/couchcryptid/civic-score-service/internal/adapter/hrsa"
	httpadapter "github.com/couchcryptid/civic-score-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/civic-score-service/internal/adapter/kafka"
	"github.com/couchcryptid/civic-score-service/internal/adapter/overpass"
	"github.com/couchcryptid/civic-score-service/internal/adapter/postgres"
	"github.com/couchcryptid/civic-score-service/internal/adapter/zippopotam"
	"github.com/couchcryptid/civic-score-service/internal/config"
	"github.com/couchcryptid/civic-score-service/internal/observability"
	"github.com/couchcryptid/civic-score-service/internal/pipeline"
)

// sourceTimeout bounds each upstream provider call.
const sourceTimeout = 12 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := postgres.Open(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to open cache store", "error", err)
		os.Exit(1)
	}

	resolver := zippopotam.NewCachedResolver(
		zippopotam.NewClient(sourceTimeout, logger),
		cfg.GeoCacheSize,
	)
	poi := overpass.NewClient(sourceTimeout, cfg.OverpassCacheSize, resolver, metrics, logger, cfg.UseMockData)

	acs := census.NewClient(cfg.CensusAPIKey, sourceTimeout, logger)
	demographics := census.NewDemographics(acs)

	sources := pipeline.Sources{
		Census:     demographics,
		Health:     hrsa.NewClient(sourceTimeout, poi, logger, cfg.UseMockData),
		Crime:      pipeline.NewCrimeProxy(demographics, poi, logger),
		Housing:    census.NewHousing(acs),
		Broadband:  census.NewBroadband(acs),
		AirQuality: airnow.NewClient(cfg.AirNowAPIKey, sourceTimeout, logger),
		POI:        poi,
	}

	aggregator := pipeline.NewAggregator(store, sources, logger, metrics, clockwork.NewRealClock())

	var publisher pipeline.Publisher
	var kafkaPub *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPub
		logger.Info("kafka score publishing enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka score publishing disabled")
	}

	svc := pipeline.NewService(aggregator, cfg.Weights, publisher, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, readiness{store}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// readiness reports ready once the cache store answers a ping.
type readiness struct {
	store *postgres.Store
}

func (r readiness) CheckReadiness(ctx context.Context) error {
	return r.store.Ping(ctx)
}
