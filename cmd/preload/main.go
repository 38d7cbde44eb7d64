// Command preload warms the ZIP cache from a CSV of "zip,state" rows so the
// first interactive request for popular ZIPs is a cache hit. ZIPs already
// cached are skipped; the rest are aggregated with a randomized pause in
// between to stay polite toward the upstream providers.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/civic-score-service/internal/adapter/airnow"
	"github.com/couchcryptid/civic-score-service/internal/adapter/census"
	"github.com/couchcryptid/civic-score-service/internal/adapter/hrsa"
	"github.com/couchcryptid/civic-score-service/internal/adapter/overpass"
	"github.com/couchcryptid/civic-score-service/internal/adapter/postgres"
	"github.com/couchcryptid/civic-score-service/internal/adapter/zippopotam"
	"github.com/couchcryptid/civic-score-service/internal/config"
	"github.com/couchcryptid/civic-score-service/internal/domain"
	"github.com/couchcryptid/civic-score-service/internal/observability"
	"github.com/couchcryptid/civic-score-service/internal/pipeline"
)

const sourceTimeout = 12 * time.Second

type zipRow struct {
	zip   string
	state string
}

func main() {
	var (
		zipsPath = flag.String("zips", "", "path to a zip,state CSV (required)")
		state    = flag.String("state", "", "only preload ZIPs in this two-letter state")
		delay    = flag.Duration("delay", time.Second, "base pause between ZIPs")
		jitter   = flag.Duration("jitter", time.Second, "random extra pause, uniform in [0,jitter)")
	)
	flag.Parse()

	if *zipsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

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

	rows, err := readZipRows(*zipsPath, *state, logger)
	if err != nil {
		logger.Error("failed to read zip csv", "path", *zipsPath, "error", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		logger.Info("no ZIPs to preload")
		return
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var fetched, skipped int
	for i, row := range rows {
		if ctx.Err() != nil {
			logger.Info("preload interrupted", "fetched", fetched, "skipped", skipped, "remaining", len(rows)-i)
			return
		}

		if cached, err := store.Get(ctx, row.zip); err == nil && cached != nil {
			logger.Debug("already cached", "zip", row.zip)
			skipped++
			continue
		}

		logger.Info("preloading", "zip", row.zip, "state", row.state, "progress", i+1, "total", len(rows))
		aggregator.Collect(ctx, row.zip)
		fetched++

		if i < len(rows)-1 {
			pause := *delay
			if *jitter > 0 {
				pause += rand.N(*jitter)
			}
			select {
			case <-time.After(pause):
			case <-ctx.Done():
			}
		}
	}

	logger.Info("preload complete", "fetched", fetched, "skipped", skipped)
}

// readZipRows parses the zip,state CSV, dropping invalid rows with a warning
// and applying the optional state filter.
func readZipRows(path, stateFilter string, logger *slog.Logger) ([]zipRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows []zipRow
	for line := 1; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) == 0 {
			continue
		}

		zip := domain.NormalizeZip(record[0])
		if line == 1 && strings.EqualFold(zip, "zip") {
			continue // header row
		}
		if !domain.IsValidZip(zip) {
			logger.Warn("skipping invalid zip row", "line", line, "value", record[0])
			continue
		}

		var st string
		if len(record) > 1 {
			st = strings.ToUpper(strings.TrimSpace(record[1]))
		}
		if stateFilter != "" && !strings.EqualFold(st, stateFilter) {
			continue
		}

		rows = append(rows, zipRow{zip: zip, state: st})
	}
	return rows, nil
}
