package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/civic-score-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DatabaseURL is the Postgres URL backing the ZIP cache store.
	DatabaseURL string

	// Provider API keys. An absent key degrades the corresponding adapter
	// to its fallback path; it never fails aggregation.
	CensusAPIKey string
	AirNowAPIKey string

	// UseMockData short-circuits the health and POI adapters to fixed
	// illustrative values. All other adapters still attempt live calls.
	UseMockData bool

	// Kafka publishing of freshly scored records (optional).
	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEnabled   bool

	OverpassCacheSize int
	GeoCacheSize      int

	Weights domain.Weights
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; env vars win over .env entries

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	weights, err := loadWeights()
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabaseURL: os.Getenv("DATABASE_URL"),

		CensusAPIKey: os.Getenv("CENSUS_API_KEY"),
		AirNowAPIKey: os.Getenv("AIRNOW_API_KEY"),

		UseMockData: os.Getenv("USE_MOCK_DATA") == "true",

		KafkaBrokers:   brokers,
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "civic-scores"),
		KafkaEnabled:   len(brokers) > 0,

		OverpassCacheSize: parsePositiveInt("OVERPASS_CACHE_SIZE", 500),
		GeoCacheSize:      parsePositiveInt("GEO_CACHE_SIZE", 1000),

		Weights: weights,
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required (PostgreSQL URL)")
	}
	if !strings.HasPrefix(cfg.DatabaseURL, "postgres://") && !strings.HasPrefix(cfg.DatabaseURL, "postgresql://") {
		return nil, errors.New("DATABASE_URL must be a postgres:// or postgresql:// URL")
	}

	return cfg, nil
}

// loadWeights reads the per-metric weight overrides. Defaults sum to 1.0 but
// overridden totals are not re-normalized; the scoring engine divides by the
// actual total.
func loadWeights() (domain.Weights, error) {
	defaults := domain.DefaultWeights()
	w := domain.Weights{}

	fields := []struct {
		env string
		dst *float64
		def float64
	}{
		{"SAFETY_WEIGHT", &w.Safety, defaults.Safety},
		{"HEALTH_WEIGHT", &w.Health, defaults.Health},
		{"EDUCATION_WEIGHT", &w.Education, defaults.Education},
		{"ECONOMIC_WEIGHT", &w.Economic, defaults.Economic},
		{"HOUSING_WEIGHT", &w.Housing, defaults.Housing},
		{"DIGITAL_ACCESS_WEIGHT", &w.DigitalAccess, defaults.DigitalAccess},
		{"ENVIRONMENT_WEIGHT", &w.Environment, defaults.Environment},
		{"ACCESSIBILITY_WEIGHT", &w.Accessibility, defaults.Accessibility},
	}

	for _, f := range fields {
		s := os.Getenv(f.env)
		if s == "" {
			*f.dst = f.def
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			return domain.Weights{}, fmt.Errorf("invalid %s: %q", f.env, s)
		}
		*f.dst = v
	}

	return w, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
