// Package postgres persists aggregated raw-data records keyed by ZIP code.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/couchcryptid/civic-score-service/internal/domain"
)

// cacheRow is the zip_cache table: one jsonb payload per ZIP code. The
// payload shape matches domain.RawDataRecord's JSON encoding exactly, so
// records cached by earlier deployments stay readable.
type cacheRow struct {
	ZipCode   string         `gorm:"primaryKey;column:zip_code;size:5"`
	Data      datatypes.JSON `gorm:"column:data;type:jsonb"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (cacheRow) TableName() string { return "zip_cache" }

// Store implements domain.Store on PostgreSQL.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to the database and migrates the cache table.
func Open(databaseURL string, logger *slog.Logger) (*Store, error) {
	dsn := strings.TrimSpace(databaseURL)
	if dsn == "" {
		return nil, errors.New("database URL is required")
	}

	// PrepareStmt avoids the migrator forcing simple protocol for its
	// introspection queries.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{PrepareStmt: true})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&cacheRow{}); err != nil {
		return nil, fmt.Errorf("migrate zip_cache: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// NewStore wraps an existing gorm connection, used by tests.
func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Get returns the cached record for a ZIP, or nil when the ZIP is not
// cached. A row whose payload no longer unmarshals is treated as a miss so
// the caller re-aggregates and overwrites it.
func (s *Store) Get(ctx context.Context, zip string) (*domain.RawDataRecord, error) {
	var row cacheRow
	err := s.db.WithContext(ctx).First(&row, "zip_code = ?", zip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup for %s: %w", zip, err)
	}

	var rec domain.RawDataRecord
	if err := json.Unmarshal(row.Data, &rec); err != nil {
		s.logger.Warn("cached payload is unreadable, treating as miss", "zip", zip, "error", err)
		return nil, nil
	}
	return &rec, nil
}

// Put upserts the record for a ZIP. Last writer wins; concurrent aggregations
// of the same ZIP produce equivalent payloads, so the race is benign.
func (s *Store) Put(ctx context.Context, zip string, rec domain.RawDataRecord, updatedAt time.Time) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record for %s: %w", zip, err)
	}

	row := cacheRow{
		ZipCode:   zip,
		Data:      payload,
		UpdatedAt: updatedAt,
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "zip_code"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("cache upsert for %s: %w", zip, err)
	}
	return nil
}

// Ping verifies database connectivity, used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.db.WithContext(ctx).DB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

var _ domain.Store = (*Store)(nil)
