// Package archive persists projected notices in a SQL table, using sqlite
// or postgres as a backing storage.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gyaneshwarpardhi/noticed/internal/relay"
)

const (
	// DefaultLimit is used by List when no limit is given.
	DefaultLimit = 50
	// MaxLimit caps List results.
	MaxLimit = 500
)

// Cfg represents archive configuration
type Cfg struct {
	PostgresDSN string
	SQLitePath  string
}

// Option represents archive configuration option
type Option func(Cfg) Cfg

// WithPostgres configures the archive to use postgres (pgx driver)
func WithPostgres(dsn string) Option {
	return func(cfg Cfg) Cfg {
		cfg.PostgresDSN = dsn
		return cfg
	}
}

// WithSQLite configures the archive to use the sqlite file at path
func WithSQLite(path string) Option {
	return func(cfg Cfg) Cfg {
		cfg.SQLitePath = path
		return cfg
	}
}

// Store is a relay.Sink that writes every delivery to the archive table.
type Store struct {
	db *gorm.DB
}

var _ relay.Sink = (*Store)(nil)

type gormNotice struct {
	Sequence   uint64 `gorm:"autoIncrement;primaryKey"`
	ID         string `gorm:"uniqueIndex"`
	Type       string `gorm:"index"`
	Payload    string
	ReceivedAt time.Time
	ArchivedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns gorm table name
func (gormNotice) TableName() string { return "notice_archive" }

// Record is an archived notice.
type Record struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Notice     json.RawMessage `json:"notice"`
	ReceivedAt time.Time       `json:"received_at"`
	ArchivedAt time.Time       `json:"archived_at"`
}

// Query filters List results.
type Query struct {
	Type  string
	Limit int
}

// Open connects to the configured database and migrates the archive table.
func Open(opts ...Option) (*Store, error) {
	var cfg Cfg
	for _, opt := range opts {
		cfg = opt(cfg)
	}

	var dial gorm.Dialector
	switch {
	case cfg.PostgresDSN != "" && cfg.SQLitePath != "":
		return nil, fmt.Errorf("archive: only one of postgres dsn or sqlite path may be provided")
	case cfg.PostgresDSN != "":
		dial = postgres.Open(cfg.PostgresDSN)
	case cfg.SQLitePath != "":
		dial = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("archive: either postgres dsn or sqlite path must be provided")
	}

	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("archive open: %w", err)
	}
	if err := db.AutoMigrate(&gormNotice{}); err != nil {
		return nil, fmt.Errorf("archive migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Name implements relay.Sink.
func (s *Store) Name() string { return "archive" }

// Deliver implements relay.Sink.
func (s *Store) Deliver(ctx context.Context, d relay.Delivery) error {
	row := gormNotice{
		ID:         d.ID,
		Type:       d.Type,
		Payload:    string(d.Payload),
		ReceivedAt: d.ReceivedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("archive %s: %w", d.ID, err)
	}
	return nil
}

// List returns archived notices, newest first.
func (s *Store) List(ctx context.Context, q Query) ([]Record, error) {
	limit := q.Limit
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	tx := s.db.WithContext(ctx).Order("sequence desc").Limit(limit)
	if q.Type != "" {
		tx = tx.Where("type = ?", q.Type)
	}

	var rows []gormNotice
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("archive list: %w", err)
	}

	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = Record{
			ID:         r.ID,
			Type:       r.Type,
			Notice:     json.RawMessage(r.Payload),
			ReceivedAt: r.ReceivedAt,
			ArchivedAt: r.ArchivedAt,
		}
	}
	return out, nil
}

// Close should be called as a part of cleanup process
// in order to close the underlying sql connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
