package storage

import (
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/lcalzada-xor/assetvuln/internal/core/ports"
)

// SQLiteAdapter implements the storage ports using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// Option configures the adapter.
type Option func(*options)

type options struct {
	tracing bool
	debug   bool
}

// WithTracing records a span per SQL statement.
func WithTracing() Option {
	return func(o *options) { o.tracing = true }
}

// WithDebug logs every SQL statement.
func WithDebug() Option {
	return func(o *options) { o.debug = true }
}

// NewSQLiteAdapter initializes the database and migrates schema.
func NewSQLiteAdapter(path string, opts ...Option) (*SQLiteAdapter, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logMode := logger.Silent
	if o.debug {
		logMode = logger.Info
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	// SQLite allows a single writer; one connection also keeps ":memory:"
	// databases shared.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	db.Exec("PRAGMA busy_timeout = 5000")

	if o.tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, errors.Wrap(err, "enable tracing")
		}
	}

	if err := db.AutoMigrate(allModels...); err != nil {
		return nil, errors.Wrap(err, "migrate schema")
	}

	// Create Indices for Performance
	db.Exec("CREATE INDEX IF NOT EXISTS idx_criteria_asset_name_lower ON criteria(LOWER(asset_name))")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_av_os_version ON asset_vulnerabilities(operating_system, os_version)")

	return &SQLiteAdapter{db: db}, nil
}

func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure interface compliance
var (
	_ ports.AssetSource         = (*SQLiteAdapter)(nil)
	_ ports.PlatformCatalog     = (*SQLiteAdapter)(nil)
	_ ports.CriteriaStore       = (*SQLiteAdapter)(nil)
	_ ports.VulnerabilityStore  = (*SQLiteAdapter)(nil)
	_ ports.VulnerabilityReader = (*SQLiteAdapter)(nil)
	_ ports.NotificationStore   = (*SQLiteAdapter)(nil)
	_ ports.SeedStore           = (*SQLiteAdapter)(nil)
)
