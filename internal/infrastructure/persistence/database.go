package persistence

import (
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/erp/egnyte-provisioner/internal/infrastructure/config"
	applogger "github.com/erp/egnyte-provisioner/internal/infrastructure/logger"
)

// Database holds the ledger database connection
type Database struct {
	DB *gorm.DB
}

// Options tune how the connection is opened
type Options struct {
	// Tracing registers the otelgorm plugin when true
	Tracing bool
	// LogLevel selects gorm log verbosity, mapped from the app log level
	LogLevel gormlogger.LogLevel
}

// NewDatabase opens the ledger database for the configured driver. The
// sqlite driver covers the common single-host deployment; postgres is for
// shared ledgers across several provisioner hosts.
func NewDatabase(cfg *config.LedgerConfig, zapLogger *zap.Logger, opts Options) (*Database, error) {
	gormCfg := &gorm.Config{
		Logger:                 applogger.NewGormLogger(zapLogger, opts.LogLevel),
		SkipDefaultTransaction: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "sqlite", "":
		db, err = gorm.Open(sqlite.Open(cfg.DSN), gormCfg)
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DSN), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	if opts.Tracing {
		if err := db.Use(otelgorm.NewPlugin(otelgorm.WithoutQueryVariables())); err != nil {
			return nil, fmt.Errorf("failed to register gorm tracing: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "postgres" {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping ledger database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}
