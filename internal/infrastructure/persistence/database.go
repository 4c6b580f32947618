package persistence

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/boodo/silvasync/internal/infrastructure/config"
	"github.com/boodo/silvasync/internal/infrastructure/logger"
	"github.com/boodo/silvasync/internal/infrastructure/telemetry"
)

// Database holds the store database connection
type Database struct {
	DB *gorm.DB
}

// Options tune how the connection logs and traces queries
type Options struct {
	Logger   *zap.Logger
	LogLevel gormlogger.LogLevel
	Tracing  telemetry.DBTracingConfig
}

// NewDatabase opens the store database. Queries are logged through zap and,
// when tracing is enabled, recorded as spans.
func NewDatabase(cfg *config.DatabaseConfig, opts Options) (*Database, error) {
	zapLogger := opts.Logger
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	logLevel := opts.LogLevel
	if logLevel == 0 {
		logLevel = gormlogger.Warn
	}

	var gormOpts []logger.GormLoggerOption
	if opts.Tracing.SlowQueryThresh > 0 {
		gormOpts = append(gormOpts, logger.WithSlowThreshold(opts.Tracing.SlowQueryThresh))
	}
	if !opts.Tracing.LogFullSQL {
		gormOpts = append(gormOpts, logger.WithMaxSQLLength(logger.DefaultMaxSQLLength))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 logger.NewGormLogger(zapLogger, logLevel, gormOpts...),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := telemetry.NewDBTracingPlugin(opts.Tracing, zapLogger).Register(db); err != nil {
		return nil, fmt.Errorf("failed to register database tracing: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
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

// Stats returns connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// Transaction executes a function within a database transaction
func (d *Database) Transaction(fn func(tx *gorm.DB) error) error {
	return d.DB.Transaction(fn)
}

// Repositories bundles the store repositories over one connection
type Repositories struct {
	Products   *GormProductRepository
	Categories *GormCategoryRepository
	Customers  *GormCustomerRepository
	Orders     *GormOrderRepository
}

// NewRepositories creates every store repository on db
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Products:   NewGormProductRepository(db),
		Categories: NewGormCategoryRepository(db),
		Customers:  NewGormCustomerRepository(db),
		Orders:     NewGormOrderRepository(db),
	}
}
