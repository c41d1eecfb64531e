package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/gravadigital/residencia-api/internal/config"
	"github.com/gravadigital/residencia-api/internal/logger"
	"github.com/gravadigital/residencia-api/internal/storage/migrations"
)

// ConnectionConfig holds database connection configuration
type ConnectionConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
	SlowThreshold   time.Duration
}

// ConnectionConfigFrom builds the pool settings from cfg, falling back to
// defaults for unset values.
func ConnectionConfigFrom(cfg *config.Config) *ConnectionConfig {
	c := &ConnectionConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    50,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		MaxRetries:      3,
		RetryDelay:      time.Second * 2,
		SlowThreshold:   200 * time.Millisecond,
	}
	if cfg.DB.MaxOpenConns > 0 {
		c.MaxOpenConns = cfg.DB.MaxOpenConns
	}
	if cfg.DB.MaxIdleConns > 0 {
		c.MaxIdleConns = cfg.DB.MaxIdleConns
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if cfg.DB.ConnectRetries > 0 {
		c.MaxRetries = cfg.DB.ConnectRetries
	}
	return c
}

// gormWriter sends GORM's log lines through the application logger
type gormWriter struct {
	log *log.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.log.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func newGormLogger(debug bool, slow time.Duration) gormLogger.Interface {
	level := gormLogger.Warn
	if debug {
		level = gormLogger.Info
	}
	return gormLogger.New(gormWriter{log: logger.Database().WithPrefix("gorm")}, gormLogger.Config{
		SlowThreshold:             slow,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Connect establishes a connection to the PostgreSQL database
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return ConnectWithConfig(cfg, ConnectionConfigFrom(cfg))
}

// ConnectWithConfig establishes a connection with custom configuration
func ConnectWithConfig(cfg *config.Config, connCfg *ConnectionConfig) (*gorm.DB, error) {
	log := logger.Database()

	if err := validateDatabaseConfig(cfg); err != nil {
		log.Error("Database configuration validation failed", "error", err)
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	dsn := cfg.GetDatabaseURL()
	log.Debug("Connecting to database", "host", cfg.DB.Host, "port", cfg.DB.Port, "database", cfg.DB.Name)

	gormConfig := &gorm.Config{
		Logger: newGormLogger(cfg.Server.GinMode == "debug", connCfg.SlowThreshold),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: true,
		// Unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	}

	var db *gorm.DB
	var err error
	retryDelay := connCfg.RetryDelay

	for attempt := 1; attempt <= connCfg.MaxRetries; attempt++ {
		log.Debug("Database connection attempt", "attempt", attempt, "max_retries", connCfg.MaxRetries)

		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
		if err == nil {
			break
		}

		log.Warn("Database connection failed", "attempt", attempt, "error", err)
		if attempt < connCfg.MaxRetries {
			time.Sleep(retryDelay)
			retryDelay *= 2
		}
	}

	if err != nil {
		log.Error("Failed to connect to database after retries", "error", err, "attempts", connCfg.MaxRetries)
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connCfg.MaxRetries, err)
	}

	if err := configureConnectionPool(db, connCfg); err != nil {
		return nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}

	if err := HealthCheck(context.Background(), db); err != nil {
		log.Error("Database connection test failed", "error", err)
		return nil, fmt.Errorf("database connection test failed: %w", err)
	}

	log.Info("Successfully connected to PostgreSQL database",
		"host", cfg.DB.Host,
		"database", cfg.DB.Name,
		"max_open_conns", connCfg.MaxOpenConns,
		"max_idle_conns", connCfg.MaxIdleConns)

	return db, nil
}

func validateDatabaseConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if cfg.DB.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}
	if cfg.DB.Port == "" {
		return fmt.Errorf("database port cannot be empty")
	}
	if cfg.DB.Name == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if cfg.DB.User == "" {
		return fmt.Errorf("database user cannot be empty")
	}
	return nil
}

func configureConnectionPool(db *gorm.DB, cfg *ConnectionConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return nil
}

// HealthCheck pings the database, bounded by 5s and ctx
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// AutoMigrate runs the structured migrations
func AutoMigrate(db *gorm.DB) error {
	log := logger.Migration()
	log.Info("Starting database migrations...")

	if err := HealthCheck(context.Background(), db); err != nil {
		log.Error("Database health check failed before migrations", "error", err)
		return fmt.Errorf("database health check failed: %w", err)
	}

	startTime := time.Now()
	if err := migrations.RunMigrations(db); err != nil {
		log.Error("Database migrations failed", "error", err, "duration", time.Since(startTime))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations completed successfully", "duration", time.Since(startTime))
	return nil
}

// CloseDB closes the underlying connection pool
func CloseDB(db *gorm.DB) error {
	log := logger.Database()

	if db == nil {
		log.Warn("Attempted to close nil database connection")
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	stats := sqlDB.Stats()
	log.Debug("Database pool before closing",
		"open_connections", stats.OpenConnections,
		"in_use_connections", stats.InUse,
		"idle_connections", stats.Idle)

	if err := sqlDB.Close(); err != nil {
		log.Error("Failed to close database connection", "error", err)
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	log.Info("Database connection closed successfully")
	return nil
}

// ConnectionInfo reports pool statistics for the health endpoint
func ConnectionInfo(db *gorm.DB) map[string]any {
	if db == nil {
		return map[string]any{"connected": false, "error": "no database connection"}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return map[string]any{"connected": false, "error": err.Error()}
	}

	stats := sqlDB.Stats()
	return map[string]any{
		"connected":            true,
		"open_connections":     stats.OpenConnections,
		"in_use_connections":   stats.InUse,
		"idle_connections":     stats.Idle,
		"max_open_connections": stats.MaxOpenConnections,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration.String(),
	}
}
