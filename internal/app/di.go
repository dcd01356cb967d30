// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/colkeys/internal/config"
	"github.com/allisson/colkeys/internal/database"
	keyvaultService "github.com/allisson/colkeys/internal/keyvault/service"
	"github.com/allisson/colkeys/internal/metrics"
	migrationUsecase "github.com/allisson/colkeys/internal/migration/usecase"
	schemaService "github.com/allisson/colkeys/internal/schema/service"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	encryptedDB     *sql.DB
	historyDB       *sql.DB
	metricsProvider *metrics.Provider
	businessMetrics metrics.RunMetrics

	// Managers
	txManager database.TxManager

	// Key vault
	keeper         keyvaultService.Keeper
	keyVaultClient keyvaultService.KeyVaultClient
	cekProvider    *keyvaultService.CekProvider

	// Schema and migration
	schemaKeyBinder  *schemaService.SchemaKeyBinder
	runRepository    migrationUsecase.RunRepository
	migrationUseCase migrationUsecase.MigrationUseCase

	// Initialization flags and mutex for thread-safety
	mu                   sync.Mutex
	loggerInit           sync.Once
	dbInit               sync.Once
	encryptedDBInit      sync.Once
	historyDBInit        sync.Once
	metricsProviderInit  sync.Once
	businessMetricsInit  sync.Once
	txManagerInit        sync.Once
	keyVaultClientInit   sync.Once
	cekProviderInit      sync.Once
	schemaKeyBinderInit  sync.Once
	runRepositoryInit    sync.Once
	migrationUseCaseInit sync.Once
	initErrors           map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the plain connection to the target database, used for DDL.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// EncryptedDB returns the connection to the target database with column encryption enabled.
func (c *Container) EncryptedDB() (*sql.DB, error) {
	var err error
	c.encryptedDBInit.Do(func() {
		c.encryptedDB, err = c.initEncryptedDB()
		if err != nil {
			c.initErrors["encryptedDB"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["encryptedDB"]; exists {
		return nil, storedErr
	}
	return c.encryptedDB, nil
}

// HistoryDB returns the run history connection, or nil when run history is disabled.
func (c *Container) HistoryDB() (*sql.DB, error) {
	var err error
	c.historyDBInit.Do(func() {
		c.historyDB, err = c.initHistoryDB()
		if err != nil {
			c.initErrors["historyDB"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["historyDB"]; exists {
		return nil, storedErr
	}
	return c.historyDB, nil
}

// TxManager returns the transaction manager of the encrypted connection.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. It is a no-op when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.RunMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// WriteMetrics writes collected metrics to the configured textfile, if any.
func (c *Container) WriteMetrics() error {
	if c.config.MetricsTextfile == "" {
		return nil
	}
	provider, err := c.MetricsProvider()
	if err != nil || provider == nil {
		return err
	}
	return provider.WriteTextfile(c.config.MetricsTextfile)
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	for name, db := range map[string]*sql.DB{
		"database":           c.db,
		"encrypted database": c.encryptedDB,
		"history database":   c.historyDB,
	} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("%s close: %w", name, err))
		}
	}

	if c.keeper != nil {
		if err := c.keeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("keeper close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// targetDBConfig returns the pool settings of the target database.
func (c *Container) targetDBConfig() database.Config {
	return database.Config{
		Driver:             database.DriverSQLServer,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	}
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(c.targetDBConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initEncryptedDB opens the target database with the CEK provider registered.
func (c *Container) initEncryptedDB() (*sql.DB, error) {
	client, err := c.KeyVaultClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get key vault client for encrypted database: %w", err)
	}
	provider, err := c.CekProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get cek provider for encrypted database: %w", err)
	}

	db, err := database.ConnectEncrypted(c.targetDBConfig(), client.ProviderName(), provider)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}
	return db, nil
}

// initHistoryDB connects to the run history database when a driver is configured.
func (c *Container) initHistoryDB() (*sql.DB, error) {
	if c.config.HistoryDBDriver == "" {
		return nil, nil
	}
	db, err := database.Connect(database.Config{
		Driver:             c.config.HistoryDBDriver,
		ConnectionString:   c.config.HistoryDBConnectionString,
		MaxOpenConnections: 2,
		MaxIdleConnections: 1,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the encrypted connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.EncryptedDB()
	if err != nil {
		return nil, fmt.Errorf("failed to get encrypted database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initMetricsProvider creates the Prometheus-backed provider when metrics are enabled.
func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.RunMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}
