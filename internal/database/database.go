// Package database provides database connection management and utilities.
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/aecmk"
)

// DriverSQLServer is the database/sql driver name of SQL Server.
const DriverSQLServer = "sqlserver"

// Config holds database configuration settings.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// configure applies the pool settings and pings the database.
func configure(db *sql.DB, cfg Config) (*sql.DB, error) {
	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Connect establishes a database connection with the given configuration.
func Connect(cfg Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return configure(db, cfg)
}

// ConnectEncrypted opens a SQL Server connection with column encryption enabled.
// provider is registered on the connector under providerName and decrypts the
// column encryption keys the driver reads from the server.
func ConnectEncrypted(
	cfg Config,
	providerName string,
	provider aecmk.ColumnEncryptionKeyProvider,
) (*sql.DB, error) {
	connector, err := NewEncryptedConnector(cfg.ConnectionString, providerName, provider)
	if err != nil {
		return nil, err
	}

	return configure(sql.OpenDB(connector), cfg)
}

// NewEncryptedConnector builds a connector with columnencryption=true and provider registered.
func NewEncryptedConnector(
	dsn string,
	providerName string,
	provider aecmk.ColumnEncryptionKeyProvider,
) (*mssql.Connector, error) {
	dsn, err := withColumnEncryption(dsn)
	if err != nil {
		return nil, err
	}

	connector, err := mssql.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlserver connector: %w", err)
	}
	connector.RegisterCekProvider(providerName, provider)

	return connector, nil
}
