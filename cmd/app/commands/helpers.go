// Package commands contains CLI command implementations for the application.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/allisson/colkeys/internal/app"
	schemaService "github.com/allisson/colkeys/internal/schema/service"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// CloseContainer flushes metrics and closes all resources in the container, logging any errors.
func CloseContainer(container *app.Container) {
	logger := container.Logger()
	if err := container.WriteMetrics(); err != nil {
		logger.Error("failed to write metrics", slog.Any("error", err))
	}
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// closeMigrate closes the migration instance and logs any errors.
func closeMigrate(m *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := m.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}

// parseStrategy converts a strategy flag to schemaService.Strategy.
func parseStrategy(strategy string) (schemaService.Strategy, error) {
	switch schemaService.Strategy(strategy) {
	case schemaService.StrategyCreateTable:
		return schemaService.StrategyCreateTable, nil
	case schemaService.StrategyAlterExisting:
		return schemaService.StrategyAlterExisting, nil
	default:
		return "", fmt.Errorf(
			"invalid strategy: %s (valid options: create-table, alter-existing)",
			strategy,
		)
	}
}

// validateFormat rejects output formats other than text and json.
func validateFormat(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}
	return nil
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(writer io.Writer, v any) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
