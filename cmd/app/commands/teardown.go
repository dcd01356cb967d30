package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	migrationUsecase "github.com/allisson/colkeys/internal/migration/usecase"
)

// RunTeardown drops the table, the encryption key and the master key. Objects
// that do not exist are skipped, so running it twice is safe.
func RunTeardown(
	ctx context.Context,
	migrationUseCase migrationUsecase.MigrationUseCase,
	logger *slog.Logger,
	writer io.Writer,
) error {
	logger.Info("tearing down column encryption objects")

	if err := migrationUseCase.Teardown(ctx); err != nil {
		return fmt.Errorf("failed to tear down: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "Teardown completed: table, encryption key and master key dropped.")
	logger.Info("teardown completed")
	return nil
}
