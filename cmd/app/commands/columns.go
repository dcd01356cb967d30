package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	migrationUsecase "github.com/allisson/colkeys/internal/migration/usecase"
)

// RunEncryptColumns recreates the keys and re-adds the configured table's
// columns encrypted. Existing rows are removed.
func RunEncryptColumns(
	ctx context.Context,
	migrationUseCase migrationUsecase.MigrationUseCase,
	logger *slog.Logger,
	writer io.Writer,
) error {
	logger.Info("encrypting columns")

	if err := migrationUseCase.EncryptColumns(ctx); err != nil {
		return fmt.Errorf("failed to encrypt columns: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "Columns encrypted.")
	logger.Info("columns encrypted")
	return nil
}

// RunRevertColumns re-adds the configured table's columns as plaintext and
// drops the keys.
func RunRevertColumns(
	ctx context.Context,
	migrationUseCase migrationUsecase.MigrationUseCase,
	logger *slog.Logger,
	writer io.Writer,
) error {
	logger.Info("reverting encrypted columns")

	if err := migrationUseCase.RevertColumns(ctx); err != nil {
		return fmt.Errorf("failed to revert columns: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "Columns reverted to plaintext.")
	logger.Info("columns reverted")
	return nil
}
