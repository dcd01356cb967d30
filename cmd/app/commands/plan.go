package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	migrationUsecase "github.com/allisson/colkeys/internal/migration/usecase"
)

// RunPlan prints the statements a migration would execute, in order, without
// executing them. Keys are still signed and wrapped so the output is runnable.
func RunPlan(
	ctx context.Context,
	migrationUseCase migrationUsecase.MigrationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	strategy string,
) error {
	parsed, err := parseStrategy(strategy)
	if err != nil {
		return err
	}

	logger.Info("building migration plan", slog.String("strategy", string(parsed)))

	plan, err := migrationUseCase.Plan(ctx, parsed)
	if err != nil {
		return fmt.Errorf("failed to build plan: %w", err)
	}

	_, _ = io.WriteString(writer, plan.SQL())
	logger.Info("plan built", slog.Int("statements", len(plan.Statements())))
	return nil
}
