package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	migrationDomain "github.com/allisson/colkeys/internal/migration/domain"
	migrationUsecase "github.com/allisson/colkeys/internal/migration/usecase"
)

type runOutput struct {
	ID                string    `json:"id"`
	MasterKeyName     string    `json:"master_key_name"`
	EncryptionKeyName string    `json:"encryption_key_name"`
	TableName         string    `json:"table_name"`
	State             string    `json:"state"`
	FailedStep        string    `json:"failed_step,omitempty"`
	Error             string    `json:"error,omitempty"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// RunHistory lists the most recent migration runs, newest first.
//
// Requirements: HISTORY_DB_DRIVER set and the history database migrated.
func RunHistory(
	ctx context.Context,
	runRepository migrationUsecase.RunRepository,
	logger *slog.Logger,
	writer io.Writer,
	limit int,
	format string,
) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be a positive number, got: %d", limit)
	}
	if err := validateFormat(format); err != nil {
		return err
	}
	if runRepository == nil {
		return fmt.Errorf("run history is disabled: set HISTORY_DB_DRIVER and HISTORY_DB_CONNECTION_STRING")
	}

	runs, err := runRepository.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if format == "json" {
		out := make([]runOutput, 0, len(runs))
		for _, run := range runs {
			out = append(out, toRunOutput(run))
		}
		if err := writeJSON(writer, out); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputHistoryText(writer, runs)
	}

	logger.Info("history listed", slog.Int("count", len(runs)))
	return nil
}

func toRunOutput(run *migrationDomain.Run) runOutput {
	return runOutput{
		ID:                run.ID.String(),
		MasterKeyName:     run.MasterKeyName,
		EncryptionKeyName: run.EncryptionKeyName,
		TableName:         run.TableName,
		State:             string(run.State),
		FailedStep:        string(run.FailedStep),
		Error:             run.Error,
		StartedAt:         run.StartedAt,
		FinishedAt:        run.FinishedAt,
	}
}

func outputHistoryText(writer io.Writer, runs []*migrationDomain.Run) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(writer, "No runs recorded.")
		return
	}
	for _, run := range runs {
		_, _ = fmt.Fprintf(writer, "%s  %s  %-6s  %s/%s on %s  (%s)\n",
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.ID,
			run.State,
			run.MasterKeyName,
			run.EncryptionKeyName,
			run.TableName,
			run.Duration(),
		)
		if run.State == migrationDomain.StateFailed {
			_, _ = fmt.Fprintf(writer, "    failed at %s: %s\n", run.FailedStep, run.Error)
		}
	}
}
