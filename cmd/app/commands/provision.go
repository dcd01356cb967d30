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

type mismatchOutput struct {
	Field    string `json:"field"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
}

type reportOutput struct {
	ID                string           `json:"id"`
	MasterKeyName     string           `json:"master_key_name"`
	EncryptionKeyName string           `json:"encryption_key_name"`
	TableName         string           `json:"table_name"`
	State             string           `json:"state"`
	FailedStep        string           `json:"failed_step,omitempty"`
	Error             string           `json:"error,omitempty"`
	StartedAt         time.Time        `json:"started_at"`
	FinishedAt        time.Time        `json:"finished_at"`
	Verified          *bool            `json:"verified,omitempty"`
	Mismatches        []mismatchOutput `json:"mismatches,omitempty"`
}

// RunProvision executes a full provisioning run seeded with the sample patient
// and verifies it reads back through the encrypted connection.
//
// Requirements: SQL Server reachable and the key vault key granted sign, verify,
// wrapKey and unwrapKey.
func RunProvision(
	ctx context.Context,
	migrationUseCase migrationUsecase.MigrationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("provisioning column encryption")

	sample := migrationDomain.SamplePatient()
	report, runErr := migrationUseCase.Run(ctx, []migrationDomain.Record{sample}, sample)
	if report == nil {
		return fmt.Errorf("failed to provision: %w", runErr)
	}

	if format == "json" {
		if err := writeJSON(writer, toReportOutput(report)); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputReportText(writer, report)
	}

	if runErr != nil {
		return fmt.Errorf("failed to provision: %w", runErr)
	}
	if report.Verification != nil && !report.Verification.Matched {
		return fmt.Errorf("verification failed: %d mismatch(es)", len(report.Verification.Mismatches))
	}

	logger.Info("provisioning completed",
		slog.String("run_id", report.ID.String()),
		slog.Duration("duration", report.Duration()),
	)
	return nil
}

func toReportOutput(report *migrationDomain.RunReport) reportOutput {
	out := reportOutput{
		ID:                report.ID.String(),
		MasterKeyName:     report.MasterKeyName,
		EncryptionKeyName: report.EncryptionKeyName,
		TableName:         report.TableName,
		State:             string(report.State),
		FailedStep:        string(report.FailedStep),
		Error:             report.Error,
		StartedAt:         report.StartedAt,
		FinishedAt:        report.FinishedAt,
	}
	if report.Verification != nil {
		matched := report.Verification.Matched
		out.Verified = &matched
		for _, m := range report.Verification.Mismatches {
			out.Mismatches = append(out.Mismatches, mismatchOutput(m))
		}
	}
	return out
}

func outputReportText(writer io.Writer, report *migrationDomain.RunReport) {
	_, _ = fmt.Fprintf(writer, "Column Encryption Provisioning\n")
	_, _ = fmt.Fprintf(writer, "==============================\n\n")
	_, _ = fmt.Fprintf(writer, "Run ID:          %s\n", report.ID)
	_, _ = fmt.Fprintf(writer, "Master Key:      %s\n", report.MasterKeyName)
	_, _ = fmt.Fprintf(writer, "Encryption Key:  %s\n", report.EncryptionKeyName)
	_, _ = fmt.Fprintf(writer, "Table:           %s\n", report.TableName)
	_, _ = fmt.Fprintf(writer, "State:           %s\n", report.State)
	_, _ = fmt.Fprintf(writer, "Duration:        %s\n", report.Duration())

	if report.State == migrationDomain.StateFailed {
		_, _ = fmt.Fprintf(writer, "Failed Step:     %s\n", report.FailedStep)
		_, _ = fmt.Fprintf(writer, "Error:           %s\n", report.Error)
		return
	}

	switch {
	case report.Verification == nil:
		_, _ = fmt.Fprintf(writer, "\nVerification skipped.\n")
	case report.Verification.Matched:
		_, _ = fmt.Fprintf(writer, "\nVerification passed: record read back unchanged.\n")
	default:
		_, _ = fmt.Fprintf(writer, "\nWARNING: verification failed!\n\n")
		for _, m := range report.Verification.Mismatches {
			_, _ = fmt.Fprintf(writer, "  - %s: expected %v, got %v\n", m.Field, m.Expected, m.Actual)
		}
	}
}
