package usecase

import (
	"context"
	"time"

	"github.com/allisson/colkeys/internal/metrics"
	migrationDomain "github.com/allisson/colkeys/internal/migration/domain"
	schemaDomain "github.com/allisson/colkeys/internal/schema/domain"
	schemaService "github.com/allisson/colkeys/internal/schema/service"
)

const metricsDomain = "migration"

// migrationUseCaseWithMetrics decorates MigrationUseCase with metrics instrumentation.
type migrationUseCaseWithMetrics struct {
	next    MigrationUseCase
	metrics metrics.RunMetrics
}

// NewMigrationUseCaseWithMetrics wraps a MigrationUseCase with metrics recording.
func NewMigrationUseCaseWithMetrics(useCase MigrationUseCase, m metrics.RunMetrics) MigrationUseCase {
	return &migrationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (m *migrationUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	m.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// Run records metrics for full migration runs. A verification mismatch counts
// as an error, and each mismatched field is counted.
func (m *migrationUseCaseWithMetrics) Run(
	ctx context.Context,
	records []migrationDomain.Record,
	expected migrationDomain.Record,
) (*migrationDomain.RunReport, error) {
	start := time.Now()
	report, err := m.next.Run(ctx, records, expected)

	status := "success"
	if err != nil || (report != nil && report.Verification != nil && !report.Verification.Matched) {
		status = "error"
	}
	m.metrics.RecordOperation(ctx, metricsDomain, "run", status)
	m.metrics.RecordDuration(ctx, metricsDomain, "run", time.Since(start), status)

	if report == nil {
		return report, err
	}
	if report.Verification != nil && len(report.Verification.Mismatches) > 0 {
		fields := make([]string, 0, len(report.Verification.Mismatches))
		for _, mismatch := range report.Verification.Mismatches {
			fields = append(fields, mismatch.Field)
		}
		m.metrics.RecordMismatches(ctx, report.TableName, fields)
	}
	m.metrics.RecordRunFinished(ctx, string(report.State), report.FinishedAt)

	return report, err
}

// Teardown records metrics for teardown operations.
func (m *migrationUseCaseWithMetrics) Teardown(ctx context.Context) error {
	start := time.Now()
	err := m.next.Teardown(ctx)
	m.record(ctx, "teardown", start, err)
	return err
}

// Plan records metrics for dry-run plan operations.
func (m *migrationUseCaseWithMetrics) Plan(
	ctx context.Context,
	strategy schemaService.Strategy,
) (*schemaDomain.MigrationPlan, error) {
	start := time.Now()
	plan, err := m.next.Plan(ctx, strategy)
	m.record(ctx, "plan", start, err)
	return plan, err
}

// EncryptColumns records metrics for in-place column encryption.
func (m *migrationUseCaseWithMetrics) EncryptColumns(ctx context.Context) error {
	start := time.Now()
	err := m.next.EncryptColumns(ctx)
	m.record(ctx, "encrypt_columns", start, err)
	return err
}

// RevertColumns records metrics for column reverts.
func (m *migrationUseCaseWithMetrics) RevertColumns(ctx context.Context) error {
	start := time.Now()
	err := m.next.RevertColumns(ctx)
	m.record(ctx, "revert_columns", start, err)
	return err
}

// History is not instrumented.
func (m *migrationUseCaseWithMetrics) History(ctx context.Context, limit int) ([]*migrationDomain.Run, error) {
	return m.next.History(ctx, limit)
}
