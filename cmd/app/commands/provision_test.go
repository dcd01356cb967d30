package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	migrationDomain "github.com/allisson/colkeys/internal/migration/domain"
	migrationMocks "github.com/allisson/colkeys/internal/migration/usecase/mocks"
)

func sampleReport(state migrationDomain.State) *migrationDomain.RunReport {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &migrationDomain.RunReport{
		Run: migrationDomain.Run{
			ID:                uuid.Must(uuid.NewV7()),
			MasterKeyName:     "CMK_Auto1",
			EncryptionKeyName: "CEK_Auto1",
			TableName:         "Patients",
			State:             state,
			StartedAt:         started,
			FinishedAt:        started.Add(3 * time.Second),
		},
	}
}

func TestRunProvision(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	sample := migrationDomain.SamplePatient()
	records := []migrationDomain.Record{sample}

	t.Run("text-output-verified", func(t *testing.T) {
		report := sampleReport(migrationDomain.StateDone)
		report.Verification = &migrationDomain.VerificationResult{Matched: true}

		mockUseCase := &migrationMocks.MockMigrationUseCase{}
		mockUseCase.On("Run", ctx, records, sample).Return(report, nil)

		var out bytes.Buffer
		err := RunProvision(ctx, mockUseCase, logger, &out, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Master Key:      CMK_Auto1")
		require.Contains(t, out.String(), "State:           done")
		require.Contains(t, out.String(), "Verification passed")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output-verified", func(t *testing.T) {
		report := sampleReport(migrationDomain.StateDone)
		report.Verification = &migrationDomain.VerificationResult{Matched: true}

		mockUseCase := &migrationMocks.MockMigrationUseCase{}
		mockUseCase.On("Run", ctx, records, sample).Return(report, nil)

		var out bytes.Buffer
		err := RunProvision(ctx, mockUseCase, logger, &out, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"state": "done"`)
		require.Contains(t, out.String(), `"verified": true`)
		require.NotContains(t, out.String(), `"mismatches"`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("verification-mismatch", func(t *testing.T) {
		report := sampleReport(migrationDomain.StateDone)
		report.Verification = &migrationDomain.VerificationResult{
			Mismatches: []migrationDomain.FieldMismatch{
				{Field: "LastName", Expected: "Bloggs", Actual: "Blogs"},
			},
		}

		mockUseCase := &migrationMocks.MockMigrationUseCase{}
		mockUseCase.On("Run", ctx, records, sample).Return(report, nil)

		var out bytes.Buffer
		err := RunProvision(ctx, mockUseCase, logger, &out, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "verification failed: 1 mismatch(es)")
		require.Contains(t, out.String(), "LastName: expected Bloggs, got Blogs")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("run-failed-prints-report", func(t *testing.T) {
		runErr := &migrationDomain.StepError{
			Step: migrationDomain.StateCreatingSchema,
			Err:  migrationDomain.ErrStatementExecution,
		}
		report := sampleReport(migrationDomain.StateFailed)
		report.FailedStep = migrationDomain.StateCreatingSchema
		report.Error = runErr.Error()

		mockUseCase := &migrationMocks.MockMigrationUseCase{}
		mockUseCase.On("Run", ctx, records, sample).Return(report, runErr)

		var out bytes.Buffer
		err := RunProvision(ctx, mockUseCase, logger, &out, "json")

		require.Error(t, err)
		require.ErrorIs(t, err, migrationDomain.ErrStatementExecution)
		require.Contains(t, out.String(), `"failed_step": "creating_schema"`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("run-failed-without-report", func(t *testing.T) {
		mockUseCase := &migrationMocks.MockMigrationUseCase{}
		mockUseCase.On("Run", ctx, records, sample).Return(nil, errors.New("boom"))

		var out bytes.Buffer
		err := RunProvision(ctx, mockUseCase, logger, &out, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to provision")
		require.Empty(t, out.String())
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-format", func(t *testing.T) {
		mockUseCase := &migrationMocks.MockMigrationUseCase{}

		err := RunProvision(ctx, mockUseCase, logger, &bytes.Buffer{}, "yaml")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid format")
		mockUseCase.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
	})
}
