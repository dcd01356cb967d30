package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	migrationDomain "github.com/allisson/colkeys/internal/migration/domain"
	migrationMocks "github.com/allisson/colkeys/internal/migration/usecase/mocks"
)

func TestRunHistory(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	done := sampleReport(migrationDomain.StateDone).Run
	failed := sampleReport(migrationDomain.StateFailed).Run
	failed.FailedStep = migrationDomain.StateCreatingSchema
	failed.Error = "creating_schema: statement execution failed"

	t.Run("text-output", func(t *testing.T) {
		mockRepo := &migrationMocks.MockRunRepository{}
		mockRepo.On("List", ctx, 10).Return([]*migrationDomain.Run{&failed, &done}, nil)

		var out bytes.Buffer
		err := RunHistory(ctx, mockRepo, logger, &out, 10, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), done.ID.String())
		require.Contains(t, out.String(), "CMK_Auto1/CEK_Auto1 on Patients")
		require.Contains(t, out.String(), "failed at creating_schema: creating_schema: statement execution failed")
		mockRepo.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockRepo := &migrationMocks.MockRunRepository{}
		mockRepo.On("List", ctx, 5).Return([]*migrationDomain.Run{&done}, nil)

		var out bytes.Buffer
		err := RunHistory(ctx, mockRepo, logger, &out, 5, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"id": "`+done.ID.String()+`"`)
		require.Contains(t, out.String(), `"state": "done"`)
		require.NotContains(t, out.String(), `"failed_step"`)
		mockRepo.AssertExpectations(t)
	})

	t.Run("empty", func(t *testing.T) {
		mockRepo := &migrationMocks.MockRunRepository{}
		mockRepo.On("List", ctx, 10).Return([]*migrationDomain.Run{}, nil)

		var out bytes.Buffer
		err := RunHistory(ctx, mockRepo, logger, &out, 10, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "No runs recorded.")
		mockRepo.AssertExpectations(t)
	})

	t.Run("empty-json", func(t *testing.T) {
		mockRepo := &migrationMocks.MockRunRepository{}
		mockRepo.On("List", ctx, 10).Return([]*migrationDomain.Run{}, nil)

		var out bytes.Buffer
		err := RunHistory(ctx, mockRepo, logger, &out, 10, "json")

		require.NoError(t, err)
		require.Equal(t, "[]\n", out.String())
		mockRepo.AssertExpectations(t)
	})

	t.Run("disabled", func(t *testing.T) {
		err := RunHistory(ctx, nil, logger, &bytes.Buffer{}, 10, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "run history is disabled")
	})

	t.Run("invalid-limit", func(t *testing.T) {
		mockRepo := &migrationMocks.MockRunRepository{}

		err := RunHistory(ctx, mockRepo, logger, &bytes.Buffer{}, 0, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "limit must be a positive number")
	})

	t.Run("list-error", func(t *testing.T) {
		mockRepo := &migrationMocks.MockRunRepository{}
		mockRepo.On("List", ctx, 10).Return(nil, errors.New("connection refused"))

		err := RunHistory(ctx, mockRepo, logger, &bytes.Buffer{}, 10, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to list runs: connection refused")
		mockRepo.AssertExpectations(t)
	})
}
