package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	migrationMocks "github.com/allisson/colkeys/internal/migration/usecase/mocks"
)

func TestRunTeardown(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("success", func(t *testing.T) {
		mockUseCase := &migrationMocks.MockMigrationUseCase{}
		mockUseCase.On("Teardown", ctx).Return(nil)

		var out bytes.Buffer
		err := RunTeardown(ctx, mockUseCase, logger, &out)

		require.NoError(t, err)
		require.Contains(t, out.String(), "Teardown completed")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("error", func(t *testing.T) {
		mockUseCase := &migrationMocks.MockMigrationUseCase{}
		mockUseCase.On("Teardown", ctx).Return(errors.New("permission denied"))

		var out bytes.Buffer
		err := RunTeardown(ctx, mockUseCase, logger, &out)

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to tear down: permission denied")
		require.Empty(t, out.String())
		mockUseCase.AssertExpectations(t)
	})
}
