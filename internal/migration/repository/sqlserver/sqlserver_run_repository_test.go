package sqlserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	migrationDomain "github.com/allisson/colkeys/internal/migration/domain"
)

var runColumns = []string{
	"id", "master_key_name", "encryption_key_name", "table_name",
	"state", "failed_step", "error", "started_at", "finished_at",
}

func newRun() *migrationDomain.Run {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return &migrationDomain.Run{
		ID:                uuid.Must(uuid.NewV7()),
		MasterKeyName:     "CMK_Auto1",
		EncryptionKeyName: "CEK_Auto1",
		TableName:         "Patients",
		State:             migrationDomain.StateFailed,
		FailedStep:        migrationDomain.StateCreatingSchema,
		Error:             "step creating_schema: statement execution failed",
		StartedAt:         started,
		FinishedAt:        started.Add(3 * time.Second),
	}
}

func TestNewSQLServerRunRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	repo := NewSQLServerRunRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &SQLServerRunRepository{}, repo)
}

func TestSQLServerRunRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
		}()

		run := newRun()
		mock.ExpectExec("INSERT INTO dbo.migration_runs").
			WithArgs(
				run.ID.String(),
				"CMK_Auto1",
				"CEK_Auto1",
				"Patients",
				"failed",
				"creating_schema",
				run.Error,
				run.StartedAt,
				run.FinishedAt,
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err = NewSQLServerRunRepository(db).Create(ctx, run)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
		}()

		mock.ExpectExec("INSERT INTO dbo.migration_runs").WillReturnError(errors.New("relation does not exist"))

		err = NewSQLServerRunRepository(db).Create(ctx, newRun())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create migration run")
	})
}

func TestSQLServerRunRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
		}()

		run := newRun()
		mock.ExpectQuery("SELECT (.+) FROM dbo.migration_runs").
			WithArgs(10).
			WillReturnRows(sqlmock.NewRows(runColumns).AddRow(
				run.ID.String(),
				run.MasterKeyName,
				run.EncryptionKeyName,
				run.TableName,
				"failed",
				"creating_schema",
				run.Error,
				run.StartedAt,
				run.FinishedAt,
			))

		runs, err := NewSQLServerRunRepository(db).List(ctx, 10)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, run, runs[0])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_Empty", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
		}()

		mock.ExpectQuery("SELECT (.+) FROM dbo.migration_runs").WillReturnRows(sqlmock.NewRows(runColumns))

		runs, err := NewSQLServerRunRepository(db).List(ctx, 10)
		require.NoError(t, err)
		assert.NotNil(t, runs)
		assert.Empty(t, runs)
	})

	t.Run("Error_Query", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
		}()

		mock.ExpectQuery("SELECT (.+) FROM dbo.migration_runs").WillReturnError(errors.New("connection refused"))

		_, err = NewSQLServerRunRepository(db).List(ctx, 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list migration runs")
	})
}
