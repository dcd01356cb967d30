// Package sqlserver implements migration run history persistence for SQL Server.
package sqlserver

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/colkeys/internal/database"
	apperrors "github.com/allisson/colkeys/internal/errors"
	migrationDomain "github.com/allisson/colkeys/internal/migration/domain"
)

// SQLServerRunRepository implements Run persistence for SQL Server.
// IDs are stored as their canonical string form to avoid the mixed-endian
// UNIQUEIDENTIFIER layout.
type SQLServerRunRepository struct {
	db *sql.DB
}

// Create inserts a finished run.
func (s *SQLServerRunRepository) Create(ctx context.Context, run *migrationDomain.Run) error {
	querier := database.GetTx(ctx, s.db)

	query := `INSERT INTO dbo.migration_runs (id, master_key_name, encryption_key_name, table_name, state, failed_step, error, started_at, finished_at)
			  VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		run.ID.String(),
		run.MasterKeyName,
		run.EncryptionKeyName,
		run.TableName,
		string(run.State),
		string(run.FailedStep),
		run.Error,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create migration run")
	}

	return nil
}

// List returns up to limit runs, newest first.
func (s *SQLServerRunRepository) List(ctx context.Context, limit int) ([]*migrationDomain.Run, error) {
	querier := database.GetTx(ctx, s.db)

	query := `SELECT TOP (@p1) id, master_key_name, encryption_key_name, table_name, state, failed_step, error, started_at, finished_at
			  FROM dbo.migration_runs
			  ORDER BY started_at DESC`

	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list migration runs")
	}
	defer func() {
		_ = rows.Close()
	}()

	runs := make([]*migrationDomain.Run, 0)
	for rows.Next() {
		var run migrationDomain.Run
		var id, state, failedStep string

		err := rows.Scan(
			&id,
			&run.MasterKeyName,
			&run.EncryptionKeyName,
			&run.TableName,
			&state,
			&failedStep,
			&run.Error,
			&run.StartedAt,
			&run.FinishedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan migration run")
		}

		run.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse migration run id")
		}

		run.State = migrationDomain.State(state)
		run.FailedStep = migrationDomain.State(failedStep)
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate migration runs")
	}

	return runs, nil
}

// NewSQLServerRunRepository creates a new SQL Server Run repository.
func NewSQLServerRunRepository(db *sql.DB) *SQLServerRunRepository {
	return &SQLServerRunRepository{db: db}
}
