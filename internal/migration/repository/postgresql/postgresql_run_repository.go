// Package postgresql implements migration run history persistence for PostgreSQL.
package postgresql

import (
	"context"
	"database/sql"

	"github.com/allisson/colkeys/internal/database"
	apperrors "github.com/allisson/colkeys/internal/errors"
	migrationDomain "github.com/allisson/colkeys/internal/migration/domain"
)

// PostgreSQLRunRepository implements Run persistence for PostgreSQL.
type PostgreSQLRunRepository struct {
	db *sql.DB
}

// Create inserts a finished run.
func (p *PostgreSQLRunRepository) Create(ctx context.Context, run *migrationDomain.Run) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO migration_runs (id, master_key_name, encryption_key_name, table_name, state, failed_step, error, started_at, finished_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		run.ID,
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
func (p *PostgreSQLRunRepository) List(ctx context.Context, limit int) ([]*migrationDomain.Run, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, master_key_name, encryption_key_name, table_name, state, failed_step, error, started_at, finished_at
			  FROM migration_runs
			  ORDER BY started_at DESC
			  LIMIT $1`

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
		var state, failedStep string

		err := rows.Scan(
			&run.ID,
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

		run.State = migrationDomain.State(state)
		run.FailedStep = migrationDomain.State(failedStep)
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate migration runs")
	}

	return runs, nil
}

// NewPostgreSQLRunRepository creates a new PostgreSQL Run repository.
func NewPostgreSQLRunRepository(db *sql.DB) *PostgreSQLRunRepository {
	return &PostgreSQLRunRepository{db: db}
}
