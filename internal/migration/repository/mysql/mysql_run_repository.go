// Package mysql implements migration run history persistence for MySQL.
package mysql

import (
	"context"
	"database/sql"

	"github.com/allisson/colkeys/internal/database"
	apperrors "github.com/allisson/colkeys/internal/errors"
	migrationDomain "github.com/allisson/colkeys/internal/migration/domain"
)

// MySQLRunRepository implements Run persistence for MySQL.
// Uses BINARY(16) for UUID storage.
type MySQLRunRepository struct {
	db *sql.DB
}

// Create inserts a finished run.
func (m *MySQLRunRepository) Create(ctx context.Context, run *migrationDomain.Run) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO migration_runs (id, master_key_name, encryption_key_name, table_name, state, failed_step, error, started_at, finished_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := run.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal migration run id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (m *MySQLRunRepository) List(ctx context.Context, limit int) ([]*migrationDomain.Run, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, master_key_name, encryption_key_name, table_name, state, failed_step, error, started_at, finished_at
			  FROM migration_runs
			  ORDER BY started_at DESC
			  LIMIT ?`

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
		var id []byte
		var state, failedStep string

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

		if err := run.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal migration run id")
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

// NewMySQLRunRepository creates a new MySQL Run repository.
func NewMySQLRunRepository(db *sql.DB) *MySQLRunRepository {
	return &MySQLRunRepository{db: db}
}
