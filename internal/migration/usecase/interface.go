// Package usecase sequences column encryption migrations: idempotent teardown,
// master key and encryption key creation, schema creation, seeding through the
// encrypted connection and round-trip verification.
package usecase

import (
	"context"

	migrationDomain "github.com/allisson/colkeys/internal/migration/domain"
	schemaDomain "github.com/allisson/colkeys/internal/schema/domain"
	schemaService "github.com/allisson/colkeys/internal/schema/service"
)

// StatementBuilder renders the statements a migration executes.
type StatementBuilder interface {
	Authenticate(ctx context.Context, authority, resource string) error
	BuildMasterKeyStatement(
		ctx context.Context,
		name, keyPath string,
	) (schemaDomain.Statement, schemaDomain.MasterKeyDescriptor, error)
	BuildEncryptionKeyStatement(
		ctx context.Context,
		name, masterKeyName, keyPath string,
	) (schemaDomain.Statement, schemaDomain.DataEncryptionKey, error)
	BuildCreateTableStatement(table schemaDomain.TableSpec) schemaDomain.Statement
	BuildDropStatements(names schemaDomain.KeyNames, table schemaDomain.TableSpec) []schemaDomain.Statement
	BuildAlterColumnStatements(table schemaDomain.TableSpec) []schemaDomain.Statement
	BuildRevertColumnStatements(table schemaDomain.TableSpec) []schemaDomain.Statement
	BuildPlan(
		ctx context.Context,
		names schemaDomain.KeyNames,
		keyPath string,
		table schemaDomain.TableSpec,
		strategy schemaService.Strategy,
	) (*schemaDomain.MigrationPlan, error)
}

// Prober reads a record back through the encrypted connection and compares it.
type Prober interface {
	Verify(ctx context.Context, expected migrationDomain.Record) (migrationDomain.VerificationResult, error)
}

// RunRepository persists migration run history.
type RunRepository interface {
	Create(ctx context.Context, run *migrationDomain.Run) error
	List(ctx context.Context, limit int) ([]*migrationDomain.Run, error)
}

// MigrationUseCase is the public surface of the orchestrator.
type MigrationUseCase interface {
	// Run drops existing objects, provisions keys and the table, seeds records
	// and verifies expected. Objects are dropped again on the way out unless
	// KeepObjects is set and the run succeeded.
	Run(
		ctx context.Context,
		records []migrationDomain.Record,
		expected migrationDomain.Record,
	) (*migrationDomain.RunReport, error)

	// Teardown drops the table, the encryption key and the master key if they exist.
	Teardown(ctx context.Context) error

	// Plan builds the statements of a migration without executing them.
	Plan(ctx context.Context, strategy schemaService.Strategy) (*schemaDomain.MigrationPlan, error)

	// EncryptColumns recreates the keys and re-adds the table's columns encrypted.
	EncryptColumns(ctx context.Context) error

	// RevertColumns re-adds the table's columns as plaintext and drops the keys.
	RevertColumns(ctx context.Context) error

	// History lists the most recent runs, newest first.
	History(ctx context.Context, limit int) ([]*migrationDomain.Run, error)
}
