package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/allisson/colkeys/internal/errors"
	keyvaultDomain "github.com/allisson/colkeys/internal/keyvault/domain"
	keyvaultService "github.com/allisson/colkeys/internal/keyvault/service"
	schemaDomain "github.com/allisson/colkeys/internal/schema/domain"
)

// Strategy selects how encrypted columns are introduced.
type Strategy string

const (
	// StrategyCreateTable creates the table with encrypted columns.
	StrategyCreateTable Strategy = "create-table"

	// StrategyAlterExisting empties an existing table and re-adds its columns encrypted.
	StrategyAlterExisting Strategy = "alter-existing"
)

// SchemaKeyBinder builds the statements registering a master key, a wrapped
// encryption key and the encrypted columns bound to them.
//
// Identifiers are rendered without escaping. Callers validate them with
// schemaDomain.ValidateIdentifier; the only encoding applied here is the hex
// rendering of binary payloads.
type SchemaKeyBinder struct {
	client    keyvaultService.KeyVaultClient
	generator KeyMaterialGenerator
}

// NewSchemaKeyBinder creates a SchemaKeyBinder.
func NewSchemaKeyBinder(
	client keyvaultService.KeyVaultClient,
	generator KeyMaterialGenerator,
) *SchemaKeyBinder {
	return &SchemaKeyBinder{client: client, generator: generator}
}

// Authenticate obtains a KMS token ahead of signing so credential problems surface first.
func (b *SchemaKeyBinder) Authenticate(ctx context.Context, authority, resource string) error {
	_, err := b.client.Authenticate(ctx, authority, resource)
	return err
}

// BuildMasterKeyStatement signs keyPath with enclave computations allowed and
// renders CREATE COLUMN MASTER KEY. The output depends only on its inputs and
// the signature bytes.
func (b *SchemaKeyBinder) BuildMasterKeyStatement(
	ctx context.Context,
	name, keyPath string,
) (schemaDomain.Statement, schemaDomain.MasterKeyDescriptor, error) {
	signature, err := b.client.Sign(ctx, keyPath, true)
	if err != nil {
		return schemaDomain.Statement{}, schemaDomain.MasterKeyDescriptor{}, err
	}

	descriptor := schemaDomain.MasterKeyDescriptor{
		Name:                     name,
		ProviderName:             b.client.ProviderName(),
		KeyPath:                  keyPath,
		Signature:                signature,
		AllowEnclaveComputations: true,
	}

	sql := fmt.Sprintf(`CREATE COLUMN MASTER KEY [%s]
WITH (
    KEY_STORE_PROVIDER_NAME = N'%s',
    KEY_PATH = N'%s',
    ENCLAVE_COMPUTATIONS (SIGNATURE = %s)
);`, name, descriptor.ProviderName, keyPath, schemaDomain.HexLiteral(signature))

	return schemaDomain.Statement{
		Kind:   schemaDomain.KindCreateCMK,
		Object: name,
		SQL:    sql,
	}, descriptor, nil
}

// BuildEncryptionKeyStatement generates a fresh key, wraps it under the master
// key at keyPath and renders CREATE COLUMN ENCRYPTION KEY. The plaintext is
// zeroed as soon as the KMS returns.
func (b *SchemaKeyBinder) BuildEncryptionKeyStatement(
	ctx context.Context,
	name, masterKeyName, keyPath string,
) (schemaDomain.Statement, schemaDomain.DataEncryptionKey, error) {
	plaintext, err := b.generator.Generate(keyvaultDomain.KeySize)
	if err != nil {
		return schemaDomain.Statement{}, schemaDomain.DataEncryptionKey{}, err
	}
	wrapped, err := b.client.Wrap(ctx, keyPath, keyvaultDomain.AlgorithmRSAOAEP, plaintext)
	keyvaultDomain.Zero(plaintext)
	if err != nil {
		return schemaDomain.Statement{}, schemaDomain.DataEncryptionKey{}, err
	}

	key := schemaDomain.DataEncryptionKey{
		Name:          name,
		MasterKeyName: masterKeyName,
		Algorithm:     keyvaultDomain.AlgorithmRSAOAEP,
		WrappedKey:    wrapped,
	}

	sql := fmt.Sprintf(`CREATE COLUMN ENCRYPTION KEY [%s]
WITH VALUES (
    COLUMN_MASTER_KEY = [%s],
    ALGORITHM = '%s',
    ENCRYPTED_VALUE = %s
);`, name, masterKeyName, key.Algorithm, schemaDomain.HexLiteral(wrapped))

	return schemaDomain.Statement{
		Kind:     schemaDomain.KindCreateCEK,
		Object:   name,
		Requires: []string{masterKeyName},
		SQL:      sql,
	}, key, nil
}

// BuildEncryptedColumnClause renders the ENCRYPTED WITH clause of a column definition.
func (b *SchemaKeyBinder) BuildEncryptedColumnClause(col schemaDomain.EncryptedColumnSpec) string {
	return fmt.Sprintf(
		"ENCRYPTED WITH (COLUMN_ENCRYPTION_KEY = [%s], ENCRYPTION_TYPE = %s, ALGORITHM = '%s')",
		col.EncryptionKeyName, col.EncryptionType(), schemaDomain.ColumnEncryptionAlgorithm,
	)
}

func nullability(nullable bool) string {
	if nullable {
		return "NULL"
	}
	return "NOT NULL"
}

func (b *SchemaKeyBinder) encryptedColumnDefinition(col schemaDomain.EncryptedColumnSpec) string {
	var def strings.Builder
	fmt.Fprintf(&def, "[%s] %s", col.Name, col.SQLType)
	if collation := col.EffectiveCollation(); collation != "" {
		fmt.Fprintf(&def, " COLLATE %s", collation)
	}
	fmt.Fprintf(&def, " %s %s", b.BuildEncryptedColumnClause(col), nullability(col.Nullable))
	return def.String()
}

func plainColumnDefinition(col schemaDomain.PlainColumnSpec) string {
	def := fmt.Sprintf("[%s] %s", col.Name, col.SQLType)
	if col.Identity {
		def += " IDENTITY(1,1)"
	}
	return def + " " + nullability(col.Nullable)
}

// revertedColumnDefinition renders an encrypted column as plaintext.
func revertedColumnDefinition(col schemaDomain.EncryptedColumnSpec) string {
	def := fmt.Sprintf("[%s] %s", col.Name, col.SQLType)
	if col.Collation != "" {
		def += " COLLATE " + col.Collation
	}
	return def + " " + nullability(col.Nullable)
}

// BuildCreateTableStatement renders CREATE TABLE with plain columns followed by
// encrypted columns and an optional primary key constraint.
func (b *SchemaKeyBinder) BuildCreateTableStatement(table schemaDomain.TableSpec) schemaDomain.Statement {
	var lines []string
	var primaryKey []string
	for _, col := range table.PlainColumns {
		lines = append(lines, plainColumnDefinition(col))
		if col.PrimaryKey {
			primaryKey = append(primaryKey, "["+col.Name+"]")
		}
	}
	for _, col := range table.EncryptedColumns {
		lines = append(lines, b.encryptedColumnDefinition(col))
	}
	if len(primaryKey) > 0 {
		lines = append(lines, fmt.Sprintf("CONSTRAINT [PK_%s] PRIMARY KEY (%s)", table.Name, strings.Join(primaryKey, ", ")))
	}

	sql := fmt.Sprintf("CREATE TABLE %s (\n    %s\n);", table.QualifiedName(), strings.Join(lines, ",\n    "))

	return schemaDomain.Statement{
		Kind:     schemaDomain.KindCreateTable,
		Object:   table.Name,
		Requires: table.EncryptionKeyNames(),
		SQL:      sql,
	}
}

// BuildDropStatements renders idempotent drops for the table, then the
// encryption key, then the master key. Running them when nothing exists is a no-op.
func (b *SchemaKeyBinder) BuildDropStatements(
	names schemaDomain.KeyNames,
	table schemaDomain.TableSpec,
) []schemaDomain.Statement {
	return []schemaDomain.Statement{
		{
			Kind:   schemaDomain.KindDropTable,
			Object: table.Name,
			SQL: fmt.Sprintf(
				"IF EXISTS (SELECT * FROM sys.objects WHERE name = N'%s' AND schema_id = SCHEMA_ID(N'%s')) BEGIN DROP TABLE %s END",
				table.Name, table.SchemaName(), table.QualifiedName(),
			),
		},
		{
			Kind:   schemaDomain.KindDropCEK,
			Object: names.EncryptionKey,
			SQL: fmt.Sprintf(
				"IF EXISTS (SELECT * FROM sys.column_encryption_keys WHERE name = N'%s') BEGIN DROP COLUMN ENCRYPTION KEY [%s] END",
				names.EncryptionKey, names.EncryptionKey,
			),
		},
		{
			Kind:   schemaDomain.KindDropCMK,
			Object: names.MasterKey,
			SQL: fmt.Sprintf(
				"IF EXISTS (SELECT * FROM sys.column_master_keys WHERE name = N'%s') BEGIN DROP COLUMN MASTER KEY [%s] END",
				names.MasterKey, names.MasterKey,
			),
		},
	}
}

// resetColumns empties the table and drops its encrypted columns if present.
// Columns are re-added NOT NULL, which requires an empty table.
func resetColumns(table schemaDomain.TableSpec) []schemaDomain.Statement {
	drops := make([]string, 0, len(table.EncryptedColumns))
	for _, col := range table.EncryptedColumns {
		drops = append(drops, "COLUMN IF EXISTS ["+col.Name+"]")
	}
	return []schemaDomain.Statement{
		{
			Kind:   schemaDomain.KindAlterColumn,
			Object: table.Name,
			SQL:    fmt.Sprintf("DELETE FROM %s;", table.QualifiedName()),
		},
		{
			Kind:   schemaDomain.KindAlterColumn,
			Object: table.Name,
			SQL:    fmt.Sprintf("ALTER TABLE %s DROP %s;", table.QualifiedName(), strings.Join(drops, ", ")),
		},
	}
}

// BuildAlterColumnStatements encrypts the columns of an existing table in place.
// Existing rows are deleted.
func (b *SchemaKeyBinder) BuildAlterColumnStatements(table schemaDomain.TableSpec) []schemaDomain.Statement {
	stmts := resetColumns(table)
	for _, col := range table.EncryptedColumns {
		stmts = append(stmts, schemaDomain.Statement{
			Kind:     schemaDomain.KindAlterColumn,
			Object:   table.Name,
			Requires: []string{col.EncryptionKeyName},
			SQL:      fmt.Sprintf("ALTER TABLE %s ADD %s;", table.QualifiedName(), b.encryptedColumnDefinition(col)),
		})
	}
	return stmts
}

// BuildRevertColumnStatements is the down path of BuildAlterColumnStatements: the
// encrypted columns are re-added as plaintext. Existing rows are deleted.
func (b *SchemaKeyBinder) BuildRevertColumnStatements(table schemaDomain.TableSpec) []schemaDomain.Statement {
	stmts := resetColumns(table)
	for _, col := range table.EncryptedColumns {
		stmts = append(stmts, schemaDomain.Statement{
			Kind:   schemaDomain.KindAlterColumn,
			Object: table.Name,
			SQL:    fmt.Sprintf("ALTER TABLE %s ADD %s;", table.QualifiedName(), revertedColumnDefinition(col)),
		})
	}
	return stmts
}

// BuildPlan builds and validates the full plan: drops, master key, encryption
// key, then the table or column statements selected by strategy.
func (b *SchemaKeyBinder) BuildPlan(
	ctx context.Context,
	names schemaDomain.KeyNames,
	keyPath string,
	table schemaDomain.TableSpec,
	strategy Strategy,
) (*schemaDomain.MigrationPlan, error) {
	plan := &schemaDomain.MigrationPlan{}
	switch strategy {
	case StrategyCreateTable:
		plan.DropStatements = b.BuildDropStatements(names, table)
	case StrategyAlterExisting:
		// the table survives; its columns must no longer reference the old key
		plan.DropStatements = b.BuildDropStatements(names, table)[1:]
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown strategy %q", strategy)
	}

	cmk, _, err := b.BuildMasterKeyStatement(ctx, names.MasterKey, keyPath)
	if err != nil {
		return nil, err
	}
	cek, _, err := b.BuildEncryptionKeyStatement(ctx, names.EncryptionKey, names.MasterKey, keyPath)
	if err != nil {
		return nil, err
	}
	plan.CreateKeyStatements = []schemaDomain.Statement{cmk, cek}

	if strategy == StrategyCreateTable {
		plan.CreateTableStatements = []schemaDomain.Statement{b.BuildCreateTableStatement(table)}
	} else {
		plan.AlterColumnStatements = b.BuildAlterColumnStatements(table)
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}
