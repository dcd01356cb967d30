package usecase

import (
	"context"
	"database/sql"
	"reflect"
	"strings"
	"time"

	"github.com/allisson/colkeys/internal/database"
	"github.com/allisson/colkeys/internal/errors"
	migrationDomain "github.com/allisson/colkeys/internal/migration/domain"
	schemaDomain "github.com/allisson/colkeys/internal/schema/domain"
)

// VerificationProbe reads a record back by its filter column on the encrypted
// connection. The driver encrypts the filter parameter, which only works when
// the filter column is deterministic.
type VerificationProbe struct {
	db    *sql.DB
	table schemaDomain.TableSpec
}

// NewVerificationProbe creates a probe for table on db, a connection with column encryption enabled.
func NewVerificationProbe(db *sql.DB, table schemaDomain.TableSpec) *VerificationProbe {
	return &VerificationProbe{db: db, table: table}
}

// Verify compares every field of expected with the stored row. Differences are
// reported as mismatches; only query failures are returned as errors.
func (p *VerificationProbe) Verify(
	ctx context.Context,
	expected migrationDomain.Record,
) (migrationDomain.VerificationResult, error) {
	filter, ok := p.table.EncryptedColumn(p.table.FilterColumn)
	if !ok {
		return migrationDomain.VerificationResult{}, errors.Wrapf(
			schemaDomain.ErrInvalidTable, "filter column %q is not an encrypted column", p.table.FilterColumn,
		)
	}
	if filter.Randomized {
		return migrationDomain.VerificationResult{}, errors.Wrapf(migrationDomain.ErrRandomizedFilter, "%s", filter.Name)
	}
	filterValue, ok := expected.Get(filter.Name)
	if !ok {
		return migrationDomain.VerificationResult{}, errors.Wrapf(migrationDomain.ErrMissingFilterValue, "%s", filter.Name)
	}

	columns := expected.Names()
	for i, name := range columns {
		if err := schemaDomain.ValidateIdentifier(name); err != nil {
			return migrationDomain.VerificationResult{}, err
		}
		if !p.table.HasColumn(name) {
			return migrationDomain.VerificationResult{}, errors.Wrapf(
				schemaDomain.ErrInvalidTable, "%s is not a column of %s", name, p.table.Name,
			)
		}
		columns[i] = "[" + name + "]"
	}
	query := "SELECT " + strings.Join(columns, ", ") +
		" FROM " + p.table.QualifiedName() +
		" WHERE [" + filter.Name + "] = @filter"

	querier := database.GetTx(ctx, p.db)
	rows, err := querier.QueryContext(ctx, query, sql.Named("filter", filterValue))
	if err != nil {
		return migrationDomain.VerificationResult{}, errors.Join(migrationDomain.ErrStatementExecution, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return migrationDomain.VerificationResult{}, errors.Join(migrationDomain.ErrStatementExecution, err)
		}
		return migrationDomain.VerificationResult{
			Mismatches: []migrationDomain.FieldMismatch{
				{Field: migrationDomain.MismatchRow, Expected: filterValue, Actual: nil},
			},
		}, nil
	}

	actual := make([]any, len(expected))
	dest := make([]any, len(expected))
	for i := range actual {
		dest[i] = &actual[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return migrationDomain.VerificationResult{}, errors.Join(migrationDomain.ErrStatementExecution, err)
	}

	result := migrationDomain.VerificationResult{Matched: true}
	for i, f := range expected {
		if !equalValues(f.Value, actual[i]) {
			result.Matched = false
			result.Mismatches = append(result.Mismatches, migrationDomain.FieldMismatch{
				Field:    f.Name,
				Expected: f.Value,
				Actual:   normalize(actual[i]),
			})
		}
	}
	return result, nil
}

// normalize maps driver representations onto comparable Go values.
func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.UTC()
	default:
		return v
	}
}

func equalValues(expected, actual any) bool {
	e, a := normalize(expected), normalize(actual)
	if et, ok := e.(time.Time); ok {
		at, ok := a.(time.Time)
		return ok && et.Equal(at)
	}
	return reflect.DeepEqual(e, a)
}
