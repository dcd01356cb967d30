// Package validation provides custom jellydator/validation rules shared by the
// configuration and schema layers.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/colkeys/internal/errors"
)

// placeholderValue is the marker left in unconfigured settings templates.
const placeholderValue = "FILL"

var (
	// identifierRegex accepts regular SQL Server identifiers (letters, digits, underscore).
	identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,127}$`)

	// sqlTypeRegex accepts a type name with an optional length/precision list,
	// e.g. int, datetime2, nvarchar(255), nvarchar(max), decimal(10, 2).
	sqlTypeRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*(\((\d+|max|MAX)(\s*,\s*\d+)?\))?$`)

	// collationRegex accepts collation names such as Latin1_General_BIN2.
	collationRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// SQLIdentifier validates a bare SQL identifier (table, column or key name).
// Identifiers are rendered into DDL without escaping, so this rule is the only
// thing standing between configuration and the generated SQL.
var SQLIdentifier = validation.NewStringRuleWithError(
	func(s string) bool {
		return identifierRegex.MatchString(s)
	},
	validation.NewError("validation_sql_identifier", "must be a valid SQL identifier"),
)

// SQLType validates a column type expression.
var SQLType = validation.NewStringRuleWithError(
	func(s string) bool {
		return sqlTypeRegex.MatchString(s)
	},
	validation.NewError("validation_sql_type", "must be a valid SQL column type"),
)

// Collation validates a collation name.
var Collation = validation.NewStringRuleWithError(
	func(s string) bool {
		return collationRegex.MatchString(s)
	},
	validation.NewError("validation_collation", "must be a valid collation name"),
)

// NotPlaceholder rejects values that were never filled in.
var NotPlaceholder = validation.NewStringRuleWithError(
	func(s string) bool {
		return !strings.EqualFold(strings.TrimSpace(s), placeholderValue)
	},
	validation.NewError("validation_placeholder", "must be set (placeholder value found)"),
)

// NoQuote rejects values containing a single quote. Key paths and provider names
// are rendered inside N'...' literals.
var NoQuote = validation.NewStringRuleWithError(
	func(s string) bool {
		return !strings.Contains(s, "'")
	},
	validation.NewError("validation_no_quote", "must not contain single quotes"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
