package domain

import (
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/allisson/colkeys/internal/errors"
	customValidation "github.com/allisson/colkeys/internal/validation"
)

// EncryptedColumnSpec describes a column encrypted client side.
//
// Randomized columns produce different ciphertext for equal plaintext and cannot
// be used in equality filters. Deterministic columns can.
type EncryptedColumnSpec struct {
	Name              string
	SQLType           string // e.g. nvarchar(20)
	Collation         string // empty selects BinaryCollation for character types
	Nullable          bool
	EncryptionKeyName string
	Randomized        bool
}

// EncryptionType returns RANDOMIZED or DETERMINISTIC.
func (c EncryptedColumnSpec) EncryptionType() string {
	if c.Randomized {
		return "RANDOMIZED"
	}
	return "DETERMINISTIC"
}

// IsCharacter reports whether the column holds character data and therefore needs a collation.
func (c EncryptedColumnSpec) IsCharacter() bool {
	t := strings.ToLower(c.SQLType)
	for _, prefix := range []string{"char", "varchar", "nchar", "nvarchar"} {
		if t == prefix || strings.HasPrefix(t, prefix+"(") {
			return true
		}
	}
	return false
}

// EffectiveCollation returns the collation rendered for the column, or "" for non-character types.
func (c EncryptedColumnSpec) EffectiveCollation() string {
	if !c.IsCharacter() {
		return ""
	}
	if c.Collation != "" {
		return c.Collation
	}
	return BinaryCollation
}

// PlainColumnSpec describes an unencrypted column.
type PlainColumnSpec struct {
	Name       string
	SQLType    string
	Nullable   bool
	Identity   bool
	PrimaryKey bool
}

// TableSpec describes a table holding plain and encrypted columns. Plain columns
// are rendered first, in order, followed by encrypted columns.
type TableSpec struct {
	Schema           string
	Name             string
	PlainColumns     []PlainColumnSpec
	EncryptedColumns []EncryptedColumnSpec

	// FilterColumn names the encrypted column used for equality lookups.
	FilterColumn string
}

// SchemaName returns Schema or DefaultSchema.
func (t TableSpec) SchemaName() string {
	if t.Schema == "" {
		return DefaultSchema
	}
	return t.Schema
}

// QualifiedName returns [schema].[table].
func (t TableSpec) QualifiedName() string {
	return "[" + t.SchemaName() + "].[" + t.Name + "]"
}

// EncryptedColumn returns the encrypted column called name.
func (t TableSpec) EncryptedColumn(name string) (EncryptedColumnSpec, bool) {
	for _, c := range t.EncryptedColumns {
		if c.Name == name {
			return c, true
		}
	}
	return EncryptedColumnSpec{}, false
}

// HasColumn reports whether name is a plain or encrypted column of the table.
func (t TableSpec) HasColumn(name string) bool {
	for _, c := range t.PlainColumns {
		if c.Name == name {
			return true
		}
	}
	_, ok := t.EncryptedColumn(name)
	return ok
}

// EncryptionKeyNames returns the distinct column encryption keys referenced by the table, in first-use order.
func (t TableSpec) EncryptionKeyNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, c := range t.EncryptedColumns {
		if _, ok := seen[c.EncryptionKeyName]; ok {
			continue
		}
		seen[c.EncryptionKeyName] = struct{}{}
		names = append(names, c.EncryptionKeyName)
	}
	return names
}

// Validate checks every identifier, type and collation and that the filter
// column, when set, is one of the encrypted columns.
func (t TableSpec) Validate() error {
	if t.Schema != "" {
		if err := ValidateIdentifier(t.Schema); err != nil {
			return err
		}
	}
	if err := ValidateIdentifier(t.Name); err != nil {
		return err
	}
	if len(t.EncryptedColumns) == 0 {
		return errors.Wrapf(ErrInvalidTable, "table %s has no encrypted columns", t.Name)
	}

	seen := make(map[string]struct{})
	checkName := func(name string) error {
		if err := ValidateIdentifier(name); err != nil {
			return err
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return errors.Wrapf(ErrInvalidTable, "duplicate column %s", name)
		}
		seen[key] = struct{}{}
		return nil
	}

	for _, c := range t.PlainColumns {
		if err := checkName(c.Name); err != nil {
			return err
		}
		if err := validation.Validate(c.SQLType, validation.Required, customValidation.SQLType); err != nil {
			return errors.Wrapf(ErrInvalidTable, "column %s: %s", c.Name, err.Error())
		}
	}
	for _, c := range t.EncryptedColumns {
		if err := checkName(c.Name); err != nil {
			return err
		}
		if err := ValidateIdentifier(c.EncryptionKeyName); err != nil {
			return err
		}
		err := validation.ValidateStruct(&c,
			validation.Field(&c.SQLType, validation.Required, customValidation.SQLType),
			validation.Field(&c.Collation, customValidation.Collation),
		)
		if err != nil {
			return errors.Wrapf(ErrInvalidTable, "column %s: %s", c.Name, err.Error())
		}
	}

	if t.FilterColumn != "" {
		if _, ok := t.EncryptedColumn(t.FilterColumn); !ok {
			return errors.Wrapf(ErrInvalidTable, "filter column %s is not an encrypted column", t.FilterColumn)
		}
	}
	return nil
}
