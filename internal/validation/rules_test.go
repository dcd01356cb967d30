package validation

import (
	"errors"
	"strings"
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/colkeys/internal/errors"
)

func TestSQLIdentifier(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		shouldErr bool
	}{
		{name: "simple name", value: "Patients", shouldErr: false},
		{name: "underscore and digits", value: "CMK_WITH_AKV_2", shouldErr: false},
		{name: "leading underscore", value: "_cek", shouldErr: false},
		{name: "leading digit", value: "1table", shouldErr: true},
		{name: "closing bracket", value: "name]; DROP TABLE x; --", shouldErr: true},
		{name: "space", value: "first name", shouldErr: true},
		{name: "quote", value: "o'brien", shouldErr: true},
		{name: "too long", value: strings.Repeat("a", 129), shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, SQLIdentifier)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSQLType(t *testing.T) {
	valid := []string{"int", "datetime2", "nvarchar(255)", "nvarchar(max)", "decimal(10, 2)", "varchar(20)"}
	for _, v := range valid {
		assert.NoError(t, validation.Validate(v, SQLType), v)
	}

	invalid := []string{"nvarchar(", "int;", "nvarchar(20) NOT NULL", "(int)"}
	for _, v := range invalid {
		assert.Error(t, validation.Validate(v, SQLType), v)
	}
}

func TestCollation(t *testing.T) {
	assert.NoError(t, validation.Validate("Latin1_General_BIN2", Collation))
	assert.Error(t, validation.Validate("Latin1 General", Collation))
}

func TestNotPlaceholder(t *testing.T) {
	assert.NoError(t, validation.Validate("my-client-id", NotPlaceholder))
	assert.Error(t, validation.Validate("FILL", NotPlaceholder))
	assert.Error(t, validation.Validate(" fill ", NotPlaceholder))
}

func TestNoQuote(t *testing.T) {
	assert.NoError(t, validation.Validate("https://vault.vault.azure.net/keys/k/v", NoQuote))
	assert.Error(t, validation.Validate("https://x'y", NoQuote))
}

func TestNotBlank(t *testing.T) {
	assert.NoError(t, validation.Validate("value", NotBlank))
	assert.Error(t, validation.Validate("   ", NotBlank))
}

func TestWrapValidationError(t *testing.T) {
	assert.Nil(t, WrapValidationError(nil))

	err := WrapValidationError(errors.New("name: must be a valid SQL identifier"))
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "must be a valid SQL identifier")
}
