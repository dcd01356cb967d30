package domain

import (
	validation "github.com/jellydator/validation"

	"github.com/allisson/colkeys/internal/errors"
	customValidation "github.com/allisson/colkeys/internal/validation"
)

// ValidateIdentifier checks that name can be rendered into DDL unescaped.
// Statement builders assume every identifier passed to them went through here.
func ValidateIdentifier(name string) error {
	err := validation.Validate(name,
		validation.Required,
		customValidation.NotPlaceholder,
		customValidation.SQLIdentifier,
	)
	if err != nil {
		return errors.Wrapf(ErrInvalidIdentifier, "%q: %s", name, err.Error())
	}
	return nil
}
