package domain

import (
	"github.com/allisson/colkeys/internal/errors"
)

// Schema error definitions.
var (
	// ErrInvalidIdentifier indicates a key, table or column name is not a plain SQL identifier.
	ErrInvalidIdentifier = errors.Wrap(errors.ErrInvalidInput, "invalid SQL identifier")

	// ErrInvalidHexLiteral indicates a string is not a 0x-prefixed hex literal.
	ErrInvalidHexLiteral = errors.Wrap(errors.ErrInvalidInput, "invalid hex literal")

	// ErrInvalidTable indicates a table specification is incomplete or inconsistent.
	ErrInvalidTable = errors.Wrap(errors.ErrInvalidInput, "invalid table specification")

	// ErrPlanOrder indicates a migration plan violates dependency ordering.
	ErrPlanOrder = errors.Wrap(errors.ErrInvalidInput, "migration plan out of dependency order")

	// ErrEntropyFailure indicates the random source could not supply enough bytes. Fatal, never retried.
	ErrEntropyFailure = errors.New("random source failed to supply key material")

	// ErrInvalidKeyLength indicates a non-positive key length was requested.
	ErrInvalidKeyLength = errors.Wrap(errors.ErrInvalidInput, "invalid key length")
)
