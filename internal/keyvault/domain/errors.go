package domain

import (
	"github.com/allisson/colkeys/internal/errors"
)

// Key vault error taxonomy. Every failure surfaced by a KeyVaultClient matches
// exactly one of these with errors.Is.
var (
	// ErrAuthFailure indicates the identity provider rejected the client
	// credentials or returned no token. Fatal, never retried.
	ErrAuthFailure = errors.Wrap(errors.ErrUnauthorized, "key vault authentication failed")

	// ErrSigningFailure indicates the KMS refused to sign master key metadata.
	ErrSigningFailure = errors.Wrap(errors.ErrUnavailable, "master key metadata signing failed")

	// ErrWrapFailure indicates the KMS refused to wrap a column encryption key.
	ErrWrapFailure = errors.Wrap(errors.ErrUnavailable, "column encryption key wrap failed")

	// ErrUnwrapFailure indicates a wrapped column encryption key could not be recovered.
	ErrUnwrapFailure = errors.Wrap(errors.ErrUnavailable, "column encryption key unwrap failed")

	// ErrUnsupportedAlgorithm indicates an algorithm other than RSA_OAEP was requested.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported key wrapping algorithm")

	// ErrInvalidKeyPath indicates a master key path could not be parsed.
	ErrInvalidKeyPath = errors.Wrap(errors.ErrInvalidInput, "invalid master key path")

	// ErrInvalidEnvelope indicates a wrapped key is not a well formed envelope.
	ErrInvalidEnvelope = errors.Wrap(errors.ErrInvalidInput, "invalid wrapped key envelope")
)
