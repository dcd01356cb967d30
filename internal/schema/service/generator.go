// Package service renders column encryption DDL. SchemaKeyBinder obtains the
// signed master key metadata and wrapped encryption keys from a KeyVaultClient
// and turns them, together with table definitions, into ordered statements.
package service

import (
	"io"

	"github.com/allisson/colkeys/internal/errors"
	keyvaultDomain "github.com/allisson/colkeys/internal/keyvault/domain"
	schemaDomain "github.com/allisson/colkeys/internal/schema/domain"
)

// KeyMaterialGenerator produces random bytes for column encryption keys.
type KeyMaterialGenerator interface {
	// Generate returns length random bytes. Fails with ErrEntropyFailure or ErrInvalidKeyLength.
	Generate(length int) ([]byte, error)
}

// RandomKeyGenerator reads key material from a cryptographically secure source.
type RandomKeyGenerator struct {
	source io.Reader
}

// NewRandomKeyGenerator creates a generator reading from source, normally crypto/rand.Reader.
func NewRandomKeyGenerator(source io.Reader) *RandomKeyGenerator {
	return &RandomKeyGenerator{source: source}
}

// Generate returns length random bytes. A short read is an entropy failure.
func (g *RandomKeyGenerator) Generate(length int) ([]byte, error) {
	if length <= 0 {
		return nil, errors.Wrapf(schemaDomain.ErrInvalidKeyLength, "%d", length)
	}

	key := make([]byte, length)
	if _, err := io.ReadFull(g.source, key); err != nil {
		keyvaultDomain.Zero(key)
		return nil, errors.Join(schemaDomain.ErrEntropyFailure, err)
	}
	return key, nil
}
