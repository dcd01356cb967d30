// Package service provides KeyVaultClient implementations backed by Azure Key
// Vault and by gocloud.dev/secrets keepers, an expiry-aware token cache and an
// adapter that plugs a KeyVaultClient into the SQL Server driver.
package service

import (
	"context"

	keyvaultDomain "github.com/allisson/colkeys/internal/keyvault/domain"
)

// KeyVaultClient authenticates to an external KMS and exposes sign, verify, wrap
// and unwrap operations over a named master key.
type KeyVaultClient interface {
	// ProviderName returns the KEY_STORE_PROVIDER_NAME rendered into master key DDL.
	ProviderName() string

	// Authenticate acquires a bearer token for resource from authority.
	// Fails with ErrAuthFailure if the identity provider rejects the client or returns no token.
	Authenticate(ctx context.Context, authority, resource string) (string, error)

	// Sign signs the master key metadata for keyPath. Fails with ErrSigningFailure.
	Sign(ctx context.Context, keyPath string, allowEnclaveComputations bool) ([]byte, error)

	// Verify checks a signature produced by Sign.
	Verify(ctx context.Context, keyPath string, allowEnclaveComputations bool, signature []byte) (bool, error)

	// Wrap encrypts a column encryption key under the master key at keyPath.
	// Fails with ErrUnsupportedAlgorithm or ErrWrapFailure.
	Wrap(ctx context.Context, keyPath, algorithm string, plaintext []byte) ([]byte, error)

	// Unwrap recovers a column encryption key produced by Wrap. Fails with ErrUnwrapFailure.
	Unwrap(ctx context.Context, keyPath, algorithm string, ciphertext []byte) ([]byte, error)
}

// TokenSource exchanges client credentials for a bearer token.
type TokenSource interface {
	FetchToken(ctx context.Context, authority, resource string) (keyvaultDomain.AccessToken, error)
}

// checkAlgorithm rejects anything other than RSA_OAEP.
func checkAlgorithm(algorithm string) error {
	if algorithm != keyvaultDomain.AlgorithmRSAOAEP {
		return keyvaultDomain.ErrUnsupportedAlgorithm
	}
	return nil
}
