// Package domain defines the key vault boundary of the column encryption scheme:
// provider names, the fixed key wrapping algorithm, key path parsing, the signed
// master key metadata hash and the wrapped column encryption key envelope.
package domain

// Key store provider names embedded in CREATE COLUMN MASTER KEY statements.
const (
	// ProviderAzureKeyVault is the provider name the database driver resolves to
	// an Azure Key Vault backed key store.
	ProviderAzureKeyVault = "AZURE_KEY_VAULT"

	// ProviderKeeper is the provider name for gocloud.dev/secrets keepers. It is
	// meant for local development and tests.
	ProviderKeeper = "COLKEYS_KEEPER"
)

// AlgorithmRSAOAEP is the only algorithm accepted for wrapping column encryption keys.
const AlgorithmRSAOAEP = "RSA_OAEP"

// KeySize is the length in bytes of a plaintext column encryption key.
const KeySize = 32
