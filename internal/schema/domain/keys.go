package domain

// MasterKeyDescriptor describes a column master key held in an external KMS.
// Immutable once created; dropped on teardown.
type MasterKeyDescriptor struct {
	Name                     string
	ProviderName             string // KEY_STORE_PROVIDER_NAME
	KeyPath                  string // KMS locator of the key
	Signature                []byte // KMS signature over (ProviderName, KeyPath, AllowEnclaveComputations)
	AllowEnclaveComputations bool
}

// DataEncryptionKey describes a column encryption key. Only the wrapped form is
// kept; the plaintext never leaves the statement builder that generated it.
type DataEncryptionKey struct {
	Name          string
	MasterKeyName string
	Algorithm     string // key wrapping algorithm, always RSA_OAEP
	WrappedKey    []byte
}

// KeyNames names the master key and encryption key provisioned by one migration.
type KeyNames struct {
	MasterKey     string
	EncryptionKey string
}

// Validate checks both names are plain identifiers.
func (n KeyNames) Validate() error {
	if err := ValidateIdentifier(n.MasterKey); err != nil {
		return err
	}
	return ValidateIdentifier(n.EncryptionKey)
}
