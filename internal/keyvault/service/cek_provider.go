package service

import (
	"context"
	"time"

	"github.com/microsoft/go-mssqldb/aecmk"
)

// CekProvider exposes a KeyVaultClient to the SQL Server driver so parameters
// bound to encrypted columns are encrypted client side and results decrypted.
type CekProvider struct {
	client   KeyVaultClient
	lifetime *time.Duration
}

var _ aecmk.ColumnEncryptionKeyProvider = (*CekProvider)(nil)

// NewCekProvider creates a CekProvider. A nil lifetime keeps the driver default.
func NewCekProvider(client KeyVaultClient, lifetime *time.Duration) *CekProvider {
	return &CekProvider{client: client, lifetime: lifetime}
}

// DecryptColumnEncryptionKey unwraps a column encryption key read from sys.column_encryption_key_values.
func (p *CekProvider) DecryptColumnEncryptionKey(
	ctx context.Context,
	masterKeyPath, encryptionAlgorithm string,
	encryptedCek []byte,
) ([]byte, error) {
	return p.client.Unwrap(ctx, masterKeyPath, encryptionAlgorithm, encryptedCek)
}

// EncryptColumnEncryptionKey wraps a column encryption key.
func (p *CekProvider) EncryptColumnEncryptionKey(
	ctx context.Context,
	masterKeyPath, encryptionAlgorithm string,
	cek []byte,
) ([]byte, error) {
	return p.client.Wrap(ctx, masterKeyPath, encryptionAlgorithm, cek)
}

// SignColumnMasterKeyMetadata signs the master key metadata.
func (p *CekProvider) SignColumnMasterKeyMetadata(
	ctx context.Context,
	masterKeyPath string,
	allowEnclaveComputations bool,
) ([]byte, error) {
	return p.client.Sign(ctx, masterKeyPath, allowEnclaveComputations)
}

// VerifyColumnMasterKeyMetadata reports "not supported" with a nil result. The
// aecmk interface hands over no signature, so there is nothing to check with
// KeyVaultClient.Verify.
func (p *CekProvider) VerifyColumnMasterKeyMetadata(
	_ context.Context,
	_ string,
	_ bool,
) (*bool, error) {
	return nil, nil
}

// KeyLifetime returns how long the driver may cache decrypted keys.
func (p *CekProvider) KeyLifetime() *time.Duration {
	return p.lifetime
}
