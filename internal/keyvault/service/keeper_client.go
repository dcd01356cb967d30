package service

import (
	"context"
	"crypto/subtle"

	"gocloud.dev/secrets"

	"github.com/allisson/colkeys/internal/errors"
	keyvaultDomain "github.com/allisson/colkeys/internal/keyvault/domain"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// Keeper is the subset of *secrets.Keeper used by KeeperClient.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// OpenKeeper opens a secrets.Keeper for keyURI.
// Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
func OpenKeeper(ctx context.Context, keyURI string) (Keeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open KMS keeper")
	}
	return keeper, nil
}

// KeeperClient implements KeyVaultClient over a single gocloud.dev/secrets keeper.
// The key path is an opaque label bound into every signature and envelope; the
// keeper URI itself never appears in generated DDL.
type KeeperClient struct {
	keeper Keeper
}

// NewKeeperClient creates a KeeperClient over keeper.
func NewKeeperClient(keeper Keeper) *KeeperClient {
	return &KeeperClient{keeper: keeper}
}

// ProviderName returns COLKEYS_KEEPER.
func (c *KeeperClient) ProviderName() string {
	return keyvaultDomain.ProviderKeeper
}

// Authenticate returns an empty token; keeper credentials travel in the keeper URI.
func (c *KeeperClient) Authenticate(_ context.Context, _, _ string) (string, error) {
	return "", nil
}

// Sign encrypts the metadata hash with the keeper.
func (c *KeeperClient) Sign(ctx context.Context, keyPath string, allowEnclaveComputations bool) ([]byte, error) {
	hash, err := keyvaultDomain.MetadataHash(c.ProviderName(), keyPath, allowEnclaveComputations)
	if err != nil {
		return nil, errors.Join(keyvaultDomain.ErrSigningFailure, err)
	}
	signature, err := c.keeper.Encrypt(ctx, hash)
	if err != nil {
		return nil, errors.Join(keyvaultDomain.ErrSigningFailure, err)
	}
	return signature, nil
}

// Verify decrypts signature and compares it with the expected metadata hash.
func (c *KeeperClient) Verify(
	ctx context.Context,
	keyPath string,
	allowEnclaveComputations bool,
	signature []byte,
) (bool, error) {
	if len(signature) == 0 {
		return false, nil
	}
	hash, err := keyvaultDomain.MetadataHash(c.ProviderName(), keyPath, allowEnclaveComputations)
	if err != nil {
		return false, err
	}
	decrypted, err := c.keeper.Decrypt(ctx, signature)
	if err != nil {
		// a signature the keeper cannot open is simply not ours
		return false, nil
	}
	return subtle.ConstantTimeCompare(hash, decrypted) == 1, nil
}

// Wrap encrypts plaintext with the keeper and seals it in a key envelope whose
// signature is the keeper-encrypted envelope digest.
func (c *KeeperClient) Wrap(ctx context.Context, keyPath, algorithm string, plaintext []byte) ([]byte, error) {
	if err := checkAlgorithm(algorithm); err != nil {
		return nil, errors.Join(keyvaultDomain.ErrWrapFailure, err)
	}

	ciphertext, err := c.keeper.Encrypt(ctx, plaintext)
	if err != nil {
		return nil, errors.Join(keyvaultDomain.ErrWrapFailure, err)
	}
	envelope, err := keyvaultDomain.NewEnvelope(keyPath, ciphertext)
	if err != nil {
		return nil, errors.Join(keyvaultDomain.ErrWrapFailure, err)
	}
	envelope.Signature, err = c.keeper.Encrypt(ctx, envelope.Digest())
	if err != nil {
		return nil, errors.Join(keyvaultDomain.ErrWrapFailure, err)
	}
	return envelope.Bytes(), nil
}

// Unwrap checks the envelope key path and signature, then decrypts the key.
func (c *KeeperClient) Unwrap(ctx context.Context, keyPath, algorithm string, ciphertext []byte) ([]byte, error) {
	if err := checkAlgorithm(algorithm); err != nil {
		return nil, errors.Join(keyvaultDomain.ErrUnwrapFailure, err)
	}

	envelope, err := keyvaultDomain.ParseEnvelope(ciphertext)
	if err != nil {
		return nil, errors.Join(keyvaultDomain.ErrUnwrapFailure, err)
	}
	if !envelope.MatchesKeyPath(keyPath) {
		return nil, errors.Wrap(keyvaultDomain.ErrUnwrapFailure, "envelope was wrapped under a different master key")
	}

	digest, err := c.keeper.Decrypt(ctx, envelope.Signature)
	if err != nil || subtle.ConstantTimeCompare(digest, envelope.Digest()) != 1 {
		return nil, errors.Wrap(keyvaultDomain.ErrUnwrapFailure, "envelope signature mismatch")
	}

	plaintext, err := c.keeper.Decrypt(ctx, envelope.Ciphertext)
	if err != nil {
		return nil, errors.Join(keyvaultDomain.ErrUnwrapFailure, err)
	}
	return plaintext, nil
}

// Close releases the keeper.
func (c *KeeperClient) Close() error {
	return c.keeper.Close()
}
