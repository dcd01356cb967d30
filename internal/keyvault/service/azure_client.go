package service

import (
	"context"
	"crypto"
	"crypto/rsa"
	"log/slog"
	"math/big"
	"net/http"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azkeys"

	"github.com/allisson/colkeys/internal/errors"
	keyvaultDomain "github.com/allisson/colkeys/internal/keyvault/domain"
)

// KeyOperations is the subset of *azkeys.Client used by AzureKeyVaultClient.
type KeyOperations interface {
	Sign(
		ctx context.Context,
		name, version string,
		parameters azkeys.SignParameters,
		options *azkeys.SignOptions,
	) (azkeys.SignResponse, error)
	WrapKey(
		ctx context.Context,
		name, version string,
		parameters azkeys.KeyOperationParameters,
		options *azkeys.WrapKeyOptions,
	) (azkeys.WrapKeyResponse, error)
	UnwrapKey(
		ctx context.Context,
		name, version string,
		parameters azkeys.KeyOperationParameters,
		options *azkeys.UnwrapKeyOptions,
	) (azkeys.UnwrapKeyResponse, error)
	GetKey(
		ctx context.Context,
		name, version string,
		options *azkeys.GetKeyOptions,
	) (azkeys.GetKeyResponse, error)
}

// KeyOperationsFactory opens KeyOperations for one vault.
type KeyOperationsFactory func(vaultURL string, cred azcore.TokenCredential) (KeyOperations, error)

// NewAzkeysClient is the KeyOperationsFactory backed by azkeys.NewClient.
func NewAzkeysClient(vaultURL string, cred azcore.TokenCredential) (KeyOperations, error) {
	client, err := azkeys.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// AzureKeyVaultClient implements KeyVaultClient on top of Azure Key Vault keys.
// Vault clients and public keys are cached per vault URL and key path.
type AzureKeyVaultClient struct {
	tokens    *TokenCache
	authority string
	resource  string
	factory   KeyOperationsFactory
	logger    *slog.Logger

	mu         sync.Mutex
	vaults     map[string]KeyOperations
	publicKeys map[string]*rsa.PublicKey
}

// NewAzureKeyVaultClient creates an AzureKeyVaultClient. Vault requests authenticate
// against authority for resource through tokens. A nil factory selects NewAzkeysClient.
func NewAzureKeyVaultClient(
	tokens *TokenCache,
	authority, resource string,
	factory KeyOperationsFactory,
	logger *slog.Logger,
) *AzureKeyVaultClient {
	if factory == nil {
		factory = NewAzkeysClient
	}
	return &AzureKeyVaultClient{
		tokens:     tokens,
		authority:  authority,
		resource:   resource,
		factory:    factory,
		logger:     logger,
		vaults:     make(map[string]KeyOperations),
		publicKeys: make(map[string]*rsa.PublicKey),
	}
}

// ProviderName returns AZURE_KEY_VAULT.
func (c *AzureKeyVaultClient) ProviderName() string {
	return keyvaultDomain.ProviderAzureKeyVault
}

// Authenticate returns a cached or freshly issued bearer token.
func (c *AzureKeyVaultClient) Authenticate(ctx context.Context, authority, resource string) (string, error) {
	token, err := c.tokens.Token(ctx, authority, resource)
	if err != nil {
		return "", err
	}
	return token.Value, nil
}

func (c *AzureKeyVaultClient) vault(vaultURL string) (KeyOperations, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ops, ok := c.vaults[vaultURL]; ok {
		return ops, nil
	}

	cred := &cachedCredential{cache: c.tokens, authority: c.authority, resource: c.resource}
	ops, err := c.factory(vaultURL, cred)
	if err != nil {
		return nil, err
	}
	c.vaults[vaultURL] = ops
	return ops, nil
}

// classify keeps authentication failures visible instead of hiding them behind op.
// A vault answering 401 rejected the cached token, so it is dropped and the
// next call authenticates again.
func (c *AzureKeyVaultClient) classify(op error, err error) error {
	if errors.Is(err, keyvaultDomain.ErrAuthFailure) {
		return err
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate(c.authority, c.resource)
		return errors.Join(keyvaultDomain.ErrAuthFailure, err)
	}
	return errors.Join(op, err)
}

// signDigest signs a SHA-256 digest with RS256 under the key at path.
func (c *AzureKeyVaultClient) signDigest(
	ctx context.Context,
	path keyvaultDomain.KeyPath,
	digest []byte,
) ([]byte, error) {
	ops, err := c.vault(path.VaultURL)
	if err != nil {
		return nil, err
	}

	resp, err := ops.Sign(ctx, path.Name, path.Version, azkeys.SignParameters{
		Algorithm: to.Ptr(azkeys.SignatureAlgorithmRS256),
		Value:     digest,
	}, nil)
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// publicKey fetches and caches the RSA public half of the key at path.
func (c *AzureKeyVaultClient) publicKey(ctx context.Context, path keyvaultDomain.KeyPath) (*rsa.PublicKey, error) {
	cacheKey := path.String()

	c.mu.Lock()
	pub, ok := c.publicKeys[cacheKey]
	c.mu.Unlock()
	if ok {
		return pub, nil
	}

	ops, err := c.vault(path.VaultURL)
	if err != nil {
		return nil, err
	}
	resp, err := ops.GetKey(ctx, path.Name, path.Version, nil)
	if err != nil {
		return nil, err
	}
	if resp.Key == nil || len(resp.Key.N) == 0 || len(resp.Key.E) == 0 {
		return nil, errors.New("key vault returned a key without RSA parameters")
	}

	pub = &rsa.PublicKey{
		N: new(big.Int).SetBytes(resp.Key.N),
		E: int(new(big.Int).SetBytes(resp.Key.E).Int64()),
	}

	c.mu.Lock()
	c.publicKeys[cacheKey] = pub
	c.mu.Unlock()
	return pub, nil
}

// Sign signs the master key metadata hash with RS256.
func (c *AzureKeyVaultClient) Sign(ctx context.Context, keyPath string, allowEnclaveComputations bool) ([]byte, error) {
	path, err := keyvaultDomain.ParseKeyPath(keyPath)
	if err != nil {
		return nil, errors.Join(keyvaultDomain.ErrSigningFailure, err)
	}

	hash, err := keyvaultDomain.MetadataHash(c.ProviderName(), keyPath, allowEnclaveComputations)
	if err != nil {
		return nil, errors.Join(keyvaultDomain.ErrSigningFailure, err)
	}

	signature, err := c.signDigest(ctx, path, hash)
	if err != nil {
		return nil, c.classify(keyvaultDomain.ErrSigningFailure, err)
	}

	if c.logger != nil {
		c.logger.Debug("signed master key metadata",
			slog.String("key_name", path.Name),
			slog.Bool("allow_enclave_computations", allowEnclaveComputations),
		)
	}
	return signature, nil
}

// Verify checks signature against the public key of the master key.
func (c *AzureKeyVaultClient) Verify(
	ctx context.Context,
	keyPath string,
	allowEnclaveComputations bool,
	signature []byte,
) (bool, error) {
	if len(signature) == 0 {
		return false, nil
	}

	path, err := keyvaultDomain.ParseKeyPath(keyPath)
	if err != nil {
		return false, err
	}
	hash, err := keyvaultDomain.MetadataHash(c.ProviderName(), keyPath, allowEnclaveComputations)
	if err != nil {
		return false, err
	}
	pub, err := c.publicKey(ctx, path)
	if err != nil {
		return false, c.classify(keyvaultDomain.ErrSigningFailure, err)
	}

	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, hash, signature) == nil, nil
}

// Wrap wraps plaintext with RSA-OAEP and returns the signed key envelope.
func (c *AzureKeyVaultClient) Wrap(ctx context.Context, keyPath, algorithm string, plaintext []byte) ([]byte, error) {
	if err := checkAlgorithm(algorithm); err != nil {
		return nil, errors.Join(keyvaultDomain.ErrWrapFailure, err)
	}

	path, err := keyvaultDomain.ParseKeyPath(keyPath)
	if err != nil {
		return nil, errors.Join(keyvaultDomain.ErrWrapFailure, err)
	}
	ops, err := c.vault(path.VaultURL)
	if err != nil {
		return nil, c.classify(keyvaultDomain.ErrWrapFailure, err)
	}

	resp, err := ops.WrapKey(ctx, path.Name, path.Version, azkeys.KeyOperationParameters{
		Algorithm: to.Ptr(azkeys.EncryptionAlgorithmRSAOAEP),
		Value:     plaintext,
	}, nil)
	if err != nil {
		return nil, c.classify(keyvaultDomain.ErrWrapFailure, err)
	}

	envelope, err := keyvaultDomain.NewEnvelope(keyPath, resp.Result)
	if err != nil {
		return nil, errors.Join(keyvaultDomain.ErrWrapFailure, err)
	}
	envelope.Signature, err = c.signDigest(ctx, path, envelope.Digest())
	if err != nil {
		return nil, c.classify(keyvaultDomain.ErrWrapFailure, err)
	}
	return envelope.Bytes(), nil
}

// Unwrap verifies the envelope signature and key path, then unwraps the ciphertext.
func (c *AzureKeyVaultClient) Unwrap(
	ctx context.Context,
	keyPath, algorithm string,
	ciphertext []byte,
) ([]byte, error) {
	if err := checkAlgorithm(algorithm); err != nil {
		return nil, errors.Join(keyvaultDomain.ErrUnwrapFailure, err)
	}

	path, err := keyvaultDomain.ParseKeyPath(keyPath)
	if err != nil {
		return nil, errors.Join(keyvaultDomain.ErrUnwrapFailure, err)
	}
	envelope, err := keyvaultDomain.ParseEnvelope(ciphertext)
	if err != nil {
		return nil, errors.Join(keyvaultDomain.ErrUnwrapFailure, err)
	}
	if !envelope.MatchesKeyPath(keyPath) {
		return nil, errors.Wrap(keyvaultDomain.ErrUnwrapFailure, "envelope was wrapped under a different master key")
	}

	pub, err := c.publicKey(ctx, path)
	if err != nil {
		return nil, c.classify(keyvaultDomain.ErrUnwrapFailure, err)
	}
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, envelope.Digest(), envelope.Signature); err != nil {
		return nil, errors.Wrap(keyvaultDomain.ErrUnwrapFailure, "envelope signature mismatch")
	}

	ops, err := c.vault(path.VaultURL)
	if err != nil {
		return nil, c.classify(keyvaultDomain.ErrUnwrapFailure, err)
	}
	resp, err := ops.UnwrapKey(ctx, path.Name, path.Version, azkeys.KeyOperationParameters{
		Algorithm: to.Ptr(azkeys.EncryptionAlgorithmRSAOAEP),
		Value:     envelope.Ciphertext,
	}, nil)
	if err != nil {
		return nil, c.classify(keyvaultDomain.ErrUnwrapFailure, err)
	}
	return resp.Result, nil
}
