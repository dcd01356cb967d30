package service

import (
	"context"
	"time"

	"github.com/allisson/colkeys/internal/metrics"
)

const metricsDomain = "kms"

// keyVaultClientWithMetrics decorates KeyVaultClient with metrics instrumentation.
// The CEK provider calls through it too, so driver-side unwraps are counted.
type keyVaultClientWithMetrics struct {
	next    KeyVaultClient
	metrics metrics.BusinessMetrics
}

// NewKeyVaultClientWithMetrics wraps a KeyVaultClient with metrics recording.
func NewKeyVaultClientWithMetrics(client KeyVaultClient, m metrics.BusinessMetrics) KeyVaultClient {
	return &keyVaultClientWithMetrics{next: client, metrics: m}
}

func (k *keyVaultClientWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	k.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	k.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

func (k *keyVaultClientWithMetrics) ProviderName() string {
	return k.next.ProviderName()
}

func (k *keyVaultClientWithMetrics) Authenticate(ctx context.Context, authority, resource string) (string, error) {
	start := time.Now()
	token, err := k.next.Authenticate(ctx, authority, resource)
	k.record(ctx, "authenticate", start, err)
	return token, err
}

func (k *keyVaultClientWithMetrics) Sign(
	ctx context.Context,
	keyPath string,
	allowEnclaveComputations bool,
) ([]byte, error) {
	start := time.Now()
	signature, err := k.next.Sign(ctx, keyPath, allowEnclaveComputations)
	k.record(ctx, "sign", start, err)
	return signature, err
}

func (k *keyVaultClientWithMetrics) Verify(
	ctx context.Context,
	keyPath string,
	allowEnclaveComputations bool,
	signature []byte,
) (bool, error) {
	start := time.Now()
	ok, err := k.next.Verify(ctx, keyPath, allowEnclaveComputations, signature)
	k.record(ctx, "verify", start, err)
	return ok, err
}

func (k *keyVaultClientWithMetrics) Wrap(ctx context.Context, keyPath, algorithm string, plaintext []byte) ([]byte, error) {
	start := time.Now()
	wrapped, err := k.next.Wrap(ctx, keyPath, algorithm, plaintext)
	k.record(ctx, "wrap", start, err)
	return wrapped, err
}

func (k *keyVaultClientWithMetrics) Unwrap(
	ctx context.Context,
	keyPath, algorithm string,
	ciphertext []byte,
) ([]byte, error) {
	start := time.Now()
	plaintext, err := k.next.Unwrap(ctx, keyPath, algorithm, ciphertext)
	k.record(ctx, "unwrap", start, err)
	return plaintext, err
}
