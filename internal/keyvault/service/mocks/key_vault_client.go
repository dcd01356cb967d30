// Package mocks provides mock implementations of key vault services for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockKeyVaultClient is a mock implementation of KeyVaultClient for testing.
type MockKeyVaultClient struct {
	mock.Mock
}

// ProviderName mocks the ProviderName method of KeyVaultClient.
func (m *MockKeyVaultClient) ProviderName() string {
	args := m.Called()
	return args.String(0)
}

// Authenticate mocks the Authenticate method of KeyVaultClient.
func (m *MockKeyVaultClient) Authenticate(ctx context.Context, authority, resource string) (string, error) {
	args := m.Called(ctx, authority, resource)
	return args.String(0), args.Error(1)
}

// Sign mocks the Sign method of KeyVaultClient.
func (m *MockKeyVaultClient) Sign(ctx context.Context, keyPath string, allowEnclaveComputations bool) ([]byte, error) {
	args := m.Called(ctx, keyPath, allowEnclaveComputations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Verify mocks the Verify method of KeyVaultClient.
func (m *MockKeyVaultClient) Verify(
	ctx context.Context,
	keyPath string,
	allowEnclaveComputations bool,
	signature []byte,
) (bool, error) {
	args := m.Called(ctx, keyPath, allowEnclaveComputations, signature)
	return args.Bool(0), args.Error(1)
}

// Wrap mocks the Wrap method of KeyVaultClient.
func (m *MockKeyVaultClient) Wrap(ctx context.Context, keyPath, algorithm string, plaintext []byte) ([]byte, error) {
	args := m.Called(ctx, keyPath, algorithm, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Unwrap mocks the Unwrap method of KeyVaultClient.
func (m *MockKeyVaultClient) Unwrap(ctx context.Context, keyPath, algorithm string, ciphertext []byte) ([]byte, error) {
	args := m.Called(ctx, keyPath, algorithm, ciphertext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
