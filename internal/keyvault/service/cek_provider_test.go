package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	keyvaultDomain "github.com/allisson/colkeys/internal/keyvault/domain"
	"github.com/allisson/colkeys/internal/keyvault/service/mocks"
)

func TestCekProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_DelegatesToClient", func(t *testing.T) {
		client := &mocks.MockKeyVaultClient{}
		lifetime := time.Minute
		provider := NewCekProvider(client, &lifetime)

		client.On("Unwrap", ctx, testAzureKeyPath, keyvaultDomain.AlgorithmRSAOAEP, []byte{0x01}).
			Return([]byte{0xAA}, nil).Once()
		client.On("Wrap", ctx, testAzureKeyPath, keyvaultDomain.AlgorithmRSAOAEP, []byte{0xAA}).
			Return([]byte{0x01}, nil).Once()
		client.On("Sign", ctx, testAzureKeyPath, true).Return([]byte{0x02}, nil).Once()

		plaintext, err := provider.DecryptColumnEncryptionKey(ctx, testAzureKeyPath, keyvaultDomain.AlgorithmRSAOAEP, []byte{0x01})
		require.NoError(t, err)
		assert.Equal(t, []byte{0xAA}, plaintext)

		wrapped, err := provider.EncryptColumnEncryptionKey(ctx, testAzureKeyPath, keyvaultDomain.AlgorithmRSAOAEP, []byte{0xAA})
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01}, wrapped)

		signature, err := provider.SignColumnMasterKeyMetadata(ctx, testAzureKeyPath, true)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x02}, signature)

		verified, err := provider.VerifyColumnMasterKeyMetadata(ctx, testAzureKeyPath, true)
		require.NoError(t, err)
		assert.Nil(t, verified)
		client.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

		assert.Equal(t, &lifetime, provider.KeyLifetime())
		client.AssertExpectations(t)
	})

	t.Run("Error_UnwrapFailure", func(t *testing.T) {
		client := &mocks.MockKeyVaultClient{}
		provider := NewCekProvider(client, nil)

		client.On("Unwrap", ctx, testAzureKeyPath, keyvaultDomain.AlgorithmRSAOAEP, mock.Anything).
			Return(nil, errors.Join(keyvaultDomain.ErrUnwrapFailure, errors.New("boom"))).Once()

		_, err := provider.DecryptColumnEncryptionKey(ctx, testAzureKeyPath, keyvaultDomain.AlgorithmRSAOAEP, []byte{0x01})
		assert.ErrorIs(t, err, keyvaultDomain.ErrUnwrapFailure)
		assert.Nil(t, provider.KeyLifetime())
	})
}
