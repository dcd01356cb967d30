package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keyvaultDomain "github.com/allisson/colkeys/internal/keyvault/domain"
)

type stubCredential struct {
	scopes []string
	token  azcore.AccessToken
	err    error
}

func (c *stubCredential) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	c.scopes = opts.Scopes
	return c.token, c.err
}

func TestSplitAuthority(t *testing.T) {
	host, tenant, err := splitAuthority("https://login.microsoftonline.com/contoso.onmicrosoft.com")
	require.NoError(t, err)
	assert.Equal(t, "https://login.microsoftonline.com/", host)
	assert.Equal(t, "contoso.onmicrosoft.com", tenant)

	_, _, err = splitAuthority("https://login.microsoftonline.com/")
	assert.ErrorIs(t, err, keyvaultDomain.ErrAuthFailure)

	_, _, err = splitAuthority("login.microsoftonline.com/tenant")
	assert.ErrorIs(t, err, keyvaultDomain.ErrAuthFailure)
}

func TestClientSecretSource_FetchToken(t *testing.T) {
	ctx := context.Background()
	authority := "https://login.microsoftonline.com/tenant-id"
	expires := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		cred := &stubCredential{token: azcore.AccessToken{Token: "bearer", ExpiresOn: expires}}
		var gotTenant, gotHost, gotClient, gotSecret string
		factory := func(tenantID, authorityHost, clientID, clientSecret string) (azcore.TokenCredential, error) {
			gotTenant, gotHost, gotClient, gotSecret = tenantID, authorityHost, clientID, clientSecret
			return cred, nil
		}
		source := NewClientSecretSource("client", "secret", factory)

		token, err := source.FetchToken(ctx, authority, "https://vault.azure.net/")
		require.NoError(t, err)

		assert.Equal(t, keyvaultDomain.AccessToken{Value: "bearer", ExpiresOn: expires}, token)
		assert.Equal(t, []string{"https://vault.azure.net/.default"}, cred.scopes)
		assert.Equal(t, "tenant-id", gotTenant)
		assert.Equal(t, "https://login.microsoftonline.com/", gotHost)
		assert.Equal(t, "client", gotClient)
		assert.Equal(t, "secret", gotSecret)
	})

	t.Run("Success_CredentialReusedPerAuthority", func(t *testing.T) {
		built := 0
		factory := func(_, _, _, _ string) (azcore.TokenCredential, error) {
			built++
			return &stubCredential{token: azcore.AccessToken{Token: "bearer", ExpiresOn: expires}}, nil
		}
		source := NewClientSecretSource("client", "secret", factory)

		_, err := source.FetchToken(ctx, authority, "https://vault.azure.net")
		require.NoError(t, err)
		_, err = source.FetchToken(ctx, authority, "https://vault.azure.net")
		require.NoError(t, err)

		assert.Equal(t, 1, built)
	})

	t.Run("Error_CredentialRejected", func(t *testing.T) {
		factory := func(_, _, _, _ string) (azcore.TokenCredential, error) {
			return &stubCredential{err: errors.New("invalid_client")}, nil
		}
		source := NewClientSecretSource("client", "secret", factory)

		_, err := source.FetchToken(ctx, authority, "https://vault.azure.net")
		assert.ErrorIs(t, err, keyvaultDomain.ErrAuthFailure)
	})

	t.Run("Error_FactoryFails", func(t *testing.T) {
		factory := func(_, _, _, _ string) (azcore.TokenCredential, error) {
			return nil, errors.New("bad tenant")
		}
		source := NewClientSecretSource("client", "secret", factory)

		_, err := source.FetchToken(ctx, authority, "https://vault.azure.net")
		assert.ErrorIs(t, err, keyvaultDomain.ErrAuthFailure)
	})
}

func TestCachedCredential_GetToken(t *testing.T) {
	source := &stubTokenSource{ttl: time.Hour, value: "bearer", now: time.Now}
	cred := &cachedCredential{
		cache:     NewTokenCache(source, 0),
		authority: "https://login.microsoftonline.com/tenant",
		resource:  "https://vault.azure.net",
	}

	token, err := cred.GetToken(context.Background(), policy.TokenRequestOptions{
		Scopes: []string{"https://vault.azure.net/.default"},
	})
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.Token)

	_, err = cred.GetToken(context.Background(), policy.TokenRequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), source.calls.Load(), "scope and configured resource share one cache entry")
}
