package service

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/allisson/colkeys/internal/errors"
	keyvaultDomain "github.com/allisson/colkeys/internal/keyvault/domain"
)

// CredentialFactory builds a client-secret credential for one tenant.
type CredentialFactory func(tenantID, authorityHost, clientID, clientSecret string) (azcore.TokenCredential, error)

// NewClientSecretCredential is the CredentialFactory backed by azidentity.
func NewClientSecretCredential(tenantID, authorityHost, clientID, clientSecret string) (azcore.TokenCredential, error) {
	opts := &azidentity.ClientSecretCredentialOptions{
		ClientOptions: azcore.ClientOptions{
			Cloud: cloud.Configuration{ActiveDirectoryAuthorityHost: authorityHost},
		},
	}
	return azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, opts)
}

// ClientSecretSource is a TokenSource performing the OAuth client-credentials
// exchange against an Entra ID authority such as
// https://login.microsoftonline.com/<tenant>.
type ClientSecretSource struct {
	clientID      string
	clientSecret  string
	newCredential CredentialFactory

	mu          sync.Mutex
	credentials map[string]azcore.TokenCredential
}

// NewClientSecretSource creates a ClientSecretSource. A nil factory selects NewClientSecretCredential.
func NewClientSecretSource(clientID, clientSecret string, factory CredentialFactory) *ClientSecretSource {
	if factory == nil {
		factory = NewClientSecretCredential
	}
	return &ClientSecretSource{
		clientID:      clientID,
		clientSecret:  clientSecret,
		newCredential: factory,
		credentials:   make(map[string]azcore.TokenCredential),
	}
}

// splitAuthority returns the authority host (with trailing slash) and the tenant.
func splitAuthority(authority string) (string, string, error) {
	u, err := url.Parse(authority)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return "", "", errors.Wrapf(keyvaultDomain.ErrAuthFailure, "invalid authority %q", authority)
	}
	tenant := strings.Split(strings.Trim(u.Path, "/"), "/")[0]
	if tenant == "" {
		return "", "", errors.Wrapf(keyvaultDomain.ErrAuthFailure, "authority %q has no tenant", authority)
	}
	return u.Scheme + "://" + u.Host + "/", tenant, nil
}

// scopeFor turns a resource such as https://vault.azure.net into its default scope.
func scopeFor(resource string) string {
	return strings.TrimSuffix(resource, "/") + "/.default"
}

func (s *ClientSecretSource) credential(authority string) (azcore.TokenCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cred, ok := s.credentials[authority]; ok {
		return cred, nil
	}

	host, tenant, err := splitAuthority(authority)
	if err != nil {
		return nil, err
	}
	cred, err := s.newCredential(tenant, host, s.clientID, s.clientSecret)
	if err != nil {
		return nil, errors.Join(keyvaultDomain.ErrAuthFailure, err)
	}
	s.credentials[authority] = cred
	return cred, nil
}

// FetchToken exchanges the client credentials for a token scoped to resource.
func (s *ClientSecretSource) FetchToken(
	ctx context.Context,
	authority, resource string,
) (keyvaultDomain.AccessToken, error) {
	cred, err := s.credential(authority)
	if err != nil {
		return keyvaultDomain.AccessToken{}, err
	}

	token, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{scopeFor(resource)}})
	if err != nil {
		return keyvaultDomain.AccessToken{}, errors.Join(keyvaultDomain.ErrAuthFailure, err)
	}
	return keyvaultDomain.AccessToken{Value: token.Token, ExpiresOn: token.ExpiresOn}, nil
}

// cachedCredential serves azkeys requests from a TokenCache so every vault call
// reuses the same expiry-aware token.
type cachedCredential struct {
	cache     *TokenCache
	authority string
	resource  string
}

// GetToken implements azcore.TokenCredential.
func (c *cachedCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	resource := c.resource
	if len(opts.Scopes) > 0 {
		resource = strings.TrimSuffix(opts.Scopes[0], "/.default")
	}

	token, err := c.cache.Token(ctx, c.authority, resource)
	if err != nil {
		return azcore.AccessToken{}, err
	}
	return azcore.AccessToken{Token: token.Value, ExpiresOn: token.ExpiresOn}, nil
}
