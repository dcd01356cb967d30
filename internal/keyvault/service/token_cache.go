package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/allisson/colkeys/internal/errors"
	keyvaultDomain "github.com/allisson/colkeys/internal/keyvault/domain"
)

// DefaultTokenSkew is how long before expiry a cached token is refreshed.
const DefaultTokenSkew = 5 * time.Minute

// TokenCache caches one token per (authority, resource) and refreshes it shortly
// before expiry. It is safe for concurrent use; concurrent refreshes of the same
// key share a single call to the underlying TokenSource.
type TokenCache struct {
	source TokenSource
	skew   time.Duration
	now    func() time.Time

	mu     sync.Mutex
	tokens map[string]keyvaultDomain.AccessToken
	group  singleflight.Group
}

// NewTokenCache creates a TokenCache over source. A non-positive skew selects DefaultTokenSkew.
func NewTokenCache(source TokenSource, skew time.Duration) *TokenCache {
	if skew <= 0 {
		skew = DefaultTokenSkew
	}
	return &TokenCache{
		source: source,
		skew:   skew,
		now:    time.Now,
		tokens: make(map[string]keyvaultDomain.AccessToken),
	}
}

func cacheKey(authority, resource string) string {
	return authority + "|" + resource
}

// Token returns a valid token for (authority, resource), fetching a new one when
// the cached token is missing or about to expire.
func (c *TokenCache) Token(ctx context.Context, authority, resource string) (keyvaultDomain.AccessToken, error) {
	key := cacheKey(authority, resource)

	c.mu.Lock()
	cached, ok := c.tokens[key]
	c.mu.Unlock()
	if ok && !cached.ExpiresWithin(c.now(), c.skew) {
		return cached, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		token, err := c.source.FetchToken(ctx, authority, resource)
		if err != nil {
			if errors.Is(err, keyvaultDomain.ErrAuthFailure) {
				return nil, err
			}
			return nil, errors.Join(keyvaultDomain.ErrAuthFailure, err)
		}
		if token.Value == "" {
			return nil, errors.Wrap(keyvaultDomain.ErrAuthFailure, "identity provider returned an empty token")
		}

		c.mu.Lock()
		c.tokens[key] = token
		c.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return keyvaultDomain.AccessToken{}, err
	}
	return v.(keyvaultDomain.AccessToken), nil
}

// Invalidate drops the cached token for (authority, resource).
func (c *TokenCache) Invalidate(authority, resource string) {
	c.mu.Lock()
	delete(c.tokens, cacheKey(authority, resource))
	c.mu.Unlock()
}
