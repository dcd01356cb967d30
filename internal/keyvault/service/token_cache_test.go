package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keyvaultDomain "github.com/allisson/colkeys/internal/keyvault/domain"
)

// stubTokenSource counts fetches and returns tokens expiring after ttl.
type stubTokenSource struct {
	calls atomic.Int32
	ttl   time.Duration
	value string
	err   error
	delay time.Duration
	now   func() time.Time
}

func (s *stubTokenSource) FetchToken(_ context.Context, _, _ string) (keyvaultDomain.AccessToken, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return keyvaultDomain.AccessToken{}, s.err
	}
	return keyvaultDomain.AccessToken{Value: s.value, ExpiresOn: s.now().Add(s.ttl)}, nil
}

func TestTokenCache_Token(t *testing.T) {
	ctx := context.Background()
	authority := "https://login.microsoftonline.com/tenant"
	resource := "https://vault.azure.net"

	t.Run("Success_ReusesValidToken", func(t *testing.T) {
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		source := &stubTokenSource{ttl: time.Hour, value: "token", now: func() time.Time { return now }}
		cache := NewTokenCache(source, 0)
		cache.now = func() time.Time { return now }

		first, err := cache.Token(ctx, authority, resource)
		require.NoError(t, err)
		second, err := cache.Token(ctx, authority, resource)
		require.NoError(t, err)

		assert.Equal(t, "token", first.Value)
		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), source.calls.Load())
	})

	t.Run("Success_RefreshesNearExpiry", func(t *testing.T) {
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		source := &stubTokenSource{ttl: 10 * time.Minute, value: "token", now: func() time.Time { return now }}
		cache := NewTokenCache(source, DefaultTokenSkew)
		cache.now = func() time.Time { return now }

		_, err := cache.Token(ctx, authority, resource)
		require.NoError(t, err)

		now = now.Add(6 * time.Minute)
		_, err = cache.Token(ctx, authority, resource)
		require.NoError(t, err)

		assert.Equal(t, int32(2), source.calls.Load())
	})

	t.Run("Success_SeparateKeysPerResource", func(t *testing.T) {
		source := &stubTokenSource{ttl: time.Hour, value: "token", now: time.Now}
		cache := NewTokenCache(source, 0)

		_, err := cache.Token(ctx, authority, resource)
		require.NoError(t, err)
		_, err = cache.Token(ctx, authority, "https://database.windows.net")
		require.NoError(t, err)

		assert.Equal(t, int32(2), source.calls.Load())
	})

	t.Run("Success_ConcurrentRefreshCollapses", func(t *testing.T) {
		source := &stubTokenSource{ttl: time.Hour, value: "token", now: time.Now, delay: 50 * time.Millisecond}
		cache := NewTokenCache(source, 0)

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				token, err := cache.Token(ctx, authority, resource)
				assert.NoError(t, err)
				assert.Equal(t, "token", token.Value)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), source.calls.Load())
	})

	t.Run("Success_InvalidateForcesFetch", func(t *testing.T) {
		source := &stubTokenSource{ttl: time.Hour, value: "token", now: time.Now}
		cache := NewTokenCache(source, 0)

		_, err := cache.Token(ctx, authority, resource)
		require.NoError(t, err)
		cache.Invalidate(authority, resource)
		_, err = cache.Token(ctx, authority, resource)
		require.NoError(t, err)

		assert.Equal(t, int32(2), source.calls.Load())
	})

	t.Run("Error_SourceRejectsCredentials", func(t *testing.T) {
		source := &stubTokenSource{err: errors.New("AADSTS7000215: invalid client secret"), now: time.Now}
		cache := NewTokenCache(source, 0)

		_, err := cache.Token(ctx, authority, resource)
		assert.ErrorIs(t, err, keyvaultDomain.ErrAuthFailure)
	})

	t.Run("Error_EmptyToken", func(t *testing.T) {
		source := &stubTokenSource{ttl: time.Hour, now: time.Now}
		cache := NewTokenCache(source, 0)

		_, err := cache.Token(ctx, authority, resource)
		assert.ErrorIs(t, err, keyvaultDomain.ErrAuthFailure)
	})
}
