package app

import (
	"context"
	"fmt"
	"time"

	"github.com/allisson/colkeys/internal/config"
	keyvaultService "github.com/allisson/colkeys/internal/keyvault/service"
)

// KeyVaultClient returns the KMS client selected by KMS_PROVIDER.
func (c *Container) KeyVaultClient() (keyvaultService.KeyVaultClient, error) {
	var err error
	c.keyVaultClientInit.Do(func() {
		c.keyVaultClient, err = c.initKeyVaultClient()
		if err != nil {
			c.initErrors["keyVaultClient"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyVaultClient"]; exists {
		return nil, storedErr
	}
	return c.keyVaultClient, nil
}

// CekProvider returns the column encryption key provider registered on the encrypted connection.
func (c *Container) CekProvider() (*keyvaultService.CekProvider, error) {
	var err error
	c.cekProviderInit.Do(func() {
		c.cekProvider, err = c.initCekProvider()
		if err != nil {
			c.initErrors["cekProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cekProvider"]; exists {
		return nil, storedErr
	}
	return c.cekProvider, nil
}

// initKeyVaultClient creates the configured client, wrapped with metrics if enabled.
func (c *Container) initKeyVaultClient() (keyvaultService.KeyVaultClient, error) {
	var client keyvaultService.KeyVaultClient

	switch c.config.KMSProvider {
	case config.KMSProviderAzureKeyVault:
		source := keyvaultService.NewClientSecretSource(c.config.AuthClientID, c.config.AuthClientSecret, nil)
		tokens := keyvaultService.NewTokenCache(source, c.config.TokenRefreshSkew)
		client = keyvaultService.NewAzureKeyVaultClient(
			tokens,
			c.config.Authority(),
			c.config.AuthResource,
			nil,
			c.Logger(),
		)
	case config.KMSProviderKeeper:
		keeper, err := keyvaultService.OpenKeeper(context.Background(), c.config.KMSKeyURI)
		if err != nil {
			return nil, err
		}
		c.keeper = keeper
		client = keyvaultService.NewKeeperClient(keeper)
	default:
		return nil, fmt.Errorf("unsupported kms provider: %s", c.config.KMSProvider)
	}

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for key vault client: %w", err)
		}
		return keyvaultService.NewKeyVaultClientWithMetrics(client, businessMetrics), nil
	}

	return client, nil
}

// initCekProvider adapts the key vault client to the driver's provider interface.
func (c *Container) initCekProvider() (*keyvaultService.CekProvider, error) {
	client, err := c.KeyVaultClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get key vault client for cek provider: %w", err)
	}

	var lifetime *time.Duration
	if c.config.CEKCacheLifetime > 0 {
		d := c.config.CEKCacheLifetime
		lifetime = &d
	}
	return keyvaultService.NewCekProvider(client, lifetime), nil
}
