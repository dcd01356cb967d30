// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"

	keyvaultDomain "github.com/allisson/colkeys/internal/keyvault/domain"
	customValidation "github.com/allisson/colkeys/internal/validation"
)

const (
	// KMSProviderAzureKeyVault talks to Azure Key Vault directly.
	KMSProviderAzureKeyVault = "azurekeyvault"
	// KMSProviderKeeper wraps keys through a gocloud.dev secrets keeper.
	KMSProviderKeeper = "keeper"

	// keeperKeyPathPrefix prefixes the opaque key path recorded for keeper master keys.
	keeperKeyPathPrefix = "colkeys/keys/"

	defaultAuthorityHost = "https://login.microsoftonline.com/"
)

// Config holds all application configuration.
type Config struct {
	// DBConnectionString is the sqlserver:// connection string of the target database.
	DBConnectionString string
	// DBMaxOpenConnections is the maximum number of open connections to the database.
	DBMaxOpenConnections int
	// DBMaxIdleConnections is the maximum number of idle connections in the database pool.
	DBMaxIdleConnections int
	// DBConnMaxLifetime is the maximum amount of time a connection may be reused.
	DBConnMaxLifetime time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// KMSProvider selects the key vault client ("azurekeyvault" or "keeper").
	KMSProvider string
	// KMSKeyURI is the gocloud.dev secrets URL used by the keeper provider.
	KMSKeyURI string

	// KeyVaultName is the Azure Key Vault name (the host prefix of the vault URL).
	KeyVaultName string
	// KeyVaultKeyName is the name of the RSA key used as column master key.
	KeyVaultKeyName string
	// KeyVaultKeyVersion pins a key version. Empty selects the latest version.
	KeyVaultKeyVersion string

	// AuthTenantID is the Entra ID tenant of the service principal.
	AuthTenantID string
	// AuthAuthority overrides the token authority. Defaults to the public cloud authority of AuthTenantID.
	AuthAuthority string
	// AuthResource is the resource the access token is requested for.
	AuthResource string
	// AuthClientID is the service principal application ID.
	AuthClientID string
	// AuthClientSecret is the service principal secret.
	AuthClientSecret string
	// TokenRefreshSkew is how long before expiry cached tokens are refreshed.
	TokenRefreshSkew time.Duration

	// MasterKeyName is the name of the column master key object.
	MasterKeyName string
	// EncryptionKeyName is the name of the column encryption key object.
	EncryptionKeyName string
	// TableSchema is the schema of the encrypted table.
	TableSchema string
	// TableName is the name of the encrypted table.
	TableName string
	// CEKCacheLifetime is how long the driver caches decrypted column encryption keys.
	CEKCacheLifetime time.Duration
	// KeepObjects leaves the provisioned keys and table in place after a successful run.
	KeepObjects bool

	// HistoryDBDriver is the run history database driver ("postgres", "mysql", "sqlserver").
	// Empty disables run history.
	HistoryDBDriver string
	// HistoryDBConnectionString is the connection string of the run history database.
	HistoryDBConnectionString string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsTextfile is written in Prometheus text format when a command finishes.
	MetricsTextfile string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Target database
		DBConnectionString:   env.GetString("DB_CONNECTION_STRING", ""),
		DBMaxOpenConnections: env.GetInt("DB_MAX_OPEN_CONNECTIONS", 5),
		DBMaxIdleConnections: env.GetInt("DB_MAX_IDLE_CONNECTIONS", 2),
		DBConnMaxLifetime:    env.GetDuration("DB_CONN_MAX_LIFETIME", 5, time.Minute),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// KMS
		KMSProvider:        env.GetString("KMS_PROVIDER", KMSProviderAzureKeyVault),
		KMSKeyURI:          env.GetString("KMS_KEY_URI", ""),
		KeyVaultName:       env.GetString("KEY_VAULT_NAME", "FILL"),
		KeyVaultKeyName:    env.GetString("KEY_VAULT_KEY_NAME", "FILL"),
		KeyVaultKeyVersion: env.GetString("KEY_VAULT_KEY_VERSION", ""),

		// Service principal
		AuthTenantID:     env.GetString("AUTH_TENANT_ID", "FILL"),
		AuthAuthority:    env.GetString("AUTH_AUTHORITY", ""),
		AuthResource:     env.GetString("AUTH_RESOURCE", "https://vault.azure.net"),
		AuthClientID:     env.GetString("AUTH_CLIENT_ID", "FILL"),
		AuthClientSecret: env.GetString("AUTH_CLIENT_SECRET", "FILL"),
		TokenRefreshSkew: env.GetDuration("TOKEN_REFRESH_SKEW_SECONDS", 300, time.Second),

		// Schema objects
		MasterKeyName:     env.GetString("MASTER_KEY_NAME", "CMK_Auto1"),
		EncryptionKeyName: env.GetString("ENCRYPTION_KEY_NAME", "CEK_Auto1"),
		TableSchema:       env.GetString("TABLE_SCHEMA", "dbo"),
		TableName:         env.GetString("TABLE_NAME", "Patients"),
		CEKCacheLifetime:  env.GetDuration("CEK_CACHE_LIFETIME_MINUTES", 120, time.Minute),
		KeepObjects:       env.GetBool("KEEP_OBJECTS", false),

		// Run history
		HistoryDBDriver:           env.GetString("HISTORY_DB_DRIVER", ""),
		HistoryDBConnectionString: env.GetString("HISTORY_DB_CONNECTION_STRING", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", false),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "colkeys"),
		MetricsTextfile:  env.GetString("METRICS_TEXTFILE", ""),
	}
}

// Validate rejects unfilled placeholders and identifiers that cannot be rendered into DDL.
func (c *Config) Validate() error {
	azure := c.KMSProvider == KMSProviderAzureKeyVault
	keeper := c.KMSProvider == KMSProviderKeeper
	identifier := []validation.Rule{
		validation.Required,
		customValidation.NotPlaceholder,
		customValidation.SQLIdentifier,
	}

	err := validation.ValidateStruct(c,
		validation.Field(&c.DBConnectionString, validation.Required, customValidation.NotBlank),
		validation.Field(&c.KMSProvider, validation.Required, validation.In(KMSProviderAzureKeyVault, KMSProviderKeeper)),
		validation.Field(&c.KMSKeyURI,
			validation.When(keeper, validation.Required, customValidation.NotPlaceholder),
		),
		validation.Field(&c.KeyVaultName,
			validation.When(azure, validation.Required, customValidation.NotPlaceholder, customValidation.NoQuote),
		),
		validation.Field(&c.KeyVaultKeyName,
			validation.Required, customValidation.NotPlaceholder, customValidation.NoQuote,
		),
		validation.Field(&c.KeyVaultKeyVersion, customValidation.NoQuote),
		validation.Field(&c.AuthTenantID,
			validation.When(azure && c.AuthAuthority == "", validation.Required, customValidation.NotPlaceholder),
		),
		validation.Field(&c.AuthResource, validation.When(azure, validation.Required)),
		validation.Field(&c.AuthClientID,
			validation.When(azure, validation.Required, customValidation.NotPlaceholder),
		),
		validation.Field(&c.AuthClientSecret,
			validation.When(azure, validation.Required, customValidation.NotPlaceholder),
		),
		validation.Field(&c.MasterKeyName, identifier...),
		validation.Field(&c.EncryptionKeyName, identifier...),
		validation.Field(&c.TableSchema, identifier...),
		validation.Field(&c.TableName, identifier...),
		validation.Field(&c.HistoryDBDriver, validation.In("postgres", "mysql", "sqlserver")),
		validation.Field(&c.HistoryDBConnectionString,
			validation.When(c.HistoryDBDriver != "", validation.Required),
		),
		validation.Field(&c.MetricsNamespace, validation.When(c.MetricsEnabled, validation.Required)),
	)
	return customValidation.WrapValidationError(err)
}

// KeyPath returns the KMS locator recorded as the master key's KEY_PATH.
// Keeper key paths are opaque labels so the keeper URL never reaches the database.
func (c *Config) KeyPath() string {
	if c.KMSProvider == KMSProviderKeeper {
		return keeperKeyPathPrefix + c.KeyVaultKeyName
	}
	return keyvaultDomain.BuildKeyPath(c.KeyVaultName, c.KeyVaultKeyName, c.KeyVaultKeyVersion).String()
}

// Authority returns the token authority, derived from the tenant when not set explicitly.
func (c *Config) Authority() string {
	if c.AuthAuthority != "" {
		return strings.TrimRight(c.AuthAuthority, "/")
	}
	return defaultAuthorityHost + c.AuthTenantID
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
