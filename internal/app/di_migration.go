package app

import (
	"crypto/rand"
	"fmt"

	"github.com/allisson/colkeys/internal/config"
	"github.com/allisson/colkeys/internal/database"
	migrationDomain "github.com/allisson/colkeys/internal/migration/domain"
	migrationMySQL "github.com/allisson/colkeys/internal/migration/repository/mysql"
	migrationPostgreSQL "github.com/allisson/colkeys/internal/migration/repository/postgresql"
	migrationSQLServer "github.com/allisson/colkeys/internal/migration/repository/sqlserver"
	migrationUsecase "github.com/allisson/colkeys/internal/migration/usecase"
	schemaDomain "github.com/allisson/colkeys/internal/schema/domain"
	schemaService "github.com/allisson/colkeys/internal/schema/service"
)

// SchemaKeyBinder returns the statement builder bound to the key vault client.
func (c *Container) SchemaKeyBinder() (*schemaService.SchemaKeyBinder, error) {
	var err error
	c.schemaKeyBinderInit.Do(func() {
		c.schemaKeyBinder, err = c.initSchemaKeyBinder()
		if err != nil {
			c.initErrors["schemaKeyBinder"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["schemaKeyBinder"]; exists {
		return nil, storedErr
	}
	return c.schemaKeyBinder, nil
}

// RunRepository returns the run history repository, or nil when run history is disabled.
func (c *Container) RunRepository() (migrationUsecase.RunRepository, error) {
	var err error
	c.runRepositoryInit.Do(func() {
		c.runRepository, err = c.initRunRepository()
		if err != nil {
			c.initErrors["runRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["runRepository"]; exists {
		return nil, storedErr
	}
	return c.runRepository, nil
}

// MigrationUseCase returns the migration orchestrator.
func (c *Container) MigrationUseCase() (migrationUsecase.MigrationUseCase, error) {
	var err error
	c.migrationUseCaseInit.Do(func() {
		c.migrationUseCase, err = c.initMigrationUseCase()
		if err != nil {
			c.initErrors["migrationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["migrationUseCase"]; exists {
		return nil, storedErr
	}
	return c.migrationUseCase, nil
}

// Table returns the table definition the commands operate on.
func (c *Container) Table() schemaDomain.TableSpec {
	return migrationDomain.PatientsTable(c.config.TableSchema, c.config.TableName, c.config.EncryptionKeyName)
}

// initSchemaKeyBinder creates the binder with a crypto/rand key generator.
func (c *Container) initSchemaKeyBinder() (*schemaService.SchemaKeyBinder, error) {
	client, err := c.KeyVaultClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get key vault client for schema key binder: %w", err)
	}
	return schemaService.NewSchemaKeyBinder(client, schemaService.NewRandomKeyGenerator(rand.Reader)), nil
}

// initRunRepository selects the repository for the history driver.
func (c *Container) initRunRepository() (migrationUsecase.RunRepository, error) {
	db, err := c.HistoryDB()
	if err != nil {
		return nil, fmt.Errorf("failed to get history database for run repository: %w", err)
	}
	if db == nil {
		return nil, nil
	}

	switch c.config.HistoryDBDriver {
	case "mysql":
		return migrationMySQL.NewMySQLRunRepository(db), nil
	case "postgres":
		return migrationPostgreSQL.NewPostgreSQLRunRepository(db), nil
	case database.DriverSQLServer:
		return migrationSQLServer.NewSQLServerRunRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported history database driver: %s", c.config.HistoryDBDriver)
	}
}

// initMigrationUseCase creates the orchestrator with all its dependencies.
func (c *Container) initMigrationUseCase() (migrationUsecase.MigrationUseCase, error) {
	ddl, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for migration use case: %w", err)
	}

	encrypted, err := c.EncryptedDB()
	if err != nil {
		return nil, fmt.Errorf("failed to get encrypted database for migration use case: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for migration use case: %w", err)
	}

	binder, err := c.SchemaKeyBinder()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema key binder for migration use case: %w", err)
	}

	runRepo, err := c.RunRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get run repository for migration use case: %w", err)
	}

	table := c.Table()
	orchestratorConfig := migrationUsecase.Config{
		Names: schemaDomain.KeyNames{
			MasterKey:     c.config.MasterKeyName,
			EncryptionKey: c.config.EncryptionKeyName,
		},
		Table:       table,
		KeyPath:     c.config.KeyPath(),
		KeepObjects: c.config.KeepObjects,
	}
	if c.config.KMSProvider == config.KMSProviderAzureKeyVault {
		orchestratorConfig.Authority = c.config.Authority()
		orchestratorConfig.Resource = c.config.AuthResource
	}

	baseUseCase, err := migrationUsecase.NewOrchestrator(
		orchestratorConfig,
		ddl,
		encrypted,
		txManager,
		binder,
		migrationUsecase.NewVerificationProbe(encrypted, table),
		runRepo,
		c.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration use case: %w", err)
	}

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for migration use case: %w", err)
		}
		return migrationUsecase.NewMigrationUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
