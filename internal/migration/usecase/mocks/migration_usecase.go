// Package mocks provides mock implementations of migration use cases for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	migrationDomain "github.com/allisson/colkeys/internal/migration/domain"
	schemaDomain "github.com/allisson/colkeys/internal/schema/domain"
	schemaService "github.com/allisson/colkeys/internal/schema/service"
)

// MockMigrationUseCase is a mock implementation of MigrationUseCase for testing.
type MockMigrationUseCase struct {
	mock.Mock
}

// Run mocks the Run method of MigrationUseCase.
func (m *MockMigrationUseCase) Run(
	ctx context.Context,
	records []migrationDomain.Record,
	expected migrationDomain.Record,
) (*migrationDomain.RunReport, error) {
	args := m.Called(ctx, records, expected)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*migrationDomain.RunReport), args.Error(1)
}

// Teardown mocks the Teardown method of MigrationUseCase.
func (m *MockMigrationUseCase) Teardown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Plan mocks the Plan method of MigrationUseCase.
func (m *MockMigrationUseCase) Plan(
	ctx context.Context,
	strategy schemaService.Strategy,
) (*schemaDomain.MigrationPlan, error) {
	args := m.Called(ctx, strategy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemaDomain.MigrationPlan), args.Error(1)
}

// EncryptColumns mocks the EncryptColumns method of MigrationUseCase.
func (m *MockMigrationUseCase) EncryptColumns(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// RevertColumns mocks the RevertColumns method of MigrationUseCase.
func (m *MockMigrationUseCase) RevertColumns(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// History mocks the History method of MigrationUseCase.
func (m *MockMigrationUseCase) History(ctx context.Context, limit int) ([]*migrationDomain.Run, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*migrationDomain.Run), args.Error(1)
}
