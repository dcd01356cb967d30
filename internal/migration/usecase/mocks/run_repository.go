package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	migrationDomain "github.com/allisson/colkeys/internal/migration/domain"
)

// MockRunRepository is a mock implementation of RunRepository for testing.
type MockRunRepository struct {
	mock.Mock
}

// Create mocks the Create method of RunRepository.
func (m *MockRunRepository) Create(ctx context.Context, run *migrationDomain.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// List mocks the List method of RunRepository.
func (m *MockRunRepository) List(ctx context.Context, limit int) ([]*migrationDomain.Run, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*migrationDomain.Run), args.Error(1)
}
