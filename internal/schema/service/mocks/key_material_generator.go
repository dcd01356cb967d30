// Package mocks provides mock implementations of schema services for testing.
package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockKeyMaterialGenerator is a mock implementation of KeyMaterialGenerator for testing.
type MockKeyMaterialGenerator struct {
	mock.Mock
}

// Generate mocks the Generate method of KeyMaterialGenerator.
func (m *MockKeyMaterialGenerator) Generate(length int) ([]byte, error) {
	args := m.Called(length)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
