package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/macrochef/backend/internal/service"
)

// MockGenerationService is a mock implementation of the generation service
type MockGenerationService struct {
	mock.Mock
}

// Generate mocks the Generate method
func (m *MockGenerationService) Generate(ctx context.Context, in service.GenerateInput) (*service.GenerateResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GenerateResult), args.Error(1)
}
