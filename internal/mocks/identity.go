package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockResolver is a mock identity resolver
type MockResolver struct {
	mock.Mock
}

// Resolve mocks the Resolve method
func (m *MockResolver) Resolve(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}
