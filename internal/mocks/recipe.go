package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/macrochef/backend/internal/types"
)

// MockRecipeService is a mock implementation of the recipe service
type MockRecipeService struct {
	mock.Mock
}

// SaveGenerated mocks the SaveGenerated method
func (m *MockRecipeService) SaveGenerated(ctx context.Context, userID string, recipes []types.GeneratedRecipe) ([]*types.SavedRecipe, error) {
	args := m.Called(ctx, userID, recipes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.SavedRecipe), args.Error(1)
}

// Swipe mocks the Swipe method
func (m *MockRecipeService) Swipe(ctx context.Context, userID string, recipeID uuid.UUID, direction string) (*types.SavedRecipe, error) {
	args := m.Called(ctx, userID, recipeID, direction)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SavedRecipe), args.Error(1)
}

// ListSaved mocks the ListSaved method
func (m *MockRecipeService) ListSaved(ctx context.Context, userID string) ([]*types.SavedRecipe, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.SavedRecipe), args.Error(1)
}
