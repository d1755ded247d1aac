package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pageza/macrochef/backend/internal/models"
	"github.com/pageza/macrochef/backend/internal/types"
	"gorm.io/gorm"
)

var (
	ErrRecipeNotFound   = errors.New("recipe not found")
	ErrInvalidDirection = errors.New("direction must be left or right")
)

// RecipeService keeps generated recipes and the user's swipes on them
type RecipeService struct {
	db *gorm.DB
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// SaveGenerated stores a batch of generated recipes, unsaved until swiped right.
func (s *RecipeService) SaveGenerated(ctx context.Context, userID string, recipes []types.GeneratedRecipe) ([]*types.SavedRecipe, error) {
	if len(recipes) == 0 {
		return []*types.SavedRecipe{}, nil
	}

	rows := make([]models.Recipe, 0, len(recipes))
	for _, recipe := range recipes {
		row, err := toModel(userID, recipe)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to save recipes: %w", err)
	}

	saved := make([]*types.SavedRecipe, 0, len(rows))
	for i := range rows {
		out, err := fromModel(&rows[i])
		if err != nil {
			return nil, err
		}
		saved = append(saved, out)
	}
	return saved, nil
}

// Swipe marks a recipe saved on "right" and unsaved on "left", and appends
// the swipe to the history.
func (s *RecipeService) Swipe(ctx context.Context, userID string, recipeID uuid.UUID, direction string) (*types.SavedRecipe, error) {
	if direction != models.SwipeLeft && direction != models.SwipeRight {
		return nil, ErrInvalidDirection
	}

	var recipe models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&recipe, "id = ? AND user_id = ?", recipeID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipeNotFound
			}
			return err
		}

		recipe.IsSaved = direction == models.SwipeRight
		if err := tx.Model(&recipe).Update("is_saved", recipe.IsSaved).Error; err != nil {
			return err
		}

		return tx.Create(&models.SwipeHistory{
			UserID:    userID,
			RecipeID:  recipe.ID,
			Direction: direction,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return fromModel(&recipe)
}

// ListSaved returns the user's right-swiped recipes, newest first.
func (s *RecipeService) ListSaved(ctx context.Context, userID string) ([]*types.SavedRecipe, error) {
	var rows []models.Recipe
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_saved = ?", userID, true).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	saved := make([]*types.SavedRecipe, 0, len(rows))
	for i := range rows {
		out, err := fromModel(&rows[i])
		if err != nil {
			return nil, err
		}
		saved = append(saved, out)
	}
	return saved, nil
}

func toModel(userID string, recipe types.GeneratedRecipe) (models.Recipe, error) {
	macros, err := json.Marshal(recipe.Macros)
	if err != nil {
		return models.Recipe{}, err
	}
	ingredients := recipe.Ingredients
	if ingredients == nil {
		ingredients = []types.RecipeIngredient{}
	}
	ingredientJSON, err := json.Marshal(ingredients)
	if err != nil {
		return models.Recipe{}, err
	}

	return models.Recipe{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            recipe.Name,
		Description:     recipe.Description,
		PreparationTime: recipe.PreparationTime,
		Macros:          macros,
		Ingredients:     ingredientJSON,
		Instructions:    models.JSONBStringArray(recipe.Instructions),
	}, nil
}

func fromModel(row *models.Recipe) (*types.SavedRecipe, error) {
	out := &types.SavedRecipe{
		GeneratedRecipe: types.GeneratedRecipe{
			Name:            row.Name,
			Description:     row.Description,
			PreparationTime: row.PreparationTime,
			Instructions:    []string(row.Instructions),
		},
		ID:        row.ID,
		UserID:    row.UserID,
		IsSaved:   row.IsSaved,
		CreatedAt: row.CreatedAt,
	}
	if len(row.Macros) > 0 {
		if err := json.Unmarshal(row.Macros, &out.Macros); err != nil {
			return nil, fmt.Errorf("recipe %s: bad macros: %w", row.ID, err)
		}
	}
	if len(row.Ingredients) > 0 {
		if err := json.Unmarshal(row.Ingredients, &out.Ingredients); err != nil {
			return nil, fmt.Errorf("recipe %s: bad ingredients: %w", row.ID, err)
		}
	}
	if out.Instructions == nil {
		out.Instructions = []string{}
	}
	return out, nil
}
