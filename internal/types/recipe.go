package types

import (
	"time"

	"github.com/google/uuid"
)

// MacroTargets are the per-recipe macro goals in grams
type MacroTargets struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fats    int `json:"fats"`
}

// RecipeMacros is the macro breakdown of a generated recipe
type RecipeMacros struct {
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fats     int `json:"fats"`
	Calories int `json:"calories"`
}

// RecipeIngredient is one name/amount/unit line of a recipe
type RecipeIngredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// GeneratedRecipe is a recipe produced by the generator, remote or local
type GeneratedRecipe struct {
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	PreparationTime int                `json:"preparation_time"`
	Macros          RecipeMacros       `json:"macros"`
	Ingredients     []RecipeIngredient `json:"ingredients"`
	Instructions    []string           `json:"instructions"`
}

// SavedRecipe is a generated recipe persisted for a user
type SavedRecipe struct {
	GeneratedRecipe
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	IsSaved   bool      `json:"is_saved"`
	CreatedAt time.Time `json:"created_at"`
}
