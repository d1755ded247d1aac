package types

// GenerationRequest is a normalized, bounded generation request
type GenerationRequest struct {
	IngredientNames []string     `json:"ingredientNames"`
	Macros          MacroTargets `json:"macros"`
	TimeLimit       int          `json:"timeLimit"`
}

// SaveRecipesRequest is the body of POST /recipes/batch
type SaveRecipesRequest struct {
	Recipes []GeneratedRecipe `json:"recipes" binding:"required"`
}

// SwipeRequest is the body of POST /recipes/:id/swipe
type SwipeRequest struct {
	Direction string `json:"direction" binding:"required,oneof=left right"`
}
