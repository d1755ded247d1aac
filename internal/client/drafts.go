package client

import (
	"fmt"
	"math"
	"strings"

	"github.com/pageza/macrochef/backend/internal/types"
)

var (
	recipeSuffixes = []string{"Power Bowl", "Skillet", "Stir-Fry"}
	macroOffsets   = []float64{-0.08, 0, 0.08}
)

// GenerateDrafts builds three deterministic recipes from the ingredient list
// without any network call. Protein moves by the offset, carbs against it by
// half, fats with it by half.
func GenerateDrafts(params types.GenerationRequest) []types.GeneratedRecipe {
	available := make([]string, 0, len(params.IngredientNames))
	for _, name := range params.IngredientNames {
		if name = strings.TrimSpace(name); name != "" {
			available = append(available, name)
		}
	}
	if len(available) == 0 {
		return []types.GeneratedRecipe{}
	}

	prep := clamp(params.TimeLimit, 10, 90)
	recipes := make([]types.GeneratedRecipe, 0, len(macroOffsets))
	for i, offset := range macroOffsets {
		lead := available[i%len(available)]
		second := available[(i+1)%len(available)]
		third := available[(i+2)%len(available)]

		protein := withOffset(params.Macros.Protein, offset)
		carbs := withOffset(params.Macros.Carbs, -offset/2)
		fats := withOffset(params.Macros.Fats, offset/2)

		recipes = append(recipes, types.GeneratedRecipe{
			Name:            lead + " " + recipeSuffixes[i%len(recipeSuffixes)],
			Description:     fmt.Sprintf("Built from your available ingredients: %s, %s, %s.", lead, second, third),
			PreparationTime: prep,
			Macros: types.RecipeMacros{
				Protein:  protein,
				Carbs:    carbs,
				Fats:     fats,
				Calories: protein*4 + carbs*4 + fats*9,
			},
			Ingredients: []types.RecipeIngredient{
				{Name: lead, Amount: "200", Unit: "g"},
				{Name: second, Amount: "150", Unit: "g"},
				{Name: third, Amount: "100", Unit: "g"},
			},
			Instructions: []string{
				fmt.Sprintf("Prep the %s, %s, and %s.", lead, second, third),
				"Cook protein ingredients first, then add remaining ingredients.",
				"Season to taste and plate once heated through.",
			},
		})
	}
	return recipes
}

func withOffset(base int, offset float64) int {
	return max(0, int(math.Round(float64(base)*(1+offset))))
}
