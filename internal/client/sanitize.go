package client

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pageza/macrochef/backend/internal/types"
	"github.com/tidwall/gjson"
)

const (
	maxRecipes      = 3
	maxIngredients  = 12
	maxInstructions = 8
)

// Sanitize turns untrusted recipe items into well-formed recipes. Items that
// are not objects, or that end up without ingredients or instructions, are
// dropped. At most three recipes are returned.
func Sanitize(items []json.RawMessage, params types.GenerationRequest) []types.GeneratedRecipe {
	recipes := make([]types.GeneratedRecipe, 0, maxRecipes)
	for i, item := range items {
		recipe, ok := sanitizeRecipe(gjson.ParseBytes(item), i, params)
		if !ok {
			continue
		}
		recipes = append(recipes, recipe)
		if len(recipes) == maxRecipes {
			break
		}
	}
	return recipes
}

func sanitizeRecipe(value gjson.Result, index int, params types.GenerationRequest) (types.GeneratedRecipe, bool) {
	if !value.IsObject() {
		return types.GeneratedRecipe{}, false
	}

	macros := value.Get("macros")
	if !macros.IsObject() {
		macros = gjson.Result{}
	}

	prep := clamp(positive(value.Get("preparation_time"), params.TimeLimit), 10, 90)
	protein := clamp(positive(macros.Get("protein"), params.Macros.Protein), 1, 400)
	carbs := clamp(positive(macros.Get("carbs"), params.Macros.Carbs), 1, 500)
	fats := clamp(positive(macros.Get("fats"), params.Macros.Fats), 1, 250)
	calories := clamp(positive(macros.Get("calories"), protein*4+carbs*4+fats*9), 50, 5000)

	ingredients := make([]types.RecipeIngredient, 0, maxIngredients)
	if list := value.Get("ingredients"); list.IsArray() {
		list.ForEach(func(_, item gjson.Result) bool {
			if !item.IsObject() {
				return true
			}
			name := strings.TrimSpace(text(item.Get("name")))
			if name == "" {
				return true
			}
			ingredients = append(ingredients, types.RecipeIngredient{
				Name:   name,
				Amount: orDefault(strings.TrimSpace(text(item.Get("amount"))), "1"),
				Unit:   orDefault(strings.TrimSpace(text(item.Get("unit"))), "serving"),
			})
			return len(ingredients) < maxIngredients
		})
	}

	instructions := make([]string, 0, maxInstructions)
	if list := value.Get("instructions"); list.IsArray() {
		list.ForEach(func(_, step gjson.Result) bool {
			if s := strings.TrimSpace(text(step)); s != "" {
				instructions = append(instructions, s)
			}
			return len(instructions) < maxInstructions
		})
	}

	if len(ingredients) == 0 || len(instructions) == 0 {
		return types.GeneratedRecipe{}, false
	}

	return types.GeneratedRecipe{
		Name:            orDefault(strings.TrimSpace(text(value.Get("name"))), fmt.Sprintf("Recipe %d", index+1)),
		Description:     orDefault(strings.TrimSpace(text(value.Get("description"))), fmt.Sprintf("Built using your ingredients in %d minutes or less.", prep)),
		PreparationTime: prep,
		Macros:          types.RecipeMacros{Protein: protein, Carbs: carbs, Fats: fats, Calories: calories},
		Ingredients:     ingredients,
		Instructions:    instructions,
	}, true
}

// text renders a JSON value as display text; missing and null are empty.
func text(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return ""
	case gjson.Number:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return v.Raw
	}
}

// positive reads a positive number or numeric string rounded to an int,
// falling back when the value is anything else.
func positive(v gjson.Result, fallback int) int {
	var n float64
	switch v.Type {
	case gjson.Number:
		n = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return fallback
		}
		n = parsed
	default:
		return fallback
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return fallback
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Round(n))
}

func clamp(v, lo, hi int) int {
	return min(hi, max(lo, v))
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
