package completion

import (
	"fmt"
	"strings"

	"github.com/pageza/macrochef/backend/internal/types"
)

const systemPrompt = "You generate practical recipes. Return only valid JSON."

const responseShape = `{
  "recipes": [
    {
      "name": "string",
      "description": "string",
      "preparation_time": 30,
      "macros": { "protein": 40, "carbs": 50, "fats": 20, "calories": 500 },
      "ingredients": [{ "name": "string", "amount": "string", "unit": "string" }],
      "instructions": ["string"]
    }
  ]
}`

// BuildPrompt renders the user message for a normalized request.
func BuildPrompt(req types.GenerationRequest) string {
	var b strings.Builder
	b.WriteString("Generate 3 distinct meal recipes.\n")
	fmt.Fprintf(&b, "Use only these ingredients: %s.\n", strings.Join(req.IngredientNames, ", "))
	fmt.Fprintf(&b, "Target macros per recipe near: protein %dg, carbs %dg, fats %dg.\n",
		req.Macros.Protein, req.Macros.Carbs, req.Macros.Fats)
	fmt.Fprintf(&b, "Keep preparation time at or under %d minutes.\n\n", req.TimeLimit)
	b.WriteString("Return strict JSON:\n")
	b.WriteString(responseShape)
	return b.String()
}
