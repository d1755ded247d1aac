package service

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// MaxRecipes is the number of recipes returned to the caller.
const MaxRecipes = 3

var (
	// ErrMalformedCompletion is returned when the completion is not JSON at all.
	ErrMalformedCompletion = errors.New("completion content is not valid JSON")
	// ErrInvalidPayloadShape is returned when the completion has no recipes array.
	ErrInvalidPayloadShape = errors.New("openai_invalid_payload_shape")
)

// ParseRecipes extracts the first three elements of the recipes array from
// completion content. Elements pass through untouched; field level checks
// belong to the client sanitizer.
func ParseRecipes(content string) ([]json.RawMessage, error) {
	if !gjson.Valid(content) {
		return nil, ErrMalformedCompletion
	}
	doc := gjson.Parse(content)
	if doc.Type == gjson.Null {
		return nil, ErrMalformedCompletion
	}

	list := lastKey(doc, "recipes")
	if !doc.IsObject() || !list.IsArray() {
		return nil, ErrInvalidPayloadShape
	}

	recipes := make([]json.RawMessage, 0, MaxRecipes)
	list.ForEach(func(_, item gjson.Result) bool {
		recipes = append(recipes, json.RawMessage(item.Raw))
		return len(recipes) < MaxRecipes
	})
	return recipes, nil
}
