package service

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/pageza/macrochef/backend/internal/types"
	"github.com/tidwall/gjson"
)

const (
	MaxIngredientNameLength = 48
	MaxIngredients          = 20
	MinIngredients          = 3
)

// macro and time limit bounds: default, min, max
var (
	proteinBounds   = bounds{150, 20, 300}
	carbsBounds     = bounds{200, 20, 400}
	fatsBounds      = bounds{60, 10, 150}
	timeLimitBounds = bounds{30, 10, 90}
)

type bounds struct {
	def, min, max int
}

// ErrMalformedBody is returned when the request body is not JSON.
var ErrMalformedBody = errors.New("request body is not valid JSON")

// RawGenerationRequest holds the untrusted request fields before coercion.
type RawGenerationRequest struct {
	IngredientNames json.RawMessage `json:"ingredientNames"`
	Macros          json.RawMessage `json:"macros"`
	TimeLimit       json.RawMessage `json:"timeLimit"`
}

// DecodeRequest splits a request body into its raw fields. Any valid JSON is
// accepted; a body that is not an object simply has no fields.
func DecodeRequest(body []byte) (RawGenerationRequest, error) {
	if !gjson.ValidBytes(body) {
		return RawGenerationRequest{}, ErrMalformedBody
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return RawGenerationRequest{}, nil
	}
	return RawGenerationRequest{
		IngredientNames: rawField(doc, "ingredientNames"),
		Macros:          rawField(doc, "macros"),
		TimeLimit:       rawField(doc, "timeLimit"),
	}, nil
}

func rawField(doc gjson.Result, key string) json.RawMessage {
	field := lastKey(doc, key)
	if !field.Exists() {
		return nil
	}
	return json.RawMessage(field.Raw)
}

// lastKey looks up a member of an object. When the key repeats the last
// occurrence wins, as with JSON.parse; gjson.Get would return the first.
func lastKey(doc gjson.Result, key string) gjson.Result {
	var found gjson.Result
	if !doc.IsObject() {
		return found
	}
	doc.ForEach(func(k, v gjson.Result) bool {
		if k.Str == key {
			found = v
		}
		return true
	})
	return found
}

// NormalizeRequest coerces raw fields into a bounded request. It never fails.
func NormalizeRequest(raw RawGenerationRequest) types.GenerationRequest {
	macros := gjson.ParseBytes(raw.Macros)
	if !macros.IsObject() {
		macros = gjson.Result{}
	}

	return types.GenerationRequest{
		IngredientNames: normalizeIngredients(raw.IngredientNames),
		Macros: types.MacroTargets{
			Protein: coerce(lastKey(macros, "protein"), proteinBounds),
			Carbs:   coerce(lastKey(macros, "carbs"), carbsBounds),
			Fats:    coerce(lastKey(macros, "fats"), fatsBounds),
		},
		TimeLimit: coerce(gjson.ParseBytes(raw.TimeLimit), timeLimitBounds),
	}
}

func normalizeIngredients(raw json.RawMessage) []string {
	list := gjson.ParseBytes(raw)
	if !list.IsArray() {
		return []string{}
	}

	names := make([]string, 0, MaxIngredients)
	list.ForEach(func(_, item gjson.Result) bool {
		name := truncate(strings.TrimSpace(itemString(item)), MaxIngredientNameLength)
		if name != "" {
			names = append(names, name)
		}
		return len(names) < MaxIngredients
	})
	return names
}

// itemString renders a list element: strings verbatim, numbers in shortest
// form, null as empty, anything else as its JSON text.
func itemString(item gjson.Result) string {
	switch item.Type {
	case gjson.String:
		return item.Str
	case gjson.Null:
		return ""
	case gjson.Number:
		return strconv.FormatFloat(item.Num, 'f', -1, 64)
	default:
		return item.Raw
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// coerce reads a value the way JavaScript's Number() does, rounds it half
// away from zero and clamps it. Values that are not finite or not positive
// take the default.
func coerce(value gjson.Result, b bounds) int {
	n := toNumber(value)
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return clamp(b.def, b.min, b.max)
	}
	if n > float64(b.max) {
		return b.max
	}
	return clamp(int(math.Round(n)), b.min, b.max)
}

// toNumber converts any JSON value with Number() semantics: booleans are 0 or
// 1, null is 0, a missing value is NaN, arrays go through their string form
// and objects are NaN.
func toNumber(value gjson.Result) float64 {
	switch {
	case !value.Exists():
		return math.NaN()
	case value.Type == gjson.Number:
		return value.Num
	case value.Type == gjson.String:
		return stringToNumber(value.Str)
	case value.Type == gjson.True:
		return 1
	case value.Type == gjson.False, value.Type == gjson.Null:
		return 0
	case value.IsArray():
		return stringToNumber(arrayString(value))
	default:
		return math.NaN()
	}
}

// stringToNumber parses s like Number(s): surrounding whitespace is ignored,
// an empty string is 0 and 0x, 0o and 0b prefixes select the radix.
func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if errors.Is(err, strconv.ErrRange) {
				return math.MaxFloat64
			}
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.ContainsAny(s, "_xXpP") {
		return math.NaN()
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// arrayString renders an array the way Array.prototype.toString does.
func arrayString(list gjson.Result) string {
	var parts []string
	list.ForEach(func(_, item gjson.Result) bool {
		switch {
		case item.Type == gjson.String:
			parts = append(parts, item.Str)
		case item.Type == gjson.Null:
			parts = append(parts, "")
		case item.IsArray():
			parts = append(parts, arrayString(item))
		case item.IsObject():
			parts = append(parts, "[object Object]")
		default:
			parts = append(parts, item.Raw)
		}
		return true
	})
	return strings.Join(parts, ",")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
