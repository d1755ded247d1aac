// Package client calls the deployed generation function the way the mobile
// app does, with a local fallback when the function cannot help.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pageza/macrochef/backend/internal/types"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Generation modes
const (
	ModeOpenAI = "openai"
	ModeLocal  = "local"
)

const functionName = "generate-recipes"

var (
	ErrMissingConfig       = errors.New("Missing Supabase env config in client.")
	ErrMissingToken        = errors.New("Missing auth token. Please sign in again.")
	ErrInvalidPayload      = errors.New("edge_function_invalid_payload")
	ErrNoUsableRecipeItems = errors.New("edge_function_invalid_recipe_items")
)

// TokenSource supplies the caller's access token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	// Refresh is tried once when the function rejects the token as an invalid JWT.
	Refresh(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that cannot refresh.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

func (t StaticToken) Refresh(context.Context) (string, error) {
	return "", errors.New("static token cannot be refreshed")
}

// BatchResult is the outcome of GenerateBatch. Warning explains a fallback.
type BatchResult struct {
	Recipes []types.GeneratedRecipe `json:"recipes"`
	Mode    string                  `json:"mode"`
	Warning *string                 `json:"warning"`
}

// Client invokes the generation function.
type Client struct {
	functionURL string
	anonKey     string
	tokens      TokenSource
	http        *http.Client
	log         *logrus.Entry
}

// New creates a client for functionURL. A nil httpClient uses http.DefaultClient.
func New(functionURL, anonKey string, tokens TokenSource, httpClient *http.Client, log *logrus.Entry) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		functionURL: strings.TrimRight(functionURL, "/"),
		anonKey:     anonKey,
		tokens:      tokens,
		http:        httpClient,
		log:         log,
	}
}

// FunctionURL derives the function endpoint from a project URL such as
// https://abc.supabase.co.
func FunctionURL(projectURL string) string {
	base := strings.Replace(strings.TrimRight(projectURL, "/"), ".supabase.co", ".functions.supabase.co", 1)
	return base + "/" + functionName
}

// GenerateBatch asks the function for recipes and falls back to local drafts
// when anything goes wrong. An empty ingredient list yields an empty local batch.
func (c *Client) GenerateBatch(ctx context.Context, params types.GenerationRequest) BatchResult {
	drafts := GenerateDrafts(params)
	if len(drafts) == 0 {
		return BatchResult{Recipes: drafts, Mode: ModeLocal}
	}

	recipes, err := c.generateRemote(ctx, params)
	if err != nil {
		warning := err.Error()
		c.log.WithError(err).Warn("Remote generation failed, using local drafts")
		return BatchResult{Recipes: drafts, Mode: ModeLocal, Warning: &warning}
	}
	return BatchResult{Recipes: recipes, Mode: ModeOpenAI}
}

func (c *Client) generateRemote(ctx context.Context, params types.GenerationRequest) ([]types.GeneratedRecipe, error) {
	if c.functionURL == "" || c.anonKey == "" {
		return nil, ErrMissingConfig
	}
	if c.tokens == nil {
		return nil, ErrMissingToken
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("Unable to read auth session (%v)", err)
	}
	if token == "" {
		return nil, ErrMissingToken
	}

	body, err := c.invoke(ctx, token, params)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "invalid jwt") {
		refreshed, refreshErr := c.tokens.Refresh(ctx)
		if refreshErr != nil || refreshed == "" {
			return nil, err
		}
		body, err = c.invoke(ctx, refreshed, params)
	}
	if err != nil {
		return nil, err
	}

	list := gjson.GetBytes(body, "recipes")
	if !list.IsArray() {
		return nil, ErrInvalidPayload
	}
	items := make([]json.RawMessage, 0, len(list.Array()))
	for _, item := range list.Array() {
		items = append(items, json.RawMessage(item.Raw))
	}

	recipes := Sanitize(items, params)
	if len(recipes) == 0 {
		return nil, ErrNoUsableRecipeItems
	}
	return recipes, nil
}

// invoke posts the request and returns the body of a 2xx response. A failed
// response becomes an error carrying its JSON body, or "HTTP <status>".
func (c *Client) invoke(ctx context.Context, token string, params types.GenerationRequest) ([]byte, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.functionURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if gjson.ValidBytes(body) && len(bytes.TrimSpace(body)) > 0 && string(bytes.TrimSpace(body)) != "null" {
			compact := new(bytes.Buffer)
			if json.Compact(compact, body) == nil {
				return nil, errors.New(compact.String())
			}
		}
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidPayload
	}
	return body, nil
}
