package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pageza/macrochef/backend/internal/logging"
	"github.com/pageza/macrochef/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRecipes = `{"recipes":[{"name":"Remote Bowl","preparation_time":20,"ingredients":[{"name":"rice","amount":"1","unit":"cup"}],"instructions":["Cook"]}]}`

type refreshingTokens struct {
	token, refreshed string
	refreshes        atomic.Int32
}

func (r *refreshingTokens) Token(context.Context) (string, error) {
	return r.token, nil
}

func (r *refreshingTokens) Refresh(context.Context) (string, error) {
	r.refreshes.Add(1)
	return r.refreshed, nil
}

func newClient(url string, tokens TokenSource) *Client {
	return New(url, "anon", tokens, nil, logging.Component(nil, "client"))
}

func TestFunctionURL(t *testing.T) {
	assert.Equal(t, "https://abc.functions.supabase.co/generate-recipes", FunctionURL("https://abc.supabase.co/"))
	assert.Equal(t, "http://localhost:8080/generate-recipes", FunctionURL("http://localhost:8080"))
}

func TestGenerateBatchRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))

		var got types.GenerationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, params, got)

		_, _ = w.Write([]byte(validRecipes))
	}))
	defer server.Close()

	result := newClient(server.URL, StaticToken("user-token")).GenerateBatch(context.Background(), params)
	assert.Equal(t, ModeOpenAI, result.Mode)
	assert.Nil(t, result.Warning)
	require.Len(t, result.Recipes, 1)
	assert.Equal(t, "Remote Bowl", result.Recipes[0].Name)
}

func TestGenerateBatchFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		warning string
	}{
		{"error with json body", http.StatusTooManyRequests, `{"error": "Rate limit exceeded. Max 12 requests per 15 minutes."}`, `{"error":"Rate limit exceeded. Max 12 requests per 15 minutes."}`},
		{"error without body", http.StatusBadGateway, ``, `HTTP 502`},
		{"missing recipes", http.StatusOK, `{"meals": []}`, "edge_function_invalid_payload"},
		{"no usable items", http.StatusOK, `{"recipes": [{"name": "Empty"}]}`, "edge_function_invalid_recipe_items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			result := newClient(server.URL, StaticToken("t")).GenerateBatch(context.Background(), params)
			assert.Equal(t, ModeLocal, result.Mode)
			require.NotNil(t, result.Warning)
			assert.Equal(t, tt.warning, *result.Warning)
			assert.Equal(t, GenerateDrafts(params), result.Recipes)
		})
	}
}

func TestGenerateBatchMissingConfig(t *testing.T) {
	result := New("", "", StaticToken("t"), nil, logging.Component(nil, "client")).GenerateBatch(context.Background(), params)
	assert.Equal(t, ModeLocal, result.Mode)
	require.NotNil(t, result.Warning)
	assert.Equal(t, ErrMissingConfig.Error(), *result.Warning)

	result = newClient("http://localhost", StaticToken("")).GenerateBatch(context.Background(), params)
	require.NotNil(t, result.Warning)
	assert.Equal(t, ErrMissingToken.Error(), *result.Warning)
}

func TestGenerateBatchEmptyIngredients(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	result := newClient(server.URL, StaticToken("t")).GenerateBatch(context.Background(), types.GenerationRequest{TimeLimit: 30})
	assert.Equal(t, ModeLocal, result.Mode)
	assert.Nil(t, result.Warning)
	assert.Empty(t, result.Recipes)
	assert.Zero(t, calls.Load())
}

func TestGenerateBatchRefreshesInvalidJWT(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401,"message":"Invalid JWT"}`))
			return
		}
		_, _ = w.Write([]byte(validRecipes))
	}))
	defer server.Close()

	tokens := &refreshingTokens{token: "stale", refreshed: "fresh"}
	result := newClient(server.URL, tokens).GenerateBatch(context.Background(), params)
	assert.Equal(t, ModeOpenAI, result.Mode)
	assert.Equal(t, int32(1), tokens.refreshes.Load())
}
