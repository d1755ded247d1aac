package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/macrochef/backend/internal/logging"
	"github.com/pageza/macrochef/backend/internal/mocks"
	"github.com/pageza/macrochef/backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupGenerateRouter(generation service.IGenerationService) *gin.Engine {
	router := gin.New()
	NewGenerateHandler(generation, logging.Component(nil, "api")).RegisterRoutes(router)
	return router
}

func TestGenerateSuccess(t *testing.T) {
	generation := new(mocks.MockGenerationService)
	body := `{"ingredientNames":["a","b","c"]}`
	generation.On("Generate", mock.Anything, service.GenerateInput{
		Authorization: "Bearer token",
		Body:          []byte(body),
	}).Return(&service.GenerateResult{Recipes: []json.RawMessage{
		json.RawMessage(`{"name":"One"}`),
	}}, nil)

	router := setupGenerateRouter(generation)

	for _, path := range []string{"/functions/v1/generate-recipes", "/generate-recipes"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"recipes":[{"name":"One"}]}`, w.Body.String())
	}
	generation.AssertExpectations(t)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "rate limited",
			err:    &service.GenerationError{Status: http.StatusTooManyRequests, Code: service.CodeRateLimitExceeded, Message: "Rate limit exceeded. Max 12 requests per 15 minutes."},
			status: http.StatusTooManyRequests,
			body:   `{"error":"Rate limit exceeded. Max 12 requests per 15 minutes."}`,
		},
		{
			name:   "unauthorized",
			err:    &service.GenerationError{Status: http.StatusUnauthorized, Message: "Unauthorized"},
			status: http.StatusUnauthorized,
			body:   `{"error":"Unauthorized"}`,
		},
		{
			name:   "timeout",
			err:    &service.GenerationError{Status: http.StatusGatewayTimeout, Code: service.CodeOpenAITimeout, Message: "OpenAI request timed out"},
			status: http.StatusGatewayTimeout,
			body:   `{"error":"OpenAI request timed out"}`,
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			body:   `{"error":"boom"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generation := new(mocks.MockGenerationService)
			generation.On("Generate", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := httptest.NewRecorder()
			setupGenerateRouter(generation).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/generate-recipes", strings.NewReader(`{}`)))

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestGeneratePreflight(t *testing.T) {
	generation := new(mocks.MockGenerationService)
	w := httptest.NewRecorder()
	setupGenerateRouter(generation).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/functions/v1/generate-recipes", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	generation.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestHealthCheck(t *testing.T) {
	router := gin.New()
	router.GET("/up", HealthCheck(nil, 0))
	router.GET("/down", HealthCheck(func(ctx context.Context) error { return errors.New("db down") }, time.Second))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/up", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","error":"db down"}`, w.Body.String())
}
