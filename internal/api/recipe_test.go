package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/macrochef/backend/internal/identity"
	"github.com/pageza/macrochef/backend/internal/logging"
	"github.com/pageza/macrochef/backend/internal/mocks"
	"github.com/pageza/macrochef/backend/internal/service"
	"github.com/pageza/macrochef/backend/internal/types"
)

const testUserID = "3f1c2a9e-5b7d-4c1e-9a8f-0d6b2e4c8a11"

func setupRecipeTestRouter(t *testing.T) (*gin.Engine, *mocks.MockRecipeService) {
	t.Helper()

	resolver := new(mocks.MockResolver)
	resolver.On("Resolve", mock.Anything, "valid-token").Return(testUserID, nil)
	resolver.On("Resolve", mock.Anything, mock.Anything).Return("", identity.ErrUnauthorized)

	recipes := new(mocks.MockRecipeService)
	router := gin.New()
	NewRecipeHandler(recipes, resolver, logging.Component(nil, "api")).RegisterRoutes(router.Group("/api/v1"))
	return router, recipes
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer valid-token")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleRecipe() types.GeneratedRecipe {
	return types.GeneratedRecipe{
		Name:            "Chicken Power Bowl",
		Description:     "Built from your available ingredients.",
		PreparationTime: 30,
		Macros:          types.RecipeMacros{Protein: 40, Carbs: 50, Fats: 12, Calories: 468},
		Ingredients:     []types.RecipeIngredient{{Name: "chicken", Amount: "200", Unit: "g"}},
		Instructions:    []string{"Cook."},
	}
}

func TestSaveBatch(t *testing.T) {
	router, recipes := setupRecipeTestRouter(t)
	saved := &types.SavedRecipe{GeneratedRecipe: sampleRecipe(), ID: uuid.New(), UserID: testUserID, CreatedAt: time.Now()}
	recipes.On("SaveGenerated", mock.Anything, testUserID, []types.GeneratedRecipe{sampleRecipe()}).
		Return([]*types.SavedRecipe{saved}, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/recipes/batch", types.SaveRecipesRequest{Recipes: []types.GeneratedRecipe{sampleRecipe()}})

	assert.Equal(t, http.StatusCreated, w.Code)
	var response struct {
		Recipes []types.SavedRecipe `json:"recipes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Recipes, 1)
	assert.Equal(t, saved.ID, response.Recipes[0].ID)
	assert.False(t, response.Recipes[0].IsSaved)
	recipes.AssertExpectations(t)
}

func TestSaveBatchRejectsMissingRecipes(t *testing.T) {
	router, recipes := setupRecipeTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/recipes/batch", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	recipes.AssertNotCalled(t, "SaveGenerated", mock.Anything, mock.Anything, mock.Anything)
}

func TestSwipe(t *testing.T) {
	id := uuid.New()

	t.Run("right keeps the recipe", func(t *testing.T) {
		router, recipes := setupRecipeTestRouter(t)
		recipes.On("Swipe", mock.Anything, testUserID, id, "right").
			Return(&types.SavedRecipe{GeneratedRecipe: sampleRecipe(), ID: id, UserID: testUserID, IsSaved: true}, nil)

		w := doJSON(router, http.MethodPost, "/api/v1/recipes/"+id.String()+"/swipe", types.SwipeRequest{Direction: "right"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"is_saved":true`)
	})

	t.Run("unknown recipe", func(t *testing.T) {
		router, recipes := setupRecipeTestRouter(t)
		recipes.On("Swipe", mock.Anything, testUserID, id, "left").Return(nil, service.ErrRecipeNotFound)

		w := doJSON(router, http.MethodPost, "/api/v1/recipes/"+id.String()+"/swipe", types.SwipeRequest{Direction: "left"})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Recipe not found"}`, w.Body.String())
	})

	t.Run("bad direction", func(t *testing.T) {
		router, recipes := setupRecipeTestRouter(t)

		w := doJSON(router, http.MethodPost, "/api/v1/recipes/"+id.String()+"/swipe", types.SwipeRequest{Direction: "up"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		recipes.AssertNotCalled(t, "Swipe", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad id", func(t *testing.T) {
		router, _ := setupRecipeTestRouter(t)

		w := doJSON(router, http.MethodPost, "/api/v1/recipes/not-a-uuid/swipe", types.SwipeRequest{Direction: "left"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Invalid recipe ID"}`, w.Body.String())
	})
}

func TestListSaved(t *testing.T) {
	router, recipes := setupRecipeTestRouter(t)
	recipes.On("ListSaved", mock.Anything, testUserID).Return([]*types.SavedRecipe{}, nil)

	w := doJSON(router, http.MethodGet, "/api/v1/recipes/saved", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recipes":[]}`, w.Body.String())
}

func TestRecipeRoutesRequireAuth(t *testing.T) {
	router, _ := setupRecipeTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/saved", nil)
	req.Header.Set("Authorization", "Bearer expired")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}
