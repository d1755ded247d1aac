package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pageza/macrochef/backend/internal/identity"
	"github.com/pageza/macrochef/backend/internal/middleware"
	"github.com/pageza/macrochef/backend/internal/service"
	"github.com/pageza/macrochef/backend/internal/types"
)

// RecipeHandler serves the user's generated and saved recipes
type RecipeHandler struct {
	recipes  service.IRecipeService
	resolver identity.Resolver
	log      *logrus.Entry
}

// NewRecipeHandler creates a new RecipeHandler instance
func NewRecipeHandler(recipes service.IRecipeService, resolver identity.Resolver, log *logrus.Entry) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, resolver: resolver, log: log}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	recipes.Use(middleware.AuthMiddleware(h.resolver))
	{
		recipes.POST("/batch", h.SaveBatch)
		recipes.POST("/:id/swipe", h.Swipe)
		recipes.GET("/saved", h.ListSaved)
	}
}

// SaveBatch stores a generated batch so the user can swipe through it
func (h *RecipeHandler) SaveBatch(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req types.SaveRecipesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.recipes.SaveGenerated(c.Request.Context(), userID, req.Recipes)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("Failed to save recipes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save recipes"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"recipes": saved})
}

// Swipe keeps (right) or discards (left) a recipe
func (h *RecipeHandler) Swipe(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return
	}

	var req types.SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.recipes.Swipe(c.Request.Context(), userID, recipeID, req.Direction)
	switch {
	case errors.Is(err, service.ErrRecipeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	case errors.Is(err, service.ErrInvalidDirection):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.log.WithError(err).WithField("recipe_id", recipeID).Error("Failed to record swipe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record swipe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

// ListSaved returns the recipes the user swiped right on, newest first
func (h *RecipeHandler) ListSaved(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	recipes, err := h.recipes.ListSaved(c.Request.Context(), userID)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("Failed to list saved recipes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}
