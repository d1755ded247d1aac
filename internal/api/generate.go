package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pageza/macrochef/backend/internal/service"
)

// maxBodyBytes bounds the generation request body.
const maxBodyBytes = 1 << 20

// GenerateHandler serves the recipe generation function
type GenerateHandler struct {
	service service.IGenerationService
	log     *logrus.Entry
}

// NewGenerateHandler creates a new GenerateHandler instance
func NewGenerateHandler(generation service.IGenerationService, log *logrus.Entry) *GenerateHandler {
	return &GenerateHandler{service: generation, log: log}
}

// RegisterRoutes mounts the function under its hosted path and its bare name.
func (h *GenerateHandler) RegisterRoutes(router gin.IRoutes) {
	for _, path := range []string{"/functions/v1/generate-recipes", "/generate-recipes"} {
		router.POST(path, h.Generate)
		router.OPTIONS(path, h.Preflight)
	}
}

// Preflight answers CORS preflight requests that reach the route.
func (h *GenerateHandler) Preflight(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Generate runs one generation attempt for the caller
func (h *GenerateHandler) Generate(c *gin.Context) {
	// a truncated body fails JSON decoding and is answered as malformed
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		h.log.WithError(err).Warn("Failed to read request body")
	}

	result, err := h.service.Generate(c.Request.Context(), service.GenerateInput{
		Authorization: c.GetHeader("Authorization"),
		Body:          body,
	})
	if err != nil {
		var genErr *service.GenerationError
		if errors.As(err, &genErr) {
			c.JSON(genErr.Status, gin.H{"error": genErr.Message})
			return
		}
		h.log.WithError(err).Error("Unexpected generation failure")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
