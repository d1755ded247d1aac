package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pageza/macrochef/backend/internal/api"
	"github.com/pageza/macrochef/backend/internal/middleware"
	"github.com/pageza/macrochef/backend/internal/telemetry"
)

// Options collects what SetupRouter mounts. Recipes, Metrics and Ping are optional.
type Options struct {
	ServiceName string
	Log         *logrus.Entry
	Generate    *api.GenerateHandler
	Recipes     *api.RecipeHandler
	Metrics     http.Handler
	Ping        func(ctx context.Context) error
	PingTimeout time.Duration
}

// SetupRouter configures the application routes
func SetupRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoMethod(middleware.MethodNotAllowed)

	router.Use(
		middleware.ErrorHandler(opts.Log),
		telemetry.Middleware(opts.ServiceName),
		middleware.RequestLogger(opts.Log),
		middleware.CORS(),
	)

	router.GET("/healthz", api.HealthCheck(opts.Ping, opts.PingTimeout))
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	opts.Generate.RegisterRoutes(router)

	if opts.Recipes != nil {
		opts.Recipes.RegisterRoutes(router.Group("/api/v1"))
	}

	return router
}
