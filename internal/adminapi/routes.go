package adminapi

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/hydraforward/hydraforward/internal/adminapi/handlers"
	"github.com/hydraforward/hydraforward/internal/adminapi/middleware"
)

// registerRoutes mounts the admin API's read-only endpoints under
// /api/v1. There is no write surface: the admin API observes the
// forwarder, it never reconfigures it at runtime.
//
// Note: the /swagger/* route serves the swagger-ui shell via
// swaggerFiles.Handler, but without a generated doc.json registered
// (swag init output is build-time tooling we do not run here) it shows
// an empty spec rather than the annotated one; the @Summary/@Router
// doc comments on the handlers remain the source of truth in the
// meantime.
func registerRoutes(r *gin.Engine, h *handlers.Handler, apiKey string) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")

	if apiKey != "" {
		api.Use(middleware.RequireAPIKey(apiKey))
	}

	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)
	api.GET("/zones", h.Zones)
}
