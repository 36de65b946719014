package server

import (
	"github.com/OFFIS-RIT/formkv/internal/server/middleware"
	"github.com/OFFIS-RIT/formkv/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Synchronous analysis
	apiRoutes.POST("/analyze", routes.AnalyzeHandler)

	// Queued analysis
	apiRoutes.POST("/jobs", routes.CreateJobHandler)
	apiRoutes.GET("/jobs/:id", routes.GetJobResultHandler)
}
