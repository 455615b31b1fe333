// Package api wires the HTTP surface of the analyzer.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/ranalyzer-go/internal/api/handlers"
	"github.com/frostdev-ops/ranalyzer-go/internal/api/middleware"
	"github.com/frostdev-ops/ranalyzer-go/internal/config"
)

// NewRouter creates and configures the main HTTP router
func NewRouter(cfg *config.Config, h *handlers.Handlers, logger *logrus.Logger) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	router.Use(middleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.ErrorResponseMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/analyze", h.Analyze)

		api.POST("/upload", h.Upload)
		api.GET("/uploads", h.ListUploads)

		api.POST("/ask", h.Ask)

		sites := api.Group("/sites/:site")
		{
			sites.GET("/baseline", h.GetBaseline)
			sites.POST("/baseline/refresh", h.RefreshBaseline)
		}
	}

	return router
}
