package router

import (
	"github.com/gin-gonic/gin"

	"github.com/andreasalomone/bot-perito-sub000/internal/config"
	"github.com/andreasalomone/bot-perito-sub000/internal/handler"
	"github.com/andreasalomone/bot-perito-sub000/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	reportH *handler.ReportHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.APIKeyAuth(cfg.Security.APIKey))

	reports := v1.Group("/reports")
	reports.POST("/stream", reportH.GenerateStream)
	reports.POST("/clarifications", reportH.GenerateWithClarifications)
	reports.POST("/download", reportH.DownloadReport)

	uploads := v1.Group("/uploads")
	uploads.POST("/presign", reportH.PresignUpload)

	return r
}
