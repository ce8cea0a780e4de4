package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"twcompany/internal/api/handlers/batch"
	"twcompany/internal/api/handlers/company"
	"twcompany/internal/api/handlers/system"
	lookupapp "twcompany/internal/application/lookup"
)

// Register регистрирует все маршруты API
func Register(router *gin.Engine, useCase *lookupapp.UseCase) {
	companyHandler := company.NewHandler(useCase)
	batchHandler := batch.NewHandler(useCase)
	systemHandler := system.NewHandler(useCase)

	api := router.Group("/api")
	{
		companyGroup := api.Group("/company")
		companyGroup.GET("/lookup", companyHandler.Lookup)
		companyGroup.GET("/search", companyHandler.Search)
		companyGroup.GET("/:id", companyHandler.Detail)

		batchGroup := api.Group("/batch")
		batchGroup.POST("", batchHandler.Reconcile)
		batchGroup.GET("/template", batchHandler.Template)

		api.GET("/health", systemHandler.Health)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
