package server

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the survey API on rg.
//
// Example:
//
//	router := gin.New()
//	v1 := router.Group("/v1")
//	server.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.GET("/health", handlers.HandleHealth)
	rg.POST("/analyze", handlers.HandleAnalyze)

	// Respondent surface
	rg.GET("/session/status", handlers.HandleSessionStatus)
	rg.POST("/survey", handlers.HandleSubmit)

	datasets := rg.Group("/datasets")
	{
		datasets.POST("", handlers.HandleCreateDataset)
		datasets.GET("", handlers.HandleListDatasets)
		datasets.GET("/:id", handlers.HandleGetDataset)
		datasets.DELETE("/:id", handlers.HandleDeleteDataset)

		// Lifecycle
		datasets.PUT("/:id/open", handlers.HandleOpenDataset)
		datasets.PUT("/:id/close", handlers.HandleCloseDataset)

		// Collection
		datasets.POST("/:id/responses", handlers.HandleAppendResponse)
		datasets.GET("/:id/responses", handlers.HandleListResponses)
		datasets.DELETE("/:id/responses", handlers.HandleClearResponses)
		datasets.POST("/:id/testdata", handlers.HandleGenerateTestData)

		// Analysis
		datasets.GET("/:id/correlation", handlers.HandleCorrelation)
	}
}
