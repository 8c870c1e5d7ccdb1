package routes

import (
	"cropcast/internal/controllers"
	"cropcast/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterPredictionRoutes(router *gin.Engine, predictionController *controllers.PredictionController, jwtSecret string) {
	predictionRoutes := router.Group("/prediction")
	predictionRoutes.GET("/regions", predictionController.GetRegions)
	predictionRoutes.GET("/crops", predictionController.GetCrops)
	predictionRoutes.Use(middleware.AuthMiddleware(jwtSecret))
	{
		predictionRoutes.POST("/income", predictionController.PredictIncome)

		predictionRoutes.GET("/sessions", predictionController.GetSessions)
		predictionRoutes.GET("/sessions/:id", predictionController.GetSession)
		predictionRoutes.PATCH("/sessions/:id", predictionController.RenameSession)
		predictionRoutes.DELETE("/sessions/:id", predictionController.DeleteSession)
	}
}
