package routes

import (
	"cropcast/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterSwaggerRoutes fills in the API info and serves the documentation at /swagger.
func RegisterSwaggerRoutes(router *gin.Engine, version string) {
	docs.SwaggerInfo.Title = "Cropcast API"
	docs.SwaggerInfo.Description = "Crop income estimation and next-day market price forecasts."
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.DocExpansion("list"),
		ginSwagger.PersistAuthorization(true),
	))
}
