package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"cropcast/database"
	"cropcast/internal/cache"
	"cropcast/internal/config"
	"cropcast/internal/controllers"
	"cropcast/internal/forecast"
	"cropcast/internal/market"
	"cropcast/internal/reference"
	"cropcast/internal/repository"
	"cropcast/internal/services"
	"cropcast/internal/weather"
	"cropcast/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const apiVersion = "1.0.0"

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.LoadConfig()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY is required")
	}

	regions, err := config.LoadRegions(cfg.RegionsFile)
	if err != nil {
		log.Fatalf("Failed to load regions: %v", err)
	}

	tables, err := reference.LoadTables(cfg.CropIncomeTable, cfg.CropCodeTable)
	if err != nil {
		log.Fatalf("Failed to load reference tables: %v", err)
	}

	var sessionRepo repository.PredictionSessionRepository
	if cfg.PersistSessions {
		if err := database.ConnectDatabase(cfg.DSN()); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := database.MigrateDatabase(); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
		database.MonitorDBConnections()
		sessionRepo = repository.NewPredictionSessionRepository(database.DB)
	} else {
		log.Println("Session persistence disabled")
	}

	var weatherCache services.WeatherCache
	var redisClient *cache.RedisClient
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: weather cache disabled: %v", err)
		} else {
			defer redisClient.Close()
			weatherCache = redisClient
			log.Printf("Weather cache enabled (ttl %v)", cfg.WeatherCacheTTL)
		}
	}

	predictionService := services.NewPredictionService(
		tables,
		regions,
		weather.NewClient(cfg.WeatherAPIURL, cfg.WeatherServiceKey, cfg.UpstreamTimeout),
		market.NewClient(cfg.MarketAPIURL, cfg.MarketCertKey, cfg.MarketCertID, cfg.UpstreamTimeout),
		forecast.NewEngine(cfg.ForecastTestFraction, cfg.ForecastHoldoutRows),
		sessionRepo,
		weatherCache,
		services.PredictionOptions{
			AllowLegacyThirds: cfg.AllowLegacyThirdsRatio,
			Concurrency:       cfg.CropConcurrency,
			WeatherCacheTTL:   cfg.WeatherCacheTTL,
		},
	)
	predictionController := controllers.NewPredictionController(predictionService)

	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowHeaders("Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/", func(c *gin.Context) {
		response := gin.H{
			"message":          "Cropcast API is running",
			"version":          apiVersion,
			"status":           "healthy",
			"regions":          len(regions.List()),
			"crops":            len(tables.Crops()),
			"persist_sessions": predictionService.PersistsSessions(),
		}

		if redisClient != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if status, err := redisClient.GetStatus(ctx); err != nil {
				response["weather_cache"] = gin.H{"connected": false, "error": err.Error()}
			} else {
				response["weather_cache"] = status
			}
		}

		c.JSON(http.StatusOK, response)
	})

	routes.RegisterPredictionRoutes(router, predictionController, cfg.JWTSecret)
	routes.RegisterSwaggerRoutes(router, apiVersion)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   120 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Printf("Server starting on port %s", cfg.Port)
	log.Printf("Health Check: http://localhost:%s/", cfg.Port)
	log.Printf("API Documentation: http://localhost:%s/swagger/index.html", cfg.Port)

	if err := server.ListenAndServe(); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
