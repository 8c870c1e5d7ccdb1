package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Port    string
	GinMode string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string
	DBTimeZone string

	PersistSessions bool
	JWTSecret       string
	CORSOrigins     []string

	WeatherAPIURL     string
	WeatherServiceKey string
	MarketAPIURL      string
	MarketCertKey     string
	MarketCertID      string
	UpstreamTimeout   time.Duration

	CropIncomeTable string
	CropCodeTable   string
	RegionsFile     string

	RedisURL        string
	WeatherCacheTTL time.Duration

	ForecastTestFraction   float64
	ForecastHoldoutRows    int
	AllowLegacyThirdsRatio bool
	CropConcurrency        int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "release"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "cropcast"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBTimeZone: getEnv("DB_TIMEZONE", "Asia/Seoul"),

		PersistSessions: getEnvBool("PERSIST_SESSIONS", true),
		JWTSecret:       getEnv("JWT_SECRET_KEY", ""),
		CORSOrigins:     getEnvList("CORS_ALLOW_ORIGINS"),

		WeatherAPIURL:     getEnv("WEATHER_API_URL", "http://apis.data.go.kr/1360000/AsosDalyInfoService/getWthrDataList"),
		WeatherServiceKey: getEnv("WEATHER_SERVICE_KEY", ""),
		MarketAPIURL:      getEnv("MARKET_API_URL", "http://www.kamis.or.kr/service/price/xml.do"),
		MarketCertKey:     getEnv("MARKET_CERT_KEY", ""),
		MarketCertID:      getEnv("MARKET_CERT_ID", ""),
		UpstreamTimeout:   getEnvDuration("UPSTREAM_TIMEOUT", 20*time.Second),

		CropIncomeTable: getEnv("CROP_INCOME_TABLE", "data/all_crop_data.csv"),
		CropCodeTable:   getEnv("CROP_CODE_TABLE", "data/predict_code.csv"),
		RegionsFile:     getEnv("REGIONS_FILE", ""),

		RedisURL:        getEnv("REDIS_URL", ""),
		WeatherCacheTTL: getEnvDuration("WEATHER_CACHE_TTL", 6*time.Hour),

		ForecastTestFraction:   getEnvFloat("FORECAST_TEST_FRACTION", 0.2),
		ForecastHoldoutRows:    getEnvInt("FORECAST_HOLDOUT_ROWS", 0),
		AllowLegacyThirdsRatio: getEnvBool("ALLOW_LEGACY_THIRDS_RATIO", true),
		CropConcurrency:        getEnvInt("CROP_CONCURRENCY", 1),
	}
}

// DSN builds the postgres connection string for gorm.
func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" application_name=cropcast TimeZone=" + c.DBTimeZone
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid boolean for %s=%q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Invalid number for %s=%q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s=%q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
