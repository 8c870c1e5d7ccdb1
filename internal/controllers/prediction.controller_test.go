package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cropcast/internal/apperror"
	"cropcast/internal/config"
	"cropcast/internal/controllers"
	"cropcast/internal/mocks"
	"cropcast/internal/models"
	"cropcast/internal/reference"
	"cropcast/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type controllerMocks struct {
	repo       *mocks.MockPredictionSessionRepository
	weather    *mocks.MockWeatherFetcher
	market     *mocks.MockMarketFetcher
	forecaster *mocks.MockForecaster
}

func setupPredictionController() (*controllers.PredictionController, controllerMocks) {
	m := controllerMocks{
		repo:       new(mocks.MockPredictionSessionRepository),
		weather:    new(mocks.MockWeatherFetcher),
		market:     new(mocks.MockMarketFetcher),
		forecaster: new(mocks.MockForecaster),
	}
	tables := reference.NewTables(
		[]models.CropReferenceRecord{{CropName: "감자", Period: 2023, Income: 3025000}},
		[]models.CropCode{{CropName: "감자", CategoryCode: 100, ItemCode: 152}},
	)
	service := services.NewPredictionService(tables, config.DefaultRegions(), m.weather, m.market, m.forecaster,
		m.repo, nil, services.PredictionOptions{AllowLegacyThirds: true})
	return controllers.NewPredictionController(service), m
}

func setupPredictionTestRouter(pc *controllers.PredictionController, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/prediction/regions", pc.GetRegions)
	router.GET("/prediction/crops", pc.GetCrops)

	auth := router.Group("/prediction")
	auth.Use(func(c *gin.Context) {
		if userID != 0 {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	auth.POST("/income", pc.PredictIncome)
	auth.GET("/sessions", pc.GetSessions)
	auth.GET("/sessions/:id", pc.GetSession)
	auth.PATCH("/sessions/:id", pc.RenameSession)
	auth.DELETE("/sessions/:id", pc.DeleteSession)
	return router
}

func testWeather() models.WeatherSeries {
	return models.WeatherSeries{
		{Date: time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC), AvgTemp: 21},
		{Date: time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), AvgTemp: 22},
	}
}

func testPrices() models.PriceSeries {
	return models.PriceSeries{{Date: time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC), Variety: "수미", Price: 3000}}
}

func TestPredictIncome(t *testing.T) {
	tests := []struct {
		name           string
		userID         uint
		body           string
		setupMocks     func(controllerMocks)
		expectedStatus int
		expectedCode   int
	}{
		{
			name:   "Success",
			userID: 1,
			body:   `{"land_area": 1000, "crop_names": ["감자"], "crop_ratios": [1.0], "region": "서울"}`,
			setupMocks: func(m controllerMocks) {
				r2 := 0.9
				m.weather.On("FetchDaily", mock.Anything, "108", mock.Anything, mock.Anything).Return(testWeather(), nil)
				m.market.On("FetchPrices", mock.Anything, mock.Anything).Return(testPrices(), nil)
				m.forecaster.On("Forecast", mock.Anything, mock.Anything).
					Return(&models.ForecastResult{PredictedPrice: 3050, R2Score: &r2, RMSE: 4}, nil)
				m.repo.On("SaveSession", mock.AnythingOfType("*models.PredictionSession")).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Unauthorized",
			userID:         0,
			body:           `{}`,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Malformed JSON",
			userID:         1,
			body:           `{"land_area": `,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apperror.CodeBadRequest,
		},
		{
			name:           "Ratio sum violated",
			userID:         1,
			body:           `{"land_area": 1000, "crop_names": "감자,감자", "crop_ratios": [0.5, 0.4], "region": "서울"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apperror.CodeRatioSum,
		},
		{
			name:   "Unknown crop",
			userID: 1,
			body:   `{"land_area": 1000, "crop_names": ["토마토"], "crop_ratios": [1], "region": "서울"}`,
			setupMocks: func(m controllerMocks) {
				m.weather.On("FetchDaily", mock.Anything, "108", mock.Anything, mock.Anything).Return(testWeather(), nil)
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   apperror.CodeNotFound,
		},
		{
			name:   "Weather service down",
			userID: 1,
			body:   `{"land_area": "1000", "crop_names": ["감자"], "crop_ratios": ["1"], "region": "서울"}`,
			setupMocks: func(m controllerMocks) {
				m.weather.On("FetchDaily", mock.Anything, "108", mock.Anything, mock.Anything).
					Return(nil, apperror.UpstreamUnavailable("Weather service is unreachable.", nil))
			},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   apperror.CodeUpstreamUnavailable,
		},
		{
			name:   "Missing price features",
			userID: 1,
			body:   `{"land_area": 1000, "crop_names": ["감자"], "crop_ratios": [1], "region": "서울"}`,
			setupMocks: func(m controllerMocks) {
				m.weather.On("FetchDaily", mock.Anything, "108", mock.Anything, mock.Anything).Return(testWeather(), nil)
				m.market.On("FetchPrices", mock.Anything, mock.Anything).Return(testPrices(), nil)
				m.forecaster.On("Forecast", mock.Anything, mock.Anything).
					Return(nil, apperror.MissingFeature("Not enough market prices to train a model."))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   apperror.CodeMissingFeature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, m := setupPredictionController()
			if tt.setupMocks != nil {
				tt.setupMocks(m)
			}
			router := setupPredictionTestRouter(pc, tt.userID)

			req, _ := http.NewRequest(http.MethodPost, "/prediction/income", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "success", response["status"])
				assert.Equal(t, float64(10000000), response["total_income"])
				assert.NotEmpty(t, response["session_id"])
				results := response["results"].([]interface{})
				require.Len(t, results, 1)
				first := results[0].(map[string]interface{})
				assert.Equal(t, float64(3050), first["price"])
				assert.Equal(t, "감자", first["crop_name"])
				assert.NotNil(t, first["crop_chart_data"])
				assert.Equal(t, 0.9, response["r2_scores"].(map[string]interface{})["감자"])
				m.repo.AssertExpectations(t)
				return
			}

			assert.Equal(t, "error", response["status"])
			if tt.expectedCode != 0 {
				assert.Equal(t, float64(tt.expectedCode), response["code"])
				assert.Equal(t, float64(tt.expectedStatus), response["status_code"])
			}
			m.repo.AssertNotCalled(t, "SaveSession", mock.Anything)
		})
	}
}

func TestSessionEndpoints(t *testing.T) {
	owned := &models.PredictionSession{ID: "session-1", UserID: 1, Name: "봄 작기",
		Results: []models.CropResult{{CropName: "감자", PredictedPrice: 3050}}}

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		setupMocks     func(*mocks.MockPredictionSessionRepository)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:   "List sessions",
			method: http.MethodGet,
			path:   "/prediction/sessions?limit=5",
			setupMocks: func(repo *mocks.MockPredictionSessionRepository) {
				repo.On("GetSessionsByUserID", uint(1), 5).Return([]models.PredictionSession{*owned}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "Prediction sessions retrieved successfully",
		},
		{
			name:   "List sessions with default limit",
			method: http.MethodGet,
			path:   "/prediction/sessions",
			setupMocks: func(repo *mocks.MockPredictionSessionRepository) {
				repo.On("GetSessionsByUserID", uint(1), services.DefaultSessionLimit).Return([]models.PredictionSession{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "Prediction sessions retrieved successfully",
		},
		{
			name:           "Invalid limit",
			method:         http.MethodGet,
			path:           "/prediction/sessions?limit=-1",
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Limit must be a positive integer",
		},
		{
			name:   "Get session",
			method: http.MethodGet,
			path:   "/prediction/sessions/session-1",
			setupMocks: func(repo *mocks.MockPredictionSessionRepository) {
				repo.On("GetSessionByID", "session-1").Return(owned, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "Prediction session retrieved successfully",
		},
		{
			name:   "Get foreign session",
			method: http.MethodGet,
			path:   "/prediction/sessions/session-2",
			setupMocks: func(repo *mocks.MockPredictionSessionRepository) {
				repo.On("GetSessionByID", "session-2").Return(&models.PredictionSession{ID: "session-2", UserID: 2}, nil)
			},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "You do not have permission to access this session.",
		},
		{
			name:   "Get missing session",
			method: http.MethodGet,
			path:   "/prediction/sessions/nope",
			setupMocks: func(repo *mocks.MockPredictionSessionRepository) {
				repo.On("GetSessionByID", "nope").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Session not found.",
		},
		{
			name:   "Rename session",
			method: http.MethodPatch,
			path:   "/prediction/sessions/session-1",
			body:   `{"session_name": "여름 작기"}`,
			setupMocks: func(repo *mocks.MockPredictionSessionRepository) {
				repo.On("GetSessionByID", "session-1").Return(owned, nil)
				repo.On("RenameSession", "session-1", "여름 작기").Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "Prediction session renamed successfully",
		},
		{
			name:           "Rename without name",
			method:         http.MethodPatch,
			path:           "/prediction/sessions/session-1",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "Delete session",
			method: http.MethodDelete,
			path:   "/prediction/sessions/session-1",
			setupMocks: func(repo *mocks.MockPredictionSessionRepository) {
				repo.On("GetSessionByID", "session-1").Return(owned, nil)
				repo.On("DeleteSession", "session-1").Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "Prediction session deleted successfully",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, m := setupPredictionController()
			if tt.setupMocks != nil {
				tt.setupMocks(m.repo)
			}
			router := setupPredictionTestRouter(pc, 1)

			var body *bytes.Buffer
			if tt.body != "" {
				body = bytes.NewBufferString(tt.body)
			} else {
				body = &bytes.Buffer{}
			}
			req, _ := http.NewRequest(tt.method, tt.path, body)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, response["message"])
			}
			m.repo.AssertExpectations(t)
		})
	}
}

func TestUnexpectedUserIDType(t *testing.T) {
	pc, m := setupPredictionController()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", "42")
		c.Next()
	})
	router.GET("/prediction/sessions", pc.GetSessions)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/prediction/sessions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	m.repo.AssertNotCalled(t, "GetSessionsByUserID", mock.Anything, mock.Anything)
}

func TestCatalogEndpoints(t *testing.T) {
	pc, _ := setupPredictionController()
	router := setupPredictionTestRouter(pc, 0)

	req, _ := http.NewRequest(http.MethodGet, "/prediction/regions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"weather_station_id":"108"`)

	req, _ = http.NewRequest(http.MethodGet, "/prediction/crops", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"forecastable":true`)
}
