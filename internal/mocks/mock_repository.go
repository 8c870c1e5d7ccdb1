package mocks

import (
	"context"
	"time"

	"cropcast/internal/market"
	"cropcast/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockPredictionSessionRepository struct {
	mock.Mock
}

func (m *MockPredictionSessionRepository) SaveSession(session *models.PredictionSession) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *MockPredictionSessionRepository) GetSessionsByUserID(userID uint, limit int) ([]models.PredictionSession, error) {
	args := m.Called(userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PredictionSession), args.Error(1)
}

func (m *MockPredictionSessionRepository) GetSessionByID(id string) (*models.PredictionSession, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PredictionSession), args.Error(1)
}

func (m *MockPredictionSessionRepository) RenameSession(id, name string) error {
	args := m.Called(id, name)
	return args.Error(0)
}

func (m *MockPredictionSessionRepository) DeleteSession(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

type MockWeatherFetcher struct {
	mock.Mock
}

func (m *MockWeatherFetcher) FetchDaily(ctx context.Context, stationID string, start, end time.Time) (models.WeatherSeries, error) {
	args := m.Called(ctx, stationID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.WeatherSeries), args.Error(1)
}

type MockMarketFetcher struct {
	mock.Mock
}

func (m *MockMarketFetcher) FetchPrices(ctx context.Context, q market.Query) (models.PriceSeries, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.PriceSeries), args.Error(1)
}

type MockForecaster struct {
	mock.Mock
}

func (m *MockForecaster) Forecast(weather models.WeatherSeries, prices models.PriceSeries) (*models.ForecastResult, error) {
	args := m.Called(weather, prices)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForecastResult), args.Error(1)
}

type MockWeatherCache struct {
	mock.Mock
}

func (m *MockWeatherCache) GetWeather(ctx context.Context, stationID string, end time.Time) (models.WeatherSeries, bool, error) {
	args := m.Called(ctx, stationID, end)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(models.WeatherSeries), args.Bool(1), args.Error(2)
}

func (m *MockWeatherCache) StoreWeather(ctx context.Context, stationID string, end time.Time, series models.WeatherSeries, ttl time.Duration) error {
	args := m.Called(ctx, stationID, end, series, ttl)
	return args.Error(0)
}

func (m *MockWeatherCache) DeleteWeather(ctx context.Context, stationID string, end time.Time) error {
	args := m.Called(ctx, stationID, end)
	return args.Error(0)
}
