package cache

import (
	"testing"
	"time"

	"cropcast/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeatherKey(t *testing.T) {
	end := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "weather:108:20240614", WeatherKey("108", end))
}

func TestWeatherEncoding(t *testing.T) {
	series := models.WeatherSeries{
		{Date: time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC), AvgTemp: 21.4, Precipitation: 3.5},
		{Date: time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), AvgTemp: 22.0},
	}

	data, err := encodeWeather(series)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rows":[`)

	decoded, err := decodeWeather(data)
	require.NoError(t, err)
	assert.Equal(t, series, decoded)
}

func TestDecodeWeatherRejectsGarbage(t *testing.T) {
	_, err := decodeWeather([]byte("not json"))
	assert.ErrorIs(t, err, ErrCorruptEntry)
}

func TestNewRedisClientBadURL(t *testing.T) {
	_, err := NewRedisClient("not-a-url")
	assert.ErrorContains(t, err, "failed to parse Redis URL")
}
