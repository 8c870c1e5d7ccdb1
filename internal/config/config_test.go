package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("UPSTREAM_TIMEOUT", "15s")
	t.Setenv("FORECAST_TEST_FRACTION", "0.25")
	t.Setenv("FORECAST_HOLDOUT_ROWS", "1")
	t.Setenv("PERSIST_SESSIONS", "false")
	t.Setenv("ALLOW_LEGACY_THIRDS_RATIO", "false")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, http://b.test")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 0.25, cfg.ForecastTestFraction)
	assert.Equal(t, 1, cfg.ForecastHoldoutRows)
	assert.False(t, cfg.PersistSessions)
	assert.False(t, cfg.AllowLegacyThirdsRatio)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "UPSTREAM_TIMEOUT", "FORECAST_TEST_FRACTION", "PERSIST_SESSIONS", "CROP_CONCURRENCY"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 20*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 0.2, cfg.ForecastTestFraction)
	assert.True(t, cfg.PersistSessions)
	assert.Equal(t, 1, cfg.CropConcurrency)
	assert.Contains(t, cfg.DSN(), "dbname=cropcast")
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	t.Setenv("UPSTREAM_TIMEOUT", "soon")
	t.Setenv("CROP_CONCURRENCY", "many")

	cfg := LoadConfig()

	assert.Equal(t, 20*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 1, cfg.CropConcurrency)
}

func TestDefaultRegions(t *testing.T) {
	regions := DefaultRegions()

	seoul, ok := regions.Lookup("서울")
	require.True(t, ok)
	assert.Equal(t, "1101", seoul.MarketCountryCode)
	assert.Equal(t, "108", seoul.WeatherStationID)

	_, ok = regions.Lookup("제주")
	assert.False(t, ok)
	assert.Len(t, regions.List(), 5)
}

func TestLoadRegionsFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	content := "regions:\n" +
		"  - name: 제주\n" +
		"    market_country_code: \"3911\"\n" +
		"    weather_station_id: \"184\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	regions, err := LoadRegions(path)
	require.NoError(t, err)

	jeju, ok := regions.Lookup("제주")
	require.True(t, ok)
	assert.Equal(t, "184", jeju.WeatherStationID)
	_, ok = regions.Lookup("서울")
	assert.False(t, ok)
}

func TestLoadRegionsRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	content := "regions:\n" +
		"  - {name: 서울, market_country_code: \"1101\", weather_station_id: \"108\"}\n" +
		"  - {name: 서울, market_country_code: \"1102\", weather_station_id: \"109\"}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadRegions(path)
	assert.Error(t, err)
}
