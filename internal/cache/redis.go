package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cropcast/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(redisURL string) (*RedisClient, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

// WeatherKey is the cache key of a station's window ending on end.
func WeatherKey(stationID string, end time.Time) string {
	return fmt.Sprintf("weather:%s:%s", stationID, end.Format("20060102"))
}

// ErrCorruptEntry marks a cached value that no longer decodes.
var ErrCorruptEntry = errors.New("corrupt weather cache entry")

type weatherEntry struct {
	Rows models.WeatherSeries `json:"rows"`
}

// StoreWeather caches a station's weather series with expiration
func (r *RedisClient) StoreWeather(ctx context.Context, stationID string, end time.Time, series models.WeatherSeries, ttl time.Duration) error {
	data, err := encodeWeather(series)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, WeatherKey(stationID, end), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store weather in Redis: %w", err)
	}
	return nil
}

// GetWeather returns the cached series, or false when the key is absent.
// An entry that cannot be decoded is reported with ErrCorruptEntry.
func (r *RedisClient) GetWeather(ctx context.Context, stationID string, end time.Time) (models.WeatherSeries, bool, error) {
	data, err := r.client.Get(ctx, WeatherKey(stationID, end)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get weather from Redis: %w", err)
	}

	series, err := decodeWeather(data)
	if err != nil {
		return nil, false, err
	}
	return series, true, nil
}

// DeleteWeather evicts a station's cached window.
func (r *RedisClient) DeleteWeather(ctx context.Context, stationID string, end time.Time) error {
	return r.client.Del(ctx, WeatherKey(stationID, end)).Err()
}

// GetStatus reports connection pool counters.
func (r *RedisClient) GetStatus(ctx context.Context) (map[string]interface{}, error) {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	stats := r.client.PoolStats()

	return map[string]interface{}{
		"connected":    true,
		"hits":         stats.Hits,
		"misses":       stats.Misses,
		"active_conns": stats.TotalConns,
	}, nil
}

func encodeWeather(series models.WeatherSeries) ([]byte, error) {
	data, err := json.Marshal(weatherEntry{Rows: series})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal weather: %w", err)
	}
	return data, nil
}

func decodeWeather(data []byte) (models.WeatherSeries, error) {
	var entry weatherEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	return entry.Rows, nil
}
