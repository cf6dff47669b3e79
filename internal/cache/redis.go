package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/derivs-back/pkg/config"
	"github.com/derivs-back/pkg/models"
)

// RedisClient caches the latest derived analytics per symbol
type RedisClient struct {
	client *redis.Client
	logger *logrus.Entry
	cfg    *config.RedisConfig
	ttl    time.Duration
}

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg *config.RedisConfig, logger *logrus.Logger) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  5 * time.Minute,
		MaxRetries:   2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisClient{
		client: client,
		logger: logger.WithField("component", "redis"),
		cfg:    cfg,
		ttl:    5 * time.Minute, // Default TTL
	}, nil
}

// Close closes the Redis connection
func (rc *RedisClient) Close() error {
	return rc.client.Close()
}

// Health checks Redis health
func (rc *RedisClient) Health(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// SetTTL sets the default TTL for cache entries
func (rc *RedisClient) SetTTL(ttl time.Duration) {
	rc.ttl = ttl
}

// Signal operations

// SetSignal caches the latest signal state for a symbol
func (rc *RedisClient) SetSignal(ctx context.Context, symbol string, state *models.SignalState) error {
	return rc.setJSON(ctx, fmt.Sprintf("signal:%s", symbol), state)
}

// GetSignal returns the cached signal state, or nil on a miss
func (rc *RedisClient) GetSignal(ctx context.Context, symbol string) (*models.SignalState, error) {
	var state models.SignalState
	ok, err := rc.getJSON(ctx, fmt.Sprintf("signal:%s", symbol), &state)
	if err != nil || !ok {
		return nil, err
	}
	return &state, nil
}

// Gann level operations

// SetGannLevels caches the latest Gann grid for a symbol
func (rc *RedisClient) SetGannLevels(ctx context.Context, symbol string, set *models.GannLevelSet) error {
	return rc.setJSON(ctx, fmt.Sprintf("gann:%s", symbol), set)
}

// GetGannLevels returns the cached Gann grid, or nil on a miss
func (rc *RedisClient) GetGannLevels(ctx context.Context, symbol string) (*models.GannLevelSet, error) {
	var set models.GannLevelSet
	ok, err := rc.getJSON(ctx, fmt.Sprintf("gann:%s", symbol), &set)
	if err != nil || !ok {
		return nil, err
	}
	return &set, nil
}

// Max-pain operations

// SetMaxPainInsights caches the latest max-pain insights for a symbol
func (rc *RedisClient) SetMaxPainInsights(ctx context.Context, symbol string, insights *models.MaxPainInsights) error {
	return rc.setJSON(ctx, fmt.Sprintf("maxpain:%s", symbol), insights)
}

// GetMaxPainInsights returns the cached insights, or nil on a miss
func (rc *RedisClient) GetMaxPainInsights(ctx context.Context, symbol string) (*models.MaxPainInsights, error) {
	var insights models.MaxPainInsights
	ok, err := rc.getJSON(ctx, fmt.Sprintf("maxpain:%s", symbol), &insights)
	if err != nil || !ok {
		return nil, err
	}
	return &insights, nil
}

// Series operations

// SetIntradaySeries caches the aligned intraday series for a symbol
func (rc *RedisClient) SetIntradaySeries(ctx context.Context, symbol string, points []models.PricePoint) error {
	return rc.setJSON(ctx, fmt.Sprintf("series:%s", symbol), points)
}

// GetIntradaySeries returns the cached aligned series, or nil on a miss
func (rc *RedisClient) GetIntradaySeries(ctx context.Context, symbol string) ([]models.PricePoint, error) {
	var points []models.PricePoint
	ok, err := rc.getJSON(ctx, fmt.Sprintf("series:%s", symbol), &points)
	if err != nil || !ok {
		return nil, err
	}
	return points, nil
}

// OI operations

// SetOISnapshot caches the aggregated per-strike OI snapshot for a symbol
func (rc *RedisClient) SetOISnapshot(ctx context.Context, symbol string, records []models.OIChangeRecord) error {
	return rc.setJSON(ctx, fmt.Sprintf("oi:%s", symbol), records)
}

// GetOISnapshot returns the cached OI snapshot, or nil on a miss
func (rc *RedisClient) GetOISnapshot(ctx context.Context, symbol string) ([]models.OIChangeRecord, error) {
	var records []models.OIChangeRecord
	ok, err := rc.getJSON(ctx, fmt.Sprintf("oi:%s", symbol), &records)
	if err != nil || !ok {
		return nil, err
	}
	return records, nil
}

// setJSON marshals a value into a key with the default TTL
func (rc *RedisClient) setJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return rc.client.Set(ctx, key, data, rc.ttl).Err()
}

// getJSON unmarshals a key into v; the bool reports whether the key existed
func (rc *RedisClient) getJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := rc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}
