package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"silverSignalBot/internal/domain"
	"silverSignalBot/internal/ports"
)

const keyPrefix = "trade:position:"

// Store implements ports.PositionStore on Redis, for deployments where the
// bot process is replaceable and positions must outlive it.
type Store struct {
	client *redis.Client
	logger ports.Logger
}

// Config holds connection settings for the Redis position store.
type Config struct {
	Addr     string
	Password string
	DB       int
	Logger   ports.Logger
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for redis store")
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: redis address is required", ports.ErrConfigurationError)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	cfg.Logger.Info(ctx, "redis position store connected", map[string]interface{}{"addr": cfg.Addr})
	return &Store{client: client, logger: cfg.Logger}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// Get retrieves the position for the user id, or nil when absent.
func (s *Store) Get(ctx context.Context, userID string) (*domain.TradePosition, error) {
	data, err := s.client.Get(ctx, keyPrefix+userID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading position for %s: %w", userID, err)
	}
	var pos domain.TradePosition
	if err := json.Unmarshal(data, &pos); err != nil {
		return nil, fmt.Errorf("%w: stored position for %s is not valid JSON", ports.ErrStoreInconsistent, userID)
	}
	return &pos, nil
}

// Put creates or replaces the position for its user id.
func (s *Store) Put(ctx context.Context, pos *domain.TradePosition) error {
	if pos == nil || pos.UserID == "" {
		return fmt.Errorf("position with user id is required")
	}
	data, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("encoding position for %s: %w", pos.UserID, err)
	}
	if err := s.client.Set(ctx, keyPrefix+pos.UserID, data, 0).Err(); err != nil {
		return fmt.Errorf("storing position for %s: %w", pos.UserID, err)
	}
	return nil
}

// Delete removes the position for the user id.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, keyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("deleting position for %s: %w", userID, err)
	}
	return nil
}
