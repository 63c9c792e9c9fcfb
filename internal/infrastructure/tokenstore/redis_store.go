package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares cached tokens across instances through Redis. Keys
// carry a TTL of MaxAge, so an expired cache entry simply reads as a miss.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration for the token store.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisStore creates a Redis-backed token store and verifies the
// connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("tokenstore: failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client:    client,
		keyPrefix: "token:cache:",
	}, nil
}

// NewRedisStoreWithClient creates a store with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "token:cache:"
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, service string) (Token, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+service).Bytes()
	if err == redis.Nil {
		return Token{}, ErrTokenNotFound
	}
	if err != nil {
		return Token{}, fmt.Errorf("tokenstore: failed to read cache: %w", err)
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return Token{}, ErrTokenNotFound
	}
	return token, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, service string, token Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("tokenstore: failed to encode token: %w", err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+service, data, MaxAge).Err(); err != nil {
		return fmt.Errorf("tokenstore: failed to write cache: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
