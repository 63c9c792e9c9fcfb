package tokenstore

import (
	"fmt"

	"go.uber.org/zap"
)

// Backend selects the token cache implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
)

// StoreConfig holds the configuration needed to build a Store.
type StoreConfig struct {
	Backend Backend
	// Dir is the cache directory for the file backend.
	Dir string
	// Redis holds connection settings for the redis backend.
	Redis RedisConfig
}

// NewStore builds the configured Store implementation. The file backend is
// the default for single-host runs; redis shares tokens across instances.
func NewStore(cfg StoreConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendFile, "":
		store, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		logger.Info("Using file token cache", zap.String("dir", cfg.Dir))
		return store, nil
	case BackendMemory:
		logger.Info("Using in-memory token cache; tokens will not survive restarts")
		return NewMemoryStore(), nil
	case BackendRedis:
		store, err := NewRedisStore(cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.Info("Using Redis token cache",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
		return store, nil
	default:
		return nil, fmt.Errorf("tokenstore: unknown backend %q", cfg.Backend)
	}
}
