package redisStore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

type Store struct {
	client *redis.Client
	Type   int
	logger *logger_i.Logger
}

// NewRedisStore connects and pings. A Redis that does not answer within RedisPingLimit is an error,
// the caller decides whether to fall back to memory.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	newClient := redis.NewClient(&redis.Options{
		Addr:                  cfg.Addr,
		Password:              cfg.Password,
		DB:                    cfg.DB,
		ContextTimeoutEnabled: true,
		ReadTimeout:           config.RedisTimeout,
		WriteTimeout:          config.RedisTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, config.RedisPingLimit)
	defer cancel()

	if err := newClient.Ping(pingCtx).Err(); err != nil {
		_ = newClient.Close()
		return nil, fmt.Errorf("redis at %s is offline: %w", cfg.Addr, err)
	}

	s := newStore(newClient, cfg.DB)
	s.logger.Info("Redis store connected", "addr", cfg.Addr)
	return s, nil
}

func newStore(client *redis.Client, dbType int) *Store {
	return &Store{
		client: client,
		Type:   dbType,
		logger: logger_i.NewLogger("Redis Store: " + strconv.Itoa(dbType)),
	}
}

func (s *Store) Close() error {
	s.logger.Info("Closing Redis Store")
	return s.client.Close()
}

// NewTestStore wraps an existing client, tests point it at miniredis.
func NewTestStore(client *redis.Client) *Store {
	return newStore(client, 0)
}
