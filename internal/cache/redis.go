// Package cache keeps rendered report documents in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kdimtricp/deepcheck/internal/logger"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// DocumentCache implements render.Cache on a Redis client.
type DocumentCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewDocumentCache connects to Redis and verifies the connection with a ping.
func NewDocumentCache(cfg Config, log *logger.Logger) (*DocumentCache, error) {
	if log == nil {
		log = logger.Nop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info("redis connection established", "addr", cfg.Addr, "db", cfg.DB)
	return &DocumentCache{client: client, ttl: cfg.TTL, logger: log}, nil
}

// Get returns the cached document for key. A missing key is not an error.
func (c *DocumentCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores data under key. A zero TTL keeps the entry until evicted.
func (c *DocumentCache) Set(ctx context.Context, key string, data []byte) error {
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *DocumentCache) Delete(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

func (c *DocumentCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *DocumentCache) Close() error {
	c.logger.Info("closing redis connection")
	return c.client.Close()
}
