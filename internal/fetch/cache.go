package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/gogpu/shaderscene"
)

// Cache is a Generator that remembers valid payloads per prompt in Redis.
// Redis failures are logged and fall through to the wrapped generator.
type Cache struct {
	next   Generator
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL sets the expiration of cached payloads. Zero keeps them forever.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) CacheOption {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// NewCache connects to Redis at address and wraps next.
func NewCache(next Generator, address, password string, db int, opts ...CacheOption) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewCacheFromClient(next, rdb, opts...)
}

// NewCacheFromClient wraps next with an existing Redis client.
func NewCacheFromClient(next Generator, client *backend.Client, opts ...CacheOption) *Cache {
	c := &Cache{
		next:   next,
		client: client,
		prefix: "shaderscene:prompt:",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) key(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return c.prefix + hex.EncodeToString(sum[:])
}

// Generate returns the cached payload for prompt or asks the wrapped
// generator. Only payloads that pass validation are stored.
func (c *Cache) Generate(ctx context.Context, prompt string) ([]byte, error) {
	key := c.key(prompt)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		shaderscene.Logger().Debug("payload cache hit", slog.String("key", key))
		return data, nil
	case errors.Is(err, backend.Nil):
	default:
		shaderscene.Logger().Warn("payload cache read failed", slog.Any("error", err))
	}

	data, err = c.next.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if _, verr := shaderscene.Validate(data); verr != nil {
		return data, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		shaderscene.Logger().Warn("payload cache write failed", slog.Any("error", err))
	}
	return data, nil
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
