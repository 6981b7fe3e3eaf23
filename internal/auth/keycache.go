package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses url, applies poolSize and pings the server.
func NewRedisClient(ctx context.Context, url string, poolSize int) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	if poolSize > 0 {
		opt.PoolSize = poolSize
	}

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

type redisDocumentCache struct {
	client redis.Cmdable
	key    string
}

// NewRedisDocumentCache stores the JWKS document for issuer under a
// namespaced key.
func NewRedisDocumentCache(client redis.Cmdable, issuer string) DocumentCache {
	return &redisDocumentCache{client: client, key: cacheKey(issuer)}
}

func cacheKey(issuer string) string {
	return fmt.Sprintf("drinks:jwks:%s", issuer)
}

// Get returns nil, nil when nothing is cached.
func (r *redisDocumentCache) Get(ctx context.Context) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

func (r *redisDocumentCache) Set(ctx context.Context, doc []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key, doc, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set redis cache: %w", err)
	}
	return nil
}
