package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Fetch when the key is not cached.
var ErrMiss = errors.New("cache miss")

type RedisCache struct {
	Cli *redis.Client
	TTL time.Duration
}

func New(addr string, db int, ttlSeconds int) *RedisCache {
	return &RedisCache{
		Cli: redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		TTL: time.Duration(ttlSeconds) * time.Second,
	}
}

func UserKey(id string) string { return "user:" + id }

func PostKey(id int) string { return fmt.Sprintf("post:%d", id) }

// Fetch decodes the JSON value under key into out.
func (r *RedisCache) Fetch(ctx context.Context, key string, out any) error {
	s, err := r.Cli.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(s), out)
}

func (r *RedisCache) Store(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.Cli.Set(ctx, key, b, r.TTL).Err()
}

func (r *RedisCache) Invalidate(ctx context.Context, key string) error {
	return r.Cli.Del(ctx, key).Err()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.Cli.Ping(ctx).Err()
}
