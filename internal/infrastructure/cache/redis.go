package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func OpenRedis(addr string, db int) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

// JSON stores values of one type under a key prefix with a fixed TTL.
type JSON[T any] struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewJSON[T any](rdb redis.Cmdable, prefix string, ttl time.Duration) *JSON[T] {
	return &JSON[T]{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *JSON[T]) key(k string) string { return c.prefix + k }

// Get reports ok=false on a miss. A value that no longer decodes counts as a
// miss and is evicted.
func (c *JSON[T]) Get(ctx context.Context, k string) (v T, ok bool, err error) {
	raw, err := c.rdb.Get(ctx, c.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		_ = c.rdb.Del(ctx, c.key(k)).Err()
		return v, false, nil
	}
	return v, true, nil
}

func (c *JSON[T]) Set(ctx context.Context, k string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(k), raw, c.ttl).Err()
}

// Claim stores v only if k is unset, with its own TTL. It reports whether
// this caller won the key.
func (c *JSON[T]) Claim(ctx context.Context, k string, v T, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	return c.rdb.SetNX(ctx, c.key(k), raw, ttl).Result()
}

func (c *JSON[T]) Delete(ctx context.Context, k string) error {
	return c.rdb.Del(ctx, c.key(k)).Err()
}
