package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/utils"
)

// RedisCache is an ICache shared by every instance pointed at the same redis.
type RedisCache struct {
	client *redis.Client
	clock  utils.Clock
	prefix string
}

func NewRedisCache(client *redis.Client, clock utils.Clock, prefix string) *RedisCache {
	return &RedisCache{client: client, clock: clock, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	return c.decode(raw, err)
}

func (c *RedisCache) Set(ctx context.Context, key string, entry model.CacheEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	var ttl time.Duration
	if !entry.ExpiresAt.IsZero() {
		ttl = entry.ExpiresAt.Sub(c.clock.Now())
		if ttl <= 0 {
			return c.client.Del(ctx, c.prefix+key).Err()
		}
	}
	return c.client.Set(ctx, c.prefix+key, payload, ttl).Err()
}

// Pop reads and deletes the key in one GETDEL, so two concurrent callers
// can never both receive the same entry.
func (c *RedisCache) Pop(ctx context.Context, key string) (*model.CacheEntry, error) {
	raw, err := c.client.GetDel(ctx, c.prefix+key).Bytes()
	return c.decode(raw, err)
}

func (c *RedisCache) decode(raw []byte, err error) (*model.CacheEntry, error) {
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e model.CacheEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	if !e.ExpiresAt.IsZero() && !c.clock.Now().Before(e.ExpiresAt) {
		return nil, nil
	}
	return &e, nil
}

var _ repository.ICache = (*RedisCache)(nil)
