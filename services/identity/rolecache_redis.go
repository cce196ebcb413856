package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicehub/models"

	"github.com/go-redis/redis/v8"
)

const roleCachePrefix = "session:"

// RedisRoleCache stores the two keys of a browser session in Redis with a TTL
// that is refreshed on every write.
type RedisRoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRoleCache(client *redis.Client, ttl time.Duration) *RedisRoleCache {
	return &RedisRoleCache{client: client, ttl: ttl}
}

func roleKey(sid string) string   { return roleCachePrefix + sid + ":userRole" }
func userIDKey(sid string) string { return roleCachePrefix + sid + ":userId" }

func (c *RedisRoleCache) Load(ctx context.Context, sid string) (Cached, error) {
	vals, err := c.client.MGet(ctx, roleKey(sid), userIDKey(sid)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Cached{}, fmt.Errorf("failed to load role cache: %w", err)
	}
	var out Cached
	if len(vals) == 2 {
		if s, ok := vals[0].(string); ok {
			out.Role = models.Role(s)
		}
		if s, ok := vals[1].(string); ok {
			out.UserID = s
		}
	}
	return out, nil
}

func (c *RedisRoleCache) SetUserID(ctx context.Context, sid, uid string) error {
	if err := c.client.Set(ctx, userIDKey(sid), uid, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache user id: %w", err)
	}
	return nil
}

func (c *RedisRoleCache) SetRole(ctx context.Context, sid string, role models.Role) error {
	if err := c.client.Set(ctx, roleKey(sid), string(role), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache role: %w", err)
	}
	return nil
}

func (c *RedisRoleCache) Clear(ctx context.Context, sid string) error {
	if err := c.client.Del(ctx, roleKey(sid), userIDKey(sid)).Err(); err != nil {
		return fmt.Errorf("failed to clear role cache: %w", err)
	}
	return nil
}
