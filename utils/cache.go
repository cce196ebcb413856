package utils

import (
	"context"
	"fmt"
	"time"

	"servicehub/config"

	"github.com/go-redis/redis/v8"
)

// SessionCacheClient backs the per-browser-session role cache.
var SessionCacheClient *redis.Client

// InitSessionCache connects the Redis client used for session role caching.
func InitSessionCache() error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis (session cache): %w", err)
	}
	SessionCacheClient = client
	return nil
}
