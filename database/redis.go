package database

import (
	"context"
	"log"

	"giftapp/config"

	redis "github.com/redis/go-redis/v9"
)

// Redis is the optional shared client used for cross-process coordination
// (ad-view throttling). Nil when REDIS_ADDR is not configured; callers fall
// back to in-process state.
var Redis *redis.Client

func ConnectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rc := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err := rc.Ping(context.Background()).Err(); err != nil {
		// Redis is an optimization here, not a dependency; don't fail startup.
		log.Printf("[redis] ping failed, continuing without redis: %v", err)
		return nil
	}
	Redis = rc
	return rc
}
