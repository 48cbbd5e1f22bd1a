package lock

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/lumina/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewRedisClient connects to redis when REDIS_ADDR is set; otherwise locking
// degrades to the nil Locker.
func NewRedisClient(cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("redis not configured, distributed locking disabled")
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

var Module = fx.Module("lock",
	fx.Provide(
		NewRedisClient,
		NewLocker,
	),
)
