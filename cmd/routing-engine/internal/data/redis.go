package data

import (
	"context"
	"fmt"
	"time"

	"kire/cmd/routing-engine/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// NewRedis 创建Redis客户端
func NewRedis(cfg *conf.RedisConfig, logger log.Logger) (*redis.Client, func(), error) {
	helper := log.NewHelper(logger)

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	helper.Info("Redis client connected successfully")

	cleanup := func() {
		helper.Info("Closing Redis client...")
		if err := client.Close(); err != nil {
			helper.Errorf("Failed to close Redis client: %v", err)
		}
	}

	return client, cleanup, nil
}
