package database

import (
	"context"
	"log"
	"time"

	"taskhub/configs"
	"taskhub/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func ConnectRedis(cfg configs.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr(),
		Password:    cfg.RedisPassword,
		DB:          0,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.ErrorLogger.Error("Redis connection error", zap.Error(err))
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	return client
}
