// Package cache berisi adapter Redis: cache baca untuk task dan storage
// untuk middleware rate limiter Fiber.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"taskhub/internal/models"
	"taskhub/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// TaskCache menyimpan task sebagai JSON di key "task:<id>". Error Redis
// hanya dicatat; cache yang tidak tersedia berarti baca langsung ke database.
type TaskCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTaskCache(client *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{client: client, ttl: ttl}
}

func taskKey(id int64) string {
	return fmt.Sprintf("task:%d", id)
}

func (c *TaskCache) Get(ctx context.Context, id int64) (models.Task, bool) {
	cached, err := c.client.Get(ctx, taskKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.ErrorLogger.Error("Error reading task cache", zap.Int64("task_id", id), zap.Error(err))
		}
		return models.Task{}, false
	}
	var t models.Task
	if err := json.Unmarshal(cached, &t); err != nil {
		logger.ErrorLogger.Error("Error decoding cached task", zap.Int64("task_id", id), zap.Error(err))
		return models.Task{}, false
	}
	return t, true
}

func (c *TaskCache) Set(ctx context.Context, t models.Task) {
	data, ok := encodeTask(t)
	if !ok {
		return
	}
	if err := c.client.Set(ctx, taskKey(t.ID), data, c.ttl).Err(); err != nil {
		logger.ErrorLogger.Error("Error caching task", zap.Int64("task_id", t.ID), zap.Error(err))
	}
}

// Add memakai SETNX: entry yang sudah ditulis oleh update tidak tertimpa.
func (c *TaskCache) Add(ctx context.Context, t models.Task) {
	data, ok := encodeTask(t)
	if !ok {
		return
	}
	if err := c.client.SetNX(ctx, taskKey(t.ID), data, c.ttl).Err(); err != nil {
		logger.ErrorLogger.Error("Error caching task", zap.Int64("task_id", t.ID), zap.Error(err))
	}
}

func encodeTask(t models.Task) ([]byte, bool) {
	data, err := json.Marshal(t)
	if err != nil {
		logger.ErrorLogger.Error("Error encoding task to JSON", zap.Int64("task_id", t.ID), zap.Error(err))
		return nil, false
	}
	return data, true
}

func (c *TaskCache) Invalidate(ctx context.Context, id int64) {
	if err := c.client.Del(ctx, taskKey(id)).Err(); err != nil {
		logger.ErrorLogger.Error("Error invalidating task cache", zap.Int64("task_id", id), zap.Error(err))
	}
}
