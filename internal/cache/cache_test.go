package cache

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"taskhub/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRedis *redis.Client

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err != nil || pool.Client.Ping() != nil {
		log.Println("Docker not available, skipping Redis tests")
		os.Exit(m.Run())
	}
	pool.MaxWait = time.Minute

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start redis: %v", err)
	}
	_ = resource.Expire(120)

	client := redis.NewClient(&redis.Options{Addr: resource.GetHostPort("6379/tcp")})
	if err := pool.Retry(func() error {
		return client.Ping(context.Background()).Err()
	}); err != nil {
		_ = pool.Purge(resource)
		log.Fatalf("Could not connect to redis: %v", err)
	}
	testRedis = client

	code := m.Run()

	_ = client.Close()
	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge redis: %v", err)
	}
	os.Exit(code)
}

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	if testRedis == nil {
		t.Skip("Redis not available")
	}
	require.NoError(t, testRedis.FlushDB(context.Background()).Err())
	return testRedis
}

func TestTaskCache(t *testing.T) {
	c := NewTaskCache(redisClient(t), time.Minute)
	ctx := context.Background()

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)

	task := models.Task{ID: 1, OwnerID: 7, Title: "Cached", Status: models.StatusPending, Attachments: models.Attachments{{ID: "a"}}}
	c.Set(ctx, task)

	got, ok := c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, int64(7), got.OwnerID)
	assert.Equal(t, "Cached", got.Title)
	require.Len(t, got.Attachments, 1)

	stale := task
	stale.Title = "Stale"
	c.Add(ctx, stale)
	got, ok = c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "Cached", got.Title)

	c.Invalidate(ctx, 1)
	c.Add(ctx, stale)
	got, ok = c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "Stale", got.Title)

	c.Invalidate(ctx, 1)
	_, ok = c.Get(ctx, 1)
	assert.False(t, ok)
}

func TestLimiterStorage(t *testing.T) {
	client := redisClient(t)
	s := NewLimiterStorage(client, "limiter:")

	val, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set("ip1", []byte("3"), time.Minute))
	val, err = s.Get("ip1")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), val)

	require.NoError(t, client.Set(context.Background(), "other", "keep", 0).Err())
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("ip%d", i+2), []byte("1"), time.Minute))
	}
	require.NoError(t, s.Reset())

	val, err = s.Get("ip1")
	require.NoError(t, err)
	assert.Nil(t, val)
	assert.Equal(t, "keep", client.Get(context.Background(), "other").Val())

	require.NoError(t, s.Delete("ip1"))
	require.NoError(t, s.Close())
}
