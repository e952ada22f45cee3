package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// LimiterStorage mengimplementasikan fiber.Storage di atas Redis sehingga
// hitungan rate limit dibagi oleh semua instance server.
type LimiterStorage struct {
	client *redis.Client
	prefix string
}

func NewLimiterStorage(client *redis.Client, prefix string) *LimiterStorage {
	return &LimiterStorage{client: client, prefix: prefix}
}

func (s *LimiterStorage) key(k string) string { return s.prefix + k }

// Get mengembalikan nil tanpa error jika key tidak ada, sesuai kontrak fiber.Storage.
func (s *LimiterStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	val, err := s.client.Get(context.Background(), s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return val, err
}

func (s *LimiterStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.client.Set(context.Background(), s.key(key), val, exp).Err()
}

func (s *LimiterStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.client.Del(context.Background(), s.key(key)).Err()
}

// Reset menghapus semua key dengan prefix milik storage ini.
func (s *LimiterStorage) Reset() error {
	ctx := context.Background()
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close tidak menutup client Redis karena client dimiliki pemanggil.
func (s *LimiterStorage) Close() error { return nil }
