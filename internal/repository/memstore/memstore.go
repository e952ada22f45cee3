// Package memstore adalah implementasi in-memory dari counter, user, dan
// task repository. Dipakai untuk test dan STORE_DRIVER=memory. Setiap
// operasi atomik terhadap satu record, sama seperti versi Postgres.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"taskhub/internal/models"
)

type Store struct {
	mu       sync.Mutex
	counters map[string]int64
	users    map[string]*models.User // key: Ref
	tasks    map[int64]*models.Task
}

func New() *Store {
	return &Store{
		counters: make(map[string]int64),
		users:    make(map[string]*models.User),
		tasks:    make(map[int64]*models.Task),
	}
}

// Counters, Users dan Tasks mengembalikan view bertipe untuk tiap repository.
func (s *Store) Counters() *Counters { return &Counters{s} }
func (s *Store) Users() *Users       { return &Users{s} }
func (s *Store) Tasks() *Tasks       { return &Tasks{s} }

type Counters struct{ s *Store }

func (c *Counters) NextValue(_ context.Context, name string) (int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.counters[name]++
	return c.s.counters[name], nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// sortNewestFirst mengurutkan berdasarkan waktu dibuat, lalu id sebagai tie-breaker.
func sortNewestFirst[T any](items []T, key func(T) (int64, int64)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti != tj {
			return ti > tj
		}
		return idi > idj
	})
}
