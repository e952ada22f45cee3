package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type CounterRepository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewCounterRepository(db *sql.DB, timeout time.Duration) *CounterRepository {
	return &CounterRepository{db: db, timeout: timeout}
}

// NextValue menaikkan counter dan mengembalikan nilai setelah dinaikkan.
// Counter baru dimulai dari 0, sehingga nilai pertama adalah 1. Upsert
// dijalankan sebagai satu statement sehingga aman untuk pemanggil bersamaan.
func (r *CounterRepository) NextValue(ctx context.Context, name string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var value int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value`, name).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("next value %q: %w", name, err)
	}
	return value, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
