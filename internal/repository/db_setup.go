package repository

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS counters (
    name VARCHAR(64) PRIMARY KEY,
    value BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS users (
    ref VARCHAR(64) PRIMARY KEY,
    id BIGINT UNIQUE,
    username VARCHAR(255) NOT NULL UNIQUE,
    email VARCHAR(255) UNIQUE,
    password VARCHAR(255) NOT NULL,
    role VARCHAR(16) NOT NULL CHECK (role IN ('admin', 'user')),
    session_token TEXT,
    profile_picture VARCHAR(512),
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS users_role_idx ON users (role);

CREATE TABLE IF NOT EXISTS tasks (
    id BIGINT PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users (id),
    title VARCHAR(255) NOT NULL CHECK (title <> ''),
    description TEXT NOT NULL DEFAULT '',
    status VARCHAR(32) NOT NULL CHECK (status IN ('pending', 'in-progress', 'completed')),
    attachments JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS tasks_user_created_idx ON tasks (user_id, created_at DESC);
`

// CreateTableIfNotExists menyiapkan semua tabel. Aman dijalankan setiap start.
func CreateTableIfNotExists(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// DeleteAllTable menghapus semua tabel. Hanya untuk test.
func DeleteAllTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
    DROP TABLE IF EXISTS tasks;
    DROP TABLE IF EXISTS users;
    DROP TABLE IF EXISTS counters;
    `)
	if err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}
