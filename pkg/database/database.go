package database

import (
	"database/sql"
	"log"
	"time"

	"taskhub/configs"

	_ "github.com/lib/pq"
)

// ConnectDB membuka pool koneksi Postgres dan memastikan server bisa dihubungi.
func ConnectDB(cfg configs.Config) *sql.DB {
	db, err := Open(cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	return db
}

// Open dipisah dari ConnectDB agar test bisa menangani error sendiri.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
