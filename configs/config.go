package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	StoreDriver string

	DatabaseURL string
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string
	DBNameTest  string
	DBTimeout   time.Duration

	RedisHost     string
	RedisPort     int
	RedisPassword string

	AccessTokenSecret    string
	AccessTokenExpiry    time.Duration
	RefreshTokenSecret   string
	RefreshTokenExpiry   time.Duration
	SessionEncryptionKey string

	StorageDir   string
	LogDir       string
	RateLimitMax int

	AdminUsername string
	AdminPassword string
}

// DSN mengembalikan connection string Postgres. DATABASE_URL dipakai jika diisi.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// loadDotEnv mengisi environment dari ENV_FILE (default ".env"). Variabel
// yang sudah ada tidak ditimpa, dan file yang tidak ada diabaikan.
func loadDotEnv() {
	path := envString("ENV_FILE", ".env")
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Skipping env file %s: %v", path, err)
	}
}

func LoadConfig() Config {
	loadDotEnv()

	return Config{
		Port:        envInt("PORT", 5000),
		StoreDriver: envString("STORE_DRIVER", "postgres"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      envString("DB_HOST", "localhost"),
		DBPort:      envInt("DB_PORT", 5432),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      envString("DB_NAME", "taskhub"),
		DBNameTest:  os.Getenv("DB_NAME_TEST"),
		DBTimeout:   envDuration("DB_TIMEOUT", 5*time.Second),

		RedisHost:     envString("REDIS_HOST", "localhost"),
		RedisPort:     envInt("REDIS_PORT", 6379),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AccessTokenSecret:    envString("ACCESS_TOKEN_SECRET", "access-secret"),
		AccessTokenExpiry:    envDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
		RefreshTokenSecret:   envString("REFRESH_TOKEN_SECRET", "refresh-secret"),
		RefreshTokenExpiry:   envDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
		SessionEncryptionKey: envString("SESSION_ENCRYPTION_KEY", "MySecretEncryptionKey!"),

		StorageDir:   envString("STORAGE_DIR", "storage"),
		LogDir:       envString("LOG_DIR", "logs"),
		RateLimitMax: envInt("RATE_LIMIT_MAX", 100),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	d, err := ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return d
}

// ParseDuration menerima format time.ParseDuration serta akhiran hari ("7d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
