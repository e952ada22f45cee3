package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"taskhub/configs"
	v1 "taskhub/internal/api/v1"
	"taskhub/internal/api/v1/handlers"
	"taskhub/internal/cache"
	"taskhub/internal/middleware"
	"taskhub/internal/repository"
	"taskhub/internal/repository/memstore"
	"taskhub/internal/service"
	"taskhub/internal/storage"
	"taskhub/pkg/crypto"
	"taskhub/pkg/database"
	"taskhub/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

const taskCacheTTL = 5 * time.Minute

type stores struct {
	seq   service.Sequencer
	users service.UserRepository
	tasks service.TaskRepository
}

func main() {
	// Load config
	cfg := configs.LoadConfig()

	// Inisialisasi logger
	logger.InitLoggers(cfg.LogDir)
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	st, closeStore := openStores(cfg)
	defer closeStore()

	// Redis hanya dipakai bersama Postgres. Mode memory cukup untuk satu instance.
	var (
		taskCache  service.TaskCache
		limitStore fiber.Storage
	)
	if cfg.StoreDriver != "memory" {
		rdb := database.ConnectRedis(cfg)
		defer rdb.Close()
		logger.SystemLogger.Info("Redis Connected")
		taskCache = cache.NewTaskCache(rdb, taskCacheTTL)
		limitStore = cache.NewLimiterStorage(rdb, "limiter:")
	}

	blobs, err := storage.NewLocal(cfg.StorageDir, "/storage")
	if err != nil {
		log.Fatalf("Could not prepare storage dir: %v", err)
	}
	sealer, err := crypto.NewSealer(cfg.SessionEncryptionKey)
	if err != nil {
		log.Fatalf("Invalid session encryption key: %v", err)
	}

	authSvc, err := service.NewAuthService(st.users, st.seq, service.AuthOptions{
		Tokens: service.NewTokenIssuer(service.TokenConfig{
			AccessSecret:  []byte(cfg.AccessTokenSecret),
			AccessTTL:     cfg.AccessTokenExpiry,
			RefreshSecret: []byte(cfg.RefreshTokenSecret),
			RefreshTTL:    cfg.RefreshTokenExpiry,
		}),
		Sealer:   sealer,
		Validate: validator.New(),
	})
	if err != nil {
		log.Fatalf("Could not create auth service: %v", err)
	}
	taskSvc := service.NewTaskService(st.tasks, st.seq, blobs, taskCache)
	attachmentSvc := service.NewAttachmentService(st.users, st.tasks, blobs, taskCache)
	userSvc := service.NewUserService(authSvc, st.users, st.tasks, blobs, taskCache)

	if err := userSvc.SeedAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.ErrorLogger.Error("Failed to seed admin user", zap.Error(err))
	}

	app := v1.NewApp()

	// Middleware
	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: 1 * time.Minute,
		Storage:    limitStore,
	}))

	// Daftarkan route API v1
	h := handlers.New(authSvc, taskSvc, attachmentSvc, userSvc)
	v1.RegisterRoutes(app, h, authSvc, blobs.Root())

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.SystemLogger.Info("Application ready", zap.String("addr", addr), zap.String("store", cfg.StoreDriver))
	if err := app.Listen(addr); err != nil {
		logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
	}
}

// openStores memilih backend penyimpanan sesuai STORE_DRIVER.
func openStores(cfg configs.Config) (stores, func()) {
	if cfg.StoreDriver == "memory" {
		logger.SystemLogger.Warn("Using in-memory store, data is lost on restart")
		mem := memstore.New()
		return stores{seq: mem.Counters(), users: mem.Users(), tasks: mem.Tasks()}, func() {}
	}

	// Inisialisasi database
	db := database.ConnectDB(cfg)
	logger.SystemLogger.Info("Database Connected")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// Buat tabel jika belum ada
	if err := repository.CreateTableIfNotExists(ctx, db); err != nil {
		db.Close()
		log.Fatalf("Could not create tables: %v", err)
	}

	return postgresStores(db, cfg.DBTimeout), func() { db.Close() }
}

func postgresStores(db *sql.DB, timeout time.Duration) stores {
	return stores{
		seq:   repository.NewCounterRepository(db, timeout),
		users: repository.NewUserRepository(db, timeout),
		tasks: repository.NewTaskRepository(db, timeout),
	}
}
