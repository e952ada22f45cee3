package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger default-nya no-op sampai InitLoggers dipanggil, sehingga package
// lain dan test bisa memakai logger tanpa inisialisasi.
var (
	ErrorLogger    = zap.NewNop()
	AuditLogger    = zap.NewNop()
	RequestLogger  = zap.NewNop()
	SecurityLogger = zap.NewNop()
	SystemLogger   = zap.NewNop()
)

// jsonEncoder menulis satu objek JSON per baris dengan waktu ISO8601 di
// field "timestamp".
func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// openFileLogger menambahkan log ke path; entry di bawah level dibuang.
func openFileLogger(path string, level zapcore.Level) (*zap.Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return zap.New(zapcore.NewCore(jsonEncoder(), zapcore.Lock(f), zap.NewAtomicLevelAt(level))), nil
}

// InitLoggers membuat satu file log per kategori di dalam dir.
func InitLoggers(dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatalf("Cannot create log directory: %v", err)
	}

	targets := []struct {
		dst   **zap.Logger
		file  string
		level zapcore.Level
	}{
		{&ErrorLogger, "errors.log", zapcore.ErrorLevel},
		{&AuditLogger, "audit.log", zapcore.InfoLevel},
		{&RequestLogger, "request.log", zapcore.InfoLevel},
		{&SecurityLogger, "security.log", zapcore.WarnLevel},
		{&SystemLogger, "system.log", zapcore.InfoLevel},
	}
	for _, t := range targets {
		l, err := openFileLogger(filepath.Join(dir, t.file), t.level)
		if err != nil {
			log.Fatalf("Cannot create logger: %v", err)
		}
		*t.dst = l
	}
}

func SyncLoggers() {
	_ = ErrorLogger.Sync()
	_ = AuditLogger.Sync()
	_ = RequestLogger.Sync()
	_ = SecurityLogger.Sync()
	_ = SystemLogger.Sync()
}
