package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cropwatch/apperr"
	"cropwatch/models"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"

	// MemoryDSN keeps the SQLite database in process memory.
	MemoryDSN = ":memory:"
)

type Options struct {
	Driver string
	DSN    string
	Logger *slog.Logger
}

// Open returns the image store selected by opts.Driver.
func Open(opts Options) (ImageStore, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	switch opts.Driver {
	case "", DriverMemory:
		log.Info("image store ready", "driver", DriverMemory)
		return NewMemoryImageStore(), nil
	case DriverSQLite:
		dsn := opts.DSN
		if dsn == "" {
			dsn = MemoryDSN
		}
		if dsn != MemoryDSN {
			return nil, apperr.Invalidf("sqlite dsn %q: only %q is supported", dsn, MemoryDSN)
		}
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
			Logger: gormlogger.New(
				slog.NewLogLogger(log.Handler(), slog.LevelDebug),
				gormlogger.Config{SlowThreshold: 200 * time.Millisecond, LogLevel: gormlogger.Warn},
			),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		// Every new connection to ":memory:" is a fresh database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		store, err := NewSQLImageStore(db)
		if err != nil {
			return nil, err
		}
		log.Info("database connected and migrated successfully", "driver", DriverSQLite, "dsn", dsn)
		return store, nil
	default:
		return nil, apperr.Invalidf("unknown storage driver %q", opts.Driver)
	}
}

// Seed loads images into an empty store, keeping their listed order.
func Seed(ctx context.Context, store ImageStore, images []models.FieldImage) error {
	for i := len(images) - 1; i >= 0; i-- {
		if err := store.Prepend(ctx, images[i]); err != nil {
			return fmt.Errorf("seed image %s: %w", images[i].ID, err)
		}
	}
	return nil
}
