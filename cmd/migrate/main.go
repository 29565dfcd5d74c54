// migrate applies the embedded schema migrations to DATABASE_URL.
//
// Usage: go run ./cmd/migrate
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"procurement/internal/config"
	"procurement/internal/db"
	"procurement/internal/logger"
	"procurement/migrations"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()
	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		zl.Error("connect", zap.Error(err))
		return 1
	}
	defer pool.Close()

	results, err := migrations.Apply(ctx, pool)
	for _, r := range results {
		if r.Skipped {
			zl.Info("migration skipped", zap.String("file", r.Filename))
			continue
		}
		zl.Info("migration applied", zap.String("file", r.Filename), zap.String("version", r.Version))
	}
	if err != nil {
		zl.Error("migrate", zap.Error(err))
		return 1
	}
	zl.Info("all migrations processed", zap.Int("files", len(results)))
	return 0
}
