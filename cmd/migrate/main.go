// Command migrate applies the embedded schema migrations and exits.
package main

import (
	"context"
	"log"
	"time"

	"github.com/HelloTanvir/devcamper-api/internal/platform/config"
	"github.com/HelloTanvir/devcamper-api/internal/platform/database"
	"github.com/HelloTanvir/devcamper-api/internal/platform/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, zl); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}
	zl.Info("migrations applied")
}
