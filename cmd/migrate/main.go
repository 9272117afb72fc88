package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-booking-api/migrations"
	"github.com/noah-isme/edu-booking-api/pkg/config"
	"github.com/noah-isme/edu-booking-api/pkg/database"
	"github.com/noah-isme/edu-booking-api/pkg/logger"
)

func main() {
	statusOnly := flag.Bool("status", false, "print the applied migration version and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if !*statusOnly {
		if err := database.Migrate(ctx, db, migrations.FS); err != nil {
			logr.Fatal("migration failed", zap.Error(err))
		}
	}

	version, err := database.MigrationVersion(ctx, db, migrations.FS)
	if err != nil {
		logr.Fatal("failed to read migration version", zap.Error(err))
	}
	logr.Info("database schema", zap.Int64("version", version))
}
