package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-booking-api/internal/repository"
	"github.com/noah-isme/edu-booking-api/internal/service"
	"github.com/noah-isme/edu-booking-api/pkg/config"
	"github.com/noah-isme/edu-booking-api/pkg/database"
	"github.com/noah-isme/edu-booking-api/pkg/logger"
)

// Runs a single expiry sweep for cron-style deployments where the API's in-process scanner is disabled.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	scanner := service.NewExpiryScanner(repository.NewBookingRequestRepository(db), nil, service.ExpiryScannerConfig{}, logr, nil)

	expired, err := scanner.Sweep(ctx, time.Now())
	if err != nil {
		logr.Fatal("expiry sweep failed", zap.Error(err))
	}
	logr.Info("expiry sweep finished", zap.Int("expired", expired))
}
