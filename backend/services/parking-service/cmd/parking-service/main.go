package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"parkgate/backend/libs/logging"
	"parkgate/backend/services/parking-service/internal/app"
	"parkgate/backend/services/parking-service/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewLogger("parking-service")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}

	if err := application.Run(ctx); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
