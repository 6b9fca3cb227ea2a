package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-job-harvester/internal/app"
	"go-job-harvester/internal/config"
	"go-job-harvester/internal/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("HARVESTER_CONFIG"))
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.LogLevel, false)
	if err != nil {
		log.Fatalf("❌ Failed to init logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Serve(ctx, cfg, logr); err != nil {
		logr.Errorf("❌ Server stopped: %v", err)
		stop()
		os.Exit(1)
	}
}
