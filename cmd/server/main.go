// Command server exposes the corpus index as a read-only JSON API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"AUScraper/internal/database"
	"AUScraper/internal/logger"
	"AUScraper/internal/server"
	"AUScraper/pkg/config"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yml", "Path to config.yml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Init(logger.Options{Debug: cfg.Log.Debug, JSON: cfg.Log.JSON})

	if cfg.Storage.IndexPath == "" {
		logger.Error("storage.index_path is empty, nothing to serve")
		os.Exit(1)
	}
	repo, err := database.InitDB(cfg.Storage.IndexPath)
	if err != nil {
		logger.Error("failed to open index", "path", cfg.Storage.IndexPath, "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx, repo, cfg); err != nil {
		logger.Error("server stopped", "error", err)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("server shut down")
}
