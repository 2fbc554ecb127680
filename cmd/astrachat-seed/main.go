package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/astrachat/astrachat/internal/demo/seed"
)

func main() {
	_ = godotenv.Load()

	cfg, err := seed.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		slog.Error("failed to load seed config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	service, err := seed.NewService(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize seed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(
		"writing demo data",
		slog.String("output_dir", cfg.OutputDir),
		slog.Int("auctions", cfg.Auctions),
		slog.Int("files", cfg.Files),
		slog.Int64("seed", cfg.Seed),
	)
	summary, err := service.Run(ctx)
	if err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("demo data written",
		slog.Int("logging_rows", summary.LoggingRows),
		slog.Int("click_rows", summary.ClickRows),
	)

	fmt.Printf("ASTRACHAT_QUERY_ENGINE=duckdb\nASTRACHAT_DUCKDB_TABLES=%s\n", service.TableMapping())
}
