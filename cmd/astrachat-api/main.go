package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/astrachat/astrachat/internal/api"
	"github.com/astrachat/astrachat/internal/api/uistatic"
	"github.com/astrachat/astrachat/internal/assistant"
	"github.com/astrachat/astrachat/internal/auth"
	"github.com/astrachat/astrachat/internal/config"
	"github.com/astrachat/astrachat/internal/history"
	"github.com/astrachat/astrachat/internal/history/archive"
	historypostgres "github.com/astrachat/astrachat/internal/history/postgres"
	"github.com/astrachat/astrachat/internal/nl2sql"
	"github.com/astrachat/astrachat/internal/observability"
	"github.com/astrachat/astrachat/internal/query"
	"github.com/astrachat/astrachat/internal/query/clickhouse"
	duckdbengine "github.com/astrachat/astrachat/internal/query/duckdb"
	s3store "github.com/astrachat/astrachat/internal/storage/s3"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("astrachat-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	readiness := []api.ReadinessCheck{
		api.CheckCompletionKey(cfg),
		api.CheckQueryEngineConfig(cfg),
	}

	completer, err := nl2sql.NewOpenAIClient(nl2sql.OpenAIConfig{
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize completion client", slog.Any("error", err))
		os.Exit(1)
	}

	var executor query.Executor
	switch cfg.Query.Engine {
	case config.EngineDuckDB:
		tables, err := duckdbengine.ParseTableSpecs(cfg.DuckDB.Tables)
		if err != nil {
			logger.Error("invalid duckdb table mapping", slog.Any("error", err))
			os.Exit(1)
		}
		engine, err := duckdbengine.Open(context.Background(), cfg.DuckDB.Path, tables)
		if err != nil {
			logger.Error("failed to open duckdb engine", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = engine.Close() }()
		executor = engine
		readiness = append(readiness, engine.HealthCheck)
	default:
		chExecutor := clickhouse.NewExecutor(clickhouse.Config{
			URL:          cfg.ClickHouse.URL,
			ClientID:     cfg.ClickHouse.ClientID,
			ClientSecret: cfg.ClickHouse.ClientSecret,
			Timeout:      cfg.ClickHouse.Timeout,
		})
		if !chExecutor.Configured() {
			logger.Warn("CLICKHOUSE_HOST is not set; chat queries will fail until it is configured")
		}
		executor = chExecutor
	}

	var recorders history.Multi
	var historyReader history.Reader
	if cfg.History.DSN != "" {
		historyStore, err := historypostgres.Connect(context.Background(), cfg.History)
		if err != nil {
			logger.Error("failed to open history db", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = historyStore.Close() }()

		recorders = append(recorders, historyStore)
		historyReader = historyStore
		readiness = append(readiness, historyStore.HealthCheck)
	}
	if cfg.Archive.Enabled {
		objectStore, err := s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.Archive.Endpoint,
			Region:           cfg.Archive.Region,
			Bucket:           cfg.Archive.Bucket,
			AccessKeyID:      cfg.Archive.AccessKeyID,
			SecretAccessKey:  cfg.Archive.SecretAccessKey,
			UseSSL:           cfg.Archive.UseSSL,
			Prefix:           cfg.Archive.Prefix,
			AutoCreateBucket: cfg.Archive.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize archive store", slog.Any("error", err))
			os.Exit(1)
		}
		archiveRecorder := archive.NewRecorder(objectStore)
		recorders = append(recorders, archiveRecorder)
		readiness = append(readiness, archiveRecorder.HealthCheck)
	}

	service := &assistant.Service{
		Completer:     completer,
		Executor:      executor,
		Logger:        logger,
		ReadOnlyGuard: cfg.Query.ReadOnlyGuard,
		Engine:        cfg.Query.Engine,
	}
	if len(recorders) > 0 {
		service.Recorder = recorders
	}

	deps := api.Dependencies{
		Logger:            logger,
		Assistant:         service,
		UI:                uistatic.Handler(),
		Readiness:         api.CombineReadinessChecks(readiness...),
		DependencyTimeout: time.Second,
	}
	if historyReader != nil {
		deps.History = historyReader
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		if validator.Len() == 0 {
			logger.Warn("auth required but ASTRACHAT_AUTH_STATIC_KEYS is empty; every protected request will be rejected")
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("engine", cfg.Query.Engine),
			slog.String("model", completer.Model()),
			slog.Bool("history", historyReader != nil),
			slog.Bool("archive", cfg.Archive.Enabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
