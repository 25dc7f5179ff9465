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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/aeokiss/github-bitrix24-bridge/application/port"
	"github.com/aeokiss/github-bitrix24-bridge/application/usecase"
	"github.com/aeokiss/github-bitrix24-bridge/infrastructure/bitrix24"
	"github.com/aeokiss/github-bitrix24-bridge/infrastructure/config"
	"github.com/aeokiss/github-bitrix24-bridge/infrastructure/github"
	"github.com/aeokiss/github-bitrix24-bridge/infrastructure/messagebuilder"
	"github.com/aeokiss/github-bitrix24-bridge/infrastructure/valkey"
	httpInterface "github.com/aeokiss/github-bitrix24-bridge/interface/http"
	"github.com/aeokiss/github-bitrix24-bridge/interface/http/handler"
	"github.com/aeokiss/github-bitrix24-bridge/pkg/logger"
)

func main() {
	log := logger.New("info")
	slog.SetDefault(log)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log = logger.New(cfg.Server.LogLevel)
	slog.SetDefault(log)

	log.Info("starting github-bitrix24-bridge", "addr", cfg.Server.Addr())

	var mappingCache port.MappingCache
	var checker handler.HealthChecker
	var redisClient *redis.Client

	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			log.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		cancel()
		log.Info("connected to valkey", "addr", cfg.Redis.Addr)

		cache := valkey.NewMappingCache(redisClient, cfg.MappingCacheTTL, log.With("component", "valkey"))
		mappingCache = cache
		checker = cache
	}

	ghClient := github.NewClient(cfg.Github.APIURL, cfg.Github.Token, log.With("component", "github_client"))
	b24Client := bitrix24.NewClient(cfg.Bitrix24.WebhookURL, cfg.Bitrix24.ChatID, cfg.Bitrix24.BotName, log.With("component", "bitrix24_client"))
	builder := messagebuilder.NewBuilder()

	handleEventUC := usecase.NewHandleEventUseCase(
		ghClient,
		mappingCache,
		b24Client,
		builder,
		cfg.ConfigPath,
		"", // mapping revision follows each event's default branch
		log.With("component", "handle_event_usecase"),
	)
	reportErrorUC := usecase.NewReportErrorUseCase(
		b24Client,
		cfg.Github.Repository,
		cfg.RunID,
		log.With("component", "report_error_usecase"),
	)

	webhookHandler := handler.NewWebhookHandler(handleEventUC, reportErrorUC, log.With("component", "webhook_handler"))
	healthHandler := handler.NewHealthHandler(checker)

	gin.SetMode(gin.ReleaseMode)
	router := httpInterface.NewRouter(log, webhookHandler, healthHandler)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info("server started", "addr", cfg.Server.Addr())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error("server error", "error", err)
	case <-quit:
		log.Info("shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("failed to close redis client", "error", err)
		}
	}

	log.Info("server stopped")
}
