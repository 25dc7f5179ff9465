package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/aeokiss/github-bitrix24-bridge/application/dto"
	"github.com/aeokiss/github-bitrix24-bridge/application/usecase"
	"github.com/aeokiss/github-bitrix24-bridge/infrastructure/bitrix24"
	"github.com/aeokiss/github-bitrix24-bridge/infrastructure/config"
	"github.com/aeokiss/github-bitrix24-bridge/infrastructure/github"
	"github.com/aeokiss/github-bitrix24-bridge/infrastructure/messagebuilder"
	"github.com/aeokiss/github-bitrix24-bridge/pkg/logger"
)

// One-shot mode: process the single event the GitHub Actions runner
// hands us and exit. Only bootstrap failures exit non-zero; pipeline
// failures are reported to the chat instead so the hosting job never
// reports a hard failure for business-logic errors.
func main() {
	log := logger.New("info")
	slog.SetDefault(log)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logLevel := cfg.Server.LogLevel
	if cfg.Debug {
		logLevel = "debug"
	}
	log = logger.New(logLevel)
	slog.SetDefault(log)

	eventName := os.Getenv("GITHUB_EVENT_NAME")
	eventPath := os.Getenv("GITHUB_EVENT_PATH")
	if eventName == "" || eventPath == "" {
		log.Error("GITHUB_EVENT_NAME and GITHUB_EVENT_PATH are required")
		os.Exit(1)
	}

	payload, err := os.ReadFile(eventPath)
	if err != nil {
		log.Error("failed to read event payload", "path", eventPath, "error", err)
		os.Exit(1)
	}

	var e dto.WebhookEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		log.Error("failed to decode event payload", "error", err)
		os.Exit(1)
	}

	log.Info("processing event", "event", eventName, "action", e.Action)

	ghClient := github.NewClient(cfg.Github.APIURL, cfg.Github.Token, log.With("component", "github_client"))
	b24Client := bitrix24.NewClient(cfg.Bitrix24.WebhookURL, cfg.Bitrix24.ChatID, cfg.Bitrix24.BotName, log.With("component", "bitrix24_client"))
	builder := messagebuilder.NewBuilder()

	handleEvent := usecase.NewHandleEventUseCase(
		ghClient,
		nil, // no mapping cache in one-shot mode
		b24Client,
		builder,
		cfg.ConfigPath,
		cfg.Github.SHA,
		log.With("component", "handle_event_usecase"),
	)
	reportError := usecase.NewReportErrorUseCase(
		b24Client,
		cfg.Github.Repository,
		cfg.RunID,
		log.With("component", "report_error_usecase"),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := handleEvent.Execute(ctx, eventName, &e); err != nil {
		log.Error("event processing failed", "event", eventName, "action", e.Action, "error", err)
		reportError.Execute(ctx, err)
	}
}
