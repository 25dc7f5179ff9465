package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aeokiss/github-bitrix24-bridge/application/dto"
)

type EventHandler interface {
	Execute(ctx context.Context, eventName string, e *dto.WebhookEvent) error
}

type ErrorReporter interface {
	Execute(ctx context.Context, runErr error)
}

// WebhookHandler receives GitHub webhook deliveries. Pipeline failures
// are routed through the error reporter and answered with 200 so the
// webhook source does not retry business-logic errors.
type WebhookHandler struct {
	handleEvent EventHandler
	reportError ErrorReporter
	logger      *slog.Logger
}

func NewWebhookHandler(handleEvent EventHandler, reportError ErrorReporter, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{handleEvent: handleEvent, reportError: reportError, logger: logger}
}

func (h *WebhookHandler) HandleGithubEvent(c *gin.Context) {
	eventName := c.GetHeader("X-GitHub-Event")
	if eventName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing X-GitHub-Event header"})
		return
	}

	var e dto.WebhookEvent
	if err := c.ShouldBindJSON(&e); err != nil {
		h.logger.Error("Failed to parse webhook payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if err := h.handleEvent.Execute(ctx, eventName, &e); err != nil {
		h.logger.Error("Event processing failed",
			slog.String("event", eventName),
			slog.String("action", e.Action),
			slog.String("error", err.Error()),
		)
		h.reportError.Execute(ctx, err)
		c.JSON(http.StatusOK, gin.H{"status": "reported"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
