package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aeokiss/github-bitrix24-bridge/application/dto"
	"github.com/aeokiss/github-bitrix24-bridge/application/port"
	"github.com/aeokiss/github-bitrix24-bridge/domain/event"
	"github.com/aeokiss/github-bitrix24-bridge/domain/identity"
	"github.com/aeokiss/github-bitrix24-bridge/domain/message"
	"github.com/aeokiss/github-bitrix24-bridge/pkg/logger"
)

// HandleEventUseCase runs the full pipeline for one webhook event:
// load the identity mapping, route to a composition rule, compose the
// message, dispatch it. Each step runs strictly in sequence; the first
// failure aborts the run and surfaces to the caller, who routes it
// through the error reporter.
type HandleEventUseCase struct {
	mappingProvider port.MappingProvider
	mappingCache    port.MappingCache
	bitrix24        port.Bitrix24Client
	builder         port.MessageBuilder
	configPath      string
	ref             string
	logger          *slog.Logger
}

// NewHandleEventUseCase wires the pipeline. cache may be nil (one-shot
// mode loads the mapping fresh every run). ref pins the mapping
// revision; when empty, each event's default branch is used.
func NewHandleEventUseCase(
	mappingProvider port.MappingProvider,
	mappingCache port.MappingCache,
	bitrix24 port.Bitrix24Client,
	builder port.MessageBuilder,
	configPath string,
	ref string,
	logger *slog.Logger,
) *HandleEventUseCase {
	return &HandleEventUseCase{
		mappingProvider: mappingProvider,
		mappingCache:    mappingCache,
		bitrix24:        bitrix24,
		builder:         builder,
		configPath:      configPath,
		ref:             ref,
		logger:          logger,
	}
}

func (uc *HandleEventUseCase) Execute(ctx context.Context, eventName string, e *dto.WebhookEvent) error {
	eventsReceivedCounter(eventName, e.Action).Inc()

	kind, err := event.Route(eventName, e.Action, e.CommentOnPullRequest())
	if err != nil {
		eventsUnroutableCounter.Inc()
		return err
	}

	if e.Repository == nil || e.Repository.Owner.Login == "" || e.Repository.Name == "" {
		return fmt.Errorf("event payload carries no repository")
	}
	owner := e.Repository.Owner.Login
	repo := e.Repository.Name

	ref := uc.ref
	if ref == "" {
		ref = e.Repository.DefaultBranch
	}

	mapping, err := uc.loadMapping(ctx, owner, repo, ref)
	if err != nil {
		return fmt.Errorf("load identity mapping: %w", err)
	}

	composed, err := uc.compose(kind, e, mapping)
	if err != nil {
		return fmt.Errorf("compose %s message: %w", kind, err)
	}

	if err := uc.bitrix24.Send(ctx, composed); err != nil {
		return fmt.Errorf("dispatch message: %w", err)
	}

	uc.logger.Info("Event dispatched",
		logger.ApplicationFields("event_dispatched",
			slog.String("event", eventName),
			slog.String("action", e.Action),
			slog.String("kind", kind.String()),
			slog.String("repository", owner+"/"+repo),
			slog.Int("notified", len(composed.NotifyUserIDs)),
		),
	)
	messagesPostedCounter(kind.String()).Inc()
	notificationsSentCounter.Add(len(composed.NotifyUserIDs))

	return nil
}

func (uc *HandleEventUseCase) compose(kind event.Kind, e *dto.WebhookEvent, m identity.Mapping) (*message.Composed, error) {
	switch kind {
	case event.KindReviewRequested:
		return uc.builder.ReviewRequested(e, m)
	case event.KindPullRequest:
		return uc.builder.PullRequest(e, m)
	case event.KindPullRequestComment:
		return uc.builder.PullRequestComment(e, m)
	case event.KindIssueComment:
		return uc.builder.IssueComment(e, m)
	case event.KindIssue:
		return uc.builder.Issue(e, m)
	case event.KindReview:
		return uc.builder.Review(e, m)
	case event.KindReviewComment:
		return uc.builder.ReviewComment(e, m)
	}
	return nil, fmt.Errorf("%w: kind=%v", event.ErrUnroutable, kind)
}

func (uc *HandleEventUseCase) loadMapping(ctx context.Context, owner, repo, ref string) (identity.Mapping, error) {
	if uc.mappingCache != nil {
		cached, err := uc.mappingCache.Get(ctx, owner, repo, ref)
		if err == nil {
			mappingCacheHitCounter.Inc()
			return cached, nil
		}
		if !errors.Is(err, port.ErrNotCached) {
			// A broken cache must not block the pipeline; fall through
			// to the provider.
			uc.logger.Warn("Mapping cache lookup failed", slog.String("error", err.Error()))
		}
		mappingCacheMissCounter.Inc()
	}

	mapping, err := uc.mappingProvider.LoadMapping(ctx, owner, repo, uc.configPath, ref)
	if err != nil {
		return nil, err
	}

	if uc.mappingCache != nil {
		if err := uc.mappingCache.Set(ctx, owner, repo, ref, mapping); err != nil {
			uc.logger.Warn("Mapping cache store failed", slog.String("error", err.Error()))
		}
	}

	return mapping, nil
}
