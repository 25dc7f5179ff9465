package port

import (
	"github.com/aeokiss/github-bitrix24-bridge/application/dto"
	"github.com/aeokiss/github-bitrix24-bridge/domain/identity"
	"github.com/aeokiss/github-bitrix24-bridge/domain/message"
)

// MessageBuilder is the composition rule table: one method per routed
// event kind. Every rule is a pure function of the payload and the
// identities it resolves through the mapping.
type MessageBuilder interface {
	PullRequest(e *dto.WebhookEvent, m identity.Mapping) (*message.Composed, error)
	ReviewRequested(e *dto.WebhookEvent, m identity.Mapping) (*message.Composed, error)
	Review(e *dto.WebhookEvent, m identity.Mapping) (*message.Composed, error)
	ReviewComment(e *dto.WebhookEvent, m identity.Mapping) (*message.Composed, error)
	Issue(e *dto.WebhookEvent, m identity.Mapping) (*message.Composed, error)
	IssueComment(e *dto.WebhookEvent, m identity.Mapping) (*message.Composed, error)
	PullRequestComment(e *dto.WebhookEvent, m identity.Mapping) (*message.Composed, error)
}
