package port

import (
	"context"

	"github.com/aeokiss/github-bitrix24-bridge/domain/message"
)

// Bitrix24Client delivers a composed message to the destination chat:
// exactly one shared-channel post, then one personal notification per
// distinct target id, issued sequentially. A failed call aborts the
// remaining notifications; the channel post is never rolled back.
type Bitrix24Client interface {
	Send(ctx context.Context, msg *message.Composed) error
}
