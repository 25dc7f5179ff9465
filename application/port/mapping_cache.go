package port

import (
	"context"
	"errors"

	"github.com/aeokiss/github-bitrix24-bridge/domain/identity"
)

// ErrNotCached is returned by MappingCache.Get on a cache miss.
var ErrNotCached = errors.New("mapping not cached")

// MappingCache stores parsed identity mappings keyed by repository and
// revision. The file content at a commit sha is immutable, so a cached
// entry never needs invalidation beyond its TTL.
type MappingCache interface {
	Get(ctx context.Context, owner, repo, ref string) (identity.Mapping, error)
	Set(ctx context.Context, owner, repo, ref string, m identity.Mapping) error
}
