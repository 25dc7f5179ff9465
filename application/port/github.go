package port

import (
	"context"

	"github.com/aeokiss/github-bitrix24-bridge/domain/identity"
)

// MappingProvider loads the login-to-user mapping file from the source
// repository at a given revision. A missing file or a malformed entry
// is the provider's error to surface, not the pipeline's to mask.
type MappingProvider interface {
	LoadMapping(ctx context.Context, owner, repo, path, ref string) (identity.Mapping, error)
}
