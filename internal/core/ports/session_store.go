package ports

import (
	"context"
	"time"
)

// TokenRevoker keeps track of credentials invalidated before their expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// PairLocker serializes work on a single key across all API instances.
// The returned release func must be called exactly once.
type PairLocker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}
