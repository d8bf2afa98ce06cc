// Package revocation keeps the set of revoked token ids (jti). Entries only
// need to live until the token they revoke would have expired anyway.
package revocation

import (
	"context"
	"time"
)

// Store is a concurrency-safe set of revoked jti values.
type Store interface {
	// Revoke marks jti as revoked until expiresAt. Revoking an already
	// revoked or unknown jti succeeds.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	// IsRevoked reports whether jti is currently revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
