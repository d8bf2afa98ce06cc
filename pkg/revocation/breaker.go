package revocation

import (
	"context"
	"time"

	"github.com/Payphone-Digital/auth-service/pkg/circuit"
)

// BreakerStore fails fast with circuit.ErrCircuitOpen while the wrapped
// store keeps erroring, instead of stalling every authenticated request.
type BreakerStore struct {
	next    Store
	breaker *circuit.Breaker
}

func NewBreakerStore(next Store, breaker *circuit.Breaker) *BreakerStore {
	return &BreakerStore{next: next, breaker: breaker}
}

func (s *BreakerStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.next.Revoke(ctx, jti, expiresAt)
	})
}

func (s *BreakerStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		revoked, err = s.next.IsRevoked(ctx, jti)
		return err
	})
	return revoked, err
}
