package revocation

import (
	"context"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/pkg/redis"
)

// RedisStore shares revocations between instances. Each jti is stored as its
// own key with a TTL matching the token's remaining lifetime, so redis evicts
// entries on its own.
type RedisStore struct {
	client redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(client redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: constants.CacheKeyRevoked,
		now:    time.Now,
	}
}

func (s *RedisStore) key(jti string) string {
	return s.prefix + jti
}

func (s *RedisStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if jti == "" || ttl <= 0 {
		return nil
	}
	// round up so the key never disappears before the token expires
	ttl = ttl.Truncate(time.Second) + time.Second
	return s.client.SetWithTTL(ctx, s.key(jti), "1", ttl)
}

func (s *RedisStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.client.Exists(ctx, s.key(jti))
}
