package service

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/pkg/revocation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokens(t *testing.T) (*TokenService, *testClock) {
	t.Helper()
	store := revocation.NewMemoryStore(0)
	t.Cleanup(store.Close)
	clock := newTestClock()
	return NewTokenService(testJWTConfig(), store, WithClock(clock.Now)), clock
}

func TestTokenService_AccessRoundTrip(t *testing.T) {
	tokens, _ := newTestTokens(t)
	ctx := context.Background()

	signed, issued, err := tokens.IssueAccess(7, true)
	require.NoError(t, err)

	claims, err := tokens.Verify(ctx, signed, TokenAccess)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)
	assert.True(t, claims.Admin())
	assert.Equal(t, TokenAccess, claims.Type)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, issued.Expiry().Unix(), claims.Expiry().Unix())
	assert.Equal(t, time.Hour, claims.Expiry().Sub(claims.IssuedAt.Time))
}

func TestTokenService_FreshJTIPerToken(t *testing.T) {
	tokens, _ := newTestTokens(t)

	_, a, err := tokens.IssueAccess(1, false)
	require.NoError(t, err)
	_, b, err := tokens.IssueAccess(1, false)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestTokenService_RefreshCarriesNoAdminClaim(t *testing.T) {
	tokens, _ := newTestTokens(t)

	signed, _, err := tokens.IssueRefresh(3)
	require.NoError(t, err)

	raw := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(signed, raw)
	require.NoError(t, err)
	_, hasAdmin := raw["is_admin"]
	assert.False(t, hasAdmin)
	assert.Equal(t, "refresh", raw["type"])
	assert.Equal(t, "3", raw["sub"])

	claims, err := tokens.Verify(context.Background(), signed, TokenRefresh)
	require.NoError(t, err)
	assert.Nil(t, claims.IsAdmin)
	assert.Equal(t, 30*24*time.Hour, claims.Expiry().Sub(claims.IssuedAt.Time))
}

func TestTokenService_VerifyRejections(t *testing.T) {
	tokens, clock := newTestTokens(t)
	ctx := context.Background()

	access, _, err := tokens.IssueAccess(1, false)
	require.NoError(t, err)
	refresh, _, err := tokens.IssueRefresh(1)
	require.NoError(t, err)

	otherCfg := testJWTConfig()
	otherCfg.Secret = "a-completely-different-signing-secret"
	forged, _, err := NewTokenService(otherCfg, revocation.NewMemoryStore(0)).IssueAccess(1, true)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "1", "jti": "x", "type": "access", "is_admin": true,
		"exp": clock.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		expected TokenType
		want     error
	}{
		{"access where refresh required", access, TokenRefresh, apperrors.ErrTokenWrongType},
		{"refresh where access required", refresh, TokenAccess, apperrors.ErrTokenWrongType},
		{"other secret", forged, TokenAccess, apperrors.ErrTokenBadSignature},
		{"alg none", unsigned, TokenAccess, apperrors.ErrTokenBadSignature},
		{"garbage", "not.a.jwt", TokenAccess, apperrors.ErrTokenMalformed},
		{"empty", "", TokenAccess, apperrors.ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Verify(ctx, tt.token, tt.expected)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
		})
	}
}

func TestTokenService_Expiry(t *testing.T) {
	tokens, clock := newTestTokens(t)
	ctx := context.Background()

	access, _, err := tokens.IssueAccess(1, false)
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = tokens.Verify(ctx, access, TokenAccess)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = tokens.Verify(ctx, access, TokenAccess)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)

	// expiry is checked before the token type
	_, err = tokens.Verify(ctx, access, TokenRefresh)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestTokenService_Revoke(t *testing.T) {
	tokens, _ := newTestTokens(t)
	ctx := context.Background()

	access, claims, err := tokens.IssueAccess(1, true)
	require.NoError(t, err)

	require.NoError(t, tokens.Revoke(ctx, claims.ID, claims.Expiry()))
	_, err = tokens.Verify(ctx, access, TokenAccess)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	// idempotent, and unknown ids are fine
	require.NoError(t, tokens.Revoke(ctx, claims.ID, claims.Expiry()))
	require.NoError(t, tokens.Revoke(ctx, "never-issued", time.Time{}))

	other, _, err := tokens.IssueAccess(1, true)
	require.NoError(t, err)
	_, err = tokens.Verify(ctx, other, TokenAccess)
	assert.NoError(t, err)
}

type failingStore struct{ err error }

func (f failingStore) Revoke(context.Context, string, time.Time) error { return f.err }
func (f failingStore) IsRevoked(context.Context, string) (bool, error) { return false, f.err }

func TestTokenService_StoreFailurePropagates(t *testing.T) {
	storeErr := errors.New("redis: connection refused")
	tokens := NewTokenService(testJWTConfig(), failingStore{err: storeErr})
	ctx := context.Background()

	access, claims, err := tokens.IssueAccess(1, false)
	require.NoError(t, err)

	_, err = tokens.Verify(ctx, access, TokenAccess)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, apperrors.IsDomainError(err))

	err = tokens.Revoke(ctx, claims.ID, claims.Expiry())
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, apperrors.IsDomainError(err))
}
