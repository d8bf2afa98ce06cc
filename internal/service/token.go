package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Payphone-Digital/auth-service/config"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/Payphone-Digital/auth-service/pkg/metrics"
	"github.com/Payphone-Digital/auth-service/pkg/revocation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims is the JWT payload. Refresh tokens carry no is_admin claim.
type Claims struct {
	IsAdmin *bool     `json:"is_admin,omitempty"`
	Type    TokenType `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid subject %q", c.Subject)
	}
	return uint(id), nil
}

// Admin is the is_admin snapshot taken at issuance.
func (c *Claims) Admin() bool {
	return c.IsAdmin != nil && *c.IsAdmin
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

type TokenOption func(*TokenService)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// TokenService issues, verifies and revokes signed tokens. Rotating the
// secret invalidates every outstanding token.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoked    revocation.Store
	now        func() time.Time
}

func NewTokenService(cfg config.JWTConfig, revoked revocation.Store, opts ...TokenOption) *TokenService {
	s := &TokenService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		revoked:    revoked,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccess signs an access token carrying the admin flag.
func (s *TokenService) IssueAccess(userID uint, isAdmin bool) (string, *Claims, error) {
	admin := isAdmin
	return s.issue(userID, TokenAccess, &admin, s.accessTTL)
}

// IssueRefresh signs a refresh token.
func (s *TokenService) IssueRefresh(userID uint) (string, *Claims, error) {
	return s.issue(userID, TokenRefresh, nil, s.refreshTTL)
}

func (s *TokenService) issue(userID uint, typ TokenType, isAdmin *bool, ttl time.Duration) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		IsAdmin: isAdmin,
		Type:    typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign %s token: %w", typ, err)
	}

	metrics.TokensIssued.WithLabelValues(string(typ)).Inc()
	return signed, claims, nil
}

// Verify checks signature, expiry, token type and revocation, in that order.
// Revocation store failures are returned as they are.
func (s *TokenService) Verify(ctx context.Context, token string, expected TokenType) (*Claims, error) {
	claims, err := s.parse(token)
	if err == nil && claims.Type != expected {
		err = apperrors.ErrTokenWrongType
	}
	if err != nil {
		s.observe(ctx, expected, err)
		return nil, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		logger.ErrorWithContext(ctx, "Revocation lookup failed").
			String("token_type", string(expected)).
			Err(err).
			Log()
		metrics.TokenVerifications.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		s.observe(ctx, expected, apperrors.ErrTokenRevoked)
		return nil, apperrors.ErrTokenRevoked
	}

	metrics.TokenVerifications.WithLabelValues("ok").Inc()
	return claims, nil
}

func (s *TokenService) parse(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, apperrors.WrapError(apperrors.ErrTokenBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperrors.ErrTokenExpired
	default:
		return nil, apperrors.WrapError(apperrors.ErrTokenMalformed, err)
	}

	if claims.ID == "" {
		return nil, apperrors.ErrTokenMalformed
	}
	if _, err := claims.UserID(); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrTokenMalformed, err)
	}
	return claims, nil
}

func (s *TokenService) observe(ctx context.Context, expected TokenType, err error) {
	reason := "error"
	if domainErr := apperrors.GetDomainError(err); domainErr != nil {
		reason = domainErr.Code
	}
	metrics.TokenVerifications.WithLabelValues(reason).Inc()

	logger.DebugWithContext(ctx, "Token rejected").
		String("token_type", string(expected)).
		String("reason", reason).
		Log()
}

// Revoke adds jti to the revocation set until expiresAt. A zero expiresAt
// keeps it for the longest lifetime any token can have.
func (s *TokenService) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if expiresAt.IsZero() {
		expiresAt = s.now().Add(s.refreshTTL)
	}
	if err := s.revoked.Revoke(ctx, jti, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	metrics.Revocations.Inc()
	return nil
}
