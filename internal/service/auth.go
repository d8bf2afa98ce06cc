package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/internal/dto"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/Payphone-Digital/auth-service/internal/repository"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/Payphone-Digital/auth-service/pkg/metrics"
	"github.com/Payphone-Digital/auth-service/pkg/validation"
	"gorm.io/gorm"
)

// Principal is the authenticated caller as described by its access token.
// IsAdmin is the snapshot taken at issuance, not a live lookup.
type Principal struct {
	UserID    uint
	IsAdmin   bool
	JTI       string
	ExpiresAt time.Time
}

type AuthSettings struct {
	MinPasswordLength int
	RotateRefresh     bool
}

type AuthService struct {
	repo      *repository.UserRepository
	hasher    *PasswordHasher
	tokens    *TokenService
	validator *validation.Validator
	settings  AuthSettings
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(repo *repository.UserRepository, hasher *PasswordHasher, tokens *TokenService, v *validation.Validator, settings AuthSettings) *AuthService {
	if settings.MinPasswordLength <= 0 {
		settings.MinPasswordLength = constants.MinPasswordLength
	}
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		validator: v,
		settings:  settings,
		now:       time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	ctx = withFunction(ctx, "Register")
	req.Email = normalizeEmail(req.Email)

	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}
	if err := checkPassword("password", req.Password, s.settings.MinPasswordLength); err != nil {
		return nil, err
	}

	if err := s.checkAvailable(ctx, req.Username, req.Email); err != nil {
		logger.InfoWithContext(ctx, "Registration rejected").
			String("username", req.Username).
			Err(err).
			Log()
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		IsAdmin:      false,
		IsActive:     true,
	}
	if err := s.repo.Insert(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race with a concurrent registration
			if conflict := s.checkAvailable(ctx, req.Username, req.Email); conflict != nil {
				return nil, conflict
			}
			return nil, apperrors.WrapError(apperrors.ErrUsernameExists, err)
		}
		return nil, err
	}

	logger.InfoWithContext(ctx, "User registered").
		Uint("user_id", user.ID).
		String("username", user.Username).
		Log()

	res := toUserResponse(user)
	return &res, nil
}

func (s *AuthService) checkAvailable(ctx context.Context, username, email string) error {
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.ErrUsernameExists
	}

	existing, err = s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.ErrEmailExists
	}
	return nil
}

// Login answers every credential failure with ErrInvalidCredentials so
// callers cannot tell an unknown username from a wrong password or a
// deactivated account. The log line keeps the real reason.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	ctx = withFunction(ctx, "Login")

	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	reason := ""
	switch {
	case user == nil:
		// burn the same bcrypt time as a real comparison
		s.hasher.Verify(req.Password, s.dummy())
		reason = "unknown_user"
	case !s.hasher.Verify(req.Password, user.PasswordHash):
		reason = "wrong_password"
	case !user.IsActive:
		reason = "inactive"
	}
	if reason != "" {
		metrics.Logins.WithLabelValues(reason).Inc()
		logger.WarnWithContext(ctx, "Login failed").
			String("username", req.Username).
			String("reason", reason).
			Log()
		return nil, apperrors.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	access, _, err := s.tokens.IssueAccess(user.ID, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}

	metrics.Logins.WithLabelValues("success").Inc()
	logger.InfoWithContext(ctx, "Login successful").
		Uint("user_id", user.ID).
		Bool("is_admin", user.IsAdmin).
		Log()

	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    constants.AuthScheme,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         toUserResponse(user),
	}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("dummy-password-for-timing")
	})
	return s.dummyHash
}

// Refresh mints a new access token carrying the user's current admin flag.
// With rotation enabled the presented refresh token is revoked and replaced.
func (s *AuthService) Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.RefreshResponse, error) {
	ctx = withFunction(ctx, "Refresh")

	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	claims, err := s.tokens.Verify(ctx, req.RefreshToken, TokenRefresh)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrTokenMalformed, err)
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		logger.WarnWithContext(ctx, "Refresh for missing or inactive user").
			Uint("user_id", userID).
			Bool("exists", user != nil).
			Log()
		return nil, apperrors.ErrAccountInactive
	}

	access, _, err := s.tokens.IssueAccess(user.ID, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	res := &dto.RefreshResponse{
		AccessToken: access,
		TokenType:   constants.AuthScheme,
		ExpiresIn:   int64(s.tokens.AccessTTL().Seconds()),
	}

	if s.settings.RotateRefresh {
		if err := s.tokens.Revoke(ctx, claims.ID, claims.Expiry()); err != nil {
			return nil, err
		}
		if res.RefreshToken, _, err = s.tokens.IssueRefresh(user.ID); err != nil {
			return nil, err
		}
	}

	logger.InfoWithContext(ctx, "Access token refreshed").
		Uint("user_id", user.ID).
		Bool("rotated", s.settings.RotateRefresh).
		Log()
	return res, nil
}

// Logout revokes the access token. A refresh token of the same user is
// revoked too; one that fails verification is ignored.
func (s *AuthService) Logout(ctx context.Context, req dto.LogoutRequest) error {
	ctx = withFunction(ctx, "Logout")

	claims, err := s.tokens.Verify(ctx, req.AccessToken, TokenAccess)
	if err != nil {
		return err
	}

	if err := s.tokens.Revoke(ctx, claims.ID, claims.Expiry()); err != nil {
		return err
	}

	if req.RefreshToken != "" {
		refresh, err := s.tokens.Verify(ctx, req.RefreshToken, TokenRefresh)
		switch {
		case err != nil && !apperrors.IsDomainError(err):
			return err
		case err != nil:
			logger.InfoWithContext(ctx, "Ignoring unusable refresh token on logout").
				Err(err).
				Log()
		case refresh.Subject != claims.Subject:
			logger.WarnWithContext(ctx, "Refresh token belongs to another user").
				String("subject", claims.Subject).
				Log()
		default:
			if err := s.tokens.Revoke(ctx, refresh.ID, refresh.Expiry()); err != nil {
				return err
			}
		}
	}

	logger.InfoWithContext(ctx, "Logout successful").
		String("subject", claims.Subject).
		Log()
	return nil
}

// Authenticate verifies an access token and describes its bearer.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := s.tokens.Verify(ctx, accessToken, TokenAccess)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrTokenMalformed, err)
	}
	return &Principal{
		UserID:    userID,
		IsAdmin:   claims.Admin(),
		JTI:       claims.ID,
		ExpiresAt: claims.Expiry(),
	}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, req dto.ChangePasswordRequest) error {
	ctx = withFunction(ctx, "ChangePassword")

	if err := validateStruct(s.validator, req); err != nil {
		return err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.ErrUserNotFound
	}

	if !s.hasher.Verify(req.CurrentPassword, user.PasswordHash) {
		logger.WarnWithContext(ctx, "Password change with wrong current password").
			Uint("user_id", userID).
			Log()
		return apperrors.ErrIncorrectPassword
	}
	if err := checkPassword("new_password", req.NewPassword, s.settings.MinPasswordLength); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	logger.InfoWithContext(ctx, "Password changed").
		Uint("user_id", userID).
		Log()
	return nil
}
