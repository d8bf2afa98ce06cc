package service

import (
	"context"
	"strings"
	"testing"

	"github.com/Payphone-Digital/auth-service/internal/dto"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Register(t *testing.T) {
	env := newTestEnv(t, AuthSettings{})
	ctx := context.Background()

	res, err := env.auth.Register(ctx, dto.RegisterRequest{Username: "alice", Email: "Alice@Example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.False(t, res.IsAdmin)
	assert.True(t, res.IsActive)
	assert.Equal(t, "alice@example.com", res.Email)

	stored := env.reload(t, res.ID)
	require.NotNil(t, stored)
	assert.NotEqual(t, "hunter22", stored.PasswordHash)
	assert.True(t, env.hasher.Verify("hunter22", stored.PasswordHash))
}

func TestAuthService_RegisterRejections(t *testing.T) {
	env := newTestEnv(t, AuthSettings{})
	ctx := context.Background()
	env.seed(t, "alice", false, true)

	tests := []struct {
		name  string
		req   dto.RegisterRequest
		want  error
		field string
	}{
		{"duplicate username", dto.RegisterRequest{Username: "alice", Email: "new@example.com", Password: "pw123"}, apperrors.ErrUsernameExists, ""},
		{"duplicate email any case", dto.RegisterRequest{Username: "alice2", Email: "ALICE@example.com", Password: "pw123"}, apperrors.ErrEmailExists, ""},
		{"short username", dto.RegisterRequest{Username: "al", Email: "al@example.com", Password: "pw123"}, apperrors.ErrInvalidInput, "username"},
		{"non alphanumeric username", dto.RegisterRequest{Username: "al ice", Email: "al@example.com", Password: "pw123"}, apperrors.ErrInvalidInput, "username"},
		{"bad email", dto.RegisterRequest{Username: "bob", Email: "bob-at-example", Password: "pw123"}, apperrors.ErrInvalidInput, "email"},
		{"short password", dto.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "pw"}, apperrors.ErrInvalidInput, "password"},
		{"password over 72 bytes", dto.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: strings.Repeat("x", 73)}, apperrors.ErrInvalidInput, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.req)
			require.ErrorIs(t, err, tt.want)
			if tt.field != "" {
				assert.Contains(t, apperrors.GetDomainError(err).Details, tt.field)
			}
		})
	}
}

func TestAuthService_LoginIssuesTokenPair(t *testing.T) {
	for _, isAdmin := range []bool{false, true} {
		env := newTestEnv(t, AuthSettings{})
		ctx := context.Background()
		u := env.seed(t, "carol", isAdmin, true)

		res, err := env.auth.Login(ctx, dto.LoginRequest{Username: "carol", Password: "carol-pw"})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", res.TokenType)
		assert.EqualValues(t, 3600, res.ExpiresIn)
		require.NotNil(t, res.User.LastLogin)

		access, err := env.tokens.Verify(ctx, res.AccessToken, TokenAccess)
		require.NoError(t, err)
		assert.Equal(t, isAdmin, access.Admin())
		require.NotNil(t, access.IsAdmin)

		refresh, err := env.tokens.Verify(ctx, res.RefreshToken, TokenRefresh)
		require.NoError(t, err)
		assert.Nil(t, refresh.IsAdmin)

		stored := env.reload(t, u.ID)
		require.NotNil(t, stored.LastLogin)
	}
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t, AuthSettings{})
	ctx := context.Background()
	env.seed(t, "dave", false, true)
	env.seed(t, "erin", false, false)

	tests := []struct {
		name string
		req  dto.LoginRequest
	}{
		{"unknown user", dto.LoginRequest{Username: "nobody", Password: "whatever"}},
		{"wrong password", dto.LoginRequest{Username: "dave", Password: "wrong"}},
		{"inactive account", dto.LoginRequest{Username: "erin", Password: "erin-pw"}},
	}

	var messages []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Login(ctx, tt.req)
			require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
			messages = append(messages, err.Error())
		})
	}
	require.Len(t, messages, 3)
	assert.Equal(t, messages[0], messages[1])
	assert.Equal(t, messages[1], messages[2])

	_, err := env.auth.Login(ctx, dto.LoginRequest{Username: "dave"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAuthService_Refresh(t *testing.T) {
	env := newTestEnv(t, AuthSettings{})
	ctx := context.Background()
	u := env.seed(t, "frank", false, true)

	login, err := env.auth.Login(ctx, dto.LoginRequest{Username: "frank", Password: "frank-pw"})
	require.NoError(t, err)

	// promotion after login shows up in the refreshed access token
	require.NoError(t, env.repo.UpdateFields(ctx, u.ID, map[string]interface{}{"is_admin": true}))

	res, err := env.auth.Refresh(ctx, dto.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.Empty(t, res.RefreshToken, "no rotation by default")

	claims, err := env.tokens.Verify(ctx, res.AccessToken, TokenAccess)
	require.NoError(t, err)
	assert.True(t, claims.Admin())

	// the old refresh token keeps working without rotation
	_, err = env.auth.Refresh(ctx, dto.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)

	_, err = env.auth.Refresh(ctx, dto.RefreshRequest{RefreshToken: login.AccessToken})
	assert.ErrorIs(t, err, apperrors.ErrTokenWrongType)

	require.NoError(t, env.repo.UpdateFields(ctx, u.ID, map[string]interface{}{"is_active": false}))
	_, err = env.auth.Refresh(ctx, dto.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, apperrors.ErrAccountInactive)

	require.NoError(t, env.repo.Delete(ctx, u.ID))
	_, err = env.auth.Refresh(ctx, dto.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, apperrors.ErrAccountInactive)
}

func TestAuthService_RefreshRotation(t *testing.T) {
	env := newTestEnv(t, AuthSettings{RotateRefresh: true})
	ctx := context.Background()
	env.seed(t, "gina", false, true)

	login, err := env.auth.Login(ctx, dto.LoginRequest{Username: "gina", Password: "gina-pw"})
	require.NoError(t, err)

	res, err := env.auth.Refresh(ctx, dto.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	require.NotEmpty(t, res.RefreshToken)

	_, err = env.auth.Refresh(ctx, dto.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = env.auth.Refresh(ctx, dto.RefreshRequest{RefreshToken: res.RefreshToken})
	assert.NoError(t, err)
}

func TestAuthService_Logout(t *testing.T) {
	env := newTestEnv(t, AuthSettings{})
	ctx := context.Background()
	env.seed(t, "hank", false, true)
	env.seed(t, "ivy", false, true)

	login, err := env.auth.Login(ctx, dto.LoginRequest{Username: "hank", Password: "hank-pw"})
	require.NoError(t, err)

	principal, err := env.auth.Authenticate(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.False(t, principal.IsAdmin)
	assert.NotEmpty(t, principal.JTI)

	require.NoError(t, env.auth.Logout(ctx, dto.LogoutRequest{AccessToken: login.AccessToken}))

	_, err = env.auth.Authenticate(ctx, login.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
	err = env.auth.Logout(ctx, dto.LogoutRequest{AccessToken: login.AccessToken})
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	// refresh token survives an access-only logout
	_, err = env.auth.Refresh(ctx, dto.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)

	second, err := env.auth.Login(ctx, dto.LoginRequest{Username: "hank", Password: "hank-pw"})
	require.NoError(t, err)
	other, err := env.auth.Login(ctx, dto.LoginRequest{Username: "ivy", Password: "ivy-pw"})
	require.NoError(t, err)

	// another user's refresh token is left alone
	require.NoError(t, env.auth.Logout(ctx, dto.LogoutRequest{AccessToken: second.AccessToken, RefreshToken: other.RefreshToken}))
	_, err = env.auth.Refresh(ctx, dto.RefreshRequest{RefreshToken: other.RefreshToken})
	require.NoError(t, err)

	third, err := env.auth.Login(ctx, dto.LoginRequest{Username: "hank", Password: "hank-pw"})
	require.NoError(t, err)
	require.NoError(t, env.auth.Logout(ctx, dto.LogoutRequest{AccessToken: third.AccessToken, RefreshToken: third.RefreshToken}))
	_, err = env.auth.Refresh(ctx, dto.RefreshRequest{RefreshToken: third.RefreshToken})
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestAuthService_ChangePassword(t *testing.T) {
	env := newTestEnv(t, AuthSettings{MinPasswordLength: 5})
	ctx := context.Background()
	u := env.seed(t, "jack", false, true)

	err := env.auth.ChangePassword(ctx, u.ID, dto.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "brand-new"})
	assert.ErrorIs(t, err, apperrors.ErrIncorrectPassword)

	err = env.auth.ChangePassword(ctx, u.ID, dto.ChangePasswordRequest{CurrentPassword: "jack-pw", NewPassword: "tiny"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	err = env.auth.ChangePassword(ctx, u.ID, dto.ChangePasswordRequest{CurrentPassword: "jack-pw"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	require.NoError(t, env.auth.ChangePassword(ctx, u.ID, dto.ChangePasswordRequest{CurrentPassword: "jack-pw", NewPassword: "brand-new"}))

	_, err = env.auth.Login(ctx, dto.LoginRequest{Username: "jack", Password: "jack-pw"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, dto.LoginRequest{Username: "jack", Password: "brand-new"})
	assert.NoError(t, err)

	err = env.auth.ChangePassword(ctx, 999, dto.ChangePasswordRequest{CurrentPassword: "a", NewPassword: "bbbbbb"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
