package service

import (
	"context"
	"testing"

	"github.com/Payphone-Digital/auth-service/internal/dto"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Profile(t *testing.T) {
	env := newTestEnv(t, AuthSettings{})
	ctx := context.Background()
	kim := env.seed(t, "kim", false, true)
	env.seed(t, "lee", false, true)

	profile, err := env.users.GetProfile(ctx, kim.ID)
	require.NoError(t, err)
	assert.Equal(t, "kim@example.com", profile.Email)

	_, err = env.users.UpdateProfile(ctx, kim.ID, dto.UpdateProfileRequest{Email: "LEE@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrEmailExists)

	// keeping your own address is not a conflict
	_, err = env.users.UpdateProfile(ctx, kim.ID, dto.UpdateProfileRequest{Email: "kim@example.com"})
	require.NoError(t, err)

	updated, err := env.users.UpdateProfile(ctx, kim.ID, dto.UpdateProfileRequest{Email: "Kim.New@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "kim.new@example.com", updated.Email)

	_, err = env.users.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	_, err = env.users.UpdateProfile(ctx, 999, dto.UpdateProfileRequest{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserService_GetPublicUser(t *testing.T) {
	env := newTestEnv(t, AuthSettings{})
	ctx := context.Background()
	kim := env.seed(t, "kim", false, true)

	public, err := env.users.GetPublicUser(ctx, kim.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.PublicUserResponse{ID: kim.ID, Username: "kim", CreatedAt: public.CreatedAt}, *public)
	assert.False(t, public.CreatedAt.IsZero())

	_, err = env.users.GetPublicUser(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
