package service

import (
	"context"
	"errors"

	"github.com/Payphone-Digital/auth-service/internal/dto"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/repository"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/Payphone-Digital/auth-service/pkg/validation"
	"gorm.io/gorm"
)

// UserService serves a user's own profile and the public view of others.
type UserService struct {
	repoUser  *repository.UserRepository
	validator *validation.Validator
}

func NewUserService(repo *repository.UserRepository, v *validation.Validator) *UserService {
	return &UserService{repoUser: repo, validator: v}
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	ctx = withFunction(ctx, "GetProfile")

	user, err := s.repoUser.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		logger.InfoWithContext(ctx, "User not found").
			Uint("user_id", userID).
			Log()
		return nil, apperrors.ErrUserNotFound
	}

	res := toUserResponse(user)
	return &res, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	ctx = withFunction(ctx, "UpdateProfile")

	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	existing, err := s.repoUser.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != userID {
		return nil, apperrors.ErrEmailExists
	}

	if err := s.repoUser.UpdateFields(ctx, userID, map[string]interface{}{"email": req.Email}); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperrors.ErrUserNotFound
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, apperrors.WrapError(apperrors.ErrEmailExists, err)
		}
		return nil, err
	}

	logger.InfoWithContext(ctx, "Profile updated").
		Uint("user_id", userID).
		Log()
	return s.GetProfile(ctx, userID)
}

// GetPublicUser exposes only id, username and created_at.
func (s *UserService) GetPublicUser(ctx context.Context, id uint) (*dto.PublicUserResponse, error) {
	ctx = withFunction(ctx, "GetPublicUser")

	user, err := s.repoUser.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	res := toPublicUser(user)
	return &res, nil
}
