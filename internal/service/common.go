package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/internal/dto"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/model"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/validation"
)

func withFunction(ctx context.Context, function string) context.Context {
	ctx = ctxutil.WithValue(ctx, ctxutil.FunctionKey, function)
	return ctxutil.WithValue(ctx, ctxutil.ModuleKey, "service")
}

// validateStruct runs the struct tags and turns failures into ErrInvalidInput.
func validateStruct(v *validation.Validator, req interface{}) error {
	if details := v.Struct(req); details != nil {
		return apperrors.WithDetails(apperrors.ErrInvalidInput, details)
	}
	return nil
}

// checkPassword enforces the length policy. bcrypt ignores bytes past 72,
// so longer passwords are rejected instead of silently truncated.
func checkPassword(field, password string, minLength int) error {
	switch {
	case len(password) < minLength:
		return apperrors.WithDetails(apperrors.ErrInvalidInput, map[string]string{
			field: fmt.Sprintf("%s must be at least %d characters", field, minLength),
		})
	case len(password) > constants.MaxPasswordBytes:
		return apperrors.WithDetails(apperrors.ErrInvalidInput, map[string]string{
			field: fmt.Sprintf("%s must be at most %d bytes", field, constants.MaxPasswordBytes),
		})
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		LastLogin: u.LastLogin,
	}
}

func toUserResponses(users []model.User) []dto.UserResponse {
	res := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		res = append(res, toUserResponse(&users[i]))
	}
	return res
}

func toPublicUser(u *model.User) dto.PublicUserResponse {
	return dto.PublicUserResponse{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}
