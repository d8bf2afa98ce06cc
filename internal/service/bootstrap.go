package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/Payphone-Digital/auth-service/internal/dto"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/Payphone-Digital/auth-service/internal/repository"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/Payphone-Digital/auth-service/pkg/validation"
	"gorm.io/datatypes"
)

const generatedPasswordBytes = 24

// BootstrapService creates the first admin of an empty installation.
type BootstrapService struct {
	repo              *repository.UserRepository
	hasher            *PasswordHasher
	validator         *validation.Validator
	minPasswordLength int
}

func NewBootstrapService(repo *repository.UserRepository, hasher *PasswordHasher, v *validation.Validator, minPasswordLength int) *BootstrapService {
	return &BootstrapService{repo: repo, hasher: hasher, validator: v, minPasswordLength: minPasswordLength}
}

// ProvisionAdmin creates one active admin, but only while no active admin
// exists. With an empty password a random one is generated and returned;
// it is never logged.
func (s *BootstrapService) ProvisionAdmin(ctx context.Context, req dto.ProvisionAdminRequest) (*dto.ProvisionResult, error) {
	ctx = withFunction(ctx, "ProvisionAdmin")

	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	generated := ""
	if req.Password == "" {
		pw, err := generatePassword()
		if err != nil {
			return nil, err
		}
		req.Password, generated = pw, pw
	} else if err := checkPassword("password", req.Password, s.minPasswordLength); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	admin := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		IsAdmin:      true,
		IsActive:     true,
	}

	err = s.repo.Transaction(ctx, func(tx *repository.UserRepository) error {
		activeAdmins, err := tx.LockActiveAdmins(ctx)
		if err != nil {
			return err
		}
		if activeAdmins > 0 {
			return apperrors.ErrAlreadyProvisioned
		}

		if existing, err := tx.FindByUsername(ctx, req.Username); err != nil {
			return err
		} else if existing != nil {
			return apperrors.ErrUsernameExists
		}
		if existing, err := tx.FindByEmail(ctx, req.Email); err != nil {
			return err
		} else if existing != nil {
			return apperrors.ErrEmailExists
		}

		if err := tx.Insert(ctx, admin); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, &model.AuditEvent{
			TargetID: admin.ID,
			Action:   model.AuditProvision,
			Details:  datatypes.JSONMap{"username": admin.Username},
		})
	})
	if err != nil {
		logger.WarnWithContext(ctx, "Admin provisioning refused").
			String("username", req.Username).
			Err(err).
			Log()
		return nil, err
	}

	logger.InfoWithContext(ctx, "Admin provisioned").
		Uint("user_id", admin.ID).
		String("username", admin.Username).
		Bool("generated_password", generated != "").
		Log()

	return &dto.ProvisionResult{
		User:              toUserResponse(admin),
		GeneratedPassword: generated,
	}, nil
}

func generatePassword() (string, error) {
	buf := make([]byte, generatedPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
