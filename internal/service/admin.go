package service

import (
	"context"
	"errors"
	"math"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/internal/dto"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/Payphone-Digital/auth-service/internal/repository"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/Payphone-Digital/auth-service/pkg/metrics"
	"github.com/Payphone-Digital/auth-service/pkg/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdminService holds the admin-only flows. Every privilege-affecting
// mutation runs in one transaction: lock the active admins, lock the
// target, ask the guard, apply, audit.
type AdminService struct {
	repo      *repository.UserRepository
	guard     AdminGuard
	validator *validation.Validator
}

func NewAdminService(repo *repository.UserRepository, guard AdminGuard, v *validation.Validator) *AdminService {
	return &AdminService{repo: repo, guard: guard, validator: v}
}

func requireAdmin(actor Principal) error {
	if !actor.IsAdmin {
		return apperrors.ErrAdminRequired
	}
	return nil
}

// plan describes what a mutation does to the locked target.
type plan struct {
	changes []Change
	fields  map[string]interface{}
	delete  bool
	action  string
}

func (s *AdminService) mutate(ctx context.Context, actor Principal, targetID uint, build func(tx *repository.UserRepository, target *model.User) (*plan, error)) (*model.User, error) {
	if err := requireAdmin(actor); err != nil {
		logger.WarnWithContext(ctx, "Admin action by non-admin").
			Uint("actor_id", actor.UserID).
			Log()
		return nil, err
	}

	var (
		result *model.User
		action = "unknown"
	)
	err := s.repo.Transaction(ctx, func(tx *repository.UserRepository) error {
		activeAdmins, err := tx.LockActiveAdmins(ctx)
		if err != nil {
			return err
		}

		target, err := tx.FindByIDForUpdate(ctx, targetID)
		if err != nil {
			return err
		}
		if target == nil {
			return apperrors.ErrUserNotFound
		}

		p, err := build(tx, target)
		if err != nil {
			return err
		}
		action = p.action

		for _, change := range p.changes {
			if err := s.guard.Evaluate(target, change, actor.UserID, activeAdmins); err != nil {
				return err
			}
		}

		switch {
		case p.delete:
			if err := tx.Delete(ctx, target.ID); err != nil {
				return err
			}
		case len(p.fields) > 0:
			if err := tx.UpdateFields(ctx, target.ID, p.fields); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apperrors.WrapError(apperrors.ErrEmailExists, err)
				}
				return err
			}
			if target, err = tx.FindByID(ctx, target.ID); err != nil {
				return err
			}
		default:
			result = target
			return nil
		}

		actorID := actor.UserID
		details := datatypes.JSONMap{}
		for k, v := range p.fields {
			details[k] = v
		}
		if err := tx.RecordAudit(ctx, &model.AuditEvent{
			ActorID:  &actorID,
			TargetID: targetID,
			Action:   p.action,
			Details:  details,
		}); err != nil {
			return err
		}

		result = target
		return nil
	})

	metrics.AdminMutations.WithLabelValues(action, metrics.Result(err)).Inc()
	if err != nil {
		logger.WarnWithContext(ctx, "Admin mutation not applied").
			Uint("target_id", targetID).
			String("action", action).
			Err(err).
			Log()
		return nil, err
	}

	logger.InfoWithContext(ctx, "Admin mutation applied").
		Uint("target_id", targetID).
		String("action", action).
		Log()
	return result, nil
}

// ToggleAdmin flips the target's admin flag.
func (s *AdminService) ToggleAdmin(ctx context.Context, actor Principal, targetID uint) (*dto.UserResponse, error) {
	ctx = withFunction(ctx, "ToggleAdmin")

	user, err := s.mutate(ctx, actor, targetID, func(_ *repository.UserRepository, target *model.User) (*plan, error) {
		change := ChangePromote
		if target.IsAdmin {
			change = ChangeDemote
		}
		return &plan{
			changes: []Change{change},
			fields:  map[string]interface{}{"is_admin": !target.IsAdmin},
			action:  change.String(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	res := toUserResponse(user)
	return &res, nil
}

// SetActive activates or deactivates the target.
func (s *AdminService) SetActive(ctx context.Context, actor Principal, targetID uint, active bool) (*dto.UserResponse, error) {
	ctx = withFunction(ctx, "SetActive")

	change := ChangeDeactivate
	if active {
		change = ChangeActivate
	}
	user, err := s.mutate(ctx, actor, targetID, func(_ *repository.UserRepository, _ *model.User) (*plan, error) {
		return &plan{
			changes: []Change{change},
			fields:  map[string]interface{}{"is_active": active},
			action:  change.String(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	res := toUserResponse(user)
	return &res, nil
}

// UpdateUser changes email and/or active state. Nil fields are left alone.
func (s *AdminService) UpdateUser(ctx context.Context, actor Principal, targetID uint, req dto.AdminUpdateUserRequest) (*dto.UserResponse, error) {
	ctx = withFunction(ctx, "UpdateUser")

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	user, err := s.mutate(ctx, actor, targetID, func(tx *repository.UserRepository, target *model.User) (*plan, error) {
		p := &plan{fields: map[string]interface{}{}, action: model.AuditUpdate}

		if req.Email != nil && *req.Email != target.Email {
			existing, err := tx.FindByEmail(ctx, *req.Email)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != target.ID {
				return nil, apperrors.ErrEmailExists
			}
			p.fields["email"] = *req.Email
		}

		if req.IsActive != nil && *req.IsActive != target.IsActive {
			change := ChangeDeactivate
			if *req.IsActive {
				change = ChangeActivate
			}
			p.changes = append(p.changes, change)
			p.fields["is_active"] = *req.IsActive
			if len(p.fields) == 1 {
				p.action = change.String()
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	res := toUserResponse(user)
	return &res, nil
}

// DeleteUser hard-deletes the target.
func (s *AdminService) DeleteUser(ctx context.Context, actor Principal, targetID uint) error {
	ctx = withFunction(ctx, "DeleteUser")

	_, err := s.mutate(ctx, actor, targetID, func(_ *repository.UserRepository, target *model.User) (*plan, error) {
		return &plan{
			changes: []Change{ChangeDelete},
			fields:  map[string]interface{}{"username": target.Username},
			delete:  true,
			action:  model.AuditDelete,
		}, nil
	})
	return err
}

func (s *AdminService) Dashboard(ctx context.Context, actor Principal) (*dto.DashboardResponse, error) {
	ctx = withFunction(ctx, "Dashboard")
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.Recent(ctx, constants.DashboardRecentUsers)
	if err != nil {
		return nil, err
	}

	return &dto.DashboardResponse{
		Stats: dto.DashboardStats{
			TotalUsers:  stats.Total,
			ActiveUsers: stats.Active,
			AdminUsers:  stats.Admins,
		},
		RecentUsers: toUserResponses(recent),
	}, nil
}

func (s *AdminService) ListUsers(ctx context.Context, actor Principal, page, limit int) (*dto.UserListResponse, error) {
	ctx = withFunction(ctx, "ListUsers")
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	params := constants.NormalizePagination(page, limit)
	users, total, err := s.repo.List(ctx, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}

	logger.DebugWithContext(ctx, "Users listed").
		Int("page", params.Page).
		Int("limit", params.Limit).
		Int64("total", total).
		Log()

	return &dto.UserListResponse{
		Users:     toUserResponses(users),
		Total:     total,
		Page:      params.Page,
		Limit:     params.Limit,
		PageTotal: int(math.Ceil(float64(total) / float64(params.Limit))),
	}, nil
}

func (s *AdminService) GetUser(ctx context.Context, actor Principal, id uint) (*dto.UserResponse, error) {
	ctx = withFunction(ctx, "GetUser")
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	res := toUserResponse(user)
	return &res, nil
}

// AuditTrail returns the newest audit events about a user.
func (s *AdminService) AuditTrail(ctx context.Context, actor Principal, id uint, limit int) ([]model.AuditEvent, error) {
	ctx = withFunction(ctx, "AuditTrail")
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	params := constants.NormalizePagination(constants.MinPage, limit)
	return s.repo.AuditTrail(ctx, id, params.Limit)
}
