package service

import (
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/model"
)

// Change is a privilege-affecting mutation of a user.
type Change int

const (
	ChangePromote Change = iota
	ChangeDemote
	ChangeActivate
	ChangeDeactivate
	ChangeDelete
)

func (c Change) String() string {
	switch c {
	case ChangePromote:
		return model.AuditPromote
	case ChangeDemote:
		return model.AuditDemote
	case ChangeActivate:
		return model.AuditActivate
	case ChangeDeactivate:
		return model.AuditDeactivate
	case ChangeDelete:
		return model.AuditDelete
	default:
		return "unknown"
	}
}

// reduces reports whether the change can take a user out of the active admin set.
func (c Change) reduces() bool {
	return c == ChangeDemote || c == ChangeDeactivate || c == ChangeDelete
}

// AdminGuard decides whether a change may be applied. It is pure; the
// caller must read activeAdmins in the same transaction that commits.
type AdminGuard struct{}

func NewAdminGuard() AdminGuard {
	return AdminGuard{}
}

// Evaluate returns nil when the change is allowed, ErrLastAdmin when it
// would leave no active admin, or ErrSelfDeletion when actor deletes itself.
func (AdminGuard) Evaluate(target *model.User, change Change, actorID uint, activeAdmins int64) error {
	if change.reduces() && target.IsActiveAdmin() && activeAdmins-1 <= 0 {
		return apperrors.ErrLastAdmin
	}
	if change == ChangeDelete && target.ID == actorID {
		return apperrors.ErrSelfDeletion
	}
	return nil
}
