package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/model"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository is the credential store. Lookups return (nil, nil) when
// the row does not exist; every other error is an infrastructure failure.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func withFunction(ctx context.Context, function string) context.Context {
	ctx = ctxutil.WithValue(ctx, ctxutil.FunctionKey, function)
	return ctxutil.WithValue(ctx, ctxutil.ModuleKey, "repository")
}

// Transaction runs fn against a repository bound to a single database
// transaction. fn's error rolls everything back.
func (r *UserRepository) Transaction(ctx context.Context, fn func(tx *UserRepository) error) error {
	ctx = withFunction(ctx, "Transaction")
	start := time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UserRepository{db: tx})
	})

	logger.DebugWithContext(ctx, "Transaction finished").
		Bool("committed", err == nil).
		Duration(time.Since(start)).
		Log()
	return err
}

// forUpdate adds SELECT ... FOR UPDATE. SQLite has no row locks and
// serialises writers anyway, so the clause is skipped there.
func (r *UserRepository) forUpdate(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "sqlite" {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *UserRepository) findOne(ctx context.Context, q *gorm.DB, field string, value interface{}) (*model.User, error) {
	start := time.Now()
	var user model.User

	err := q.Where(field+" = ?", value).Take(&user).Error
	duration := time.Since(start)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.DebugWithContext(ctx, "User not found").
			String("field", field).
			Duration(duration).
			Log()
		return nil, nil
	}
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to get user").
			String("field", field).
			Duration(duration).
			Err(err).
			Log()
		return nil, err
	}

	logger.DebugWithContext(ctx, "User retrieved successfully").
		Uint("user_id", user.ID).
		Duration(duration).
		Log()
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	ctx = withFunction(ctx, "FindByID")
	return r.findOne(ctx, r.db.WithContext(ctx), "id", id)
}

// FindByIDForUpdate reads the user and locks the row until the surrounding
// transaction ends.
func (r *UserRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.User, error) {
	ctx = withFunction(ctx, "FindByIDForUpdate")
	return r.findOne(ctx, r.forUpdate(ctx), "id", id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	ctx = withFunction(ctx, "FindByUsername")
	return r.findOne(ctx, r.db.WithContext(ctx), "username", username)
}

// FindByEmail expects an already lowercased address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = withFunction(ctx, "FindByEmail")
	return r.findOne(ctx, r.db.WithContext(ctx), "email", email)
}

// Insert creates user. A unique index violation is returned as gorm.ErrDuplicatedKey.
func (r *UserRepository) Insert(ctx context.Context, user *model.User) error {
	ctx = withFunction(ctx, "Insert")

	start := time.Now()
	err := r.db.WithContext(ctx).Create(user).Error
	duration := time.Since(start)

	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("username", user.Username).
			Duration(duration).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "User created successfully").
		Uint("user_id", user.ID).
		String("username", user.Username).
		Bool("is_admin", user.IsAdmin).
		Duration(duration).
		Log()
	return nil
}

// UpdateFields applies column updates to one user. Returns
// gorm.ErrRecordNotFound when no row matched.
func (r *UserRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	ctx = withFunction(ctx, "UpdateFields")

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update user").
			Uint("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		logger.WarnWithContext(ctx, "No user found to update").
			Uint("user_id", id).
			Log()
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "User updated successfully").
		Uint("user_id", id).
		Int("fields", len(fields)).
		Duration(duration).
		Log()
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"password_hash": passwordHash})
}

// UpdateLastLogin updates the last login timestamp
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"last_login": at})
}

// Delete performs hard delete on user (permanent deletion)
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	ctx = withFunction(ctx, "Delete")

	start := time.Now()
	result := r.db.WithContext(ctx).Delete(&model.User{}, id)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete user").
			Uint("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		logger.WarnWithContext(ctx, "No user found to delete").
			Uint("user_id", id).
			Log()
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "User deleted successfully").
		Uint("user_id", id).
		Duration(duration).
		Log()
	return nil
}

// CountActiveAdmins counts users with is_admin and is_active set.
func (r *UserRepository) CountActiveAdmins(ctx context.Context) (int64, error) {
	ctx = withFunction(ctx, "CountActiveAdmins")

	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("is_admin = ? AND is_active = ?", true, true).
		Count(&count).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to count active admins").Err(err).Log()
		return 0, err
	}
	return count, nil
}

// LockActiveAdmins locks every active admin row and returns how many there
// are. Postgres rejects FOR UPDATE together with COUNT, so ids are read and
// counted here.
func (r *UserRepository) LockActiveAdmins(ctx context.Context) (int64, error) {
	ctx = withFunction(ctx, "LockActiveAdmins")

	start := time.Now()
	var ids []uint
	err := r.forUpdate(ctx).Model(&model.User{}).
		Where("is_admin = ? AND is_active = ?", true, true).
		Order("id").
		Pluck("id", &ids).Error
	duration := time.Since(start)

	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to lock active admins").
			Duration(duration).
			Err(err).
			Log()
		return 0, err
	}

	logger.DebugWithContext(ctx, "Active admins locked").
		Int("active_admins", len(ids)).
		Duration(duration).
		Log()
	return int64(len(ids)), nil
}

// List returns one page of users ordered by id and the total row count.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]model.User, int64, error) {
	ctx = withFunction(ctx, "List")

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").Err(err).Log()
		return nil, 0, err
	}

	start := time.Now()
	var (
		users []model.User
		total int64
	)

	query := r.db.WithContext(ctx).Model(&model.User{})
	if err := query.Count(&total).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to count users").Err(err).Log()
		return nil, 0, err
	}

	if err := query.Order("id").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch users").
			Int("limit", limit).
			Int("offset", offset).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, 0, err
	}

	logger.DebugWithContext(ctx, "Users retrieved successfully").
		Int("limit", limit).
		Int("offset", offset).
		Int64("total", total).
		Int("returned_count", len(users)).
		Duration(time.Since(start)).
		Log()
	return users, total, nil
}

// UserStats are the dashboard counters.
type UserStats struct {
	Total  int64
	Active int64
	Admins int64
}

func (r *UserRepository) Stats(ctx context.Context) (UserStats, error) {
	ctx = withFunction(ctx, "Stats")

	var stats UserStats
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.User{}).Count(&stats.Total).Error; err != nil {
		return UserStats{}, err
	}
	if err := db.Model(&model.User{}).Where("is_active = ?", true).Count(&stats.Active).Error; err != nil {
		return UserStats{}, err
	}
	if err := db.Model(&model.User{}).Where("is_admin = ?", true).Count(&stats.Admins).Error; err != nil {
		return UserStats{}, err
	}

	logger.DebugWithContext(ctx, "User stats computed").
		Int64("total", stats.Total).
		Int64("active", stats.Active).
		Int64("admins", stats.Admins).
		Log()
	return stats, nil
}

// Recent returns the n newest users.
func (r *UserRepository) Recent(ctx context.Context, n int) ([]model.User, error) {
	ctx = withFunction(ctx, "Recent")

	var users []model.User
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(n).Find(&users).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch recent users").Err(err).Log()
		return nil, err
	}
	return users, nil
}
