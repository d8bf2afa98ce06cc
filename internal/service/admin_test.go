package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Payphone-Digital/auth-service/internal/dto"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_LastAdminIsProtected(t *testing.T) {
	env := newTestEnv(t, AuthSettings{})
	ctx := context.Background()
	root := env.seed(t, "root", true, true)
	helper := env.seed(t, "helper", false, true)
	actor := adminActor(helper.ID) // stale admin snapshot of a non-admin

	_, err := env.admin.ToggleAdmin(ctx, actor, root.ID)
	assert.ErrorIs(t, err, apperrors.ErrLastAdmin)

	_, err = env.admin.SetActive(ctx, actor, root.ID, false)
	assert.ErrorIs(t, err, apperrors.ErrLastAdmin)

	_, err = env.admin.UpdateUser(ctx, actor, root.ID, dto.AdminUpdateUserRequest{IsActive: boolPtr(false)})
	assert.ErrorIs(t, err, apperrors.ErrLastAdmin)

	err = env.admin.DeleteUser(ctx, actor, root.ID)
	assert.ErrorIs(t, err, apperrors.ErrLastAdmin)

	after := env.reload(t, root.ID)
	require.NotNil(t, after)
	assert.True(t, after.IsActiveAdmin())

	trail, err := env.repo.AuditTrail(ctx, root.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, trail, "denied mutations write no audit rows")
}

func TestAdminService_SelfDeletion(t *testing.T) {
	env := newTestEnv(t, AuthSettings{})
	ctx := context.Background()
	a := env.seed(t, "admina", true, true)
	env.seed(t, "adminb", true, true)

	err := env.admin.DeleteUser(ctx, adminActor(a.ID), a.ID)
	assert.ErrorIs(t, err, apperrors.ErrSelfDeletion)
	assert.NotNil(t, env.reload(t, a.ID))
}

func TestAdminService_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t, AuthSettings{})
	ctx := context.Background()
	u := env.seed(t, "user", false, true)
	nonAdmin := Principal{UserID: u.ID}

	_, err := env.admin.ToggleAdmin(ctx, nonAdmin, u.ID)
	assert.ErrorIs(t, err, apperrors.ErrAdminRequired)
	assert.ErrorIs(t, env.admin.DeleteUser(ctx, nonAdmin, u.ID), apperrors.ErrAdminRequired)
	_, err = env.admin.Dashboard(ctx, nonAdmin)
	assert.ErrorIs(t, err, apperrors.ErrAdminRequired)
	_, err = env.admin.ListUsers(ctx, nonAdmin, 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrAdminRequired)
	_, err = env.admin.GetUser(ctx, nonAdmin, u.ID)
	assert.ErrorIs(t, err, apperrors.ErrAdminRequired)
	assert.False(t, env.reload(t, u.ID).IsAdmin)
}

func TestAdminService_NotFound(t *testing.T) {
	env := newTestEnv(t, AuthSettings{})
	ctx := context.Background()
	root := env.seed(t, "root", true, true)

	_, err := env.admin.ToggleAdmin(ctx, adminActor(root.ID), 404)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.ErrorIs(t, env.admin.DeleteUser(ctx, adminActor(root.ID), 404), apperrors.ErrUserNotFound)
	_, err = env.admin.GetUser(ctx, adminActor(root.ID), 404)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestAdminService_ToggleAndDeleteWithAudit(t *testing.T) {
	env := newTestEnv(t, AuthSettings{})
	ctx := context.Background()
	root := env.seed(t, "root", true, true)
	bob := env.seed(t, "bob", false, true)
	actor := adminActor(root.ID)

	res, err := env.admin.ToggleAdmin(ctx, actor, bob.ID)
	require.NoError(t, err)
	assert.True(t, res.IsAdmin)

	// two active admins now, so root may be demoted
	res, err = env.admin.ToggleAdmin(ctx, adminActor(bob.ID), root.ID)
	require.NoError(t, err)
	assert.False(t, res.IsAdmin)

	_, err = env.admin.SetActive(ctx, actor, bob.ID, false)
	assert.ErrorIs(t, err, apperrors.ErrLastAdmin)

	require.NoError(t, env.admin.DeleteUser(ctx, adminActor(bob.ID), root.ID))
	assert.Nil(t, env.reload(t, root.ID))

	trail, err := env.repo.AuditTrail(ctx, bob.ID, 10)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, model.AuditPromote, trail[0].Action)
	require.NotNil(t, trail[0].ActorID)
	assert.Equal(t, root.ID, *trail[0].ActorID)

	trail, err = env.repo.AuditTrail(ctx, root.ID, 10)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, model.AuditDelete, trail[0].Action)
	assert.Equal(t, model.AuditDemote, trail[1].Action)
}

func TestAdminService_UpdateUser(t *testing.T) {
	env := newTestEnv(t, AuthSettings{})
	ctx := context.Background()
	root := env.seed(t, "root", true, true)
	bob := env.seed(t, "bob", false, true)
	env.seed(t, "carl", false, true)
	actor := adminActor(root.ID)

	_, err := env.admin.UpdateUser(ctx, actor, bob.ID, dto.AdminUpdateUserRequest{Email: strPtr("carl@example.com")})
	assert.ErrorIs(t, err, apperrors.ErrEmailExists)

	_, err = env.admin.UpdateUser(ctx, actor, bob.ID, dto.AdminUpdateUserRequest{Email: strPtr("not-an-email")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	res, err := env.admin.UpdateUser(ctx, actor, bob.ID, dto.AdminUpdateUserRequest{
		Email:    strPtr("Bobby@Example.com"),
		IsActive: boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "bobby@example.com", res.Email)
	assert.False(t, res.IsActive)

	// nothing to change
	res, err = env.admin.UpdateUser(ctx, actor, bob.ID, dto.AdminUpdateUserRequest{})
	require.NoError(t, err)
	assert.Equal(t, "bobby@example.com", res.Email)

	trail, err := env.repo.AuditTrail(ctx, bob.ID, 10)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, model.AuditUpdate, trail[0].Action)
	assert.Equal(t, "bobby@example.com", trail[0].Details["email"])
}

func TestAdminService_ConcurrentDemotionsKeepOneAdmin(t *testing.T) {
	env := newTestEnv(t, AuthSettings{})
	ctx := context.Background()
	a := env.seed(t, "admina", true, true)
	b := env.seed(t, "adminb", true, true)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = env.admin.ToggleAdmin(ctx, adminActor(a.ID), b.ID)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = env.admin.ToggleAdmin(ctx, adminActor(b.ID), a.ID)
	}()
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrLastAdmin)
	}
	assert.Equal(t, 1, succeeded)

	count, err := env.repo.CountActiveAdmins(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestAdminService_DashboardAndList(t *testing.T) {
	env := newTestEnv(t, AuthSettings{})
	ctx := context.Background()
	root := env.seed(t, "root", true, true)
	for _, name := range []string{"u1", "u2", "u3", "u4", "u5", "u6"} {
		env.seed(t, name, false, name != "u6")
	}
	actor := adminActor(root.ID)

	dash, err := env.admin.Dashboard(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, dto.DashboardStats{TotalUsers: 7, ActiveUsers: 6, AdminUsers: 1}, dash.Stats)
	require.Len(t, dash.RecentUsers, 5)
	assert.Equal(t, "u6", dash.RecentUsers[0].Username)

	list, err := env.admin.ListUsers(ctx, actor, 2, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 7, list.Total)
	assert.Equal(t, 3, list.PageTotal)
	require.Len(t, list.Users, 3)
	assert.Equal(t, "u3", list.Users[0].Username)

	capped, err := env.admin.ListUsers(ctx, actor, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 100, capped.Limit)
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }
