package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Payphone-Digital/auth-service/config"
	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/Payphone-Digital/auth-service/internal/repository"
	"github.com/Payphone-Digital/auth-service/pkg/database"
	"github.com/Payphone-Digital/auth-service/pkg/revocation"
	"github.com/Payphone-Digital/auth-service/pkg/validation"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-long-enough-32b"

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:     testSecret,
		Issuer:     "auth-service-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 30 * 24 * time.Hour,
	}
}

// testClock is a settable clock starting at the real current time, so the
// in-memory revocation store (which uses time.Now) agrees with it.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock { return &testClock{t: time.Now()} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	repo      *repository.UserRepository
	hasher    *PasswordHasher
	revoked   *revocation.MemoryStore
	tokens    *TokenService
	auth      *AuthService
	admin     *AdminService
	users     *UserService
	bootstrap *BootstrapService
	clock     *testClock
}

func newTestEnv(t *testing.T, settings AuthSettings) *testEnv {
	t.Helper()

	db, err := database.OpenMemory(fmt.Sprintf("svc_%s_%d", t.Name(), time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	repo := repository.NewUserRepository(db)
	hasher := NewPasswordHasher(bcrypt.MinCost)
	store := revocation.NewMemoryStore(0)
	t.Cleanup(store.Close)
	clock := newTestClock()
	tokens := NewTokenService(testJWTConfig(), store, WithClock(clock.Now))
	v := validation.New()

	return &testEnv{
		repo:      repo,
		hasher:    hasher,
		revoked:   store,
		tokens:    tokens,
		auth:      NewAuthService(repo, hasher, tokens, v, settings),
		admin:     NewAdminService(repo, NewAdminGuard(), v),
		users:     NewUserService(repo, v),
		bootstrap: NewBootstrapService(repo, hasher, v, 3),
		clock:     clock,
	}
}

// seed inserts a user whose password is "<username>-pw".
func (e *testEnv) seed(t *testing.T, username string, admin, active bool) *model.User {
	t.Helper()
	hash, err := e.hasher.Hash(username + "-pw")
	require.NoError(t, err)
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		IsAdmin:      admin,
		IsActive:     active,
	}
	require.NoError(t, e.repo.Insert(context.Background(), u))
	return u
}

func (e *testEnv) reload(t *testing.T, id uint) *model.User {
	t.Helper()
	u, err := e.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func adminActor(id uint) Principal { return Principal{UserID: id, IsAdmin: true} }
