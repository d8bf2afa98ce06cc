package main

import (
	"context"
	"fmt"

	configs "github.com/Payphone-Digital/auth-service/config"
	"github.com/Payphone-Digital/auth-service/internal/repository"
	"github.com/Payphone-Digital/auth-service/internal/service"
	"github.com/Payphone-Digital/auth-service/pkg/circuit"
	"github.com/Payphone-Digital/auth-service/pkg/database"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/Payphone-Digital/auth-service/pkg/metrics"
	"github.com/Payphone-Digital/auth-service/pkg/redis"
	"github.com/Payphone-Digital/auth-service/pkg/revocation"
	"github.com/Payphone-Digital/auth-service/pkg/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the process-wide dependencies shared by every command.
type app struct {
	config    *configs.Config
	db        *gorm.DB
	repo      *repository.UserRepository
	hasher    *service.PasswordHasher
	validator *validation.Validator
}

func newApp() (*app, error) {
	config, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitLogger(config); err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	db, err := database.Open(config)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &app{
		config:    config,
		db:        db,
		repo:      repository.NewUserRepository(db),
		hasher:    service.NewPasswordHasher(config.Security.BcryptCost),
		validator: validation.New(),
	}, nil
}

func (a *app) close() {
	if err := database.Close(a.db); err != nil {
		logger.GetLogger().Error("Failed to close database", zap.Error(err))
	}
	logger.Sync()
}

// revocationBackend is the store plus whatever must be torn down or
// reported on with it.
type revocationBackend struct {
	store   revocation.Store
	redis   redis.Client
	breaker *circuit.Breaker
	closeFn func()
}

// openRevocation uses redis when enabled, guarded by a circuit breaker, and
// falls back to the in-process store otherwise.
func (a *app) openRevocation(ctx context.Context) (*revocationBackend, error) {
	cfg := a.config
	if !cfg.Redis.Enabled {
		logger.GetLogger().Warn("Redis disabled, revocations kept in process memory")
		store := revocation.NewMemoryStore(cfg.Revocation.SweepInterval)
		return &revocationBackend{store: store, closeFn: store.Close}, nil
	}

	client, err := redis.Connect(ctx, redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Database,
		Enabled:      cfg.Redis.Enabled,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolTimeout:  cfg.Redis.PoolTimeout,
	}, logger.GetLogger())
	if err != nil {
		return nil, err
	}

	breaker := circuit.NewBreaker("revocation", circuit.Config{
		Threshold:        cfg.Revocation.BreakerThreshold,
		Timeout:          cfg.Revocation.BreakerTimeout,
		SuccessThreshold: 2,
		MaxHalfOpen:      1,
	}, logger.GetLogger(), circuit.WithStateHook(func(name string, _, to circuit.State) {
		metrics.BreakerState.WithLabelValues(name).Set(float64(to))
	}))
	metrics.BreakerState.WithLabelValues("revocation").Set(float64(circuit.StateClosed))

	return &revocationBackend{
		store:   revocation.NewBreakerStore(revocation.NewRedisStore(client), breaker),
		redis:   client,
		breaker: breaker,
		closeFn: func() { _ = client.Close() },
	}, nil
}
