package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds redis connection settings.
type Config struct {
	Host         string
	Port         int
	Password     string
	DB           int
	Enabled      bool
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
}

// Addr returns host:port.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Client is the subset of redis the service relies on.
type Client interface {
	IsEnabled() bool
	Ping(ctx context.Context) error
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

type client struct {
	rdb    *goredis.Client
	cfg    Config
	logger *zap.Logger
}

// NewClient builds a Client. When cfg.Enabled is false a disabled client is
// returned whose data methods fail with ErrDisabled.
func NewClient(cfg Config, logger *zap.Logger) Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		return disabledClient{}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	})

	return &client{rdb: rdb, cfg: cfg, logger: logger}
}

// Connect builds a client and verifies the server answers PING.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (Client, error) {
	c := NewClient(cfg, logger)
	if !c.IsEnabled() {
		return c, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	if logger != nil {
		logger.Info("Successfully connected to Redis",
			zap.String("address", cfg.Addr()),
			zap.Int("database", cfg.DB),
		)
	}
	return c, nil
}

func (c *client) IsEnabled() bool {
	return true
}

func (c *client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *client) Close() error {
	return c.rdb.Close()
}

// SetWithTTL stores value under key; the key disappears after ttl.
func (c *client) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Error("Failed to set key",
			zap.String("key", key),
			zap.Duration("ttl", ttl),
			zap.Error(err),
		)
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	c.logger.Debug("Key set successfully",
		zap.String("key", key),
		zap.Duration("ttl", ttl),
	)
	return nil
}

// Exists checks if key exists
func (c *client) Exists(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return result > 0, nil
}

// ErrDisabled is returned by a client built with Enabled=false.
var ErrDisabled = errors.New("redis is disabled")

type disabledClient struct{}

func (disabledClient) IsEnabled() bool                { return false }
func (disabledClient) Ping(ctx context.Context) error { return ErrDisabled }
func (disabledClient) Close() error                   { return nil }

func (disabledClient) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	return ErrDisabled
}

func (disabledClient) Exists(ctx context.Context, key string) (bool, error) {
	return false, ErrDisabled
}
