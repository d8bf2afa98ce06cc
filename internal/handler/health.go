package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Payphone-Digital/auth-service/pkg/circuit"
	"github.com/Payphone-Digital/auth-service/pkg/database"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/Payphone-Digital/auth-service/pkg/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
	statusDegraded  = "degraded"
)

type HealthHandler struct {
	db          *gorm.DB
	redisClient redis.Client
	breaker     *circuit.Breaker
	version     string
}

type HealthCheckResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks,omitempty"`
}

type HealthCheck struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewHealthHandler builds the probes. redisClient and breaker may be nil
// when revocations are kept in memory.
func NewHealthHandler(db *gorm.DB, redisClient redis.Client, breaker *circuit.Breaker, version string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
		breaker:     breaker,
		version:     version,
	}
}

// Liveness answers as long as the process serves HTTP
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthCheckResponse{
		Status:    statusHealthy,
		Version:   h.version,
		Timestamp: time.Now(),
	})
}

// Readiness checks the credential store and the revocation backend. Either
// being down makes the service unable to authenticate, so both count.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := HealthCheckResponse{
		Status:    statusHealthy,
		Version:   h.version,
		Timestamp: time.Now(),
		Checks: map[string]HealthCheck{
			"database": h.checkDatabase(ctx),
			"redis":    h.checkRedis(ctx),
		},
	}
	if h.breaker != nil {
		response.Checks["revocation_breaker"] = h.checkBreaker()
	}

	for _, check := range response.Checks {
		switch check.Status {
		case statusUnhealthy:
			response.Status = statusUnhealthy
		case statusDegraded:
			if response.Status == statusHealthy {
				response.Status = statusDegraded
			}
		}
	}

	statusCode := http.StatusOK
	if response.Status == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	logger.GetLogger().Debug("Health check performed",
		zap.String("overall_status", response.Status),
		zap.Int("status_code", statusCode),
	)

	c.JSON(statusCode, response)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) HealthCheck {
	if h.db == nil {
		return HealthCheck{Status: statusUnhealthy, Message: "Database connection not initialized"}
	}

	if err := database.Ping(ctx, h.db); err != nil {
		logger.GetLogger().Error("Database ping failed", zap.Error(err))
		return HealthCheck{Status: statusUnhealthy, Message: "Database ping failed"}
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		return HealthCheck{Status: statusHealthy}
	}
	stats := sqlDB.Stats()
	return HealthCheck{
		Status:  statusHealthy,
		Message: fmt.Sprintf("open: %d, idle: %d", stats.OpenConnections, stats.Idle),
	}
}

func (h *HealthHandler) checkRedis(ctx context.Context) HealthCheck {
	if h.redisClient == nil || !h.redisClient.IsEnabled() {
		return HealthCheck{Status: statusDisabled, Message: "Revocations are kept in process memory"}
	}

	if err := h.redisClient.Ping(ctx); err != nil {
		logger.GetLogger().Warn("Redis ping failed", zap.Error(err))
		return HealthCheck{Status: statusUnhealthy, Message: "Redis ping failed"}
	}
	return HealthCheck{Status: statusHealthy}
}

func (h *HealthHandler) checkBreaker() HealthCheck {
	check := HealthCheck{Status: statusHealthy, Details: h.breaker.Stats()}
	switch h.breaker.State() {
	case circuit.StateOpen:
		check.Status = statusUnhealthy
		check.Message = "Revocation store circuit is open"
	case circuit.StateHalfOpen:
		check.Status = statusDegraded
		check.Message = "Revocation store circuit is probing"
	}
	return check
}
