package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter is a per-IP sliding window.
type RateLimiter struct {
	hits       map[string][]time.Time
	maxRequest int
	duration   time.Duration
	now        func() time.Time
	mu         sync.Mutex
}

func NewRateLimiter(maxRequest int, duration time.Duration) *RateLimiter {
	return &RateLimiter{
		hits:       make(map[string][]time.Time),
		maxRequest: maxRequest,
		duration:   duration,
		now:        time.Now,
	}
}

// Allow records a hit for ip and reports whether it is within the limit,
// plus how many requests remain in the window.
func (rl *RateLimiter) Allow(ip string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanup(now)

	hits := rl.hits[ip]
	if len(hits) >= rl.maxRequest {
		return false, 0
	}
	rl.hits[ip] = append(hits, now)
	return true, rl.maxRequest - len(hits) - 1
}

// cleanup drops hits outside the window (must hold lock)
func (rl *RateLimiter) cleanup(now time.Time) {
	for ip, hits := range rl.hits {
		var valid []time.Time
		for _, t := range hits {
			if now.Sub(t) <= rl.duration {
				valid = append(valid, t)
			}
		}
		if len(valid) > 0 {
			rl.hits[ip] = valid
		} else {
			delete(rl.hits, ip)
		}
	}
}

func RateLimit(maxRequest int, duration time.Duration) gin.HandlerFunc {
	return rateLimit(NewRateLimiter(maxRequest, duration))
}

func rateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		ok, remaining := limiter.Allow(ip)
		if !ok {
			logger.GetLogger().Warn("Rate limit exceeded",
				zap.String("client_ip", ip),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("max_requests", limiter.maxRequest),
				zap.Duration("duration", limiter.duration),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(limiter.duration.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				constants.BuildCodedErrorResponse("RATE_LIMITED", "Rate limit exceeded", nil))
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.maxRequest))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Next()
	}
}
