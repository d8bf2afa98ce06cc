package middleware

import (
	"context"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestContext tags the request context with request/correlation ids,
// client details and a deadline, and echoes the ids back as headers.
func RequestContext(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		correlationID := c.GetHeader(constants.HeaderXCorrelationID)
		if correlationID == "" {
			correlationID = requestID
		}

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, ctxutil.RequestIDKey, requestID)
		ctx = context.WithValue(ctx, ctxutil.CorrelationIDKey, correlationID)
		ctx = context.WithValue(ctx, ctxutil.ClientIPKey, c.ClientIP())
		ctx = context.WithValue(ctx, ctxutil.UserAgentKey, c.Request.UserAgent())
		ctx = context.WithValue(ctx, ctxutil.StartTimeKey, time.Now())

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = ctxutil.WithTimeout(ctx, timeout)
			defer cancel()
		}

		c.Header(constants.HeaderXRequestID, requestID)
		c.Header(constants.HeaderXCorrelationID, correlationID)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
