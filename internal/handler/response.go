package handler

import (
	"context"
	"net/http"
	"strconv"

	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

// respondError writes err in the standard error shape. Infrastructure
// failures are logged at error level since the client only sees a generic message.
func respondError(ctx context.Context, c *gin.Context, err error) {
	status, body := apperrors.HTTPResponse(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorWithContext(ctx, "Request failed").
			Int("status_code", status).
			Err(err).
			Log()
	}
	c.JSON(status, body)
}

// bindJSON decodes the body; a decoding failure is answered with 400.
func bindJSON(ctx context.Context, c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		logger.WarnWithContext(ctx, "Invalid request body").
			Err(err).
			Log()
		respondError(ctx, c, apperrors.WithDetails(apperrors.ErrInvalidInput, map[string]string{"body": "malformed JSON body"}))
		return false
	}
	return true
}

func parseID(ctx context.Context, c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(ctx, c, apperrors.WithDetails(apperrors.ErrInvalidInput, map[string]string{"id": "id must be a positive integer"}))
		return 0, false
	}
	return uint(id), true
}
