package middleware

import (
	"context"
	"strings"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/service"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Authenticator turns a bearer token into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*service.Principal, error)
}

type JWTMiddleware struct {
	auth Authenticator
}

func NewJWTMiddleware(auth Authenticator) *JWTMiddleware {
	return &JWTMiddleware{auth: auth}
}

// RequireAuth verifies the Bearer access token and stores the principal.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "middleware", "RequireAuth")

		token, ok := bearerToken(c.GetHeader(constants.HeaderAuthorization))
		if !ok {
			logger.WarnWithContext(ctx, "Missing or malformed Authorization header").
				String("path", c.Request.URL.Path).
				Log()
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		principal, err := m.auth.Authenticate(ctx, token)
		if err != nil {
			logger.WarnWithContext(ctx, "Token rejected").
				String("path", c.Request.URL.Path).
				Int("token_length", len(token)).
				Err(err).
				Log()
			abortWithError(c, err)
			return
		}

		c.Set(constants.GinKeyPrincipal, *principal)
		c.Set(constants.GinKeyAccessToken, token)
		c.Request = c.Request.WithContext(ctxutil.WithUserID(c.Request.Context(), principal.UserID))
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth. It trusts the is_admin claim
// snapshot; the services re-check inside their transactions.
func (m *JWTMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}
		if !principal.IsAdmin {
			logger.WarnWithContext(c.Request.Context(), "Admin route denied").
				Uint("user_id", principal.UserID).
				String("path", c.Request.URL.Path).
				Log()
			abortWithError(c, apperrors.ErrAdminRequired)
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the principal stored by RequireAuth.
func CurrentPrincipal(c *gin.Context) (service.Principal, bool) {
	value, ok := c.Get(constants.GinKeyPrincipal)
	if !ok {
		return service.Principal{}, false
	}
	principal, ok := value.(service.Principal)
	return principal, ok
}

// AccessToken returns the raw bearer token accepted by RequireAuth.
func AccessToken(c *gin.Context) string {
	return c.GetString(constants.GinKeyAccessToken)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, constants.AuthScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortWithError(c *gin.Context, err error) {
	status, body := apperrors.HTTPResponse(err)
	c.AbortWithStatusJSON(status, body)
}
