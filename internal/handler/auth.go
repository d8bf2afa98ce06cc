package handler

import (
	"net/http"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/internal/dto"
	"github.com/Payphone-Digital/auth-service/internal/middleware"
	"github.com/Payphone-Digital/auth-service/internal/service"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Register")

	var req dto.RegisterRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	user, err := h.authService.Register(ctx, req)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		constants.ResponseFieldMessage: constants.MsgRegistered,
		constants.ResponseFieldUser:    user,
	})
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Login")

	var req dto.LoginRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	response, err := h.authService.Login(ctx, req)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Refresh exchanges a refresh token for a new access token
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Refresh")

	var req dto.RefreshRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	logger.DebugWithContext(ctx, "Token refresh attempt").
		Int("token_length", len(req.RefreshToken)).
		Log()

	response, err := h.authService.Refresh(ctx, req)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Logout revokes the bearer token; the body may name a refresh token too.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Logout")

	var req dto.LogoutRequest
	if c.Request.ContentLength > 0 && !bindJSON(ctx, c, &req) {
		return
	}
	req.AccessToken = middleware.AccessToken(c)

	if err := h.authService.Logout(ctx, req); err != nil {
		respondError(ctx, c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgLoggedOut))
}

// Me returns the caller's own record
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Me")
	principal, _ := middleware.CurrentPrincipal(c)

	user, err := h.userService.GetProfile(ctx, principal.UserID)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{constants.ResponseFieldUser: user})
}

// CheckToken reports what the bearer token says about its holder.
func (h *AuthHandler) CheckToken(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	c.JSON(http.StatusOK, dto.TokenCheckResponse{
		Valid:     true,
		UserID:    principal.UserID,
		IsAdmin:   principal.IsAdmin,
		ExpiresAt: principal.ExpiresAt,
	})
}
