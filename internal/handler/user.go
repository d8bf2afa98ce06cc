package handler

import (
	"net/http"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/internal/dto"
	"github.com/Payphone-Digital/auth-service/internal/middleware"
	"github.com/Payphone-Digital/auth-service/internal/service"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

func NewUserHandler(userService *service.UserService, authService *service.AuthService) *UserHandler {
	return &UserHandler{userService: userService, authService: authService}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GetProfile")
	principal, _ := middleware.CurrentPrincipal(c)

	user, err := h.userService.GetProfile(ctx, principal.UserID)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.ResponseFieldUser: user})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UpdateProfile")
	principal, _ := middleware.CurrentPrincipal(c)

	var req dto.UpdateProfileRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(ctx, principal.UserID, req)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		constants.ResponseFieldMessage: constants.MsgUpdated,
		constants.ResponseFieldUser:    user,
	})
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ChangePassword")
	principal, _ := middleware.CurrentPrincipal(c)

	var req dto.ChangePasswordRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	if err := h.authService.ChangePassword(ctx, principal.UserID, req); err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgPasswordUpdate))
}

// GetPublicUser shows another user's public fields
func (h *UserHandler) GetPublicUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GetPublicUser")

	id, ok := parseID(ctx, c)
	if !ok {
		return
	}

	user, err := h.userService.GetPublicUser(ctx, id)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.ResponseFieldUser: user})
}
