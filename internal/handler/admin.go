package handler

import (
	"net/http"
	"strconv"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/internal/dto"
	"github.com/Payphone-Digital/auth-service/internal/middleware"
	"github.com/Payphone-Digital/auth-service/internal/service"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/gin-gonic/gin"
)

const defaultAuditLimit = 20

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Dashboard")
	actor, _ := middleware.CurrentPrincipal(c)

	res, err := h.adminService.Dashboard(ctx, actor)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ListUsers")
	actor, _ := middleware.CurrentPrincipal(c)
	params := constants.ParsePaginationParams(c)

	res, err := h.adminService.ListUsers(ctx, actor, params.Page, params.Limit)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildListResponse(res.Total, res.Page, res.Limit, res.PageTotal, res.Users))
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GetUser")
	actor, _ := middleware.CurrentPrincipal(c)

	id, ok := parseID(ctx, c)
	if !ok {
		return
	}

	user, err := h.adminService.GetUser(ctx, actor, id)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.ResponseFieldUser: user})
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UpdateUser")
	actor, _ := middleware.CurrentPrincipal(c)

	id, ok := parseID(ctx, c)
	if !ok {
		return
	}
	var req dto.AdminUpdateUserRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	user, err := h.adminService.UpdateUser(ctx, actor, id, req)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		constants.ResponseFieldMessage: constants.MsgUpdated,
		constants.ResponseFieldUser:    user,
	})
}

func (h *AdminHandler) ToggleAdmin(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ToggleAdmin")
	actor, _ := middleware.CurrentPrincipal(c)

	id, ok := parseID(ctx, c)
	if !ok {
		return
	}

	user, err := h.adminService.ToggleAdmin(ctx, actor, id)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	msg := constants.MsgAdminRevoked
	if user.IsAdmin {
		msg = constants.MsgAdminGranted
	}
	c.JSON(http.StatusOK, gin.H{
		constants.ResponseFieldMessage: msg,
		constants.ResponseFieldUser:    user,
	})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "DeleteUser")
	actor, _ := middleware.CurrentPrincipal(c)

	id, ok := parseID(ctx, c)
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(ctx, actor, id); err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgDeleted))
}

// AuditTrail lists recent privilege changes made to a user
func (h *AdminHandler) AuditTrail(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "AuditTrail")
	actor, _ := middleware.CurrentPrincipal(c)

	id, ok := parseID(ctx, c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery(constants.QueryParamLimit, strconv.Itoa(defaultAuditLimit)))
	if err != nil {
		limit = defaultAuditLimit
	}

	events, err := h.adminService.AuditTrail(ctx, actor, id, limit)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.ResponseFieldData: events})
}
