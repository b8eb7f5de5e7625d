// internal/handlers/access/access_handler.go
package access

import (
	"context"
	"net/http"
	"strconv"

	"panel-service/internal/domain/auth"
	"panel-service/internal/domain/listquery"
	"panel-service/internal/middleware"
	"panel-service/internal/pkg/response"
	accesssvc "panel-service/internal/service/access"

	"github.com/gin-gonic/gin"
)

type Service interface {
	ListUsers(ctx context.Context, raw listquery.Raw) (*accesssvc.UserListResponse, error)
	CreateUser(ctx context.Context, actorID int64, req *auth.CreateUserRequest) (*auth.UserWithRoles, error)
	UpdateUser(ctx context.Context, actorID, id int64, req *auth.UpdateUserRequest) (*auth.UserWithRoles, error)
	DeleteUser(ctx context.Context, actorID, id int64) error
	ResetPassword(ctx context.Context, actorID, userID int64, req *auth.ResetPasswordRequest) error

	ListRoles(ctx context.Context) ([]auth.Role, error)
	CreateRole(ctx context.Context, actorID int64, req *auth.RoleRequest) (*auth.Role, error)
	UpdateRole(ctx context.Context, actorID, id int64, req *auth.RoleRequest) (*auth.Role, error)
	DeleteRole(ctx context.Context, actorID, id int64) error

	ListPermissions(ctx context.Context) ([]auth.Permission, error)
	CreatePermission(ctx context.Context, actorID int64, req *auth.PermissionRequest) (*auth.Permission, error)
	UpdatePermission(ctx context.Context, actorID, id int64, req *auth.PermissionRequest) (*auth.Permission, error)
	DeletePermission(ctx context.Context, actorID, id int64) error
}

type AccessHandler struct {
	accessService Service
}

func NewAccessHandler(accessService Service) *AccessHandler {
	return &AccessHandler{
		accessService: accessService,
	}
}

// ========== Users ==========

func (h *AccessHandler) ListUsers(c *gin.Context) {
	var raw listquery.Raw
	if err := c.ShouldBindQuery(&raw); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.accessService.ListUsers(c.Request.Context(), raw)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "users retrieved", result)
}

func (h *AccessHandler) CreateUser(c *gin.Context) {
	var req auth.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	user, err := h.accessService.CreateUser(c.Request.Context(), actorID, &req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "user created successfully", user)
}

func (h *AccessHandler) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "user")
	if !ok {
		return
	}

	var req auth.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	user, err := h.accessService.UpdateUser(c.Request.Context(), actorID, id, &req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "user updated successfully", user)
}

func (h *AccessHandler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "user")
	if !ok {
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	if err := h.accessService.DeleteUser(c.Request.Context(), actorID, id); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "user deleted successfully", nil)
}

func (h *AccessHandler) ResetPassword(c *gin.Context) {
	userID, ok := paramID(c, "user")
	if !ok {
		return
	}

	var req auth.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	if err := h.accessService.ResetPassword(c.Request.Context(), actorID, userID, &req); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "password reset successfully", nil)
}

// ========== Roles & Permissions ==========

func (h *AccessHandler) ListRoles(c *gin.Context) {
	roles, err := h.accessService.ListRoles(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "roles retrieved", roles)
}

func (h *AccessHandler) CreateRole(c *gin.Context) {
	var req auth.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	role, err := h.accessService.CreateRole(c.Request.Context(), actorID, &req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "role created successfully", role)
}

func (h *AccessHandler) UpdateRole(c *gin.Context) {
	id, ok := paramID(c, "role")
	if !ok {
		return
	}

	var req auth.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	role, err := h.accessService.UpdateRole(c.Request.Context(), actorID, id, &req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "role updated successfully", role)
}

func (h *AccessHandler) DeleteRole(c *gin.Context) {
	id, ok := paramID(c, "role")
	if !ok {
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	if err := h.accessService.DeleteRole(c.Request.Context(), actorID, id); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "role deleted successfully", nil)
}

func (h *AccessHandler) ListPermissions(c *gin.Context) {
	permissions, err := h.accessService.ListPermissions(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "permissions retrieved", permissions)
}

func (h *AccessHandler) CreatePermission(c *gin.Context) {
	var req auth.PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	permission, err := h.accessService.CreatePermission(c.Request.Context(), actorID, &req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "permission created successfully", permission)
}

func (h *AccessHandler) UpdatePermission(c *gin.Context) {
	id, ok := paramID(c, "permission")
	if !ok {
		return
	}

	var req auth.PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	permission, err := h.accessService.UpdatePermission(c.Request.Context(), actorID, id, &req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "permission updated successfully", permission)
}

func (h *AccessHandler) DeletePermission(c *gin.Context) {
	id, ok := paramID(c, "permission")
	if !ok {
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	if err := h.accessService.DeletePermission(c.Request.Context(), actorID, id); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "permission deleted successfully", nil)
}

// paramID parses :id, answering 400 itself when it is not an integer
func paramID(c *gin.Context, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid "+resource+" ID", err)
		return 0, false
	}
	return id, true
}
