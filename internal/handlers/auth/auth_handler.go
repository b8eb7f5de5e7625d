// internal/handlers/auth/auth_handler.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"panel-service/internal/domain/auth"
	"panel-service/internal/middleware"
	xerrors "panel-service/internal/pkg/errors"
	"panel-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error)
	Logout(ctx context.Context, userID int64, jti string, expiresAt time.Time) error
	Me(ctx context.Context, userID int64) (*auth.UserInfo, error)
}

type AuthHandler struct {
	authService Service
	logger      *zap.Logger
}

func NewAuthHandler(authService Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// ========== Login ==========

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	loginResp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("login failed",
			zap.String("email", req.Email),
			zap.String("ip", req.IPAddress),
			zap.Error(err),
		)
		if errors.Is(err, xerrors.ErrUnauthorized) {
			response.Error(c, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", loginResp)
}

// ========== Session ==========

func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := middleware.GetIdentityID(c)
	jti, jtiOK := middleware.GetJTI(c)
	if !ok || !jtiOK {
		response.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), userID, jti, middleware.GetTokenExpiry(c)); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "logout successful", nil)
}

// GetMe returns the signed-in user with roles and permissions
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.GetIdentityID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	info, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "user retrieved", info)
}
