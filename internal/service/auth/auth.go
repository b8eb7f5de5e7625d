// internal/service/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/auth"
	xerrors "panel-service/internal/pkg/errors"
	"panel-service/internal/pkg/jwt"
	"panel-service/internal/pkg/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Repository interface {
	FindUserByEmail(ctx context.Context, email string) (*auth.User, error)
	FindUserByID(ctx context.Context, id int64) (*auth.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
	GetUserRoles(ctx context.Context, userID int64) ([]string, error)
	GetUserPermissions(ctx context.Context, userID int64) ([]string, error)
	SyncRoles(ctx context.Context, permissions []string, grants map[string][]string) error
	UpsertUser(ctx context.Context, u *auth.User, role string) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, e *activity.Entry) error
}

type AuthService struct {
	authRepo       Repository
	jwtManager     *jwt.Manager
	sessionManager *session.Manager
	rateLimiter    *session.RateLimiter
	activity       ActivityRecorder
	logger         *zap.Logger
}

func NewAuthService(
	authRepo Repository,
	jwtManager *jwt.Manager,
	sessionManager *session.Manager,
	rateLimiter *session.RateLimiter,
	activity ActivityRecorder,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		authRepo:       authRepo,
		jwtManager:     jwtManager,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
		activity:       activity,
		logger:         logger,
	}
}

// ========== Login / Logout ==========

// Login checks credentials and opens a session. Unknown email and wrong
// password fail the same way.
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	email := strings.TrimSpace(req.Email)

	allowed, _, err := s.rateLimiter.CheckLoginAttempt(ctx, req.IPAddress, strings.ToLower(email))
	if err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	if !allowed {
		s.logger.Warn("login rate limited", zap.String("email", email), zap.String("ip", req.IPAddress))
		return nil, xerrors.ErrRateLimited
	}

	user, err := s.authRepo.FindUserByEmail(ctx, email)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, fmt.Errorf("invalid credentials: %w", xerrors.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", xerrors.ErrUnauthorized)
	}

	if user.Status != auth.StatusActive {
		return nil, fmt.Errorf("account is %s: %w", user.Status, xerrors.ErrUnauthorized)
	}

	roles, permissions, err := s.rolesAndPermissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	accessToken, jti, err := s.jwtManager.Generator.GenerateAccessToken(user.ID, roles, permissions, req.Device)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	now := time.Now()
	ttl := s.jwtManager.Generator.TTL()
	expiresAt := now.Add(ttl)

	err = s.sessionManager.CreateSession(ctx, &session.SessionData{
		JTI:            jti,
		UserID:         user.ID,
		Email:          user.Email,
		Roles:          roles,
		Permissions:    permissions,
		Device:         req.Device,
		IPAddress:      req.IPAddress,
		UserAgent:      req.UserAgent,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.authRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Error("failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	if err := s.rateLimiter.ResetLoginAttempts(ctx, req.IPAddress, strings.ToLower(email)); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("ip", req.IPAddress))
	s.record(ctx, user.ID, "logged in", map[string]any{"ip": req.IPAddress, "device": req.Device})

	return &auth.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(ttl.Seconds()),
		ExpiresAt:   expiresAt,
		User: auth.UserInfo{
			ID:          user.ID,
			Name:        user.Name,
			Email:       user.Email,
			Roles:       roles,
			Permissions: permissions,
		},
	}, nil
}

// Logout drops the session and revokes the token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, userID int64, jti string, expiresAt time.Time) error {
	if err := s.sessionManager.InvalidateSession(ctx, userID, jti); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	if err := s.sessionManager.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	s.logger.Info("user logged out", zap.Int64("user_id", userID))
	s.record(ctx, userID, "logged out", nil)

	return nil
}

// ValidateToken verifies the token, the blacklist and the live session
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.Verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %v: %w", err, xerrors.ErrUnauthorized)
	}

	blacklisted, err := s.sessionManager.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, fmt.Errorf("token has been revoked: %w", xerrors.ErrSessionExpired)
	}

	if _, err := s.sessionManager.GetSession(ctx, claims.UserID, claims.ID); err != nil {
		return nil, err
	}

	return claims, nil
}

// Me returns the current user with fresh roles and permissions
func (s *AuthService) Me(ctx context.Context, userID int64) (*auth.UserInfo, error) {
	user, err := s.authRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	roles, permissions, err := s.rolesAndPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &auth.UserInfo{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Roles:       roles,
		Permissions: permissions,
	}, nil
}

// ========== Helpers ==========

func (s *AuthService) rolesAndPermissions(ctx context.Context, userID int64) ([]string, []string, error) {
	roles, err := s.authRepo.GetUserRoles(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get roles: %w", err)
	}

	permissions, err := s.authRepo.GetUserPermissions(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get permissions: %w", err)
	}

	return roles, permissions, nil
}

func (s *AuthService) record(ctx context.Context, userID int64, description string, props map[string]any) {
	if s.activity == nil {
		return
	}

	err := s.activity.Record(ctx, &activity.Entry{
		LogName:     activity.LogAuth,
		Description: description,
		SubjectType: "User",
		SubjectID:   &userID,
		CauserID:    &userID,
		Properties:  props,
	})
	if err != nil {
		s.logger.Warn("failed to record auth activity", zap.String("description", description), zap.Error(err))
	}
}
