// internal/service/access/access.go
package access

import (
	"context"
	"fmt"
	"strings"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/auth"
	"panel-service/internal/domain/listquery"
	xerrors "panel-service/internal/pkg/errors"
	"panel-service/internal/pkg/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

const (
	subjectUser       = "User"
	subjectRole       = "Role"
	subjectPermission = "Permission"
)

type Repository interface {
	FindUserByID(ctx context.Context, id int64) (*auth.User, error)
	GetUserRoles(ctx context.Context, userID int64) ([]string, error)
	ListUsers(ctx context.Context, q listquery.Query) ([]auth.UserWithRoles, int64, error)
	UserExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	CreateUser(ctx context.Context, u *auth.User, roles []string) error
	UpdateUser(ctx context.Context, u *auth.User, roles []string) error
	DeleteUser(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	ListRoles(ctx context.Context) ([]auth.Role, error)
	FindRoleByID(ctx context.Context, id int64) (*auth.Role, error)
	RoleExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	CreateRole(ctx context.Context, role *auth.Role) error
	UpdateRole(ctx context.Context, role *auth.Role) error
	DeleteRole(ctx context.Context, id int64) error
	UserIDsWithRole(ctx context.Context, roleID int64) ([]int64, error)
	MissingRoles(ctx context.Context, names []string) ([]string, error)

	ListPermissions(ctx context.Context) ([]auth.Permission, error)
	FindPermissionByID(ctx context.Context, id int64) (*auth.Permission, error)
	PermissionExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	CreatePermission(ctx context.Context, p *auth.Permission) error
	UpdatePermission(ctx context.Context, p *auth.Permission) error
	DeletePermission(ctx context.Context, id int64) error
	MissingPermissions(ctx context.Context, names []string) ([]string, error)
}

type SessionRevoker interface {
	InvalidateAllUserSessions(ctx context.Context, userID int64) (int, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, e *activity.Entry) error
}

type UserListResponse struct {
	Users   listquery.Page[auth.UserWithRoles] `json:"users"`
	Filters listquery.Query                    `json:"filters"`
}

// AccessService administers users, roles and permissions
type AccessService struct {
	repo     Repository
	sessions SessionRevoker
	activity ActivityRecorder
	logger   *zap.Logger
}

func NewAccessService(repo Repository, sessions SessionRevoker, activity ActivityRecorder, logger *zap.Logger) *AccessService {
	return &AccessService{
		repo:     repo,
		sessions: sessions,
		activity: activity,
		logger:   logger,
	}
}

func (s *AccessService) ListUsers(ctx context.Context, raw listquery.Raw) (*UserListResponse, error) {
	q := listquery.Users.Normalize(raw)

	users, total, err := s.repo.ListUsers(ctx, q)
	if err != nil {
		return nil, err
	}

	return &UserListResponse{
		Users:   listquery.NewPage(users, q, total),
		Filters: q,
	}, nil
}

func (s *AccessService) ListRoles(ctx context.Context) ([]auth.Role, error) {
	return s.repo.ListRoles(ctx)
}

func (s *AccessService) ListPermissions(ctx context.Context) ([]auth.Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// ResetPassword sets a new password for userID and signs out every session
func (s *AccessService) ResetPassword(ctx context.Context, actorID, userID int64, req *auth.ResetPasswordRequest) error {
	if _, err := s.repo.FindUserByID(ctx, userID); err != nil {
		return err
	}

	errs := xerrors.ValidationErrors{}
	validation.Password(errs, "password", req.Password, req.PasswordConfirmation, minPasswordLength)
	if err := errs.Err(); err != nil {
		return err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	revoked := s.revokeSessions(ctx, userID)

	s.logger.Info("password reset",
		zap.Int64("user_id", userID),
		zap.Int64("actor_id", actorID),
		zap.Int("sessions_revoked", revoked),
	)

	s.record(ctx, activity.LogAuth, "password reset", "", subjectUser, actorID, userID, nil)

	return nil
}

// ========== Helpers ==========

// revokeSessions signs userID out everywhere; failures are logged only
func (s *AccessService) revokeSessions(ctx context.Context, userID int64) int {
	if s.sessions == nil {
		return 0
	}
	revoked, err := s.sessions.InvalidateAllUserSessions(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to revoke user sessions", zap.Int64("user_id", userID), zap.Error(err))
	}
	return revoked
}

func (s *AccessService) record(ctx context.Context, logName, description, event, subjectType string, actorID, subjectID int64, props map[string]any) {
	if s.activity == nil {
		return
	}

	entry := &activity.Entry{
		LogName:     logName,
		Description: description,
		Event:       event,
		SubjectType: subjectType,
		SubjectID:   &subjectID,
		Properties:  props,
	}
	if actorID > 0 {
		entry.CauserID = &actorID
	}

	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record access activity",
			zap.String("description", description),
			zap.String("subject_type", subjectType),
			zap.Int64("subject_id", subjectID),
			zap.Error(err),
		)
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// taken builds the uniqueness failure returned when the store rejects a duplicate
func taken(field string) error {
	errs := xerrors.ValidationErrors{}
	validation.Taken(errs, field)
	return errs
}

// cleanNames trims, drops empties and de-duplicates while keeping order
func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
