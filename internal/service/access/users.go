// internal/service/access/users.go
package access

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/auth"
	xerrors "panel-service/internal/pkg/errors"
	"panel-service/internal/pkg/validation"

	"go.uber.org/zap"
)

const userFieldMaxLength = 255

var ErrDeleteSelf = fmt.Errorf("you cannot delete your own account: %w", xerrors.ErrConflict)

// CreateUser validates, hashes the password and inserts the account with roles
func (s *AccessService) CreateUser(ctx context.Context, actorID int64, req *auth.CreateUserRequest) (*auth.UserWithRoles, error) {
	u := &auth.User{
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.TrimSpace(req.Email),
		Status: statusOrDefault(req.Status),
	}
	roles := cleanNames(req.Roles)

	errs := xerrors.ValidationErrors{}
	validation.Password(errs, "password", req.Password, req.PasswordConfirmation, minPasswordLength)
	if err := s.validateUser(ctx, errs, u, roles, 0); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash

	if err := s.repo.CreateUser(ctx, u, roles); err != nil {
		if errors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, taken("email")
		}
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created",
		zap.Int64("user_id", u.ID),
		zap.String("email", u.Email),
		zap.Int64("actor_id", actorID),
	)

	s.record(ctx, activity.LogDefault, activity.EventCreated, activity.EventCreated, subjectUser, actorID, u.ID, map[string]any{
		"attributes": userAttributes(u, roles),
	})

	return &auth.UserWithRoles{User: *u, Roles: roles}, nil
}

// UpdateUser replaces profile fields and roles. A user whose roles or status
// changed is signed out everywhere.
func (s *AccessService) UpdateUser(ctx context.Context, actorID, id int64, req *auth.UpdateUserRequest) (*auth.UserWithRoles, error) {
	u, err := s.repo.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldRoles, err := s.repo.GetUserRoles(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}
	old := userAttributes(u, oldRoles)
	oldStatus := u.Status

	u.Name = strings.TrimSpace(req.Name)
	u.Email = strings.TrimSpace(req.Email)
	u.Status = statusOrDefault(req.Status)
	roles := cleanNames(req.Roles)

	if err := s.validateUser(ctx, xerrors.ValidationErrors{}, u, roles, id); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateUser(ctx, u, roles); err != nil {
		if errors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, taken("email")
		}
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update user", zap.Int64("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if u.Status != oldStatus || !sameNames(oldRoles, roles) {
		s.revokeSessions(ctx, id)
	}

	s.logger.Info("user updated",
		zap.Int64("user_id", id),
		zap.String("email", u.Email),
		zap.Int64("actor_id", actorID),
	)

	s.record(ctx, activity.LogDefault, activity.EventUpdated, activity.EventUpdated, subjectUser, actorID, id, map[string]any{
		"attributes": userAttributes(u, roles),
		"old":        old,
	})

	return &auth.UserWithRoles{User: *u, Roles: roles}, nil
}

// DeleteUser removes an account other than the caller's own
func (s *AccessService) DeleteUser(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return ErrDeleteSelf
	}

	u, err := s.repo.FindUserByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete user", zap.Int64("user_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.revokeSessions(ctx, id)

	s.logger.Info("user deleted", zap.Int64("user_id", id), zap.Int64("actor_id", actorID))

	s.record(ctx, activity.LogDefault, activity.EventDeleted, activity.EventDeleted, subjectUser, actorID, id, map[string]any{
		"old": map[string]any{"name": u.Name, "email": u.Email},
	})

	return nil
}

func (s *AccessService) validateUser(ctx context.Context, errs xerrors.ValidationErrors, u *auth.User, roles []string, excludeID int64) error {
	validation.RequiredString(errs, "name", u.Name, userFieldMaxLength)

	if validation.Email(errs, "email", u.Email, userFieldMaxLength) {
		exists, err := s.repo.UserExistsByEmail(ctx, u.Email, excludeID)
		if err != nil {
			return fmt.Errorf("failed to check user email: %w", err)
		}
		if exists {
			validation.Taken(errs, "email")
		}
	}

	validation.OneOf(errs, "status", u.Status, auth.StatusActive, auth.StatusInactive)

	if len(roles) > 0 {
		missing, err := s.repo.MissingRoles(ctx, roles)
		if err != nil {
			return fmt.Errorf("failed to check roles: %w", err)
		}
		if len(missing) > 0 {
			errs.Add("roles", "The selected roles is invalid.")
		}
	}

	return errs.Err()
}

func statusOrDefault(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return auth.StatusActive
	}
	return status
}

func sameNames(a, b []string) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

func userAttributes(u *auth.User, roles []string) map[string]any {
	return map[string]any{
		"name":   u.Name,
		"email":  u.Email,
		"status": u.Status,
		"roles":  roles,
	}
}
