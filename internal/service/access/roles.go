// internal/service/access/roles.go
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/auth"
	xerrors "panel-service/internal/pkg/errors"
	"panel-service/internal/pkg/validation"

	"go.uber.org/zap"
)

// ErrProtectedRole guards the system role, which holds every permission.
var ErrProtectedRole = fmt.Errorf("the %s role cannot be renamed or deleted: %w", auth.RoleSystem, xerrors.ErrConflict)

// CreateRole validates and inserts a role with its permission grants
func (s *AccessService) CreateRole(ctx context.Context, actorID int64, req *auth.RoleRequest) (*auth.Role, error) {
	role := &auth.Role{
		Name:        strings.TrimSpace(req.Name),
		Permissions: cleanNames(req.Permissions),
	}

	if err := s.validateRole(ctx, role, 0); err != nil {
		return nil, err
	}

	if err := s.repo.CreateRole(ctx, role); err != nil {
		if errors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, taken("name")
		}
		s.logger.Error("failed to create role", zap.Error(err))
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	s.logger.Info("role created",
		zap.Int64("role_id", role.ID),
		zap.String("name", role.Name),
		zap.Int64("actor_id", actorID),
	)

	s.record(ctx, activity.LogDefault, activity.EventCreated, activity.EventCreated, subjectRole, actorID, role.ID, map[string]any{
		"attributes": roleAttributes(role),
	})

	return role, nil
}

// UpdateRole renames a role and replaces its grants. Holders are signed out so
// their next token carries the new permission set.
func (s *AccessService) UpdateRole(ctx context.Context, actorID, id int64, req *auth.RoleRequest) (*auth.Role, error) {
	role, err := s.repo.FindRoleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := roleAttributes(role)

	name := strings.TrimSpace(req.Name)
	if role.Name == auth.RoleSystem && name != auth.RoleSystem {
		return nil, ErrProtectedRole
	}

	role.Name = name
	role.Permissions = cleanNames(req.Permissions)

	if err := s.validateRole(ctx, role, id); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRole(ctx, role); err != nil {
		if errors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, taken("name")
		}
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update role", zap.Int64("role_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.Info("role updated",
		zap.Int64("role_id", role.ID),
		zap.String("name", role.Name),
		zap.Int64("actor_id", actorID),
	)

	s.revokeRoleHolders(ctx, id)

	s.record(ctx, activity.LogDefault, activity.EventUpdated, activity.EventUpdated, subjectRole, actorID, role.ID, map[string]any{
		"attributes": roleAttributes(role),
		"old":        old,
	})

	return role, nil
}

// DeleteRole removes a role and signs out the users who held it
func (s *AccessService) DeleteRole(ctx context.Context, actorID, id int64) error {
	role, err := s.repo.FindRoleByID(ctx, id)
	if err != nil {
		return err
	}
	if role.Name == auth.RoleSystem {
		return ErrProtectedRole
	}

	holders, err := s.repo.UserIDsWithRole(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get role holders: %w", err)
	}

	if err := s.repo.DeleteRole(ctx, id); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete role", zap.Int64("role_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete role: %w", err)
	}

	for _, userID := range holders {
		s.revokeSessions(ctx, userID)
	}

	s.logger.Info("role deleted",
		zap.Int64("role_id", id),
		zap.Int("holders", len(holders)),
		zap.Int64("actor_id", actorID),
	)

	s.record(ctx, activity.LogDefault, activity.EventDeleted, activity.EventDeleted, subjectRole, actorID, id, map[string]any{
		"old": roleAttributes(role),
	})

	return nil
}

func (s *AccessService) validateRole(ctx context.Context, role *auth.Role, excludeID int64) error {
	errs := xerrors.ValidationErrors{}

	if validation.RequiredString(errs, "name", role.Name, auth.NameMaxLength) {
		exists, err := s.repo.RoleExistsByName(ctx, role.Name, excludeID)
		if err != nil {
			return fmt.Errorf("failed to check role name: %w", err)
		}
		if exists {
			validation.Taken(errs, "name")
		}
	}

	if len(role.Permissions) > 0 {
		missing, err := s.repo.MissingPermissions(ctx, role.Permissions)
		if err != nil {
			return fmt.Errorf("failed to check permissions: %w", err)
		}
		if len(missing) > 0 {
			errs.Add("permissions", "The selected permissions is invalid.")
		}
	}

	return errs.Err()
}

func (s *AccessService) revokeRoleHolders(ctx context.Context, roleID int64) {
	holders, err := s.repo.UserIDsWithRole(ctx, roleID)
	if err != nil {
		s.logger.Warn("failed to get role holders", zap.Int64("role_id", roleID), zap.Error(err))
		return
	}
	for _, userID := range holders {
		s.revokeSessions(ctx, userID)
	}
}

func roleAttributes(role *auth.Role) map[string]any {
	return map[string]any{
		"name":        role.Name,
		"permissions": []string(role.Permissions),
	}
}
