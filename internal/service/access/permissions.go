// internal/service/access/permissions.go
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

// ErrBuiltinPermission is returned when renaming or deleting a permission the
// router checks.
var ErrBuiltinPermission = fmt.Errorf("built-in permissions cannot be renamed or deleted: %w", xerrors.ErrConflict)

func (s *AccessService) CreatePermission(ctx context.Context, actorID int64, req *auth.PermissionRequest) (*auth.Permission, error) {
	p := &auth.Permission{Name: strings.TrimSpace(req.Name)}

	if err := s.validatePermission(ctx, p, 0); err != nil {
		return nil, err
	}

	if err := s.repo.CreatePermission(ctx, p); err != nil {
		if errors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, taken("name")
		}
		s.logger.Error("failed to create permission", zap.Error(err))
		return nil, fmt.Errorf("failed to create permission: %w", err)
	}

	s.logger.Info("permission created", zap.Int64("permission_id", p.ID), zap.String("name", p.Name), zap.Int64("actor_id", actorID))

	s.record(ctx, activity.LogDefault, activity.EventCreated, activity.EventCreated, subjectPermission, actorID, p.ID, map[string]any{
		"attributes": map[string]any{"name": p.Name},
	})

	return p, nil
}

func (s *AccessService) UpdatePermission(ctx context.Context, actorID, id int64, req *auth.PermissionRequest) (*auth.Permission, error) {
	p, err := s.repo.FindPermissionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldName := p.Name

	p.Name = strings.TrimSpace(req.Name)
	if auth.IsBuiltinPermission(oldName) && p.Name != oldName {
		return nil, ErrBuiltinPermission
	}

	if err := s.validatePermission(ctx, p, id); err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePermission(ctx, p); err != nil {
		if errors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, taken("name")
		}
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update permission", zap.Int64("permission_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update permission: %w", err)
	}

	s.logger.Info("permission updated", zap.Int64("permission_id", id), zap.String("name", p.Name), zap.Int64("actor_id", actorID))

	s.record(ctx, activity.LogDefault, activity.EventUpdated, activity.EventUpdated, subjectPermission, actorID, id, map[string]any{
		"attributes": map[string]any{"name": p.Name},
		"old":        map[string]any{"name": oldName},
	})

	return p, nil
}

func (s *AccessService) DeletePermission(ctx context.Context, actorID, id int64) error {
	p, err := s.repo.FindPermissionByID(ctx, id)
	if err != nil {
		return err
	}
	if auth.IsBuiltinPermission(p.Name) {
		return ErrBuiltinPermission
	}

	if err := s.repo.DeletePermission(ctx, id); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete permission", zap.Int64("permission_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete permission: %w", err)
	}

	s.logger.Info("permission deleted", zap.Int64("permission_id", id), zap.Int64("actor_id", actorID))

	s.record(ctx, activity.LogDefault, activity.EventDeleted, activity.EventDeleted, subjectPermission, actorID, id, map[string]any{
		"old": map[string]any{"name": p.Name},
	})

	return nil
}

func (s *AccessService) validatePermission(ctx context.Context, p *auth.Permission, excludeID int64) error {
	errs := xerrors.ValidationErrors{}

	if validation.RequiredString(errs, "name", p.Name, auth.NameMaxLength) {
		exists, err := s.repo.PermissionExistsByName(ctx, p.Name, excludeID)
		if err != nil {
			return fmt.Errorf("failed to check permission name: %w", err)
		}
		if exists {
			validation.Taken(errs, "name")
		}
	}

	return errs.Err()
}
