// internal/repository/postgres/access_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"panel-service/internal/domain/auth"
	xerrors "panel-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

// ========== Roles ==========

// FindRoleByID retrieves a role with its permission names
func (r *AuthRepository) FindRoleByID(ctx context.Context, id int64) (*auth.Role, error) {
	query := `
		SELECT ro.id, ro.name,
		       COALESCE(array_agg(p.name ORDER BY p.name) FILTER (WHERE p.name IS NOT NULL), '{}') AS permissions,
		       ro.created_at
		FROM roles ro
		LEFT JOIN role_permissions rp ON rp.role_id = ro.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE ro.id = $1
		GROUP BY ro.id
	`

	var role auth.Role
	err := r.db.QueryRow(ctx, query, id).Scan(&role.ID, &role.Name, &role.Permissions, &role.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.NotFound("role", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find role: %w", err)
	}

	return &role, nil
}

// RoleExistsByName checks the name against every role except excludeID
func (r *AuthRepository) RoleExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	return r.exists(ctx, "role name", `SELECT EXISTS(SELECT 1 FROM roles WHERE name = $1 AND id <> $2)`, name, excludeID)
}

// CreateRole inserts a role and grants role.Permissions
func (r *AuthRepository) CreateRole(ctx context.Context, role *auth.Role) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO roles (name) VALUES ($1) RETURNING id, created_at`, role.Name).
			Scan(&role.ID, &role.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("role name %q: %w", role.Name, xerrors.ErrDuplicateEntry)
			}
			return fmt.Errorf("failed to create role: %w", err)
		}

		return replaceRolePermissions(ctx, tx, role.ID, role.Permissions)
	})
}

// UpdateRole renames the role and replaces its grants
func (r *AuthRepository) UpdateRole(ctx context.Context, role *auth.Role) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `UPDATE roles SET name = $1 WHERE id = $2 RETURNING created_at`, role.Name, role.ID).
			Scan(&role.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return xerrors.NotFound("role", role.ID)
		}
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("role name %q: %w", role.Name, xerrors.ErrDuplicateEntry)
			}
			return fmt.Errorf("failed to update role: %w", err)
		}

		return replaceRolePermissions(ctx, tx, role.ID, role.Permissions)
	})
}

// DeleteRole removes a role; grants and assignments cascade
func (r *AuthRepository) DeleteRole(ctx context.Context, id int64) error {
	return r.delete(ctx, "role", `DELETE FROM roles WHERE id = $1`, id)
}

// UserIDsWithRole lists the users currently holding roleID
func (r *AuthRepository) UserIDsWithRole(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM user_roles WHERE role_id = $1 ORDER BY user_id`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get role holders: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan role holder: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// MissingRoles returns the names in names that match no role
func (r *AuthRepository) MissingRoles(ctx context.Context, names []string) ([]string, error) {
	query := `
		SELECT n FROM unnest($1::text[]) AS n
		WHERE NOT EXISTS (SELECT 1 FROM roles ro WHERE ro.name = n)
		ORDER BY n
	`
	return r.queryNames(ctx, "missing roles", query, names)
}

func replaceRolePermissions(ctx context.Context, tx pgx.Tx, roleID int64, permissions []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("failed to clear role permissions: %w", err)
	}

	if len(permissions) == 0 {
		return nil
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT $1, id FROM permissions WHERE name = ANY($2::text[])
		ON CONFLICT DO NOTHING
	`, roleID, permissions)
	if err != nil {
		return fmt.Errorf("failed to grant role permissions: %w", err)
	}
	return nil
}

// ========== Permissions ==========

func (r *AuthRepository) FindPermissionByID(ctx context.Context, id int64) (*auth.Permission, error) {
	var p auth.Permission
	err := r.db.QueryRow(ctx, `SELECT id, name, created_at FROM permissions WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.NotFound("permission", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find permission: %w", err)
	}

	return &p, nil
}

func (r *AuthRepository) PermissionExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	return r.exists(ctx, "permission name", `SELECT EXISTS(SELECT 1 FROM permissions WHERE name = $1 AND id <> $2)`, name, excludeID)
}

func (r *AuthRepository) CreatePermission(ctx context.Context, p *auth.Permission) error {
	err := r.db.QueryRow(ctx, `INSERT INTO permissions (name) VALUES ($1) RETURNING id, created_at`, p.Name).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("permission name %q: %w", p.Name, xerrors.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create permission: %w", err)
	}
	return nil
}

func (r *AuthRepository) UpdatePermission(ctx context.Context, p *auth.Permission) error {
	err := r.db.QueryRow(ctx, `UPDATE permissions SET name = $1 WHERE id = $2 RETURNING created_at`, p.Name, p.ID).
		Scan(&p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.NotFound("permission", p.ID)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("permission name %q: %w", p.Name, xerrors.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to update permission: %w", err)
	}
	return nil
}

func (r *AuthRepository) DeletePermission(ctx context.Context, id int64) error {
	return r.delete(ctx, "permission", `DELETE FROM permissions WHERE id = $1`, id)
}

// MissingPermissions returns the names in names that match no permission
func (r *AuthRepository) MissingPermissions(ctx context.Context, names []string) ([]string, error) {
	query := `
		SELECT n FROM unnest($1::text[]) AS n
		WHERE NOT EXISTS (SELECT 1 FROM permissions p WHERE p.name = n)
		ORDER BY n
	`
	return r.queryNames(ctx, "missing permissions", query, names)
}

// ========== Users ==========

// UserExistsByEmail compares emails case-insensitively, skipping excludeID
func (r *AuthRepository) UserExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.exists(ctx, "user email", `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2)`, email, excludeID)
}

// CreateUser inserts the account and assigns roles
func (r *AuthRepository) CreateUser(ctx context.Context, u *auth.User, roles []string) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (name, email, password_hash, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at
		`, u.Name, u.Email, u.PasswordHash, u.Status).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("user email %q: %w", u.Email, xerrors.ErrDuplicateEntry)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		return replaceUserRoles(ctx, tx, u.ID, roles)
	})
}

// UpdateUser rewrites profile fields and replaces role assignments. The
// password hash is left untouched.
func (r *AuthRepository) UpdateUser(ctx context.Context, u *auth.User, roles []string) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE users
			SET name = $1, email = $2, status = $3, updated_at = NOW()
			WHERE id = $4
			RETURNING created_at, updated_at
		`, u.Name, u.Email, u.Status, u.ID).Scan(&u.CreatedAt, &u.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return xerrors.NotFound("user", u.ID)
		}
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("user email %q: %w", u.Email, xerrors.ErrDuplicateEntry)
			}
			return fmt.Errorf("failed to update user: %w", err)
		}

		return replaceUserRoles(ctx, tx, u.ID, roles)
	})
}

func (r *AuthRepository) DeleteUser(ctx context.Context, id int64) error {
	return r.delete(ctx, "user", `DELETE FROM users WHERE id = $1`, id)
}

func replaceUserRoles(ctx context.Context, tx pgx.Tx, userID int64, roles []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear user roles: %w", err)
	}

	if len(roles) == 0 {
		return nil
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = ANY($2::text[])
		ON CONFLICT DO NOTHING
	`, userID, roles)
	if err != nil {
		return fmt.Errorf("failed to assign user roles: %w", err)
	}
	return nil
}

// ========== Helpers ==========

func (r *AuthRepository) exists(ctx context.Context, what, query string, args ...any) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s: %w", what, err)
	}
	return exists, nil
}

func (r *AuthRepository) delete(ctx context.Context, resource, query string, id int64) error {
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", resource, err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.NotFound(resource, id)
	}
	return nil
}
