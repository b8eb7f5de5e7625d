// internal/repository/postgres/auth_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"panel-service/internal/domain/auth"
	"panel-service/internal/domain/listquery"
	xerrors "panel-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuthRepository struct {
	db *pgxpool.Pool
}

func NewAuthRepository(db *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{db: db}
}

const userColumns = `u.id, u.name, u.email, u.password_hash, u.status, u.last_login_at, u.created_at, u.updated_at`

var userSortColumns = map[string]string{
	"name":       "u.name",
	"email":      "u.email",
	"created_at": "u.created_at",
}

func scanUser(row pgx.Row, u *auth.User, extra ...any) error {
	dest := []any{
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Status,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// ========== User Methods ==========

// FindUserByEmail retrieves a user by email, ignoring case
func (r *AuthRepository) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE LOWER(u.email) = LOWER($1)`

	var u auth.User
	err := scanUser(r.db.QueryRow(ctx, query, email), &u)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &u, nil
}

// FindUserByID retrieves a user by ID
func (r *AuthRepository) FindUserByID(ctx context.Context, id int64) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`

	var u auth.User
	err := scanUser(r.db.QueryRow(ctx, query, id), &u)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &u, nil
}

// UpdateLastLogin stamps the last successful sign-in
func (r *AuthRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored hash
func (r *AuthRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.NotFound("user", id)
	}

	return nil
}

// ListUsers returns one page of users with their role names
func (r *AuthRepository) ListUsers(ctx context.Context, q listquery.Query) ([]auth.UserWithRoles, int64, error) {
	where, args := buildUserFilter(q)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users u`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       COALESCE(array_agg(ro.name ORDER BY ro.name) FILTER (WHERE ro.name IS NOT NULL), '{}') AS roles
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles ro ON ro.id = ur.role_id
		%s
		GROUP BY u.id
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, userColumns, where, userOrderBy(q), len(args)+1, len(args)+2)
	args = append(args, q.PerPage, q.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []auth.UserWithRoles{}
	for rows.Next() {
		var u auth.UserWithRoles
		if err := scanUser(rows, &u.User, &u.Roles); err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, total, nil
}

// ========== Role Management ==========

// GetUserRoles retrieves the role names held by a user
func (r *AuthRepository) GetUserRoles(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT ro.name
		FROM user_roles ur
		JOIN roles ro ON ro.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY ro.name
	`
	return r.queryNames(ctx, "roles", query, userID)
}

// GetUserPermissions retrieves every permission granted through the user's roles
func (r *AuthRepository) GetUserPermissions(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT DISTINCT p.name
		FROM user_roles ur
		JOIN role_permissions rp ON rp.role_id = ur.role_id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1
		ORDER BY p.name
	`
	return r.queryNames(ctx, "permissions", query, userID)
}

// ListRoles returns every role with its permission names
func (r *AuthRepository) ListRoles(ctx context.Context) ([]auth.Role, error) {
	query := `
		SELECT ro.id, ro.name,
		       COALESCE(array_agg(p.name ORDER BY p.name) FILTER (WHERE p.name IS NOT NULL), '{}') AS permissions,
		       ro.created_at
		FROM roles ro
		LEFT JOIN role_permissions rp ON rp.role_id = ro.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		GROUP BY ro.id
		ORDER BY ro.name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := []auth.Role{}
	for rows.Next() {
		var role auth.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Permissions, &role.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	return roles, rows.Err()
}

// ListPermissions returns every permission ordered by name
func (r *AuthRepository) ListPermissions(ctx context.Context) ([]auth.Permission, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM permissions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	perms := []auth.Permission{}
	for rows.Next() {
		var p auth.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}

	return perms, rows.Err()
}

// ========== Counters ==========

func (r *AuthRepository) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, "users", `SELECT COUNT(*) FROM users`)
}

func (r *AuthRepository) CountRoles(ctx context.Context) (int64, error) {
	return r.count(ctx, "roles", `SELECT COUNT(*) FROM roles`)
}

func (r *AuthRepository) CountPermissions(ctx context.Context) (int64, error) {
	return r.count(ctx, "permissions", `SELECT COUNT(*) FROM permissions`)
}

// CountUsersWithRole counts users holding the named role
func (r *AuthRepository) CountUsersWithRole(ctx context.Context, role string) (int64, error) {
	query := `
		SELECT COUNT(DISTINCT ur.user_id)
		FROM user_roles ur
		JOIN roles ro ON ro.id = ur.role_id
		WHERE ro.name = $1
	`
	return r.count(ctx, "users with role", query, role)
}

// ========== Seeding ==========

// SyncRoles creates missing roles and permissions and grants each role the
// listed permissions. Existing grants are kept.
func (r *AuthRepository) SyncRoles(ctx context.Context, permissions []string, grants map[string][]string) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO permissions (name)
			SELECT unnest($1::text[])
			ON CONFLICT (name) DO NOTHING
		`, permissions)
		if err != nil {
			return fmt.Errorf("failed to ensure permissions: %w", err)
		}

		for role, perms := range grants {
			if _, err := tx.Exec(ctx, `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, role); err != nil {
				return fmt.Errorf("failed to ensure role %s: %w", role, err)
			}

			if len(perms) == 0 {
				continue
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO role_permissions (role_id, permission_id)
				SELECT ro.id, p.id
				FROM roles ro, permissions p
				WHERE ro.name = $1 AND p.name = ANY($2::text[])
				ON CONFLICT DO NOTHING
			`, role, perms)
			if err != nil {
				return fmt.Errorf("failed to grant permissions to %s: %w", role, err)
			}
		}

		return nil
	})
}

// UpsertUser creates the user or refreshes its name and hash, then assigns role
func (r *AuthRepository) UpsertUser(ctx context.Context, u *auth.User, role string) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (name, email, password_hash, status)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE
			SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash, updated_at = NOW()
			RETURNING id, created_at, updated_at
		`, u.Name, u.Email, u.PasswordHash, u.Status).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert user %s: %w", u.Email, err)
		}

		result, err := tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE name = $2
			ON CONFLICT DO NOTHING
		`, u.ID, role)
		if err != nil {
			return fmt.Errorf("failed to assign role %s: %w", role, err)
		}
		if result.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM roles WHERE name = $1)`, role).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check role %s: %w", role, err)
			}
			if !exists {
				return xerrors.NotFound("role", role)
			}
		}

		return nil
	})
}

// ========== Helpers ==========

func (r *AuthRepository) count(ctx context.Context, what, query string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", what, err)
	}
	return n, nil
}

func (r *AuthRepository) queryNames(ctx context.Context, what, query string, args ...any) ([]string, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

func buildUserFilter(q listquery.Query) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if q.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(u.name ILIKE $%d OR u.email ILIKE $%d)", n, n))
		args = append(args, listquery.Contains(q.Search))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func userOrderBy(q listquery.Query) string {
	column, ok := userSortColumns[q.Sort]
	if !ok {
		column = "u.name"
	}
	direction := "ASC"
	if q.Order == listquery.Desc {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s, u.id ASC", column, direction)
}
