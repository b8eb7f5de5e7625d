// internal/service/auth/seed.go
package auth

import (
	"context"
	"fmt"

	"panel-service/internal/domain/auth"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSeedUsers are the accounts created by the seed command, one per role
func DefaultSeedUsers(password string) []auth.SeedUser {
	return []auth.SeedUser{
		{Name: "System", Email: "system@system.com", Password: password, Role: auth.RoleSystem},
		{Name: "Admin", Email: "admin@admin.com", Password: password, Role: auth.RoleAdmin},
		{Name: "Member", Email: "member@member.com", Password: password, Role: auth.RoleMember},
	}
}

// Seed installs every role and permission, then creates or refreshes users.
// Running it twice leaves the same state.
func (s *AuthService) Seed(ctx context.Context, users []auth.SeedUser) error {
	if err := s.authRepo.SyncRoles(ctx, auth.AllPermissions, auth.DefaultGrants); err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}
	s.logger.Info("roles and permissions seeded",
		zap.Int("roles", len(auth.DefaultGrants)),
		zap.Int("permissions", len(auth.AllPermissions)),
	)

	for _, su := range users {
		if su.Password == "" {
			return fmt.Errorf("seed password for %s must be provided via SEED_PASSWORD", su.Email)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		u := &auth.User{
			Name:         su.Name,
			Email:        su.Email,
			PasswordHash: string(hash),
			Status:       auth.StatusActive,
		}
		if err := s.authRepo.UpsertUser(ctx, u, su.Role); err != nil {
			return err
		}

		s.logger.Info("user seeded",
			zap.Int64("user_id", u.ID),
			zap.String("email", u.Email),
			zap.String("role", su.Role),
		)
	}

	return nil
}
