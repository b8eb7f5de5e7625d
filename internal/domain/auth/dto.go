// internal/domain/auth/dto.go
package auth

import "time"

// LoginRequest for user login
type LoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	Device    string `json:"device"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse successful login response
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserInfo  `json:"user"`
}

// UserInfo minimal user information
type UserInfo struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// ResetPasswordRequest is an administrator setting a new password for a user
type ResetPasswordRequest struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// SeedUser describes an account created by the seed command
type SeedUser struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// NameMaxLength bounds role and permission names
const NameMaxLength = 125

// RoleRequest creates or updates a role; Permissions replaces the role's grants
type RoleRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type PermissionRequest struct {
	Name string `json:"name"`
}

// CreateUserRequest for POST /users
type CreateUserRequest struct {
	Name                 string   `json:"name"`
	Email                string   `json:"email"`
	Password             string   `json:"password"`
	PasswordConfirmation string   `json:"password_confirmation"`
	Status               string   `json:"status"`
	Roles                []string `json:"roles"`
}

// UpdateUserRequest for PUT /users/:id. Passwords change through reset-password.
type UpdateUserRequest struct {
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Status string   `json:"status"`
	Roles  []string `json:"roles"`
}
