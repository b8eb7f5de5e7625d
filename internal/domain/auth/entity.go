// internal/domain/auth/entity.go
package auth

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// User is an account that can sign in to the panel
type User struct {
	ID           int64        `json:"id" db:"id"`
	Name         string       `json:"name" db:"name"`
	Email        string       `json:"email" db:"email"`
	PasswordHash string       `json:"-" db:"password_hash"`
	Status       string       `json:"status" db:"status"` // active, inactive
	LastLoginAt  sql.NullTime `json:"last_login_at" db:"last_login_at"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// UserWithRoles is a user row with its role names aggregated in SQL
type UserWithRoles struct {
	User
	Roles pq.StringArray `json:"roles" db:"roles"`
}

type Role struct {
	ID          int64          `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Permissions pq.StringArray `json:"permissions" db:"permissions"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

type Permission struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)
