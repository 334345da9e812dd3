// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"errors"
	"time"
)

// Role is the access level of a user.
type Role string

const (
	RoleEmployee Role = "karyawan"
	RoleAdmin    Role = "admin"
)

// ErrEmailTaken is returned by UserRepository.Create when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// User represents an authenticated user in the system.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nama"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user may edit and delete attendance records.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, u *User) (*User, error)
	Count(ctx context.Context) (int, error)
}
