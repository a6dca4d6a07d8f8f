// Package models - user.go defines the User model for platform accounts with email,
// bcrypt password hash, and the platform-admin flag for cross-tenant administration.
package models

import "time"

// User represents a user in the system
type User struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"`
	Name         string  `json:"name"`
	Phone        *string `json:"phone,omitempty"`
	// IsPlatformAdmin marks operators of the platform itself; they have no
	// organization membership and manage org approval, plans, and requests.
	IsPlatformAdmin bool      `json:"is_platform_admin"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
