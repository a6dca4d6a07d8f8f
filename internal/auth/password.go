// Package auth - password.go handles password hashing and verification with
// bcrypt.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// PasswordBcryptCost is the cost factor for password hashing
	PasswordBcryptCost = 12

	// MinPasswordLength is the minimum accepted password length
	MinPasswordLength = 8
)

// ErrPasswordTooShort is returned when a password fails the length check
var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

// HashPassword hashes a plaintext password for storage
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordBcryptCost)
	if err != nil {
		return "", err
	}

	return string(hashBytes), nil
}

// VerifyPassword checks a plaintext password against a stored bcrypt hash
// using constant-time comparison.
func VerifyPassword(storedHash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
}
