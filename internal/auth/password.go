// Package auth handles credential hashing for user registration and login.
package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
)

const minPasswordLength = 8

// HashPassword validates the plaintext and returns its bcrypt hash.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", core.Invalidf("auth.hash_password",
			"password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidateEmail applies the registration constraints on the address.
func ValidateEmail(email string) error {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return core.Invalidf("auth.validate_email", "email cannot be empty")
	}
	at := strings.Index(trimmed, "@")
	if at <= 0 || at == len(trimmed)-1 || strings.Count(trimmed, "@") != 1 {
		return core.Invalidf("auth.validate_email", "email address %q is malformed", trimmed)
	}
	return nil
}
