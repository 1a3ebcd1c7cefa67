// Package config loads the startup settings that must be valid for the API to
// run at all: the token secret and the optional source seed file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// MinJWTSecretLength is the shortest accepted HS256 secret, in bytes.
const MinJWTSecretLength = 32

// DefaultRequiredRole is the token role allowed to call the admin API.
const DefaultRequiredRole = "admin"

// ErrWeakSecret indicates a JWT secret that is too short or a known placeholder.
var ErrWeakSecret = errors.New("jwt secret is too weak")

var weakSecrets = []string{
	"secret",
	"changeme",
	"password",
	"your-secret-key",
	"jwt-secret",
}

// SecurityConfig holds the bearer token settings.
type SecurityConfig struct {
	JWTSecret    []byte
	RequiredRole string
}

// LoadSecurityConfig reads JWT_SECRET and JWT_REQUIRED_ROLE. Unlike the
// fail-open settings, a missing or weak secret is an error.
func LoadSecurityConfig() (*SecurityConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if err := ValidateJWTSecret(secret); err != nil {
		return nil, err
	}
	role := strings.TrimSpace(os.Getenv("JWT_REQUIRED_ROLE"))
	if role == "" {
		role = DefaultRequiredRole
	}
	return &SecurityConfig{JWTSecret: []byte(secret), RequiredRole: role}, nil
}

// ValidateJWTSecret rejects empty, short and placeholder secrets.
func ValidateJWTSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("%w: JWT_SECRET is not set", ErrWeakSecret)
	}
	if len(secret) < MinJWTSecretLength {
		return fmt.Errorf("%w: JWT_SECRET must be at least %d characters", ErrWeakSecret, MinJWTSecretLength)
	}
	lower := strings.ToLower(secret)
	for _, w := range weakSecrets {
		if strings.Contains(lower, w) && len(strings.ReplaceAll(lower, w, "")) < MinJWTSecretLength/2 {
			return fmt.Errorf("%w: JWT_SECRET looks like a placeholder", ErrWeakSecret)
		}
	}
	if strings.Count(secret, secret[:1]) == len(secret) {
		return fmt.Errorf("%w: JWT_SECRET repeats a single character", ErrWeakSecret)
	}
	return nil
}
