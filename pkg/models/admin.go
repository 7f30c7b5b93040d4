package models

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
)

// AdminUsername is the username of the bootstrap administrator account.
const AdminUsername = "admin"

// EnvAdminInitialPassword is the environment variable that, when set,
// supplies the initial admin password instead of a generated one.
const EnvAdminInitialPassword = "DITTODRIVE_ADMIN_PASSWORD"

// GetOrGenerateAdminPassword returns the password for the initial admin
// account: the value of DITTODRIVE_ADMIN_PASSWORD when set, otherwise a
// freshly generated random password.
func GetOrGenerateAdminPassword() (string, error) {
	if password := os.Getenv(EnvAdminInitialPassword); password != "" {
		if err := ValidatePassword(password); err != nil {
			return "", fmt.Errorf("invalid %s: %w", EnvAdminInitialPassword, err)
		}
		return password, nil
	}
	return GenerateRandomPassword()
}

// GenerateRandomPassword returns a 24-character URL-safe random password.
func GenerateRandomPassword() (string, error) {
	raw := make([]byte, 18)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DefaultAdminUser returns the bootstrap admin account for the given
// password hash.
func DefaultAdminUser(passwordHash string) *User {
	return &User{
		Username:     AdminUsername,
		PasswordHash: passwordHash,
		FullName:     "Administrator",
		IsActive:     true,
	}
}
