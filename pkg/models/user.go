package models

import (
	"fmt"
	"time"
)

// Username length constraints.
const (
	// MinUsernameLength is the minimum required username length.
	MinUsernameLength = 3

	// MaxUsernameLength is the maximum allowed username length.
	MaxUsernameLength = 50
)

// User represents a DittoDrive account that owns a folder/file tree.
//
// Every Folder and FileObject is scoped by the owning user's ID; a user can
// never observe or mutate another user's tree.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:50" json:"username"`
	Email        *string   `gorm:"uniqueIndex;size:255" json:"email,omitempty"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FullName     string    `gorm:"size:255" json:"full_name,omitempty"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// Validate checks if the user has valid configuration.
func (u *User) Validate() error {
	if len(u.Username) < MinUsernameLength {
		return fmt.Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(u.Username) > MaxUsernameLength {
		return fmt.Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	return nil
}
