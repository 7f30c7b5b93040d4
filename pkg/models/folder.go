package models

import (
	"fmt"
	"time"
)

// MaxNameLength is the maximum allowed length for folder and file names.
const MaxNameLength = 255

// Folder represents a node in a user's folder tree.
//
// A nil ParentID means the folder sits at the root of its owner's tree. The
// parent chain of any folder must be finite, acyclic, and stay within the
// same owner; structural mutations are validated against these invariants
// before they are committed.
//
// Sibling uniqueness of (owner_id, parent_id, name) is enforced by a pair of
// partial unique indexes (one for the root level, one for nested folders)
// because SQL treats NULL parent_id values as distinct. AutoMigrate cannot
// express partial indexes, so they are created by raw DDL alongside the
// schema migration.
type Folder struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID   string    `gorm:"not null;size:36;index" json:"owner_id"`
	ParentID  *string   `gorm:"size:36;index" json:"parent_id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Folder.
func (Folder) TableName() string {
	return "folders"
}

// IsRoot reports whether the folder sits at the root of its owner's tree.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// Validate checks if the folder has valid configuration.
func (f *Folder) Validate() error {
	if err := ValidateName(f.Name); err != nil {
		return err
	}
	if f.OwnerID == "" {
		return fmt.Errorf("owner id is required")
	}
	return nil
}

// ValidateName checks a folder or file display name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("name must be at most %d characters", MaxNameLength)
	}
	return nil
}
