package models

import (
	"fmt"
	"time"
)

// FileObject represents the metadata record of an uploaded file.
//
// A nil FolderID places the file at the root of its owner's tree. The blob
// bytes live in the blob store under StoragePath, which is derived from the
// owner ID and the containing folder's ancestry chain plus an opaque token -
// never from user-supplied names. Renaming or moving a file therefore never
// relocates its blob, and the blob content is immutable once written.
//
// Sibling uniqueness of (owner_id, folder_id, name) is enforced by the same
// partial unique index pair used for folders.
type FileObject struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID     string    `gorm:"not null;size:36;index" json:"owner_id"`
	FolderID    *string   `gorm:"size:36;index" json:"folder_id"`
	Name        string    `gorm:"not null;size:255" json:"name"`
	MimeType    string    `gorm:"size:255" json:"mime_type,omitempty"`
	Size        int64     `gorm:"not null;default:0" json:"size"`
	SHA256      string    `gorm:"size:64" json:"sha256,omitempty"`
	StoragePath string    `gorm:"uniqueIndex;not null;size:1024" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for FileObject.
func (FileObject) TableName() string {
	return "files"
}

// IsRoot reports whether the file sits at the root of its owner's tree.
func (f *FileObject) IsRoot() bool {
	return f.FolderID == nil
}

// Validate checks if the file has valid configuration.
func (f *FileObject) Validate() error {
	if err := ValidateName(f.Name); err != nil {
		return err
	}
	if f.OwnerID == "" {
		return fmt.Errorf("owner id is required")
	}
	if f.Size < 0 {
		return fmt.Errorf("size must be non-negative")
	}
	return nil
}
