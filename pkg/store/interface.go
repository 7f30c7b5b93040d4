// Package store provides the metadata persistence layer.
//
// This package implements the Store interface for managing users and the
// per-user folder/file tree. Sibling-name uniqueness and owner scoping are
// enforced at the schema level so that concurrent writers can never produce
// duplicate rows.
//
// Two backends are supported:
//   - SQLite (single-node, default)
//   - PostgreSQL (HA-capable)
package store

import (
	"context"

	"github.com/marmos91/dittodrive/pkg/models"
)

// Store provides the metadata persistence interface.
//
// All folder and file operations are scoped by the owning user's ID; an
// (id, owner) pair that does not resolve surfaces a not-found error, never
// another owner's record.
//
// Thread Safety: Implementations must be safe for concurrent use from
// multiple goroutines.
type Store interface {
	// ============================================
	// USER OPERATIONS
	// ============================================

	// GetUserByID returns a user by their unique ID (UUID).
	// Returns models.ErrUserNotFound if no user has this ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUserByUsername returns a user by username.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByEmail returns a user by email address.
	// Returns models.ErrUserNotFound if no user has this email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// ListUsers returns all users.
	// Use with caution for large user counts.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// CreateUser creates a new user.
	// The user ID will be generated if empty. Returns the generated ID.
	// Returns models.ErrDuplicateUser if the username or email is taken.
	CreateUser(ctx context.Context, user *models.User) (string, error)

	// UpdatePassword updates a user's password hash.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	UpdatePassword(ctx context.Context, username, passwordHash string) error

	// SetUserActive enables or disables a user account.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	SetUserActive(ctx context.Context, username string, active bool) error

	// DeleteUser deletes a user by username.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	DeleteUser(ctx context.Context, username string) error

	// ValidateCredentials verifies username/password credentials.
	// Returns the user if credentials are valid.
	// Returns models.ErrInvalidCredentials if the credentials are invalid.
	// Returns models.ErrUserDisabled if the account is inactive.
	ValidateCredentials(ctx context.Context, username, password string) (*models.User, error)

	// EnsureAdminUser creates the bootstrap admin account if missing.
	// Returns the plaintext password when the account was just created,
	// "" when it already existed.
	EnsureAdminUser(ctx context.Context) (string, error)

	// IsAdminInitialized reports whether the bootstrap admin account exists.
	IsAdminInitialized(ctx context.Context) (bool, error)

	// ============================================
	// FOLDER OPERATIONS
	// ============================================

	// CreateFolder creates a new folder.
	// The folder ID will be generated if empty. Returns the generated ID.
	// Returns models.ErrDuplicateFolder if a sibling with the same name
	// exists for the owner.
	CreateFolder(ctx context.Context, folder *models.Folder) (string, error)

	// GetFolder returns a folder by (owner, id).
	// Returns models.ErrFolderNotFound if the pair doesn't resolve.
	GetFolder(ctx context.Context, ownerID, id string) (*models.Folder, error)

	// ListFolderChildren returns the folders directly under parent for the
	// owner, newest first. A nil parent lists the root level.
	ListFolderChildren(ctx context.Context, ownerID string, parent *string) ([]*models.Folder, error)

	// UpdateFolder persists the folder's name and parent linkage.
	// Returns models.ErrFolderNotFound if (owner, id) doesn't resolve and
	// models.ErrDuplicateFolder on a sibling-name conflict.
	UpdateFolder(ctx context.Context, folder *models.Folder) error

	// DeleteFolder removes a single folder row by (owner, id).
	// It does not cascade; tree deletion is orchestrated by the caller.
	// Returns models.ErrFolderNotFound if the pair doesn't resolve.
	DeleteFolder(ctx context.Context, ownerID, id string) error

	// ============================================
	// FILE OPERATIONS
	// ============================================

	// CreateFile creates a new file metadata record.
	// The file ID will be generated if empty. Returns the generated ID.
	// Returns models.ErrDuplicateFile if a sibling with the same name exists
	// for the owner.
	CreateFile(ctx context.Context, file *models.FileObject) (string, error)

	// GetFile returns a file by (owner, id).
	// Returns models.ErrFileNotFound if the pair doesn't resolve.
	GetFile(ctx context.Context, ownerID, id string) (*models.FileObject, error)

	// ListFilesInFolder returns the files directly inside folder for the
	// owner, newest first. A nil folder lists the root level.
	ListFilesInFolder(ctx context.Context, ownerID string, folder *string) ([]*models.FileObject, error)

	// UpdateFile persists the file's name and folder linkage.
	// Returns models.ErrFileNotFound if (owner, id) doesn't resolve and
	// models.ErrDuplicateFile on a sibling-name conflict.
	UpdateFile(ctx context.Context, file *models.FileObject) error

	// DeleteFile removes a single file metadata row by (owner, id).
	// Blob cleanup is the caller's responsibility.
	// Returns models.ErrFileNotFound if the pair doesn't resolve.
	DeleteFile(ctx context.Context, ownerID, id string) error

	// ============================================
	// TRANSACTIONS & LIFECYCLE
	// ============================================

	// WithTransaction runs fn against a transactional view of the store.
	// If fn returns an error the transaction is rolled back and the error
	// is returned; otherwise the transaction commits.
	WithTransaction(ctx context.Context, fn func(tx Store) error) error

	// Healthcheck verifies the database connection is alive.
	Healthcheck(ctx context.Context) error

	// Close releases the underlying database connection.
	Close() error
}
