package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ============================================================================
// Generic GORM Helpers
// ============================================================================
//
// These helpers reduce repetitive CRUD boilerplate across store implementation
// files. They are unexported (package-internal) and operate on the raw *gorm.DB
// to avoid coupling to GORMStore. Each helper handles standard concerns like
// context propagation, not-found error conversion, and unique constraint
// detection.

// getByField retrieves a single record of type T by matching field=value.
// It converts gorm.ErrRecordNotFound to the provided notFoundErr for
// consistent domain error mapping.
//
// Example:
//
//	user, err := getByField[models.User](db, ctx, "username", "alice", models.ErrUserNotFound)
func getByField[T any](db *gorm.DB, ctx context.Context, field string, value any, notFoundErr error) (*T, error) {
	var result T
	if err := db.WithContext(ctx).Where(field+" = ?", value).First(&result).Error; err != nil {
		return nil, convertNotFoundError(err, notFoundErr)
	}
	return &result, nil
}

// getOwned retrieves a single record of type T by (owner_id, id). Records
// belonging to other owners are indistinguishable from missing ones.
//
// Example:
//
//	folder, err := getOwned[models.Folder](db, ctx, ownerID, folderID, models.ErrFolderNotFound)
func getOwned[T any](db *gorm.DB, ctx context.Context, ownerID, id string, notFoundErr error) (*T, error) {
	var result T
	if err := db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, id).First(&result).Error; err != nil {
		return nil, convertNotFoundError(err, notFoundErr)
	}
	return &result, nil
}

// listUnderParent retrieves the records of type T directly under the given
// nullable parent column value for an owner, newest first. A nil parent
// matches the root level (column IS NULL). Returns an empty slice (not nil)
// on success with no records.
//
// Example:
//
//	folders, err := listUnderParent[models.Folder](db, ctx, ownerID, "parent_id", parent)
func listUnderParent[T any](db *gorm.DB, ctx context.Context, ownerID, parentColumn string, parent *string) ([]*T, error) {
	results := make([]*T, 0)
	q := db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if parent == nil {
		q = q.Where(parentColumn + " IS NULL")
	} else {
		q = q.Where(parentColumn+" = ?", *parent)
	}
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// createWithID generates a UUID for the entity if it has no ID, then creates
// it in the database. The idSetter callback sets the generated ID on the entity.
// Unique constraint violations are converted to dupErr for consistent error handling.
//
// Example:
//
//	id, err := createWithID(db, ctx, folder, func(f *models.Folder, id string) { f.ID = id }, folder.ID, models.ErrDuplicateFolder)
func createWithID[T any](db *gorm.DB, ctx context.Context, entity *T, idSetter func(*T, string), currentID string, dupErr error) (string, error) {
	id := currentID
	if id == "" {
		id = uuid.New().String()
		idSetter(entity, id)
	}
	if err := db.WithContext(ctx).Create(entity).Error; err != nil {
		if isUniqueConstraintError(err) {
			return "", dupErr
		}
		return "", err
	}
	return id, nil
}

// deleteOwned deletes the single record of type T matching (owner_id, id).
// Returns notFoundErr if no rows were affected.
//
// Example:
//
//	err := deleteOwned[models.FileObject](db, ctx, ownerID, fileID, models.ErrFileNotFound)
func deleteOwned[T any](db *gorm.DB, ctx context.Context, ownerID, id string, notFoundErr error) error {
	var zero T
	result := db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, id).Delete(&zero)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFoundErr
	}
	return nil
}
