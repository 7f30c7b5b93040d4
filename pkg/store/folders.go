package store

import (
	"context"

	"github.com/marmos91/dittodrive/pkg/models"
)

// ============================================
// FOLDER OPERATIONS
// ============================================

func (s *GORMStore) CreateFolder(ctx context.Context, folder *models.Folder) (string, error) {
	if err := folder.Validate(); err != nil {
		return "", err
	}
	return createWithID(s.db, ctx, folder, func(f *models.Folder, id string) { f.ID = id }, folder.ID, models.ErrDuplicateFolder)
}

func (s *GORMStore) GetFolder(ctx context.Context, ownerID, id string) (*models.Folder, error) {
	return getOwned[models.Folder](s.db, ctx, ownerID, id, models.ErrFolderNotFound)
}

func (s *GORMStore) ListFolderChildren(ctx context.Context, ownerID string, parent *string) ([]*models.Folder, error) {
	return listUnderParent[models.Folder](s.db, ctx, ownerID, "parent_id", parent)
}

func (s *GORMStore) UpdateFolder(ctx context.Context, folder *models.Folder) error {
	if err := folder.Validate(); err != nil {
		return err
	}

	// Check the folder exists for this owner first: Updates with unchanged
	// values reports zero affected rows, so RowsAffected cannot distinguish
	// not-found from no-op.
	var existing models.Folder
	if err := s.db.WithContext(ctx).Where("owner_id = ? AND id = ?", folder.OwnerID, folder.ID).First(&existing).Error; err != nil {
		return convertNotFoundError(err, models.ErrFolderNotFound)
	}

	// Select both columns so a nil ParentID writes NULL (move to root)
	// instead of being skipped as a zero value.
	err := s.db.WithContext(ctx).
		Model(&existing).
		Select("Name", "ParentID").
		Updates(folder).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.ErrDuplicateFolder
		}
		return err
	}
	return nil
}

func (s *GORMStore) DeleteFolder(ctx context.Context, ownerID, id string) error {
	return deleteOwned[models.Folder](s.db, ctx, ownerID, id, models.ErrFolderNotFound)
}
