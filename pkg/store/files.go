package store

import (
	"context"

	"github.com/marmos91/dittodrive/pkg/models"
)

// ============================================
// FILE OPERATIONS
// ============================================

func (s *GORMStore) CreateFile(ctx context.Context, file *models.FileObject) (string, error) {
	if err := file.Validate(); err != nil {
		return "", err
	}
	return createWithID(s.db, ctx, file, func(f *models.FileObject, id string) { f.ID = id }, file.ID, models.ErrDuplicateFile)
}

func (s *GORMStore) GetFile(ctx context.Context, ownerID, id string) (*models.FileObject, error) {
	return getOwned[models.FileObject](s.db, ctx, ownerID, id, models.ErrFileNotFound)
}

func (s *GORMStore) ListFilesInFolder(ctx context.Context, ownerID string, folder *string) ([]*models.FileObject, error) {
	return listUnderParent[models.FileObject](s.db, ctx, ownerID, "folder_id", folder)
}

func (s *GORMStore) UpdateFile(ctx context.Context, file *models.FileObject) error {
	if err := file.Validate(); err != nil {
		return err
	}

	var existing models.FileObject
	if err := s.db.WithContext(ctx).Where("owner_id = ? AND id = ?", file.OwnerID, file.ID).First(&existing).Error; err != nil {
		return convertNotFoundError(err, models.ErrFileNotFound)
	}

	// Only name and folder linkage are mutable; blob content, storage path
	// and size are fixed at upload time.
	err := s.db.WithContext(ctx).
		Model(&existing).
		Select("Name", "FolderID").
		Updates(file).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.ErrDuplicateFile
		}
		return err
	}
	return nil
}

func (s *GORMStore) DeleteFile(ctx context.Context, ownerID, id string) error {
	return deleteOwned[models.FileObject](s.db, ctx, ownerID, id, models.ErrFileNotFound)
}
