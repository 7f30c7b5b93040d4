// Package drive implements the storage engine for the file service: the
// orchestration layer that composes the metadata store and the blob store
// into folder-tree and file-content operations.
//
// The engine owns the ordering rules that keep the two stores consistent:
// uploads write the blob first and insert metadata second, compensating
// with a blob delete when the insert fails; deletes remove metadata first
// and clean blobs best-effort afterwards. Folder-tree deletion walks an
// explicit worklist (never recursion) and runs its row deletions inside a
// single transaction.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/telemetry"
	"github.com/marmos91/dittodrive/pkg/blob"
	"github.com/marmos91/dittodrive/pkg/metrics"
	"github.com/marmos91/dittodrive/pkg/models"
	"github.com/marmos91/dittodrive/pkg/store"
)

// Engine coordinates metadata and blob operations for one service
// instance. All operations are owner-scoped and safe for concurrent use;
// the store's unique constraints are the safety net for concurrent
// same-name writes.
type Engine struct {
	store   store.Store
	blobs   blob.Store
	metrics metrics.StorageMetrics
}

// Config assembles an Engine.
type Config struct {
	// Store is the metadata store (required).
	Store store.Store

	// Blobs is the content backend (required).
	Blobs blob.Store

	// Metrics is an optional collector. Nil disables recording.
	Metrics metrics.StorageMetrics
}

// New validates the configuration and returns an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("metadata store is required")
	}
	if cfg.Blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	return &Engine{
		store:   cfg.Store,
		blobs:   cfg.Blobs,
		metrics: cfg.Metrics,
	}, nil
}

// Children is one level of the folder tree, both ordered newest first.
type Children struct {
	Folders []*models.Folder     `json:"folders"`
	Files   []*models.FileObject `json:"files"`
}

// FolderPatch is a partial folder update. A nil Name leaves the name
// unchanged. Parent is applied only when SetParent is true: SetParent with
// a nil Parent moves the folder to the root, SetParent false ignores
// Parent entirely. The zero patch is a no-op.
type FolderPatch struct {
	Name      *string
	Parent    *string
	SetParent bool
}

// FilePatch is the file counterpart of FolderPatch; Folder relocates the
// file when SetFolder is true.
type FilePatch struct {
	Name      *string
	Folder    *string
	SetFolder bool
}

// ============================================
// FOLDER OPERATIONS
// ============================================

// CreateFolder creates a folder under parent for the owner. A nil parent
// creates at the root level. The parent, when given, must resolve for the
// owner or models.ErrParentFolderNotFound is returned; a sibling name
// collision returns models.ErrDuplicateFolder.
func (e *Engine) CreateFolder(ctx context.Context, ownerID, name string, parentID *string) (_ *models.Folder, err error) {
	ctx, span := telemetry.StartDriveSpan(ctx, "create_folder", ownerID, telemetry.Name(name))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err = models.ValidateName(name); err != nil {
		return nil, err
	}

	if parentID != nil {
		if _, err = e.store.GetFolder(ctx, ownerID, *parentID); err != nil {
			if errors.Is(err, models.ErrFolderNotFound) {
				return nil, models.ErrParentFolderNotFound
			}
			return nil, err
		}
	}

	folder := &models.Folder{
		OwnerID:  ownerID,
		ParentID: parentID,
		Name:     name,
	}

	id, err := e.store.CreateFolder(ctx, folder)
	if err != nil {
		return nil, err
	}

	logger.DebugCtx(ctx, "folder created", "folder_id", id, "owner_id", ownerID)
	return e.store.GetFolder(ctx, ownerID, id)
}

// GetFolder returns a folder by (owner, id).
func (e *Engine) GetFolder(ctx context.Context, ownerID, id string) (_ *models.Folder, err error) {
	ctx, span := telemetry.StartDriveSpan(ctx, "get_folder", ownerID, telemetry.FolderID(id))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	return e.store.GetFolder(ctx, ownerID, id)
}

// ListFolderChildren returns the subfolders and files directly under
// parent. A nil parent lists the owner's root level; a non-nil parent must
// resolve for the owner first.
func (e *Engine) ListFolderChildren(ctx context.Context, ownerID string, parentID *string) (_ *Children, err error) {
	ctx, span := telemetry.StartDriveSpan(ctx, "list_children", ownerID)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if parentID != nil {
		if _, err = e.store.GetFolder(ctx, ownerID, *parentID); err != nil {
			return nil, err
		}
	}

	folders, err := e.store.ListFolderChildren(ctx, ownerID, parentID)
	if err != nil {
		return nil, err
	}
	files, err := e.store.ListFilesInFolder(ctx, ownerID, parentID)
	if err != nil {
		return nil, err
	}

	return &Children{Folders: folders, Files: files}, nil
}

// UpdateFolder applies a rename and/or move. Moves run the tree guard
// first (self-moves and moves into the folder's own subtree return
// models.ErrInvalidMove); guard and update share one transaction so the
// checked ancestry cannot change under the update. Sibling collisions
// return models.ErrDuplicateFolder.
func (e *Engine) UpdateFolder(ctx context.Context, ownerID, id string, patch FolderPatch) (_ *models.Folder, err error) {
	ctx, span := telemetry.StartDriveSpan(ctx, "update_folder", ownerID, telemetry.FolderID(id))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if patch.Name != nil {
		if err = models.ValidateName(*patch.Name); err != nil {
			return nil, err
		}
	}

	err = e.store.WithTransaction(ctx, func(tx store.Store) error {
		folder, txErr := tx.GetFolder(ctx, ownerID, id)
		if txErr != nil {
			return txErr
		}

		if patch.SetParent {
			if txErr = checkFolderMove(ctx, tx, ownerID, id, patch.Parent); txErr != nil {
				return txErr
			}
			folder.ParentID = patch.Parent
		}
		if patch.Name != nil {
			folder.Name = *patch.Name
		}

		return tx.UpdateFolder(ctx, folder)
	})
	if err != nil {
		return nil, err
	}

	return e.store.GetFolder(ctx, ownerID, id)
}

// DeleteFolderTree deletes a folder with everything below it and returns
// the number of rows removed (nested folders + files + the folder itself).
//
// Phase 1 collects the subtree on an explicit worklist, bounding the walk
// with a visited set (a repeated folder ID surfaces as
// models.ErrCorruptTree). Phase 2 deletes rows leaves-first inside one
// transaction. Blob cleanup runs after commit and is best-effort: a blob
// that fails to delete is logged, never resurrected in metadata.
func (e *Engine) DeleteFolderTree(ctx context.Context, ownerID, id string) (deleted int64, err error) {
	ctx, span := telemetry.StartDriveSpan(ctx, "delete_folder", ownerID, telemetry.FolderID(id))
	defer span.End()

	start := time.Now()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
			return
		}
		span.SetAttributes(telemetry.Deleted(deleted))
		if e.metrics != nil {
			e.metrics.RecordCascadeDelete(deleted, time.Since(start))
		}
	}()

	root, err := e.store.GetFolder(ctx, ownerID, id)
	if err != nil {
		return 0, err
	}

	// Phase 1: collect the subtree pre-order.
	worklist := []*models.Folder{root}
	visited := map[string]struct{}{root.ID: {}}
	var order []*models.Folder

	for len(worklist) > 0 {
		folder := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		order = append(order, folder)

		children, listErr := e.store.ListFolderChildren(ctx, ownerID, &folder.ID)
		if listErr != nil {
			return 0, listErr
		}
		for _, child := range children {
			if _, ok := visited[child.ID]; ok {
				return 0, fmt.Errorf("folder %s revisited in subtree: %w", child.ID, models.ErrCorruptTree)
			}
			visited[child.ID] = struct{}{}
			worklist = append(worklist, child)
		}
	}

	// Phase 2: delete rows leaves-first in one transaction, remembering
	// blob keys for cleanup after commit.
	var blobKeys []string

	err = e.store.WithTransaction(ctx, func(tx store.Store) error {
		for i := len(order) - 1; i >= 0; i-- {
			folder := order[i]

			files, txErr := tx.ListFilesInFolder(ctx, ownerID, &folder.ID)
			if txErr != nil {
				return txErr
			}
			for _, file := range files {
				if txErr = tx.DeleteFile(ctx, ownerID, file.ID); txErr != nil {
					return txErr
				}
				blobKeys = append(blobKeys, file.StoragePath)
				deleted++
			}

			if txErr = tx.DeleteFolder(ctx, ownerID, folder.ID); txErr != nil {
				return txErr
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	// The rows are gone; a client that disconnects now must not stop the
	// blob cleanup, or every remaining key becomes an orphan.
	cleanupCtx := context.WithoutCancel(ctx)
	for _, key := range blobKeys {
		if blobErr := e.blobs.Delete(cleanupCtx, key); blobErr != nil {
			logger.WarnCtx(cleanupCtx, "failed to delete blob during folder delete",
				"key", key, logger.Err(blobErr))
		}
	}

	logger.InfoCtx(ctx, "folder tree deleted",
		"folder_id", id,
		"owner_id", ownerID,
		"deleted", deleted,
		"duration_ms", logger.Duration(start))
	return deleted, nil
}

// ============================================
// FILE OPERATIONS
// ============================================

// UploadFile streams r into a new blob and inserts the file's metadata.
//
// The blob key is derived from the owner ID and the target folder's ID
// chain plus a fresh token (never from the file name), so the blob stays
// put when the file is later renamed or moved. The blob is written first;
// if the metadata insert then fails for any reason the blob is deleted
// again so storage never accumulates orphans. A sibling name collision
// returns models.ErrDuplicateFile.
func (e *Engine) UploadFile(ctx context.Context, ownerID string, folderID *string, name, mimeType string, r io.Reader) (_ *models.FileObject, err error) {
	ctx, span := telemetry.StartDriveSpan(ctx, "upload_file", ownerID, telemetry.Name(name))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if name == "" {
		name = "unnamed"
	}
	if err = models.ValidateName(name); err != nil {
		return nil, err
	}

	segments, err := ResolvePathSegments(ctx, e.store, ownerID, folderID)
	if err != nil {
		return nil, err
	}
	key := NewStoragePath(segments)

	result, err := e.blobs.Write(ctx, key, r)
	if err != nil {
		return nil, fmt.Errorf("failed to store file content: %w", err)
	}
	span.SetAttributes(telemetry.Size(result.Size), telemetry.StorageKey(key))

	file := &models.FileObject{
		OwnerID:     ownerID,
		FolderID:    folderID,
		Name:        name,
		MimeType:    mimeType,
		Size:        result.Size,
		SHA256:      result.SHA256,
		StoragePath: key,
	}

	id, err := e.store.CreateFile(ctx, file)
	if err != nil {
		// The blob is already on disk; remove it so a rejected upload
		// leaves nothing behind. Detached from ctx: the rollback must
		// run even when the client is gone.
		e.rollbackBlob(context.WithoutCancel(ctx), key)
		return nil, err
	}

	logger.InfoCtx(ctx, "file uploaded",
		"file_id", id,
		"owner_id", ownerID,
		"name", name,
		"size", result.Size)
	return e.store.GetFile(ctx, ownerID, id)
}

// GetFile returns a file's metadata by (owner, id).
func (e *Engine) GetFile(ctx context.Context, ownerID, id string) (_ *models.FileObject, err error) {
	ctx, span := telemetry.StartDriveSpan(ctx, "get_file", ownerID, telemetry.FileID(id))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	return e.store.GetFile(ctx, ownerID, id)
}

// UpdateFile applies a rename and/or move. The target folder, when set,
// must resolve for the owner; sibling collisions return
// models.ErrDuplicateFile. The file's storage path never changes.
func (e *Engine) UpdateFile(ctx context.Context, ownerID, id string, patch FilePatch) (_ *models.FileObject, err error) {
	ctx, span := telemetry.StartDriveSpan(ctx, "update_file", ownerID, telemetry.FileID(id))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if patch.Name != nil {
		if err = models.ValidateName(*patch.Name); err != nil {
			return nil, err
		}
	}

	err = e.store.WithTransaction(ctx, func(tx store.Store) error {
		file, txErr := tx.GetFile(ctx, ownerID, id)
		if txErr != nil {
			return txErr
		}

		if patch.SetFolder {
			if patch.Folder != nil {
				if _, txErr = tx.GetFolder(ctx, ownerID, *patch.Folder); txErr != nil {
					return txErr
				}
			}
			file.FolderID = patch.Folder
		}
		if patch.Name != nil {
			file.Name = *patch.Name
		}

		return tx.UpdateFile(ctx, file)
	})
	if err != nil {
		return nil, err
	}

	return e.store.GetFile(ctx, ownerID, id)
}

// DeleteFile removes the file's metadata row, then deletes its blob
// best-effort, and returns the number of rows removed (always 1 on
// success).
func (e *Engine) DeleteFile(ctx context.Context, ownerID, id string) (deleted int64, err error) {
	ctx, span := telemetry.StartDriveSpan(ctx, "delete_file", ownerID, telemetry.FileID(id))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	file, err := e.store.GetFile(ctx, ownerID, id)
	if err != nil {
		return 0, err
	}

	if err = e.store.DeleteFile(ctx, ownerID, id); err != nil {
		return 0, err
	}

	// Same detachment as the tree cascade: the metadata row is already
	// gone, so the cleanup must outlive the request.
	cleanupCtx := context.WithoutCancel(ctx)
	if blobErr := e.blobs.Delete(cleanupCtx, file.StoragePath); blobErr != nil {
		logger.WarnCtx(cleanupCtx, "failed to delete blob for removed file",
			"file_id", id, "key", file.StoragePath, logger.Err(blobErr))
	}

	logger.DebugCtx(ctx, "file deleted", "file_id", id, "owner_id", ownerID)
	return 1, nil
}

// OpenFileContent returns the file's metadata together with a reader over
// its content. The caller must close the reader. A metadata row whose blob
// is gone surfaces blob.ErrBlobNotFound.
func (e *Engine) OpenFileContent(ctx context.Context, ownerID, id string) (_ *models.FileObject, _ io.ReadCloser, err error) {
	ctx, span := telemetry.StartDriveSpan(ctx, "download_file", ownerID, telemetry.FileID(id))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	file, err := e.store.GetFile(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := e.blobs.Open(ctx, file.StoragePath)
	if err != nil {
		return nil, nil, err
	}

	return file, rc, nil
}

// rollbackBlob removes a blob written by an upload whose metadata insert
// failed.
func (e *Engine) rollbackBlob(ctx context.Context, key string) {
	if e.metrics != nil {
		e.metrics.RecordUploadRollback()
	}

	if err := e.blobs.Delete(ctx, key); err != nil {
		logger.ErrorCtx(ctx, "failed to roll back blob after metadata failure",
			"key", key, logger.Err(err))
		return
	}

	logger.DebugCtx(ctx, "rolled back blob after metadata failure", "key", key)
}
