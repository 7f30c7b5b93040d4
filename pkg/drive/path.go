package drive

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/marmos91/dittodrive/pkg/blob"
	"github.com/marmos91/dittodrive/pkg/models"
	"github.com/marmos91/dittodrive/pkg/store"
)

// MaxFolderDepth is the deepest folder level a file can be uploaded into.
//
// Blob keys are "<owner>/<folder ID chain>/<token>": a 36-byte owner UUID,
// one 36-byte folder UUID plus a slash per level, then a slash and a
// 32-byte token. The chain must fit within blob.MaxKeyLength, which bounds
// the depth; attempts to store content deeper than this return
// models.ErrFolderTooDeep. Folders themselves can nest further, they just
// cannot hold files past this level.
const MaxFolderDepth = (blob.MaxKeyLength - 36 - 1 - 32) / (36 + 1)

// ResolvePathSegments returns the blob key segments for content stored
// under a folder: the owner ID followed by the folder ID chain from the
// root down to the folder. A nil folder means the owner's root level and
// yields just the owner ID.
//
// Segments contain only internal IDs, never user-supplied names, so blob
// locations survive renames and moves untouched.
//
// The walk is bounded by a visited set: revisiting a folder ID means the
// parent chain loops, which surfaces as models.ErrCorruptTree. A chain hop
// that does not resolve for the owner surfaces as models.ErrFolderNotFound.
// A chain longer than MaxFolderDepth surfaces as models.ErrFolderTooDeep.
func ResolvePathSegments(ctx context.Context, st store.Store, ownerID string, folderID *string) ([]string, error) {
	segments := []string{ownerID}
	if folderID == nil {
		return segments, nil
	}

	current, err := st.GetFolder(ctx, ownerID, *folderID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var chain []string

	for {
		if _, ok := seen[current.ID]; ok {
			return nil, fmt.Errorf("folder %s revisited in parent chain: %w", current.ID, models.ErrCorruptTree)
		}
		seen[current.ID] = struct{}{}
		chain = append(chain, current.ID)
		if len(chain) > MaxFolderDepth {
			return nil, fmt.Errorf("folder chain exceeds %d levels: %w", MaxFolderDepth, models.ErrFolderTooDeep)
		}

		if current.ParentID == nil {
			break
		}
		current, err = st.GetFolder(ctx, ownerID, *current.ParentID)
		if err != nil {
			return nil, err
		}
	}

	// The chain was collected leaf-to-root.
	slices.Reverse(chain)
	return append(segments, chain...), nil
}

// NewStoragePath builds a fresh blob key from resolved path segments by
// appending an opaque token: "<owner>/<folder …>/<token>". The token is a
// dashless UUID, so the key carries no user-controlled bytes. Keys always
// join with "/" regardless of host OS separators.
func NewStoragePath(segments []string) string {
	token := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.Join(segments, "/") + "/" + token
}
