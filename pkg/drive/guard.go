package drive

import (
	"context"
	"fmt"

	"github.com/marmos91/dittodrive/pkg/models"
	"github.com/marmos91/dittodrive/pkg/store"
)

// checkFolderMove validates a folder re-parenting request before it is
// persisted:
//
//  1. nil target (move to root) is always allowed.
//  2. A folder cannot become its own parent.
//  3. The target must resolve for the owner.
//  4. The target must not sit inside the moving folder's subtree; walking
//     the target's ancestor chain and meeting the moving folder means the
//     move would close a cycle.
//
// The ancestor walk is visited-set bound; a repeated ID surfaces as
// models.ErrCorruptTree. Pure renames never call this: sibling-name
// uniqueness is already enforced by the store constraint.
func checkFolderMove(ctx context.Context, st store.Store, ownerID, folderID string, newParent *string) error {
	if newParent == nil {
		return nil
	}

	if *newParent == folderID {
		return fmt.Errorf("folder %s cannot be its own parent: %w", folderID, models.ErrInvalidMove)
	}

	current, err := st.GetFolder(ctx, ownerID, *newParent)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{})
	for current.ParentID != nil {
		if _, ok := seen[current.ID]; ok {
			return fmt.Errorf("folder %s revisited in parent chain: %w", current.ID, models.ErrCorruptTree)
		}
		seen[current.ID] = struct{}{}

		if *current.ParentID == folderID {
			return fmt.Errorf("folder %s is an ancestor of the target: %w", folderID, models.ErrInvalidMove)
		}

		current, err = st.GetFolder(ctx, ownerID, *current.ParentID)
		if err != nil {
			return err
		}
	}

	return nil
}
