//go:build integration

package drive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/dittodrive/pkg/blob"
	"github.com/marmos91/dittodrive/pkg/models"
	"github.com/marmos91/dittodrive/pkg/store"
)

// newTestEngine builds an Engine over an in-memory SQLite store and a
// filesystem blob store rooted in a temp dir. The raw store and blob store
// are returned too so tests can forge states the engine itself refuses to
// create.
func newTestEngine(t *testing.T) (*Engine, *store.GORMStore, *blob.FSStore) {
	t.Helper()

	st, err := store.New(&store.Config{
		Type: store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{
			Path: ":memory:",
		},
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	blobs, err := blob.NewFSStore(blob.FSConfig{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create blob store: %v", err)
	}

	engine, err := New(Config{Store: st, Blobs: blobs})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return engine, st, blobs
}

// newTestOwner inserts a user and returns its ID.
func newTestOwner(t *testing.T, s *store.GORMStore, username string) string {
	t.Helper()
	hash, err := models.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	id, err := s.CreateUser(context.Background(), &models.User{
		Username:     username,
		PasswordHash: hash,
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("failed to create user %q: %v", username, err)
	}
	return id
}

// countBlobs counts the regular files anywhere under the blob store root,
// spool leftovers included.
func countBlobs(t *testing.T, blobs *blob.FSStore) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(blobs.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			count++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk blob root: %v", err)
	}
	return count
}

func strPtr(s string) *string {
	return &s
}

func TestEngineNew(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for missing store")
	}

	st, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer st.Close()

	if _, err := New(Config{Store: st}); err == nil {
		t.Error("expected error for missing blob store")
	}
}

func TestCreateFolder(t *testing.T) {
	engine, st, _ := newTestEngine(t)
	ctx := context.Background()
	owner := newTestOwner(t, st, "alice")

	docs, err := engine.CreateFolder(ctx, owner, "Docs", nil)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	if docs.ParentID != nil {
		t.Errorf("expected root folder, got parent %v", *docs.ParentID)
	}
	if docs.OwnerID != owner {
		t.Errorf("expected owner %s, got %s", owner, docs.OwnerID)
	}

	nested, err := engine.CreateFolder(ctx, owner, "2024", &docs.ID)
	if err != nil {
		t.Fatalf("CreateFolder nested failed: %v", err)
	}
	if nested.ParentID == nil || *nested.ParentID != docs.ID {
		t.Error("expected nested folder to reference its parent")
	}

	if _, err := engine.CreateFolder(ctx, owner, "Docs", nil); !errors.Is(err, models.ErrDuplicateFolder) {
		t.Errorf("expected ErrDuplicateFolder at root, got %v", err)
	}
	if _, err := engine.CreateFolder(ctx, owner, "2024", &docs.ID); !errors.Is(err, models.ErrDuplicateFolder) {
		t.Errorf("expected ErrDuplicateFolder nested, got %v", err)
	}

	missing := "00000000-0000-0000-0000-000000000000"
	if _, err := engine.CreateFolder(ctx, owner, "Orphan", &missing); !errors.Is(err, models.ErrParentFolderNotFound) {
		t.Errorf("expected ErrParentFolderNotFound, got %v", err)
	}

	if _, err := engine.CreateFolder(ctx, owner, "", nil); err == nil {
		t.Error("expected error for empty folder name")
	}
	if _, err := engine.CreateFolder(ctx, owner, strings.Repeat("x", models.MaxNameLength+1), nil); err == nil {
		t.Error("expected error for overlong folder name")
	}
}

func TestOwnerScoping(t *testing.T) {
	engine, st, _ := newTestEngine(t)
	ctx := context.Background()
	alice := newTestOwner(t, st, "alice")
	bob := newTestOwner(t, st, "bob")

	folder, err := engine.CreateFolder(ctx, alice, "Private", nil)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	file, err := engine.UploadFile(ctx, alice, nil, "secret.txt", "text/plain", strings.NewReader("hush"))
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}

	// Bob can reuse Alice's names without conflict.
	if _, err := engine.CreateFolder(ctx, bob, "Private", nil); err != nil {
		t.Errorf("expected other owner to reuse the name, got %v", err)
	}

	// Bob cannot see or touch Alice's tree.
	if _, err := engine.GetFolder(ctx, bob, folder.ID); !errors.Is(err, models.ErrFolderNotFound) {
		t.Errorf("expected ErrFolderNotFound for foreign folder, got %v", err)
	}
	if _, err := engine.GetFile(ctx, bob, file.ID); !errors.Is(err, models.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound for foreign file, got %v", err)
	}
	if _, err := engine.DeleteFolderTree(ctx, bob, folder.ID); !errors.Is(err, models.ErrFolderNotFound) {
		t.Errorf("expected ErrFolderNotFound deleting foreign folder, got %v", err)
	}
	if _, err := engine.DeleteFile(ctx, bob, file.ID); !errors.Is(err, models.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound deleting foreign file, got %v", err)
	}
}

func TestUploadAndDownload(t *testing.T) {
	engine, st, _ := newTestEngine(t)
	ctx := context.Background()
	owner := newTestOwner(t, st, "alice")

	content := []byte("quarterly numbers, do not share")
	sum := sha256.Sum256(content)

	file, err := engine.UploadFile(ctx, owner, nil, "report.txt", "text/plain", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if file.Size != int64(len(content)) {
		t.Errorf("expected size %d, got %d", len(content), file.Size)
	}
	if file.SHA256 != hex.EncodeToString(sum[:]) {
		t.Errorf("expected sha256 %s, got %s", hex.EncodeToString(sum[:]), file.SHA256)
	}
	if file.MimeType != "text/plain" {
		t.Errorf("expected mime type text/plain, got %s", file.MimeType)
	}
	if file.FolderID != nil {
		t.Errorf("expected root file, got folder %v", *file.FolderID)
	}

	// Root-level keys are owner plus an opaque token.
	parts := strings.Split(file.StoragePath, "/")
	if len(parts) != 2 || parts[0] != owner {
		t.Fatalf("unexpected storage path shape: %s", file.StoragePath)
	}
	if len(parts[1]) != 32 {
		t.Errorf("expected 32-char token, got %q", parts[1])
	}

	got, rc, err := engine.OpenFileContent(ctx, owner, file.ID)
	if err != nil {
		t.Fatalf("OpenFileContent failed: %v", err)
	}
	defer rc.Close()
	if got.ID != file.ID {
		t.Errorf("expected file %s, got %s", file.ID, got.ID)
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("failed to read content: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Error("downloaded content differs from upload")
	}
}

func TestUploadIntoFolder(t *testing.T) {
	engine, st, _ := newTestEngine(t)
	ctx := context.Background()
	owner := newTestOwner(t, st, "alice")

	docs, err := engine.CreateFolder(ctx, owner, "Docs", nil)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	y2024, err := engine.CreateFolder(ctx, owner, "2024", &docs.ID)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}

	file, err := engine.UploadFile(ctx, owner, &y2024.ID, "notes.md", "text/markdown", strings.NewReader("# notes"))
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}

	// Nested keys carry the full folder ID chain, root first.
	parts := strings.Split(file.StoragePath, "/")
	if len(parts) != 4 {
		t.Fatalf("expected owner/docs/2024/token, got %s", file.StoragePath)
	}
	if parts[0] != owner || parts[1] != docs.ID || parts[2] != y2024.ID {
		t.Errorf("unexpected key prefix: %s", file.StoragePath)
	}

	missing := "00000000-0000-0000-0000-000000000000"
	if _, err := engine.UploadFile(ctx, owner, &missing, "lost.txt", "", strings.NewReader("x")); !errors.Is(err, models.ErrFolderNotFound) {
		t.Errorf("expected ErrFolderNotFound, got %v", err)
	}
}

func TestUploadNameFallback(t *testing.T) {
	engine, st, _ := newTestEngine(t)
	ctx := context.Background()
	owner := newTestOwner(t, st, "alice")

	file, err := engine.UploadFile(ctx, owner, nil, "", "application/octet-stream", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if file.Name != "unnamed" {
		t.Errorf("expected fallback name %q, got %q", "unnamed", file.Name)
	}
}

func TestUploadConflictRollsBackBlob(t *testing.T) {
	engine, st, blobs := newTestEngine(t)
	ctx := context.Background()
	owner := newTestOwner(t, st, "alice")

	if _, err := engine.UploadFile(ctx, owner, nil, "a.txt", "text/plain", strings.NewReader("first")); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if n := countBlobs(t, blobs); n != 1 {
		t.Fatalf("expected 1 blob after first upload, got %d", n)
	}

	_, err := engine.UploadFile(ctx, owner, nil, "a.txt", "text/plain", strings.NewReader("second"))
	if !errors.Is(err, models.ErrDuplicateFile) {
		t.Fatalf("expected ErrDuplicateFile, got %v", err)
	}

	// The rejected upload's blob must be gone again.
	if n := countBlobs(t, blobs); n != 1 {
		t.Errorf("expected 1 blob after rejected upload, got %d", n)
	}
}

// failingReader errors partway through the body.
type failingReader struct {
	data []byte
	sent bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		n := copy(p, r.data)
		return n, nil
	}
	return 0, errors.New("connection reset")
}

func TestUploadFailedStreamLeavesNothing(t *testing.T) {
	engine, st, blobs := newTestEngine(t)
	ctx := context.Background()
	owner := newTestOwner(t, st, "alice")

	_, err := engine.UploadFile(ctx, owner, nil, "broken.bin", "", &failingReader{data: []byte("partial")})
	if err == nil {
		t.Fatal("expected upload to fail")
	}

	if n := countBlobs(t, blobs); n != 0 {
		t.Errorf("expected no blobs after failed upload, got %d", n)
	}
	children, err := engine.ListFolderChildren(ctx, owner, nil)
	if err != nil {
		t.Fatalf("ListFolderChildren failed: %v", err)
	}
	if len(children.Files) != 0 {
		t.Errorf("expected no file rows after failed upload, got %d", len(children.Files))
	}
}

func TestListFolderChildren(t *testing.T) {
	engine, st, _ := newTestEngine(t)
	ctx := context.Background()
	owner := newTestOwner(t, st, "alice")

	docs, err := engine.CreateFolder(ctx, owner, "Docs", nil)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	if _, err := engine.UploadFile(ctx, owner, nil, "root.txt", "text/plain", strings.NewReader("r")); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}

	children, err := engine.ListFolderChildren(ctx, owner, nil)
	if err != nil {
		t.Fatalf("ListFolderChildren failed: %v", err)
	}
	if len(children.Folders) != 1 || children.Folders[0].ID != docs.ID {
		t.Errorf("expected 1 folder at root, got %d", len(children.Folders))
	}
	if len(children.Files) != 1 || children.Files[0].Name != "root.txt" {
		t.Errorf("expected 1 file at root, got %d", len(children.Files))
	}

	empty, err := engine.ListFolderChildren(ctx, owner, &docs.ID)
	if err != nil {
		t.Fatalf("ListFolderChildren failed: %v", err)
	}
	if len(empty.Folders) != 0 || len(empty.Files) != 0 {
		t.Error("expected empty folder to list nothing")
	}

	missing := "00000000-0000-0000-0000-000000000000"
	if _, err := engine.ListFolderChildren(ctx, owner, &missing); !errors.Is(err, models.ErrFolderNotFound) {
		t.Errorf("expected ErrFolderNotFound, got %v", err)
	}
}

func TestUpdateFolderPatchSemantics(t *testing.T) {
	engine, st, _ := newTestEngine(t)
	ctx := context.Background()
	owner := newTestOwner(t, st, "alice")

	parent, err := engine.CreateFolder(ctx, owner, "Parent", nil)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	child, err := engine.CreateFolder(ctx, owner, "Child", &parent.ID)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}

	// Rename only: the parent must not change.
	renamed, err := engine.UpdateFolder(ctx, owner, child.ID, FolderPatch{Name: strPtr("Renamed")})
	if err != nil {
		t.Fatalf("UpdateFolder failed: %v", err)
	}
	if renamed.Name != "Renamed" {
		t.Errorf("expected name Renamed, got %s", renamed.Name)
	}
	if renamed.ParentID == nil || *renamed.ParentID != parent.ID {
		t.Error("rename must not move the folder")
	}

	// Explicit nil parent: move to root, name untouched.
	moved, err := engine.UpdateFolder(ctx, owner, child.ID, FolderPatch{Parent: nil, SetParent: true})
	if err != nil {
		t.Fatalf("UpdateFolder failed: %v", err)
	}
	if moved.ParentID != nil {
		t.Error("expected folder at root after move")
	}
	if moved.Name != "Renamed" {
		t.Errorf("move must not rename, got %s", moved.Name)
	}

	// Zero patch: nothing changes.
	same, err := engine.UpdateFolder(ctx, owner, child.ID, FolderPatch{})
	if err != nil {
		t.Fatalf("UpdateFolder failed: %v", err)
	}
	if same.Name != "Renamed" || same.ParentID != nil {
		t.Error("zero patch must not change anything")
	}

	// Rename onto an existing sibling at root.
	if _, err := engine.UpdateFolder(ctx, owner, child.ID, FolderPatch{Name: strPtr("Parent")}); !errors.Is(err, models.ErrDuplicateFolder) {
		t.Errorf("expected ErrDuplicateFolder, got %v", err)
	}
}

func TestMoveFolderGuard(t *testing.T) {
	engine, st, _ := newTestEngine(t)
	ctx := context.Background()
	owner := newTestOwner(t, st, "alice")

	a, err := engine.CreateFolder(ctx, owner, "a", nil)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	b, err := engine.CreateFolder(ctx, owner, "b", &a.ID)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	c, err := engine.CreateFolder(ctx, owner, "c", &b.ID)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}

	// Self and descendant targets are rejected.
	if _, err := engine.UpdateFolder(ctx, owner, a.ID, FolderPatch{Parent: &a.ID, SetParent: true}); !errors.Is(err, models.ErrInvalidMove) {
		t.Errorf("expected ErrInvalidMove for self move, got %v", err)
	}
	if _, err := engine.UpdateFolder(ctx, owner, a.ID, FolderPatch{Parent: &b.ID, SetParent: true}); !errors.Is(err, models.ErrInvalidMove) {
		t.Errorf("expected ErrInvalidMove for child target, got %v", err)
	}
	if _, err := engine.UpdateFolder(ctx, owner, a.ID, FolderPatch{Parent: &c.ID, SetParent: true}); !errors.Is(err, models.ErrInvalidMove) {
		t.Errorf("expected ErrInvalidMove for grandchild target, got %v", err)
	}

	// A missing target is a lookup failure, not an invalid move.
	missing := "00000000-0000-0000-0000-000000000000"
	if _, err := engine.UpdateFolder(ctx, owner, a.ID, FolderPatch{Parent: &missing, SetParent: true}); !errors.Is(err, models.ErrFolderNotFound) {
		t.Errorf("expected ErrFolderNotFound, got %v", err)
	}

	// Legal moves: c to the root, then under a.
	moved, err := engine.UpdateFolder(ctx, owner, c.ID, FolderPatch{Parent: nil, SetParent: true})
	if err != nil {
		t.Fatalf("UpdateFolder failed: %v", err)
	}
	if moved.ParentID != nil {
		t.Error("expected c at root")
	}
	moved, err = engine.UpdateFolder(ctx, owner, c.ID, FolderPatch{Parent: &a.ID, SetParent: true})
	if err != nil {
		t.Fatalf("UpdateFolder failed: %v", err)
	}
	if moved.ParentID == nil || *moved.ParentID != a.ID {
		t.Error("expected c under a")
	}
}

func TestCorruptTreeDetection(t *testing.T) {
	engine, st, _ := newTestEngine(t)
	ctx := context.Background()
	owner := newTestOwner(t, st, "alice")

	a, err := engine.CreateFolder(ctx, owner, "a", nil)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	b, err := engine.CreateFolder(ctx, owner, "b", &a.ID)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}

	// Forge a cycle directly in the store, bypassing the move guard.
	a.ParentID = &b.ID
	if err := st.UpdateFolder(ctx, a); err != nil {
		t.Fatalf("failed to forge cycle: %v", err)
	}

	if _, err := engine.UploadFile(ctx, owner, &a.ID, "f.txt", "", strings.NewReader("x")); !errors.Is(err, models.ErrCorruptTree) {
		t.Errorf("expected ErrCorruptTree on upload, got %v", err)
	}
	if _, err := engine.DeleteFolderTree(ctx, owner, a.ID); !errors.Is(err, models.ErrCorruptTree) {
		t.Errorf("expected ErrCorruptTree on delete, got %v", err)
	}
}

func TestUpdateFile(t *testing.T) {
	engine, st, _ := newTestEngine(t)
	ctx := context.Background()
	owner := newTestOwner(t, st, "alice")

	docs, err := engine.CreateFolder(ctx, owner, "Docs", nil)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	file, err := engine.UploadFile(ctx, owner, &docs.ID, "draft.txt", "text/plain", strings.NewReader("v1"))
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	originalKey := file.StoragePath

	// Rename keeps the storage key.
	renamed, err := engine.UpdateFile(ctx, owner, file.ID, FilePatch{Name: strPtr("final.txt")})
	if err != nil {
		t.Fatalf("UpdateFile failed: %v", err)
	}
	if renamed.Name != "final.txt" {
		t.Errorf("expected name final.txt, got %s", renamed.Name)
	}
	if renamed.StoragePath != originalKey {
		t.Error("rename must not change the storage key")
	}

	// Move to root keeps the storage key too.
	moved, err := engine.UpdateFile(ctx, owner, file.ID, FilePatch{Folder: nil, SetFolder: true})
	if err != nil {
		t.Fatalf("UpdateFile failed: %v", err)
	}
	if moved.FolderID != nil {
		t.Error("expected file at root")
	}
	if moved.StoragePath != originalKey {
		t.Error("move must not change the storage key")
	}

	// Content still opens after rename and move.
	_, rc, err := engine.OpenFileContent(ctx, owner, file.ID)
	if err != nil {
		t.Fatalf("OpenFileContent failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "v1" {
		t.Errorf("expected content v1, got %q", data)
	}

	missing := "00000000-0000-0000-0000-000000000000"
	if _, err := engine.UpdateFile(ctx, owner, file.ID, FilePatch{Folder: &missing, SetFolder: true}); !errors.Is(err, models.ErrFolderNotFound) {
		t.Errorf("expected ErrFolderNotFound, got %v", err)
	}

	// Rename onto a sibling.
	if _, err := engine.UploadFile(ctx, owner, nil, "other.txt", "", strings.NewReader("x")); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if _, err := engine.UpdateFile(ctx, owner, file.ID, FilePatch{Name: strPtr("other.txt")}); !errors.Is(err, models.ErrDuplicateFile) {
		t.Errorf("expected ErrDuplicateFile, got %v", err)
	}

	// Move onto a same-named file in the target folder.
	conflicting, err := engine.UploadFile(ctx, owner, &docs.ID, "final.txt", "", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if _, err := engine.UpdateFile(ctx, owner, conflicting.ID, FilePatch{Folder: nil, SetFolder: true}); !errors.Is(err, models.ErrDuplicateFile) {
		t.Errorf("expected ErrDuplicateFile on move, got %v", err)
	}
}

func TestDeleteFile(t *testing.T) {
	engine, st, blobs := newTestEngine(t)
	ctx := context.Background()
	owner := newTestOwner(t, st, "alice")

	file, err := engine.UploadFile(ctx, owner, nil, "gone.txt", "", strings.NewReader("bye"))
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}

	deleted, err := engine.DeleteFile(ctx, owner, file.ID)
	if err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted row, got %d", deleted)
	}
	if _, err := engine.GetFile(ctx, owner, file.ID); !errors.Is(err, models.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
	if n := countBlobs(t, blobs); n != 0 {
		t.Errorf("expected blob removed, found %d", n)
	}

	if _, err := engine.DeleteFile(ctx, owner, file.ID); !errors.Is(err, models.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound on second delete, got %v", err)
	}
}

func TestDeleteFolderTree(t *testing.T) {
	engine, st, blobs := newTestEngine(t)
	ctx := context.Background()
	owner := newTestOwner(t, st, "alice")

	docs, err := engine.CreateFolder(ctx, owner, "Docs", nil)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	y2024, err := engine.CreateFolder(ctx, owner, "2024", &docs.ID)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	keep, err := engine.CreateFolder(ctx, owner, "Keep", nil)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}

	for _, upload := range []struct {
		folder *string
		name   string
	}{
		{&docs.ID, "a.txt"},
		{&docs.ID, "b.txt"},
		{&y2024.ID, "c.txt"},
		{&keep.ID, "k.txt"},
	} {
		if _, err := engine.UploadFile(ctx, owner, upload.folder, upload.name, "text/plain", strings.NewReader(upload.name)); err != nil {
			t.Fatalf("UploadFile %s failed: %v", upload.name, err)
		}
	}
	if n := countBlobs(t, blobs); n != 4 {
		t.Fatalf("expected 4 blobs before delete, got %d", n)
	}

	// Docs + 2024 + a.txt + b.txt + c.txt.
	deleted, err := engine.DeleteFolderTree(ctx, owner, docs.ID)
	if err != nil {
		t.Fatalf("DeleteFolderTree failed: %v", err)
	}
	if deleted != 5 {
		t.Errorf("expected 5 deleted rows, got %d", deleted)
	}

	if _, err := engine.GetFolder(ctx, owner, docs.ID); !errors.Is(err, models.ErrFolderNotFound) {
		t.Errorf("expected Docs gone, got %v", err)
	}
	if _, err := engine.GetFolder(ctx, owner, y2024.ID); !errors.Is(err, models.ErrFolderNotFound) {
		t.Errorf("expected 2024 gone, got %v", err)
	}

	// The sibling tree and its blob survive.
	if _, err := engine.GetFolder(ctx, owner, keep.ID); err != nil {
		t.Errorf("expected Keep to survive, got %v", err)
	}
	kept, err := engine.ListFolderChildren(ctx, owner, &keep.ID)
	if err != nil {
		t.Fatalf("ListFolderChildren failed: %v", err)
	}
	if len(kept.Files) != 1 {
		t.Errorf("expected k.txt to survive, got %d files", len(kept.Files))
	}
	if n := countBlobs(t, blobs); n != 1 {
		t.Errorf("expected 1 surviving blob, got %d", n)
	}

	// An empty folder counts just itself.
	empty, err := engine.CreateFolder(ctx, owner, "Empty", nil)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	deleted, err = engine.DeleteFolderTree(ctx, owner, empty.ID)
	if err != nil {
		t.Fatalf("DeleteFolderTree failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted row for empty folder, got %d", deleted)
	}

	missing := "00000000-0000-0000-0000-000000000000"
	if _, err := engine.DeleteFolderTree(ctx, owner, missing); !errors.Is(err, models.ErrFolderNotFound) {
		t.Errorf("expected ErrFolderNotFound, got %v", err)
	}
}

func TestDeleteFolderTreeDeep(t *testing.T) {
	engine, st, _ := newTestEngine(t)
	ctx := context.Background()
	owner := newTestOwner(t, st, "alice")

	// A 30-level chain exercises the worklist well past any comfortable
	// recursion depth for a test this size. Files go only into the first
	// ten levels: content cannot live below MaxFolderDepth, but empty
	// folders can, and the cascade must still clear all of them.
	const depth = 30
	const fileLevels = 10
	var parent *string
	for i := 0; i < depth; i++ {
		folder, err := engine.CreateFolder(ctx, owner, "level", parent)
		if err != nil {
			t.Fatalf("CreateFolder at depth %d failed: %v", i, err)
		}
		if i < fileLevels {
			if _, err := engine.UploadFile(ctx, owner, &folder.ID, "f.txt", "", strings.NewReader("x")); err != nil {
				t.Fatalf("UploadFile at depth %d failed: %v", i, err)
			}
		}
		parent = &folder.ID
	}

	children, err := engine.ListFolderChildren(ctx, owner, nil)
	if err != nil {
		t.Fatalf("ListFolderChildren failed: %v", err)
	}
	if len(children.Folders) != 1 {
		t.Fatalf("expected a single chain root, got %d folders", len(children.Folders))
	}

	deleted, err := engine.DeleteFolderTree(ctx, owner, children.Folders[0].ID)
	if err != nil {
		t.Fatalf("DeleteFolderTree failed: %v", err)
	}
	if deleted != depth+fileLevels {
		t.Errorf("expected %d deleted rows, got %d", depth+fileLevels, deleted)
	}
}

func TestUploadFileDepthLimit(t *testing.T) {
	engine, st, _ := newTestEngine(t)
	ctx := context.Background()
	owner := newTestOwner(t, st, "alice")

	// Build a chain one level past the limit. The folder at MaxFolderDepth
	// is the deepest that can hold content; its child cannot.
	var parent *string
	var atLimit, pastLimit string
	for i := 0; i < MaxFolderDepth+1; i++ {
		folder, err := engine.CreateFolder(ctx, owner, "level", parent)
		if err != nil {
			t.Fatalf("CreateFolder at depth %d failed: %v", i, err)
		}
		if i == MaxFolderDepth-1 {
			atLimit = folder.ID
		}
		parent = &folder.ID
	}
	pastLimit = *parent

	file, err := engine.UploadFile(ctx, owner, &atLimit, "ok.txt", "", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("UploadFile at the depth limit failed: %v", err)
	}
	if len(file.StoragePath) > blob.MaxKeyLength {
		t.Errorf("storage path length %d exceeds blob key limit %d", len(file.StoragePath), blob.MaxKeyLength)
	}

	if _, err := engine.UploadFile(ctx, owner, &pastLimit, "deep.txt", "", strings.NewReader("x")); !errors.Is(err, models.ErrFolderTooDeep) {
		t.Errorf("expected ErrFolderTooDeep past the depth limit, got %v", err)
	}
}

// disconnectingBlobStore mimics a networked backend under a vanishing
// client: the first Delete cancels the request context, and any Delete
// that still observes the cancellation fails like a remote call would.
type disconnectingBlobStore struct {
	blob.Store

	cancel  context.CancelFunc
	deletes int
}

func (s *disconnectingBlobStore) Delete(ctx context.Context, key string) error {
	s.deletes++
	s.cancel()
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.Delete(ctx, key)
}

func TestDeleteSurvivesClientDisconnect(t *testing.T) {
	newDisconnectingEngine := func(t *testing.T) (*Engine, *store.GORMStore, *blob.FSStore, *disconnectingBlobStore, context.Context) {
		t.Helper()
		_, st, blobs := newTestEngine(t)
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		wrapped := &disconnectingBlobStore{Store: blobs, cancel: cancel}
		engine, err := New(Config{Store: st, Blobs: wrapped})
		if err != nil {
			t.Fatalf("failed to create engine: %v", err)
		}
		return engine, st, blobs, wrapped, ctx
	}

	t.Run("folder cascade", func(t *testing.T) {
		engine, st, blobs, wrapped, ctx := newDisconnectingEngine(t)
		owner := newTestOwner(t, st, "alice")

		folder, err := engine.CreateFolder(ctx, owner, "docs", nil)
		if err != nil {
			t.Fatalf("CreateFolder failed: %v", err)
		}
		for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
			if _, err := engine.UploadFile(ctx, owner, &folder.ID, name, "", strings.NewReader("x")); err != nil {
				t.Fatalf("UploadFile %q failed: %v", name, err)
			}
		}

		deleted, err := engine.DeleteFolderTree(ctx, owner, folder.ID)
		if err != nil {
			t.Fatalf("DeleteFolderTree failed: %v", err)
		}
		if deleted != 4 {
			t.Errorf("expected 4 deleted rows, got %d", deleted)
		}
		if wrapped.deletes != 3 {
			t.Errorf("expected 3 blob deletes, got %d", wrapped.deletes)
		}
		if got := countBlobs(t, blobs); got != 0 {
			t.Errorf("expected no blobs left after cascade, got %d", got)
		}
	})

	t.Run("single file", func(t *testing.T) {
		engine, st, blobs, wrapped, ctx := newDisconnectingEngine(t)
		owner := newTestOwner(t, st, "bob")

		file, err := engine.UploadFile(ctx, owner, nil, "doomed.txt", "", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("UploadFile failed: %v", err)
		}

		if _, err := engine.DeleteFile(ctx, owner, file.ID); err != nil {
			t.Fatalf("DeleteFile failed: %v", err)
		}
		if wrapped.deletes != 1 {
			t.Errorf("expected 1 blob delete, got %d", wrapped.deletes)
		}
		if got := countBlobs(t, blobs); got != 0 {
			t.Errorf("expected no blobs left after delete, got %d", got)
		}
	})
}
