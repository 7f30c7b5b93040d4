//go:build integration

package handlers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/models"
)

// multipartUpload builds a multipart body with an optional folder_id field
// and a single file part.
func multipartUpload(t *testing.T, folderID *string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if folderID != nil {
		if err := mw.WriteField("folder_id", *folderID); err != nil {
			t.Fatalf("Failed to write folder_id field: %v", err)
		}
	}

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create file part: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write file content: %v", err)
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	return &buf, mw.FormDataContentType()
}

func TestFileHandler_Upload(t *testing.T) {
	env := setupDriveTest(t)
	handler := NewFileHandler(env.engine, 0)
	protected := env.protect(handler.Upload)

	folder := mustCreateFolder(t, env, "uploads", nil)

	upload := func(t *testing.T, folderID *string, filename, content string) *httptest.ResponseRecorder {
		t.Helper()
		body, contentType := multipartUpload(t, folderID, filename, content)
		req := env.newRequest(http.MethodPost, "/api/fs/files", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		return w
	}

	t.Run("upload to root", func(t *testing.T) {
		content := "hello dittodrive"
		w := upload(t, nil, "hello.txt", content)

		if w.Code != http.StatusCreated {
			t.Fatalf("Upload() status = %d, want %d, body = %s", w.Code, http.StatusCreated, w.Body.String())
		}

		var resp models.FileObject
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if resp.ID == "" {
			t.Error("Expected file ID to be set")
		}
		if resp.Name != "hello.txt" {
			t.Errorf("Expected name 'hello.txt', got %q", resp.Name)
		}
		if resp.FolderID != nil {
			t.Error("Expected a root-level file")
		}
		if resp.Size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), resp.Size)
		}

		sum := sha256.Sum256([]byte(content))
		if resp.SHA256 != hex.EncodeToString(sum[:]) {
			t.Errorf("Expected checksum %s, got %s", hex.EncodeToString(sum[:]), resp.SHA256)
		}
	})

	t.Run("upload into folder", func(t *testing.T) {
		w := upload(t, &folder.ID, "nested.txt", "nested content")

		if w.Code != http.StatusCreated {
			t.Fatalf("Upload() status = %d, want %d, body = %s", w.Code, http.StatusCreated, w.Body.String())
		}

		var resp models.FileObject
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if resp.FolderID == nil || *resp.FolderID != folder.ID {
			t.Error("Expected file to land in the target folder")
		}
	})

	t.Run("duplicate name in same folder", func(t *testing.T) {
		w := upload(t, &folder.ID, "nested.txt", "different content")

		if w.Code != http.StatusConflict {
			t.Errorf("Upload() status = %d, want %d, body = %s", w.Code, http.StatusConflict, w.Body.String())
		}
	})

	t.Run("unknown folder", func(t *testing.T) {
		w := upload(t, strPtr("00000000-0000-0000-0000-000000000000"), "lost.txt", "content")

		if w.Code != http.StatusNotFound {
			t.Errorf("Upload() status = %d, want %d, body = %s", w.Code, http.StatusNotFound, w.Body.String())
		}
	})

	t.Run("folder too deep", func(t *testing.T) {
		deep := folder
		for i := 1; i < drive.MaxFolderDepth+1; i++ {
			deep = mustCreateFolder(t, env, fmt.Sprintf("deep-%d", i), &deep.ID)
		}

		w := upload(t, &deep.ID, "buried.txt", "content")

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Upload() status = %d, want %d, body = %s", w.Code, http.StatusBadRequest, w.Body.String())
		}
		var problem Problem
		if err := json.Unmarshal(w.Body.Bytes(), &problem); err != nil {
			t.Fatalf("Failed to unmarshal problem response: %v", err)
		}
		if !strings.Contains(problem.Detail, fmt.Sprintf("%d levels", drive.MaxFolderDepth)) {
			t.Errorf("Expected detail to state the depth limit, got %q", problem.Detail)
		}
	})

	t.Run("missing file part", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		if err := mw.WriteField("folder_id", folder.ID); err != nil {
			t.Fatalf("Failed to write field: %v", err)
		}
		if err := mw.Close(); err != nil {
			t.Fatalf("Failed to close writer: %v", err)
		}

		req := env.newRequest(http.MethodPost, "/api/fs/files", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Upload() status = %d, want %d, body = %s", w.Code, http.StatusBadRequest, w.Body.String())
		}
	})

	t.Run("not multipart", func(t *testing.T) {
		req := env.newRequest(http.MethodPost, "/api/fs/files", strings.NewReader("plain body"))
		req.Header.Set("Content-Type", "text/plain")
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Upload() status = %d, want %d, body = %s", w.Code, http.StatusBadRequest, w.Body.String())
		}
	})
}

func TestFileHandler_Upload_TooLarge(t *testing.T) {
	env := setupDriveTest(t)

	// Cap the body below the size of the multipart envelope
	handler := NewFileHandler(env.engine, 64)
	protected := env.protect(handler.Upload)

	body, contentType := multipartUpload(t, nil, "big.bin", strings.Repeat("x", 4096))
	req := env.newRequest(http.MethodPost, "/api/fs/files", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	protected.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Upload() status = %d, want %d, body = %s", w.Code, http.StatusRequestEntityTooLarge, w.Body.String())
	}
}

func TestFileHandler_Get(t *testing.T) {
	env := setupDriveTest(t)
	handler := NewFileHandler(env.engine, 0)
	protected := env.protect(handler.Get)

	file := mustUploadFile(t, env, "get-me.txt", nil, "content")

	tests := []struct {
		name       string
		fileID     string
		wantStatus int
	}{
		{
			name:       "existing file",
			fileID:     file.ID,
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown file",
			fileID:     "00000000-0000-0000-0000-000000000000",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := env.newRequest(http.MethodGet, "/api/fs/files/"+tt.fileID, nil)
			req = withURLParam(req, "file_id", tt.fileID)
			w := httptest.NewRecorder()

			protected.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Get() status = %d, want %d, body = %s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus == http.StatusOK {
				var resp models.FileObject
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("Failed to unmarshal response: %v", err)
				}
				if resp.Name != "get-me.txt" {
					t.Errorf("Expected name 'get-me.txt', got %q", resp.Name)
				}
			}
		})
	}
}

func TestFileHandler_Update(t *testing.T) {
	env := setupDriveTest(t)
	handler := NewFileHandler(env.engine, 0)
	protected := env.protect(handler.Update)

	patchFile := func(t *testing.T, fileID, body string) *httptest.ResponseRecorder {
		t.Helper()
		req := env.newRequest(http.MethodPatch, "/api/fs/files/"+fileID, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = withURLParam(req, "file_id", fileID)
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		return w
	}

	t.Run("rename keeps folder", func(t *testing.T) {
		folder := mustCreateFolder(t, env, "rename-folder", nil)
		file := mustUploadFile(t, env, "before.txt", &folder.ID, "content")

		w := patchFile(t, file.ID, `{"name":"after.txt"}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Update() status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
		}

		var resp models.FileObject
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if resp.Name != "after.txt" {
			t.Errorf("Expected name 'after.txt', got %q", resp.Name)
		}
		if resp.FolderID == nil || *resp.FolderID != folder.ID {
			t.Error("Rename must not move the file")
		}
	})

	t.Run("move to another folder", func(t *testing.T) {
		dst := mustCreateFolder(t, env, "move-dst-folder", nil)
		file := mustUploadFile(t, env, "movable.txt", nil, "content")

		w := patchFile(t, file.ID, fmt.Sprintf(`{"folder_id":%q}`, dst.ID))

		if w.Code != http.StatusOK {
			t.Fatalf("Update() status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
		}

		var resp models.FileObject
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if resp.FolderID == nil || *resp.FolderID != dst.ID {
			t.Error("Expected file to move into destination folder")
		}
	})

	t.Run("null folder moves to root", func(t *testing.T) {
		folder := mustCreateFolder(t, env, "null-folder", nil)
		file := mustUploadFile(t, env, "rooted.txt", &folder.ID, "content")

		w := patchFile(t, file.ID, `{"folder_id":null}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Update() status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
		}

		var resp models.FileObject
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if resp.FolderID != nil {
			t.Error("Expected file to move to the root level")
		}
	})

	t.Run("omitted folder stays put", func(t *testing.T) {
		folder := mustCreateFolder(t, env, "omit-folder", nil)
		file := mustUploadFile(t, env, "steady.txt", &folder.ID, "content")

		w := patchFile(t, file.ID, `{"name":"steady-renamed.txt"}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Update() status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
		}

		var resp models.FileObject
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if resp.FolderID == nil || *resp.FolderID != folder.ID {
			t.Error("Omitted folder_id must leave the file in place")
		}
	})

	t.Run("rename onto sibling", func(t *testing.T) {
		mustUploadFile(t, env, "taken.txt", nil, "content")
		file := mustUploadFile(t, env, "renaming.txt", nil, "content two")

		w := patchFile(t, file.ID, `{"name":"taken.txt"}`)

		if w.Code != http.StatusConflict {
			t.Errorf("Update() status = %d, want %d, body = %s", w.Code, http.StatusConflict, w.Body.String())
		}
	})

	t.Run("move to unknown folder", func(t *testing.T) {
		file := mustUploadFile(t, env, "stuck.txt", nil, "content")

		w := patchFile(t, file.ID, `{"folder_id":"00000000-0000-0000-0000-000000000000"}`)

		if w.Code != http.StatusNotFound {
			t.Errorf("Update() status = %d, want %d, body = %s", w.Code, http.StatusNotFound, w.Body.String())
		}
	})

	t.Run("unknown file", func(t *testing.T) {
		w := patchFile(t, "00000000-0000-0000-0000-000000000000", `{"name":"nope.txt"}`)

		if w.Code != http.StatusNotFound {
			t.Errorf("Update() status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestFileHandler_Delete(t *testing.T) {
	env := setupDriveTest(t)
	handler := NewFileHandler(env.engine, 0)
	protected := env.protect(handler.Delete)

	t.Run("deletes file", func(t *testing.T) {
		file := mustUploadFile(t, env, "doomed.txt", nil, "content")

		req := env.newRequest(http.MethodDelete, "/api/fs/files/"+file.ID, nil)
		req = withURLParam(req, "file_id", file.ID)
		w := httptest.NewRecorder()

		protected.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Delete() status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
		}

		var resp DeleteResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if resp.Deleted != 1 {
			t.Errorf("Expected 1 deleted record, got %d", resp.Deleted)
		}
	})

	t.Run("unknown file", func(t *testing.T) {
		req := env.newRequest(http.MethodDelete, "/api/fs/files/missing", nil)
		req = withURLParam(req, "file_id", "00000000-0000-0000-0000-000000000000")
		w := httptest.NewRecorder()

		protected.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Delete() status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestFileHandler_Download(t *testing.T) {
	env := setupDriveTest(t)
	handler := NewFileHandler(env.engine, 0)
	protected := env.protect(handler.Download)

	content := "round trip payload"
	file := mustUploadFile(t, env, "payload.txt", nil, content)

	t.Run("streams content back", func(t *testing.T) {
		req := env.newRequest(http.MethodGet, "/api/fs/files/"+file.ID+"/download", nil)
		req = withURLParam(req, "file_id", file.ID)
		w := httptest.NewRecorder()

		protected.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Download() status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
		}
		if got := w.Body.String(); got != content {
			t.Errorf("Expected body %q, got %q", content, got)
		}
		if ct := w.Header().Get("Content-Type"); ct != "text/plain" {
			t.Errorf("Expected Content-Type 'text/plain', got %q", ct)
		}
		if cl := w.Header().Get("Content-Length"); cl != fmt.Sprint(len(content)) {
			t.Errorf("Expected Content-Length %d, got %q", len(content), cl)
		}
		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "payload.txt") {
			t.Errorf("Expected Content-Disposition with filename, got %q", cd)
		}
	})

	t.Run("disposition follows rename", func(t *testing.T) {
		patch := drive.FilePatch{Name: strPtr("renamed.txt")}
		if _, err := env.engine.UpdateFile(context.Background(), env.user.ID, file.ID, patch); err != nil {
			t.Fatalf("Failed to rename file: %v", err)
		}

		req := env.newRequest(http.MethodGet, "/api/fs/files/"+file.ID+"/download", nil)
		req = withURLParam(req, "file_id", file.ID)
		w := httptest.NewRecorder()

		protected.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Download() status = %d, want %d", w.Code, http.StatusOK)
		}
		if got := w.Body.String(); got != content {
			t.Error("Rename must not touch the stored content")
		}
		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "renamed.txt") {
			t.Errorf("Expected disposition with new name, got %q", cd)
		}
	})

	t.Run("unknown file", func(t *testing.T) {
		req := env.newRequest(http.MethodGet, "/api/fs/files/missing/download", nil)
		req = withURLParam(req, "file_id", "00000000-0000-0000-0000-000000000000")
		w := httptest.NewRecorder()

		protected.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Download() status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}
