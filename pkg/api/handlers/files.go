package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/api/middleware"
	"github.com/marmos91/dittodrive/pkg/bufpool"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/models"
)

// multipartMemoryLimit is how much of a multipart body is held in memory
// before spilling to temporary files.
const multipartMemoryLimit = 32 << 20 // 32 MiB

// FileHandler handles file management API endpoints.
type FileHandler struct {
	engine *drive.Engine

	// maxUploadSize caps the accepted request body for uploads in bytes.
	// Zero means no limit.
	maxUploadSize int64
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(engine *drive.Engine, maxUploadSize int64) *FileHandler {
	return &FileHandler{
		engine:        engine,
		maxUploadSize: maxUploadSize,
	}
}

// UpdateFileRequest is the request body for PATCH /api/fs/files/{file_id}.
//
// Omitting folder_id leaves the file where it is; an explicit null moves it
// to the root level.
type UpdateFileRequest struct {
	Name     *string    `json:"name,omitempty"`
	FolderID OptionalID `json:"folder_id,omitzero"`
}

// Upload handles POST /api/fs/files.
//
// Expects a multipart form with a "file" part and an optional "folder_id"
// field. The content is streamed into the blob store and hashed on the way;
// the file's blob location is derived from the folder chain, never from the
// client-supplied filename.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteProblem(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
				"Upload exceeds the maximum allowed size of "+strconv.FormatInt(maxBytesErr.Limit, 10)+" bytes")
			return
		}
		BadRequest(w, "Invalid multipart form")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.WarnCtx(r.Context(), "failed to clean up multipart temp files", "error", err)
		}
	}()

	part, header, err := r.FormFile("file")
	if err != nil {
		BadRequest(w, "Multipart form must contain a \"file\" part")
		return
	}
	defer func() { _ = part.Close() }()

	var folderID *string
	if v := r.FormValue("folder_id"); v != "" {
		folderID = &v
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	file, err := h.engine.UploadFile(r.Context(), user.ID, folderID, header.Filename, mimeType, part)
	if err != nil {
		writeDriveError(w, r, err)
		return
	}

	WriteJSONCreated(w, file)
}

// Get handles GET /api/fs/files/{file_id}.
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	fileID := chi.URLParam(r, "file_id")
	if fileID == "" {
		BadRequest(w, "File ID is required")
		return
	}

	file, err := h.engine.GetFile(r.Context(), user.ID, fileID)
	if err != nil {
		writeDriveError(w, r, err)
		return
	}

	WriteJSONOK(w, file)
}

// Update handles PATCH /api/fs/files/{file_id}.
// Renames and/or moves a file. The stored blob never moves.
func (h *FileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	fileID := chi.URLParam(r, "file_id")
	if fileID == "" {
		BadRequest(w, "File ID is required")
		return
	}

	var req UpdateFileRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Name != nil {
		if err := models.ValidateName(*req.Name); err != nil {
			BadRequest(w, err.Error())
			return
		}
	}

	patch := drive.FilePatch{Name: req.Name}
	if req.FolderID.Set {
		patch.SetFolder = true
		patch.Folder = req.FolderID.Value
	}

	file, err := h.engine.UpdateFile(r.Context(), user.ID, fileID, patch)
	if err != nil {
		writeDriveError(w, r, err)
		return
	}

	WriteJSONOK(w, file)
}

// Delete handles DELETE /api/fs/files/{file_id}.
// Removes the metadata record and, best-effort, the stored blob.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	fileID := chi.URLParam(r, "file_id")
	if fileID == "" {
		BadRequest(w, "File ID is required")
		return
	}

	deleted, err := h.engine.DeleteFile(r.Context(), user.ID, fileID)
	if err != nil {
		writeDriveError(w, r, err)
		return
	}

	WriteJSONOK(w, DeleteResponse{Deleted: deleted})
}

// Download handles GET /api/fs/files/{file_id}/download.
// Streams the blob back with the stored content type and an attachment
// disposition carrying the current (possibly renamed) filename.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	fileID := chi.URLParam(r, "file_id")
	if fileID == "" {
		BadRequest(w, "File ID is required")
		return
	}

	file, content, err := h.engine.OpenFileContent(r.Context(), user.ID, fileID)
	if err != nil {
		writeDriveError(w, r, err)
		return
	}
	defer func() { _ = content.Close() }()

	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.WriteHeader(http.StatusOK)

	buf := bufpool.Get(bufpool.DefaultLargeSize)
	defer bufpool.Put(buf)
	if _, err := io.CopyBuffer(w, content, buf); err != nil {
		// Headers are gone; all we can do is log the broken download.
		logger.WarnCtx(r.Context(), "file download interrupted",
			"file_id", file.ID,
			"error", err,
		)
	}
}
