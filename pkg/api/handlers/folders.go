package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/dittodrive/pkg/api/middleware"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/models"
)

// FolderHandler handles folder management API endpoints.
type FolderHandler struct {
	engine *drive.Engine
}

// NewFolderHandler creates a new FolderHandler.
func NewFolderHandler(engine *drive.Engine) *FolderHandler {
	return &FolderHandler{engine: engine}
}

// CreateFolderRequest is the request body for POST /api/fs/folders.
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// UpdateFolderRequest is the request body for PATCH /api/fs/folders/{folder_id}.
//
// Omitting parent_id leaves the folder where it is; an explicit null moves
// it to the root level.
type UpdateFolderRequest struct {
	Name     *string    `json:"name,omitempty"`
	ParentID OptionalID `json:"parent_id,omitzero"`
}

// DeleteResponse is the response body for DELETE endpoints.
type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// Create handles POST /api/fs/folders.
// Creates a folder for the authenticated user, optionally under a parent.
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	var req CreateFolderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := models.ValidateName(req.Name); err != nil {
		BadRequest(w, err.Error())
		return
	}

	folder, err := h.engine.CreateFolder(r.Context(), user.ID, req.Name, req.ParentID)
	if err != nil {
		writeDriveError(w, r, err)
		return
	}

	WriteJSONCreated(w, folder)
}

// Get handles GET /api/fs/folders/{folder_id}.
func (h *FolderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	folderID := chi.URLParam(r, "folder_id")
	if folderID == "" {
		BadRequest(w, "Folder ID is required")
		return
	}

	folder, err := h.engine.GetFolder(r.Context(), user.ID, folderID)
	if err != nil {
		writeDriveError(w, r, err)
		return
	}

	WriteJSONOK(w, folder)
}

// Update handles PATCH /api/fs/folders/{folder_id}.
// Renames and/or moves a folder. Moves run the subtree guard, so moving a
// folder under itself or a descendant is rejected.
func (h *FolderHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	folderID := chi.URLParam(r, "folder_id")
	if folderID == "" {
		BadRequest(w, "Folder ID is required")
		return
	}

	var req UpdateFolderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Name != nil {
		if err := models.ValidateName(*req.Name); err != nil {
			BadRequest(w, err.Error())
			return
		}
	}

	patch := drive.FolderPatch{Name: req.Name}
	if req.ParentID.Set {
		patch.SetParent = true
		patch.Parent = req.ParentID.Value
	}

	folder, err := h.engine.UpdateFolder(r.Context(), user.ID, folderID, patch)
	if err != nil {
		writeDriveError(w, r, err)
		return
	}

	WriteJSONOK(w, folder)
}

// Delete handles DELETE /api/fs/folders/{folder_id}.
// Removes the folder and everything beneath it, returning the number of
// folder and file records removed.
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	folderID := chi.URLParam(r, "folder_id")
	if folderID == "" {
		BadRequest(w, "Folder ID is required")
		return
	}

	deleted, err := h.engine.DeleteFolderTree(r.Context(), user.ID, folderID)
	if err != nil {
		writeDriveError(w, r, err)
		return
	}

	WriteJSONOK(w, DeleteResponse{Deleted: deleted})
}

// Children handles GET /api/fs/folders/{folder_id}/children.
// Lists the immediate subfolders and files, newest first.
func (h *FolderHandler) Children(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	folderID := chi.URLParam(r, "folder_id")
	if folderID == "" {
		BadRequest(w, "Folder ID is required")
		return
	}

	children, err := h.engine.ListFolderChildren(r.Context(), user.ID, &folderID)
	if err != nil {
		writeDriveError(w, r, err)
		return
	}

	WriteJSONOK(w, children)
}

// RootChildren handles GET /api/fs/root/children.
// Lists the user's root-level folders and files, newest first.
func (h *FolderHandler) RootChildren(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	children, err := h.engine.ListFolderChildren(r.Context(), user.ID, nil)
	if err != nil {
		writeDriveError(w, r, err)
		return
	}

	WriteJSONOK(w, children)
}
