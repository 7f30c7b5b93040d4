package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/blob"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/models"
)

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns true if successful, false if decoding fails (error response is written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// OptionalID is a nullable ID field for PATCH bodies that distinguishes an
// omitted key from an explicit null:
//
//   - key omitted:        Set == false              -> leave unchanged
//   - key present, null:  Set == true, Value == nil -> move to root
//   - key present, value: Set == true, Value != nil -> move there
type OptionalID struct {
	// Set reports whether the key appeared in the JSON document at all.
	Set bool

	// Value is the decoded ID, nil when the key was JSON null.
	Value *string
}

var jsonNull = []byte("null")

// UnmarshalJSON implements json.Unmarshaler. It only runs when the key is
// present in the document, which is what makes the omitted/null distinction
// observable.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// MarshalJSON implements json.Marshaler so request DTOs round-trip in tests.
func (o OptionalID) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return jsonNull, nil
	}
	return json.Marshal(*o.Value)
}

// writeDriveError maps storage engine errors onto problem responses.
//
// Corruption and unclassified failures deliberately produce a generic 500
// detail; the specifics are logged server-side only.
func writeDriveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrFolderNotFound):
		NotFound(w, "Folder not found")
	case errors.Is(err, models.ErrParentFolderNotFound):
		NotFound(w, "Parent folder not found")
	case errors.Is(err, models.ErrFileNotFound):
		NotFound(w, "File not found")
	case errors.Is(err, blob.ErrBlobNotFound):
		NotFound(w, "File content not found")
	case errors.Is(err, models.ErrDuplicateFolder):
		Conflict(w, "A folder with this name already exists here")
	case errors.Is(err, models.ErrDuplicateFile):
		Conflict(w, "A file with this name already exists here")
	case errors.Is(err, models.ErrInvalidMove):
		BadRequest(w, "Cannot move a folder into itself or its own subtree")
	case errors.Is(err, models.ErrFolderTooDeep), errors.Is(err, blob.ErrKeyTooLong):
		BadRequest(w, fmt.Sprintf("Folders nested deeper than %d levels cannot hold files", drive.MaxFolderDepth))
	case errors.Is(err, models.ErrCorruptTree):
		logger.ErrorCtx(r.Context(), "folder tree corruption detected", "error", err)
		InternalServerError(w, "Folder tree is inconsistent")
	default:
		logger.ErrorCtx(r.Context(), "storage operation failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		InternalServerError(w, "Storage operation failed")
	}
}
