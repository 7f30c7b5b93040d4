// Package blob stores file content as opaque blobs addressed by
// slash-separated keys.
//
// Keys are built by the drive engine from internal identifiers (owner ID,
// folder ID chain, random token), never from user-supplied names, so a
// rename or move in the folder tree never relocates a blob. Implementations
// must still validate keys defensively: empty keys, absolute paths,
// traversal segments and NUL bytes are rejected before touching storage.
//
// Two backends exist: a local filesystem store (FSStore, the default) and
// an S3-compatible object store (S3Store).
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/marmos91/dittodrive/pkg/metrics"
)

const (
	// CopyBufferSize is the chunk size for streaming blob transfers.
	// Content is hashed chunk by chunk so uploads of any size run in
	// constant memory.
	CopyBufferSize = 1 * 1024 * 1024

	// MaxKeyLength bounds blob keys; matches the storage_path column width.
	MaxKeyLength = 1024
)

var (
	// ErrBlobNotFound is returned when no blob is stored under a key.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrEmptyKey is returned for empty blob keys.
	ErrEmptyKey = errors.New("blob key cannot be empty")

	// ErrInvalidKey is returned for keys that are absolute, contain
	// traversal segments, NUL bytes, or are otherwise unsafe as paths.
	ErrInvalidKey = errors.New("invalid blob key")

	// ErrKeyTooLong is returned for keys longer than MaxKeyLength.
	ErrKeyTooLong = errors.New("blob key exceeds maximum length")
)

// WriteResult describes a completed blob write.
type WriteResult struct {
	// Size is the number of content bytes written.
	Size int64

	// SHA256 is the lowercase hex digest of the content, computed
	// incrementally during the write.
	SHA256 string
}

// Store is the content backend used by the drive engine.
//
// All operations are safe for concurrent use. Write must be all-or-nothing:
// after a failed or cancelled write no partial blob may remain under the key.
type Store interface {
	// Write streams r into the blob identified by key and returns the
	// byte count and SHA-256 digest of what was stored.
	Write(ctx context.Context, key string, r io.Reader) (WriteResult, error)

	// Open returns a reader for the blob's content. The caller must close
	// it. Returns ErrBlobNotFound if no blob exists under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a blob is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}

// validateKey rejects keys that could escape the storage root or confuse
// the backend. Engine-built keys always pass; this is the safety net for
// everything else.
func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}

	if strings.HasPrefix(key, "/") {
		return fmt.Errorf("absolute keys are not allowed: %w", ErrInvalidKey)
	}

	if strings.Contains(key, "..") {
		return fmt.Errorf("traversal segments are not allowed: %w", ErrInvalidKey)
	}

	if strings.ContainsAny(key, "\x00\\") {
		return fmt.Errorf("key contains forbidden characters: %w", ErrInvalidKey)
	}

	// A clean relative key survives path.Clean unchanged; this catches
	// "./", trailing and doubled slashes in one check.
	if path.Clean(key) != key {
		return fmt.Errorf("key must be a clean relative path: %w", ErrInvalidKey)
	}

	return nil
}

// contextReader makes io.CopyBuffer abort between chunks once ctx is
// cancelled; io.Copy itself never looks at the context.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

// countingReadCloser records the bytes actually handed to the caller when
// the reader is closed. Download handlers close the body even on partial
// sends, so the counter reflects real transfer volume.
type countingReadCloser struct {
	io.ReadCloser

	n       int64
	backend string
	metrics metrics.StorageMetrics
}

func (c *countingReadCloser) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReadCloser) Close() error {
	if c.metrics != nil {
		c.metrics.RecordBlobBytes(c.backend, "read", c.n)
	}
	return c.ReadCloser.Close()
}
