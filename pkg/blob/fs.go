package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/dittodrive/internal/telemetry"
	"github.com/marmos91/dittodrive/pkg/bufpool"
	"github.com/marmos91/dittodrive/pkg/metrics"
)

const (
	blobDirName = "blobs"
	tempDirName = "tmp"
)

// FSConfig configures the filesystem blob backend.
type FSConfig struct {
	// Root is the base directory. Blobs live under Root/blobs mirroring
	// their key paths; in-flight spool files live under Root/tmp.
	Root string

	// Metrics is an optional collector. Nil disables recording.
	Metrics metrics.StorageMetrics
}

// FSStore stores blobs as plain files under a root directory.
//
// Writes spool to a temp file on the same filesystem and are renamed into
// place, so a blob path either holds the complete content or nothing.
type FSStore struct {
	root    string
	metrics metrics.StorageMetrics
}

var _ Store = (*FSStore)(nil)

// NewFSStore creates the blobs/ and tmp/ directories under cfg.Root if
// they do not exist yet.
func NewFSStore(cfg FSConfig) (*FSStore, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("blob root directory is required")
	}

	root := filepath.Clean(cfg.Root)

	if err := os.MkdirAll(filepath.Join(root, blobDirName), 0755); err != nil {
		return nil, fmt.Errorf("failed to create blobs directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(root, tempDirName), 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &FSStore{
		root:    root,
		metrics: cfg.Metrics,
	}, nil
}

// Root returns the base directory of the store.
func (s *FSStore) Root() string {
	return s.root
}

// Write streams r into a spool file while hashing, then renames the spool
// file to the final blob path. On any failure, including context
// cancellation mid-copy, the spool file is removed and the final path is
// left untouched.
func (s *FSStore) Write(ctx context.Context, key string, r io.Reader) (result WriteResult, err error) {
	ctx, span := telemetry.StartBlobSpan(ctx, "write", key, telemetry.Backend("fs"))
	defer span.End()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveBlobOperation("fs", "write", time.Since(start), err)
			if err == nil {
				s.metrics.RecordBlobBytes("fs", "write", result.Size)
			}
		}
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err = validateKey(key); err != nil {
		return WriteResult{}, err
	}

	tmpPath := filepath.Join(s.root, tempDirName, uuid.New().String())
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to create spool file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	hasher := sha256.New()
	buf := bufpool.Get(CopyBufferSize)
	defer bufpool.Put(buf)
	size, err := io.CopyBuffer(io.MultiWriter(tmpFile, hasher), contextReader{ctx: ctx, r: r}, buf)
	if err != nil {
		_ = tmpFile.Close()
		return WriteResult{}, fmt.Errorf("failed to write blob %q: %w", key, err)
	}

	if err = tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return WriteResult{}, fmt.Errorf("failed to sync blob %q: %w", key, err)
	}
	if err = tmpFile.Close(); err != nil {
		return WriteResult{}, fmt.Errorf("failed to close blob %q: %w", key, err)
	}

	finalPath := s.dataPath(key)
	if err = os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		return WriteResult{}, fmt.Errorf("failed to create blob directory: %w", err)
	}
	// Rename is atomic within the same filesystem; tmp/ and blobs/ share
	// the root for exactly this reason.
	if err = os.Rename(tmpPath, finalPath); err != nil {
		return WriteResult{}, fmt.Errorf("failed to commit blob %q: %w", key, err)
	}

	result = WriteResult{
		Size:   size,
		SHA256: hex.EncodeToString(hasher.Sum(nil)),
	}
	return result, nil
}

// Open returns a reader over the blob file.
func (s *FSStore) Open(ctx context.Context, key string) (rc io.ReadCloser, err error) {
	ctx, span := telemetry.StartBlobSpan(ctx, "open", key, telemetry.Backend("fs"))
	defer span.End()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveBlobOperation("fs", "open", time.Since(start), err)
		}
		if err != nil && !errors.Is(err, ErrBlobNotFound) {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err = validateKey(key); err != nil {
		return nil, err
	}

	f, err := os.Open(s.dataPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("blob %q: %w", key, ErrBlobNotFound)
		}
		return nil, fmt.Errorf("failed to open blob %q: %w", key, err)
	}

	if s.metrics != nil {
		return &countingReadCloser{ReadCloser: f, backend: "fs", metrics: s.metrics}, nil
	}
	return f, nil
}

// Delete removes the blob file. Missing blobs are treated as already
// deleted. Empty directories left behind are pruned best-effort.
func (s *FSStore) Delete(ctx context.Context, key string) (err error) {
	ctx, span := telemetry.StartBlobSpan(ctx, "delete", key, telemetry.Backend("fs"))
	defer span.End()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveBlobOperation("fs", "delete", time.Since(start), err)
		}
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err = validateKey(key); err != nil {
		return err
	}

	dataPath := s.dataPath(key)
	if err = os.Remove(dataPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete blob %q: %w", key, err)
	}

	s.pruneEmptyDirs(filepath.Dir(dataPath))
	return nil
}

// Exists reports whether the blob file is present.
func (s *FSStore) Exists(ctx context.Context, key string) (bool, error) {
	_, span := telemetry.StartBlobSpan(ctx, "exists", key, telemetry.Backend("fs"))
	defer span.End()

	if err := validateKey(key); err != nil {
		return false, err
	}

	_, err := os.Stat(s.dataPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *FSStore) dataPath(key string) string {
	return filepath.Join(s.root, blobDirName, filepath.FromSlash(key))
}

// pruneEmptyDirs walks up from dir removing empty directories until it
// reaches the blobs root or a non-empty directory. Failures stop the walk
// but never surface: leftover empty directories are harmless.
func (s *FSStore) pruneEmptyDirs(dir string) {
	blobsDir := filepath.Join(s.root, blobDirName)

	for dir != blobsDir && dir != s.root && dir != "." && dir != "/" {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
