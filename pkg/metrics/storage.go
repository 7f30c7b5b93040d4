package metrics

import (
	"time"
)

// StorageMetrics provides observability for blob storage and drive engine
// operations.
//
// Implementations can collect metrics about blob I/O, upload rollbacks and
// cascading deletes. This interface is optional - pass nil to disable metrics
// collection with zero overhead.
type StorageMetrics interface {
	// ObserveBlobOperation records a completed blob store operation.
	//
	// Parameters:
	//   - backend: Blob backend name ("fs" or "s3")
	//   - operation: Operation name ("write", "open", "delete", "exists")
	//   - duration: Time taken by the operation
	//   - err: Error if the operation failed, nil on success
	ObserveBlobOperation(backend string, operation string, duration time.Duration, err error)

	// RecordBlobBytes records bytes written to or read from the blob backend.
	//
	// Parameters:
	//   - backend: Blob backend name ("fs" or "s3")
	//   - direction: "read" or "write"
	//   - bytes: Number of bytes transferred
	RecordBlobBytes(backend string, direction string, bytes int64)

	// RecordUploadRollback increments the counter of uploads whose blob was
	// removed again because the metadata insert failed.
	RecordUploadRollback()

	// RecordCascadeDelete records a completed folder tree delete.
	//
	// Parameters:
	//   - rows: Total number of folder and file rows removed
	//   - duration: Time taken by the delete
	RecordCascadeDelete(rows int64, duration time.Duration)
}
