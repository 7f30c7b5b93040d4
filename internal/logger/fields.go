package logger

import "log/slog"

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so that logs remain
// queryable after aggregation.
const (
	// Distributed tracing
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// HTTP request
	KeyRequestID = "request_id" // Request ID assigned by the router middleware
	KeyMethod    = "method"     // HTTP method
	KeyRoute     = "route"      // Matched route pattern
	KeyStatus    = "status"     // HTTP response status code
	KeyClientIP  = "client_ip"  // Client IP address

	// Drive entities
	KeyOwnerID     = "owner_id"     // Owning principal of a folder/file
	KeyFolderID    = "folder_id"    // Folder identifier
	KeyParentID    = "parent_id"    // Parent folder identifier
	KeyFileID      = "file_id"      // File identifier
	KeyName        = "name"         // Folder or file display name
	KeyMimeType    = "mime_type"    // File MIME type
	KeySize        = "size"         // Size in bytes
	KeyStoragePath = "storage_path" // Relative blob key
	KeyDeleted     = "deleted"      // Rows removed by a delete operation

	// Blob store
	KeyBackend = "backend" // Blob backend type: local, s3
	KeyBucket  = "bucket"  // S3 bucket name
	KeyKey     = "key"     // Object key in the blob store

	// Operation metadata
	KeyOperation  = "operation"   // Engine operation name
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyBytes      = "bytes"       // Bytes transferred
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// RequestID returns a slog.Attr for the router-assigned request ID
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Status returns a slog.Attr for HTTP response status
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// OwnerID returns a slog.Attr for the owning principal
func OwnerID(id string) slog.Attr {
	return slog.String(KeyOwnerID, id)
}

// FolderID returns a slog.Attr for a folder identifier
func FolderID(id string) slog.Attr {
	return slog.String(KeyFolderID, id)
}

// FileID returns a slog.Attr for a file identifier
func FileID(id string) slog.Attr {
	return slog.String(KeyFileID, id)
}

// Name returns a slog.Attr for a folder or file name
func Name(name string) slog.Attr {
	return slog.String(KeyName, name)
}

// Size returns a slog.Attr for a size in bytes
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// StoragePath returns a slog.Attr for a relative blob key
func StoragePath(p string) slog.Attr {
	return slog.String(KeyStoragePath, p)
}

// Deleted returns a slog.Attr for rows removed by a delete
func Deleted(n int64) slog.Attr {
	return slog.Int64(KeyDeleted, n)
}

// Backend returns a slog.Attr for the blob backend type
func Backend(t string) slog.Attr {
	return slog.String(KeyBackend, t)
}

// Bucket returns a slog.Attr for an S3 bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Key returns a slog.Attr for an object key in the blob store
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// Operation returns a slog.Attr for an engine operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
