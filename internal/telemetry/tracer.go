package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for drive operations.
// These follow OpenTelemetry semantic conventions where applicable.
// Domain keys use "drive." prefix, backend-specific keys use their own prefix.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// ========================================================================
	// HTTP attributes
	// ========================================================================
	AttrHTTPMethod = "http.request.method"
	AttrHTTPRoute  = "http.route"
	AttrHTTPStatus = "http.response.status_code"

	// ========================================================================
	// Drive domain attributes
	// ========================================================================
	AttrOperation = "drive.operation" // Engine operation name
	AttrOwnerID   = "drive.owner_id"  // Owning user ID
	AttrFolderID  = "drive.folder_id" // Folder record ID
	AttrParentID  = "drive.parent_id" // Parent folder ID
	AttrFileID    = "drive.file_id"   // File record ID
	AttrName      = "drive.name"      // Folder or file display name
	AttrMimeType  = "drive.mime_type" // File MIME type
	AttrSize      = "drive.size"      // File size in bytes
	AttrDeleted   = "drive.deleted"   // Rows removed by a delete

	// ========================================================================
	// User/Auth attributes
	// ========================================================================
	AttrUserID   = "user.id"
	AttrUsername = "user.name"
	AttrAuth     = "auth.method"

	// ========================================================================
	// Metadata store attributes
	// ========================================================================
	AttrStoreType = "store.type" // sqlite, postgres

	// ========================================================================
	// Blob storage attributes
	// ========================================================================
	AttrBackend = "storage.backend" // fs, s3
	AttrBucket  = "storage.bucket"
	AttrKey     = "storage.key"
	AttrRegion  = "storage.region"
	AttrBytes   = "storage.bytes" // Bytes transferred to/from the backend
)

// Span names for operations.
// Format: <component>.<operation>
const (
	// ========================================================================
	// HTTP spans
	// ========================================================================

	// Root span for HTTP request processing
	SpanHTTPRequest = "http.request"

	// ========================================================================
	// Drive engine spans
	// ========================================================================
	SpanDriveCreateFolder = "drive.create_folder"
	SpanDriveGetFolder    = "drive.get_folder"
	SpanDriveListChildren = "drive.list_children"
	SpanDriveUpdateFolder = "drive.update_folder"
	SpanDriveDeleteFolder = "drive.delete_folder"
	SpanDriveUploadFile   = "drive.upload_file"
	SpanDriveGetFile      = "drive.get_file"
	SpanDriveDownload     = "drive.download_file"
	SpanDriveUpdateFile   = "drive.update_file"
	SpanDriveDeleteFile   = "drive.delete_file"

	// ========================================================================
	// Metadata store spans
	// ========================================================================
	SpanStoreLookup = "store.lookup"
	SpanStoreCreate = "store.create"
	SpanStoreUpdate = "store.update"
	SpanStoreDelete = "store.delete"

	// ========================================================================
	// Blob storage spans
	// ========================================================================
	SpanBlobWrite  = "blob.write"
	SpanBlobOpen   = "blob.open"
	SpanBlobDelete = "blob.delete"
	SpanBlobExists = "blob.exists"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for full client address
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// HTTPMethod returns an attribute for HTTP request method
func HTTPMethod(method string) attribute.KeyValue {
	return attribute.String(AttrHTTPMethod, method)
}

// HTTPRoute returns an attribute for the matched HTTP route pattern
func HTTPRoute(route string) attribute.KeyValue {
	return attribute.String(AttrHTTPRoute, route)
}

// HTTPStatus returns an attribute for HTTP response status code
func HTTPStatus(status int) attribute.KeyValue {
	return attribute.Int(AttrHTTPStatus, status)
}

// Operation returns an attribute for engine operation name
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// OwnerID returns an attribute for owning user ID
func OwnerID(id string) attribute.KeyValue {
	return attribute.String(AttrOwnerID, id)
}

// FolderID returns an attribute for folder record ID
func FolderID(id string) attribute.KeyValue {
	return attribute.String(AttrFolderID, id)
}

// ParentID returns an attribute for parent folder ID
func ParentID(id string) attribute.KeyValue {
	return attribute.String(AttrParentID, id)
}

// FileID returns an attribute for file record ID
func FileID(id string) attribute.KeyValue {
	return attribute.String(AttrFileID, id)
}

// Name returns an attribute for folder or file display name
func Name(name string) attribute.KeyValue {
	return attribute.String(AttrName, name)
}

// MimeType returns an attribute for file MIME type
func MimeType(mime string) attribute.KeyValue {
	return attribute.String(AttrMimeType, mime)
}

// Size returns an attribute for file size in bytes
func Size(size int64) attribute.KeyValue {
	return attribute.Int64(AttrSize, size)
}

// Deleted returns an attribute for rows removed by a delete
func Deleted(n int64) attribute.KeyValue {
	return attribute.Int64(AttrDeleted, n)
}

// UserID returns an attribute for user ID
func UserID(id string) attribute.KeyValue {
	return attribute.String(AttrUserID, id)
}

// Username returns an attribute for username
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// AuthMethod returns an attribute for authentication method
func AuthMethod(method string) attribute.KeyValue {
	return attribute.String(AttrAuth, method)
}

// StoreType returns an attribute for metadata store type
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// Backend returns an attribute for blob storage backend
func Backend(name string) attribute.KeyValue {
	return attribute.String(AttrBackend, name)
}

// Bucket returns an attribute for S3 bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for blob storage key
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// Region returns an attribute for cloud region
func Region(region string) attribute.KeyValue {
	return attribute.String(AttrRegion, region)
}

// Bytes returns an attribute for bytes transferred
func Bytes(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBytes, n)
}

// StartDriveSpan starts a span for a drive engine operation.
// This is a convenience function that sets common attributes.
func StartDriveSpan(ctx context.Context, operation, ownerID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Operation(operation),
	}
	if ownerID != "" {
		allAttrs = append(allAttrs, OwnerID(ownerID))
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "drive."+operation, trace.WithAttributes(allAttrs...))
}

// StartStoreSpan starts a span for a metadata store operation.
func StartStoreSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "store."+operation, trace.WithAttributes(attrs...))
}

// StartBlobSpan starts a span for a blob storage operation.
func StartBlobSpan(ctx context.Context, operation, key string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		StorageKey(key),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "blob."+operation, trace.WithAttributes(allAttrs...))
}
