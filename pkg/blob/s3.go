package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/marmos91/dittodrive/internal/telemetry"
	"github.com/marmos91/dittodrive/pkg/bufpool"
	"github.com/marmos91/dittodrive/pkg/metrics"
)

// S3Config configures the S3 blob backend.
type S3Config struct {
	// Client is the configured S3 client (see NewClientFromConfig).
	Client *s3.Client

	// Bucket is the bucket name. The bucket must already exist.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys.
	// Example: "dittodrive/" yields keys like "dittodrive/<owner>/<token>".
	KeyPrefix string

	// Metrics is an optional collector. Nil disables recording.
	Metrics metrics.StorageMetrics
}

// S3Store persists blobs as S3 objects, one object per key. Works against
// Amazon S3 and S3-compatible endpoints such as MinIO.
type S3Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	metrics   metrics.StorageMetrics
}

var _ Store = (*S3Store)(nil)

// NewClientFromConfig creates an S3 client from flat configuration values.
// S3-compatible endpoints (MinIO, LocalStack) need the endpoint override
// and usually path-style addressing.
func NewClientFromConfig(
	ctx context.Context,
	endpoint,
	region,
	accessKeyID,
	secretAccessKey string,
	forcePathStyle bool,
) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	// Static credentials when provided, otherwise the default AWS chain
	// (env vars, shared config, IAM roles).
	if accessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"", // session token (empty for static credentials)
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
		}
		o.UsePathStyle = forcePathStyle
	})

	return client, nil
}

// NewS3Store verifies bucket access and returns the store. It does not
// create the bucket.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	if _, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		metrics:   cfg.Metrics,
	}, nil
}

func (s *S3Store) objectKey(key string) string {
	if s.keyPrefix != "" {
		return s.keyPrefix + key
	}
	return key
}

// Write spools r to a local temp file while hashing, then uploads it with
// a single PutObject. The spool gives PutObject a seekable body of known
// length; the SDK's built-in retryer can replay it on transient errors.
// A failed upload leaves no object behind.
func (s *S3Store) Write(ctx context.Context, key string, r io.Reader) (result WriteResult, err error) {
	ctx, span := telemetry.StartBlobSpan(ctx, "write", key,
		telemetry.Backend("s3"),
		telemetry.Bucket(s.bucket))
	defer span.End()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveBlobOperation("s3", "write", time.Since(start), err)
			if err == nil {
				s.metrics.RecordBlobBytes("s3", "write", result.Size)
			}
		}
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err = validateKey(key); err != nil {
		return WriteResult{}, err
	}

	spool, err := os.CreateTemp("", "dittodrive-s3-*")
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to create spool file: %w", err)
	}
	defer func() {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
	}()

	hasher := sha256.New()
	buf := bufpool.Get(CopyBufferSize)
	defer bufpool.Put(buf)
	size, err := io.CopyBuffer(io.MultiWriter(spool, hasher), contextReader{ctx: ctx, r: r}, buf)
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to spool blob %q: %w", key, err)
	}

	if _, err = spool.Seek(0, io.SeekStart); err != nil {
		return WriteResult{}, fmt.Errorf("failed to rewind spool file: %w", err)
	}

	if _, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          spool,
		ContentLength: aws.Int64(size),
	}); err != nil {
		return WriteResult{}, fmt.Errorf("failed to upload blob %q: %w", key, err)
	}

	result = WriteResult{
		Size:   size,
		SHA256: hex.EncodeToString(hasher.Sum(nil)),
	}
	return result, nil
}

// Open streams the object body.
func (s *S3Store) Open(ctx context.Context, key string) (rc io.ReadCloser, err error) {
	ctx, span := telemetry.StartBlobSpan(ctx, "open", key,
		telemetry.Backend("s3"),
		telemetry.Bucket(s.bucket))
	defer span.End()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveBlobOperation("s3", "open", time.Since(start), err)
		}
		if err != nil && !errors.Is(err, ErrBlobNotFound) {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err = validateKey(key); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isObjectNotFound(err) {
			return nil, fmt.Errorf("blob %q: %w", key, ErrBlobNotFound)
		}
		return nil, fmt.Errorf("failed to open blob %q: %w", key, err)
	}

	if s.metrics != nil {
		return &countingReadCloser{ReadCloser: out.Body, backend: "s3", metrics: s.metrics}, nil
	}
	return out.Body, nil
}

// Delete removes the object. S3 DeleteObject succeeds on missing keys, so
// the operation is naturally idempotent.
func (s *S3Store) Delete(ctx context.Context, key string) (err error) {
	ctx, span := telemetry.StartBlobSpan(ctx, "delete", key,
		telemetry.Backend("s3"),
		telemetry.Bucket(s.bucket))
	defer span.End()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveBlobOperation("s3", "delete", time.Since(start), err)
		}
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err = validateKey(key); err != nil {
		return err
	}

	if _, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	}); err != nil {
		if isObjectNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete blob %q: %w", key, err)
	}

	return nil
}

// Exists checks the object with a HeadObject request.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	ctx, span := telemetry.StartBlobSpan(ctx, "exists", key,
		telemetry.Backend("s3"),
		telemetry.Bucket(s.bucket))
	defer span.End()

	if err := validateKey(key); err != nil {
		return false, err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isObjectNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check blob %q: %w", key, err)
	}

	return true, nil
}

// isObjectNotFound returns true if the error indicates the object doesn't exist.
func isObjectNotFound(err error) bool {
	if err == nil {
		return false
	}

	// Check typed errors
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}

	// Check AWS API error code
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if code == "NoSuchKey" || code == "NotFound" || code == "404" {
			return true
		}
	}

	// Check error message for 404 patterns
	errStr := err.Error()
	return strings.Contains(errStr, "StatusCode: 404") ||
		strings.Contains(errStr, "NotFound") ||
		strings.Contains(errStr, "NoSuchKey")
}
