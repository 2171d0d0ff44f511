// Package s3 provides an S3-backed blob store implementation.
//
// Objects are keyed as "<keyPrefix><resourceType>/<blobID>" so that a blob
// can be located by probing resource types when the caller only holds the id.
package s3

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/daylytics/daylytics/pkg/blob"
)

// Config holds configuration for the S3 blob store.
type Config struct {
	// Bucket is the S3 bucket name.
	Bucket string

	// Region is the AWS region (optional, uses SDK default if empty).
	Region string

	// Endpoint is the S3 endpoint URL (optional, for S3-compatible services).
	Endpoint string

	// KeyPrefix is prepended to all object keys (e.g. "blobs/").
	// Should end with "/" if non-empty.
	KeyPrefix string

	// PublicBaseURL is the public URL (CDN or bucket website) that serves
	// objects stored under KeyPrefix.
	PublicBaseURL string

	// AccessKeyID and SecretAccessKey are static credentials. When both are
	// empty the SDK's default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string

	// ForcePathStyle forces path-style addressing (required for Localstack/MinIO).
	ForcePathStyle bool
}

// Configured reports whether the config names a usable provider.
func (c Config) Configured() bool {
	return c.Bucket != "" && c.PublicBaseURL != ""
}

// Store is an S3-backed implementation of blob.Store.
type Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	urlPrefix string
}

// New creates a new S3 blob store with an existing client.
func New(client *s3.Client, config Config) *Store {
	return &Store{
		client:    client,
		bucket:    config.Bucket,
		keyPrefix: config.KeyPrefix,
		urlPrefix: strings.TrimRight(config.PublicBaseURL, "/") + "/",
	}
}

// NewFromConfig creates a new S3 blob store by creating an S3 client from
// config. Returns blob.ErrStoreUnavailable when the config names no provider.
func NewFromConfig(ctx context.Context, config Config) (*Store, error) {
	if !config.Configured() {
		return nil, blob.ErrStoreUnavailable
	}

	var opts []func(*awsconfig.LoadOptions) error

	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}

	if config.AccessKeyID != "" || config.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)

	if config.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
		})
	}

	if config.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	return New(client, config), nil
}

// fullKey returns the full S3 key for a blob.
func (s *Store) fullKey(resourceType, blobID string) string {
	return s.keyPrefix + resourceType + "/" + blobID
}

// Upload implements blob.Store.
func (s *Store) Upload(ctx context.Context, data []byte, fileName, mimeType, namespace string) (*blob.UploadResult, error) {
	resourceType := blob.ResourceTypeForMime(mimeType)
	u := uuid.New()
	blobID := namespace + "/" + hex.EncodeToString(u[:])

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(resourceType, blobID)),
		Body:   bytes.NewReader(data),
	}
	if mimeType != "" {
		input.ContentType = aws.String(mimeType)
	}
	if fileName != "" {
		input.Metadata = map[string]string{"original-name": fileName}
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("%w: s3 put object: %w", blob.ErrOperationFailed, err)
	}

	return &blob.UploadResult{
		BlobID:       blobID,
		URL:          blob.URLFor(s.urlPrefix, resourceType, blobID),
		ResourceType: resourceType,
	}, nil
}

// Delete implements blob.Store. A missing object is treated as success so
// that retries and replays stay idempotent.
func (s *Store) Delete(ctx context.Context, blobID, resourceType string) error {
	if resourceType == "" {
		found, err := s.locate(ctx, blobID)
		if err != nil {
			return err
		}
		if found == "" {
			return nil
		}
		resourceType = found
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(resourceType, blobID)),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("%w: s3 delete object: %w", blob.ErrOperationFailed, err)
	}

	return nil
}

// ResourceSize implements blob.Store.
func (s *Store) ResourceSize(ctx context.Context, blobID, resourceType string) (int64, error) {
	if resourceType != "" {
		return s.headSize(ctx, resourceType, blobID)
	}
	for _, rt := range blob.ProbeOrder {
		size, err := s.headSize(ctx, rt, blobID)
		if err == nil {
			return size, nil
		}
		if err != blob.ErrBlobNotFound {
			return 0, err
		}
	}
	return 0, blob.ErrBlobNotFound
}

// URLPrefix implements blob.Store.
func (s *Store) URLPrefix() string { return s.urlPrefix }

// HealthCheck verifies the S3 bucket is accessible.
func (s *Store) HealthCheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 health check failed: %w", err)
	}
	return nil
}

// locate finds the resource type a blob is stored under, probing in the
// fixed order. Returns "" when the blob does not exist.
func (s *Store) locate(ctx context.Context, blobID string) (string, error) {
	for _, rt := range blob.ProbeOrder {
		_, err := s.headSize(ctx, rt, blobID)
		if err == nil {
			return rt, nil
		}
		if err != blob.ErrBlobNotFound {
			return "", err
		}
	}
	return "", nil
}

func (s *Store) headSize(ctx context.Context, resourceType, blobID string) (int64, error) {
	resp, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(resourceType, blobID)),
	})
	if err != nil {
		if isNotFoundError(err) {
			return 0, blob.ErrBlobNotFound
		}
		return 0, fmt.Errorf("%w: s3 head object: %w", blob.ErrOperationFailed, err)
	}
	if resp.ContentLength == nil {
		return 0, nil
	}
	return *resp.ContentLength, nil
}

// isNotFoundError returns true if the error indicates the object doesn't exist.
func isNotFoundError(err error) bool {
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

// Ensure Store implements blob.Store.
var _ blob.Store = (*Store)(nil)
