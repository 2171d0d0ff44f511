// Package blob defines the blob-storage abstraction used for all uploaded
// media. Implementations store opaque byte payloads under provider-assigned
// identifiers and serve them from public URLs.
//
// Layout contract shared by all implementations:
//
//	URL = URLPrefix() + "<resourceType>/" + blobID
//
// which makes (blobID, resourceType) recoverable from any URL the store has
// handed out. That property is what allows inline markdown links to act as
// informal asset references.
package blob

import (
	"context"
	"errors"
	"strings"
)

// Resource types distinguish how the provider stores and serves an object.
const (
	ResourceImage = "image"
	ResourceVideo = "video"
	ResourceRaw   = "raw"
)

// ProbeOrder is the fixed sequence of resource types tried when an operation
// is given a blob ID without a resource type. First success wins.
var ProbeOrder = []string{ResourceImage, ResourceVideo, ResourceRaw}

// Store errors.
var (
	// ErrStoreUnavailable indicates the provider is not configured
	// (missing credentials or endpoint). Callers surface this as a
	// service-unavailable condition, not a generic failure.
	ErrStoreUnavailable = errors.New("blob store is not configured")

	// ErrOperationFailed indicates a transient provider error.
	ErrOperationFailed = errors.New("blob store operation failed")

	// ErrBlobNotFound indicates the blob does not exist at the provider.
	// Delete treats this as success; metadata lookups return it verbatim.
	ErrBlobNotFound = errors.New("blob not found")
)

// UploadResult describes a successfully stored blob.
type UploadResult struct {
	// BlobID is the provider-assigned identifier, namespaced by upload
	// category (for example "tasks/3f2a...").
	BlobID string

	// URL is the public URL serving the blob's bytes.
	URL string

	// ResourceType is the provider resource kind: image, video or raw.
	ResourceType string
}

// Store is the blob-storage provider contract.
//
// All methods return ErrStoreUnavailable when the provider is unconfigured.
type Store interface {
	// Upload stores data under a fresh identifier within namespace and
	// returns its id, public URL and resource type.
	Upload(ctx context.Context, data []byte, fileName, mimeType, namespace string) (*UploadResult, error)

	// Delete removes a blob. An empty resourceType triggers probing over
	// ProbeOrder. A provider "not found" is treated as success.
	Delete(ctx context.Context, blobID, resourceType string) error

	// ResourceSize returns the stored size of a blob in bytes. An empty
	// resourceType triggers probing. Returns ErrBlobNotFound when absent.
	ResourceSize(ctx context.Context, blobID, resourceType string) (int64, error)

	// URLPrefix returns the public URL prefix (trailing slash included)
	// under which this store serves blobs.
	URLPrefix() string
}

// URLFor builds the public URL for a blob served from the given prefix.
func URLFor(urlPrefix, resourceType, blobID string) string {
	return urlPrefix + resourceType + "/" + blobID
}

// ParseURL recovers (blobID, resourceType) from a public blob URL.
// Returns ok=false when the URL was not issued by a store with this prefix.
func ParseURL(urlPrefix, url string) (blobID, resourceType string, ok bool) {
	if urlPrefix == "" || !strings.HasPrefix(url, urlPrefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(url, urlPrefix)
	resourceType, blobID, found := strings.Cut(rest, "/")
	if !found || blobID == "" {
		return "", "", false
	}
	switch resourceType {
	case ResourceImage, ResourceVideo, ResourceRaw:
		return blobID, resourceType, true
	}
	return "", "", false
}

// ResourceTypeForMime maps a mime type onto the provider resource kind.
func ResourceTypeForMime(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return ResourceImage
	case strings.HasPrefix(mimeType, "video/"):
		return ResourceVideo
	default:
		return ResourceRaw
	}
}

// Unavailable is a Store whose provider is not configured. Every operation
// fails with ErrStoreUnavailable, letting the rest of the application start
// normally and surface the misconfiguration per request.
type Unavailable struct{}

// Upload implements Store.
func (Unavailable) Upload(context.Context, []byte, string, string, string) (*UploadResult, error) {
	return nil, ErrStoreUnavailable
}

// Delete implements Store.
func (Unavailable) Delete(context.Context, string, string) error {
	return ErrStoreUnavailable
}

// ResourceSize implements Store.
func (Unavailable) ResourceSize(context.Context, string, string) (int64, error) {
	return 0, ErrStoreUnavailable
}

// URLPrefix implements Store.
func (Unavailable) URLPrefix() string { return "" }
