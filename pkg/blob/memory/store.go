// Package memory provides an in-memory blob store used by tests and by
// local development when no external provider is configured.
package memory

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/google/uuid"

	"github.com/daylytics/daylytics/pkg/blob"
)

// DefaultURLPrefix is the synthetic public prefix for in-memory blobs.
const DefaultURLPrefix = "https://blobs.invalid/"

type object struct {
	data         []byte
	fileName     string
	mimeType     string
	resourceType string
}

// Store is a thread-safe in-memory blob.Store.
type Store struct {
	mu        sync.RWMutex
	objects   map[string]object // keyed by resourceType + "/" + blobID
	urlPrefix string

	newID func() string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		objects:   make(map[string]object),
		urlPrefix: DefaultURLPrefix,
		newID:     func() string { u := uuid.New(); return hex.EncodeToString(u[:]) },
	}
}

func key(resourceType, blobID string) string {
	return resourceType + "/" + blobID
}

// Upload implements blob.Store.
func (s *Store) Upload(_ context.Context, data []byte, fileName, mimeType, namespace string) (*blob.UploadResult, error) {
	resourceType := blob.ResourceTypeForMime(mimeType)
	blobID := namespace + "/" + s.newID()

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[key(resourceType, blobID)] = object{
		data:         buf,
		fileName:     fileName,
		mimeType:     mimeType,
		resourceType: resourceType,
	}
	s.mu.Unlock()

	return &blob.UploadResult{
		BlobID:       blobID,
		URL:          blob.URLFor(s.urlPrefix, resourceType, blobID),
		ResourceType: resourceType,
	}, nil
}

// Delete implements blob.Store. Unknown blobs are treated as already deleted.
func (s *Store) Delete(_ context.Context, blobID, resourceType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if resourceType != "" {
		delete(s.objects, key(resourceType, blobID))
		return nil
	}
	for _, rt := range blob.ProbeOrder {
		if _, ok := s.objects[key(rt, blobID)]; ok {
			delete(s.objects, key(rt, blobID))
			return nil
		}
	}
	return nil
}

// ResourceSize implements blob.Store.
func (s *Store) ResourceSize(_ context.Context, blobID, resourceType string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if resourceType != "" {
		if obj, ok := s.objects[key(resourceType, blobID)]; ok {
			return int64(len(obj.data)), nil
		}
		return 0, blob.ErrBlobNotFound
	}
	for _, rt := range blob.ProbeOrder {
		if obj, ok := s.objects[key(rt, blobID)]; ok {
			return int64(len(obj.data)), nil
		}
	}
	return 0, blob.ErrBlobNotFound
}

// URLPrefix implements blob.Store.
func (s *Store) URLPrefix() string { return s.urlPrefix }

// Len reports the number of stored blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Has reports whether a blob exists under any resource type.
func (s *Store) Has(blobID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rt := range blob.ProbeOrder {
		if _, ok := s.objects[key(rt, blobID)]; ok {
			return true
		}
	}
	return false
}
