package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylytics/daylytics/pkg/blob"
)

func TestUploadAssignsNamespacedID(t *testing.T) {
	ctx := context.Background()
	store := New()

	result, err := store.Upload(ctx, []byte("png bytes"), "photo.png", "image/png", "tasks")
	require.NoError(t, err)

	assert.Equal(t, blob.ResourceImage, result.ResourceType)
	assert.Contains(t, result.BlobID, "tasks/")
	assert.Equal(t, blob.URLFor(store.URLPrefix(), blob.ResourceImage, result.BlobID), result.URL)

	size, err := store.ResourceSize(ctx, result.BlobID, result.ResourceType)
	require.NoError(t, err)
	assert.Equal(t, int64(len("png bytes")), size)
}

func TestResourceSizeProbesWithoutType(t *testing.T) {
	ctx := context.Background()
	store := New()

	result, err := store.Upload(ctx, []byte("1234"), "doc.pdf", "application/pdf", "bucket")
	require.NoError(t, err)
	assert.Equal(t, blob.ResourceRaw, result.ResourceType)

	size, err := store.ResourceSize(ctx, result.BlobID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	_, err = store.ResourceSize(ctx, "bucket/missing", "")
	assert.ErrorIs(t, err, blob.ErrBlobNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := New()

	result, err := store.Upload(ctx, []byte("clip"), "clip.mp4", "video/mp4", "documents")
	require.NoError(t, err)
	require.True(t, store.Has(result.BlobID))

	// Delete without a resource type probes image, video, raw.
	require.NoError(t, store.Delete(ctx, result.BlobID, ""))
	assert.False(t, store.Has(result.BlobID))

	// Deleting again succeeds.
	require.NoError(t, store.Delete(ctx, result.BlobID, ""))
	require.NoError(t, store.Delete(ctx, result.BlobID, blob.ResourceVideo))
	assert.Equal(t, 0, store.Len())
}
