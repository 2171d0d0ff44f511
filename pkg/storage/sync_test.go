package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylytics/daylytics/pkg/models"
)

const testURLPrefix = "https://cdn.example.com/media/"

func TestExtractInlineLinks(t *testing.T) {
	content := "intro\n" +
		"![diagram](https://cdn.example.com/media/image/inline/aaa)\n" +
		"![](https://cdn.example.com/media/image/inline/bbb)\n" +
		"![dup](https://cdn.example.com/media/image/inline/aaa)\n" +
		"![foreign](https://elsewhere.example.com/image/inline/ccc)\n" +
		"[not an image](https://cdn.example.com/media/image/inline/ddd)\n"

	links := ExtractInlineLinks(content, testURLPrefix)
	assert.Equal(t, []string{
		"https://cdn.example.com/media/image/inline/aaa",
		"https://cdn.example.com/media/image/inline/bbb",
	}, links)
}

func TestSyncInlineImagesConsumesPending(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	uploadedAt := now.Add(-time.Hour)

	content := "![chart](https://cdn.example.com/media/image/inline/abc)"
	pending := models.PendingInlineImages{
		{
			BlobID:       "inline/abc",
			URL:          "https://cdn.example.com/media/image/inline/abc",
			OriginalName: "chart.png",
			Size:         512,
			UploadedAt:   uploadedAt,
		},
	}

	added, consumed := SyncInlineImages(content, testURLPrefix, nil, pending, now)
	require.Len(t, added, 1)
	assert.Equal(t, "inline/abc", added[0].BlobID)
	assert.Equal(t, "chart.png", added[0].OriginalName)
	assert.Equal(t, int64(512), added[0].Size)
	assert.Equal(t, uploadedAt, added[0].UploadedAt)
	assert.Equal(t, []string{"https://cdn.example.com/media/image/inline/abc"}, consumed)
}

func TestSyncInlineImagesFallsBackWithoutPending(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	content := "![x](https://cdn.example.com/media/image/inline/my%20image.png)"

	added, consumed := SyncInlineImages(content, testURLPrefix, nil, nil, now)
	require.Len(t, added, 1)
	assert.Equal(t, "inline/my%20image.png", added[0].BlobID)
	assert.Equal(t, "my image.png", added[0].OriginalName)
	assert.Zero(t, added[0].Size)
	assert.Equal(t, now, added[0].UploadedAt)
	assert.Empty(t, consumed)
}

func TestSyncInlineImagesIsIdempotent(t *testing.T) {
	now := time.Now().UTC()
	content := "![a](https://cdn.example.com/media/image/inline/one) " +
		"![b](https://cdn.example.com/media/image/inline/two)"

	added, _ := SyncInlineImages(content, testURLPrefix, nil, nil, now)
	require.Len(t, added, 2)

	tracked := added
	again, consumed := SyncInlineImages(content, testURLPrefix, tracked, nil, now)
	assert.Empty(t, again, "unchanged content must not produce new entries")
	assert.Empty(t, consumed)
}

func TestPartitionExpiredPending(t *testing.T) {
	now := time.Now().UTC()
	pending := models.PendingInlineImages{
		{BlobID: "inline/fresh", UploadedAt: now.Add(-time.Hour)},
		{BlobID: "inline/stale", UploadedAt: now.Add(-25 * time.Hour)},
		{BlobID: "inline/edge", UploadedAt: now.Add(-PendingInlineImageTTL)},
	}

	kept, expired := PartitionExpiredPending(pending, now)
	require.Len(t, kept, 2)
	require.Len(t, expired, 1)
	assert.Equal(t, "inline/stale", expired[0].BlobID)
}

func TestStripInlineLink(t *testing.T) {
	content := "before ![img](https://cdn.example.com/media/image/inline/abc) after"
	got := stripInlineLink(content, "https://cdn.example.com/media/image/inline/abc")
	assert.Equal(t, "before  after", got)

	unchanged := stripInlineLink(content, "https://cdn.example.com/media/image/inline/other")
	assert.Equal(t, content, unchanged)
}
