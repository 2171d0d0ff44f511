package storage

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/daylytics/daylytics/pkg/blob"
	"github.com/daylytics/daylytics/pkg/models"
)

// PendingInlineImageTTL is how long an uploaded inline image may sit in the
// user's pending buffer before it is considered orphaned.
const PendingInlineImageTTL = 24 * time.Hour

// inlineLinkPattern matches markdown image links with an absolute URL,
// capturing the URL. Document content embeds inline images in exactly this
// shape.
var inlineLinkPattern = regexp.MustCompile(`!\[[^\]]*\]\((https?://[^\s)]+)\)`)

// ExtractInlineLinks returns the blob URLs embedded in content as markdown
// image links, restricted to URLs issued under urlPrefix. Order of first
// appearance is preserved and duplicates are dropped.
func ExtractInlineLinks(content, urlPrefix string) []string {
	var links []string
	seen := map[string]bool{}
	for _, match := range inlineLinkPattern.FindAllStringSubmatch(content, -1) {
		link := match[1]
		if seen[link] {
			continue
		}
		if _, _, ok := blob.ParseURL(urlPrefix, link); !ok {
			continue
		}
		seen[link] = true
		links = append(links, link)
	}
	return links
}

// SyncInlineImages reconciles a document's tracked inline images against its
// current content. For every embedded link not yet tracked it produces a new
// entry, taking size and original name from a matching pending upload when
// one exists and falling back to zero size and the decoded filename
// otherwise. Consumed pending entries are reported by URL so the caller can
// drop them from the buffer.
//
// The function is pure and idempotent: running it again over unchanged
// content with the returned entries appended yields nothing new.
func SyncInlineImages(content, urlPrefix string, tracked models.InlineImages, pending models.PendingInlineImages, now time.Time) (added models.InlineImages, consumedURLs []string) {
	trackedByURL := map[string]bool{}
	for _, img := range tracked {
		trackedByURL[img.URL] = true
	}

	pendingByURL := map[string]*models.PendingInlineImage{}
	for i := range pending {
		pendingByURL[pending[i].URL] = &pending[i]
	}

	for _, link := range ExtractInlineLinks(content, urlPrefix) {
		if trackedByURL[link] {
			continue
		}

		blobID, _, _ := blob.ParseURL(urlPrefix, link)
		entry := models.InlineImage{
			BlobID:       blobID,
			URL:          link,
			OriginalName: decodedFileName(link),
			UploadedAt:   now,
		}

		if p := pendingByURL[link]; p != nil {
			entry.OriginalName = p.OriginalName
			entry.Size = p.Size
			entry.UploadedAt = p.UploadedAt
			consumedURLs = append(consumedURLs, link)
		}

		added = append(added, entry)
		trackedByURL[link] = true
	}

	return added, consumedURLs
}

// PartitionExpiredPending splits a pending buffer into entries still inside
// the TTL and entries old enough to be garbage-collected.
func PartitionExpiredPending(pending models.PendingInlineImages, now time.Time) (kept, expired models.PendingInlineImages) {
	for _, p := range pending {
		if now.Sub(p.UploadedAt) > PendingInlineImageTTL {
			expired = append(expired, p)
		} else {
			kept = append(kept, p)
		}
	}
	return kept, expired
}

// decodedFileName extracts the last path segment of a URL, percent-decoded.
func decodedFileName(link string) string {
	name := link
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	return name
}
