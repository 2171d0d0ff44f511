package storage

import (
	"context"
	"errors"
	"time"

	"github.com/daylytics/daylytics/internal/logger"
	"github.com/daylytics/daylytics/pkg/blob"
	"github.com/daylytics/daylytics/pkg/store"
)

// Asset categories reported by the reconciliation walk.
const (
	AssetCategoryTask       = "task"
	AssetCategoryAttachment = "attachment"
	AssetCategoryInline     = "inline"
	AssetCategoryBucket     = "bucket"
)

// Asset is one entry in a user's storage inventory, normalized across the
// four asset categories.
type Asset struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	URL        string    `json:"url"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	OwnerID    string    `json:"ownerId,omitempty"`
	OwnerTitle string    `json:"ownerTitle,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Reconciler recomputes a user's canonical storage usage by walking every
// asset they own. It is the defense against drift left behind by partial
// failures in the lifecycle paths.
type Reconciler struct {
	store  store.Store
	blobs  blob.Store
	ledger *Ledger
}

// NewReconciler creates a reconciler over the given store and blob provider.
func NewReconciler(st store.Store, blobs blob.Store, ledger *Ledger) *Reconciler {
	return &Reconciler{store: st, blobs: blobs, ledger: ledger}
}

// Recompute walks all of the user's assets, sums their sizes and overwrites
// the ledger with the result. Safe to run at any time; running it twice in a
// row yields the same value.
func (r *Reconciler) Recompute(ctx context.Context, userID string) (int64, error) {
	assets, err := r.Collect(ctx, userID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, a := range assets {
		if a.Size > 0 {
			total += a.Size
		}
	}

	if err := r.ledger.SetCanonical(ctx, userID, total); err != nil {
		return 0, err
	}
	return total, nil
}

// Collect gathers the user's full asset inventory. Documents whose content
// embeds images without a tracked entry contribute assets discovered by link
// extraction, with sizes looked up at the provider on a best-effort basis.
func (r *Reconciler) Collect(ctx context.Context, userID string) ([]Asset, error) {
	var assets []Asset

	tasks, err := r.store.ListTasksWithAttachments(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, task := range tasks {
		att := task.Attachment
		if att == nil || att.URL == "" {
			continue
		}
		assets = append(assets, Asset{
			ID:         att.BlobID,
			Category:   AssetCategoryTask,
			URL:        att.URL,
			Name:       att.OriginalName,
			Size:       att.Size,
			OwnerID:    task.ID,
			OwnerTitle: task.Title,
			UploadedAt: task.UpdatedAt,
		})
	}

	docs, err := r.store.ListDocuments(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		for _, att := range doc.Attachments {
			assets = append(assets, Asset{
				ID:         att.BlobID,
				Category:   AssetCategoryAttachment,
				URL:        att.URL,
				Name:       att.OriginalName,
				Size:       att.Size,
				OwnerID:    doc.ID,
				OwnerTitle: doc.Title,
				UploadedAt: doc.UpdatedAt,
			})
		}

		tracked := map[string]bool{}
		for _, img := range doc.InlineImages {
			tracked[img.URL] = true
			uploadedAt := img.UploadedAt
			if uploadedAt.IsZero() {
				uploadedAt = doc.UpdatedAt
			}
			assets = append(assets, Asset{
				ID:         img.BlobID,
				Category:   AssetCategoryInline,
				URL:        img.URL,
				Name:       img.OriginalName,
				Size:       img.Size,
				OwnerID:    doc.ID,
				OwnerTitle: doc.Title,
				UploadedAt: uploadedAt,
			})
		}

		// Untracked embedded links: fall back to link extraction over the
		// raw content and ask the provider for sizes.
		for _, link := range ExtractInlineLinks(doc.Content, r.blobs.URLPrefix()) {
			if tracked[link] {
				continue
			}
			blobID, resourceType, _ := blob.ParseURL(r.blobs.URLPrefix(), link)
			size, err := r.blobs.ResourceSize(ctx, blobID, resourceType)
			if err != nil {
				if !errors.Is(err, blob.ErrBlobNotFound) {
					logger.Warn("failed to look up size for untracked inline image", "url", link, "error", err)
				}
				size = 0
			}
			assets = append(assets, Asset{
				ID:         blobID,
				Category:   AssetCategoryInline,
				URL:        link,
				Name:       decodedFileName(link),
				Size:       size,
				OwnerID:    doc.ID,
				OwnerTitle: doc.Title,
				UploadedAt: doc.UpdatedAt,
			})
		}
	}

	objs, err := r.store.ListBucketObjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, obj := range objs {
		assets = append(assets, Asset{
			ID:         obj.ID,
			Category:   AssetCategoryBucket,
			URL:        obj.URL,
			Name:       obj.FileName,
			Size:       obj.Size,
			UploadedAt: obj.CreatedAt,
		})
	}

	return assets, nil
}
