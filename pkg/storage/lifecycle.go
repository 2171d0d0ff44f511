// Package storage implements the quota accounting and asset lifecycle
// subsystem: every upload is validated and charged against the owner's byte
// quota, and every deletion path releases both the remote blob and the quota
// credit. A reconciliation walk recomputes the canonical usage when the
// incremental bookkeeping drifts.
package storage

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/daylytics/daylytics/internal/logger"
	"github.com/daylytics/daylytics/internal/metrics"
	"github.com/daylytics/daylytics/pkg/blob"
	"github.com/daylytics/daylytics/pkg/models"
	"github.com/daylytics/daylytics/pkg/store"
)

// Upload is one incoming file.
type Upload struct {
	Data     []byte
	FileName string
	MimeType string
}

// Overview is a user's storage report: usage, limit and the full asset
// inventory, newest first.
type Overview struct {
	StorageUsed  int64   `json:"storageUsed"`
	StorageLimit int64   `json:"storageLimit"`
	Assets       []Asset `json:"assets"`
}

// Orchestrator coordinates blob uploads and deletions with their database
// records and the quota ledger. All asset lifecycle transitions go through
// here so that the three legs (blob, record, ledger) stay consistent.
type Orchestrator struct {
	store      store.Store
	blobs      blob.Store
	ledger     *Ledger
	reconciler *Reconciler
	metrics    *metrics.Metrics

	now func() time.Time
}

// NewOrchestrator wires the lifecycle orchestrator. metrics may be nil.
func NewOrchestrator(st store.Store, blobs blob.Store, m *metrics.Metrics) *Orchestrator {
	ledger := NewLedger(st)
	return &Orchestrator{
		store:      st,
		blobs:      blobs,
		ledger:     ledger,
		reconciler: NewReconciler(st, blobs, ledger),
		metrics:    m,
		now:        time.Now,
	}
}

// Ledger exposes the quota ledger for read-side callers.
func (o *Orchestrator) Ledger() *Ledger { return o.ledger }

// checkQuota runs the quota check and counts denials.
func (o *Orchestrator) checkQuota(ctx context.Context, userID string, incoming int64) error {
	if err := o.ledger.CheckAndReserve(ctx, userID, incoming); err != nil {
		var quotaErr *QuotaExceededError
		if errors.As(err, &quotaErr) {
			o.metrics.RecordQuotaDenial()
		}
		return err
	}
	return nil
}

// deleteAsset removes a blob and releases its quota credit. Provider errors
// are logged and swallowed so that local metadata cleanup always proceeds;
// the reconciliation walk is the backstop for anything left behind.
func (o *Orchestrator) deleteAsset(ctx context.Context, userID, blobID, resourceType string, size int64, category string) error {
	if err := o.blobs.Delete(ctx, blobID, resourceType); err != nil {
		logger.Warn("failed to delete blob", "blob_id", blobID, "category", category, "error", err)
	}
	if err := o.ledger.Debit(ctx, userID, size); err != nil {
		return err
	}
	o.metrics.RecordDelete(category)
	return nil
}

// ============================================
// TASK IMAGES
// ============================================

// UploadTaskImage attaches an image to a task. A task holds at most one
// image: when one is already present it is deleted and its quota credit
// released before the new upload, making replace "delete old, upload new".
func (o *Orchestrator) UploadTaskImage(ctx context.Context, userID, taskID string, up Upload) (*models.Task, error) {
	task, err := o.store.GetTask(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	size := int64(len(up.Data))
	if err := o.checkQuota(ctx, userID, size); err != nil {
		return nil, err
	}
	if err := ValidateTaskImage(size, up.MimeType); err != nil {
		return nil, err
	}

	if task.HasAttachment() {
		old := task.Attachment
		if err := o.deleteAsset(ctx, userID, old.BlobID, blob.ResourceImage, old.Size, AssetCategoryTask); err != nil {
			return nil, err
		}
	}

	result, err := o.blobs.Upload(ctx, up.Data, up.FileName, up.MimeType, NamespaceTasks)
	if err != nil {
		return nil, err
	}

	attachment := &models.TaskAttachment{
		BlobID:       result.BlobID,
		URL:          result.URL,
		OriginalName: up.FileName,
		Size:         size,
		MimeType:     up.MimeType,
	}
	if err := o.store.SetTaskAttachment(ctx, taskID, userID, attachment); err != nil {
		return nil, err
	}
	if err := o.ledger.Credit(ctx, userID, size); err != nil {
		return nil, err
	}
	o.metrics.RecordUpload(AssetCategoryTask, size)

	task.Attachment = attachment
	return task, nil
}

// DeleteTaskImage removes a task's image and releases its quota credit.
func (o *Orchestrator) DeleteTaskImage(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := o.store.GetTask(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	if !task.HasAttachment() {
		return nil, ErrAssetNotFound
	}

	att := task.Attachment
	if err := o.deleteAsset(ctx, userID, att.BlobID, blob.ResourceImage, att.Size, AssetCategoryTask); err != nil {
		return nil, err
	}
	if err := o.store.SetTaskAttachment(ctx, taskID, userID, nil); err != nil {
		return nil, err
	}

	task.Attachment = nil
	return task, nil
}

// DeleteTask removes a task, cascading to its attachment when present.
func (o *Orchestrator) DeleteTask(ctx context.Context, userID, taskID string) error {
	task, err := o.store.GetTask(ctx, taskID, userID)
	if err != nil {
		return err
	}

	if task.HasAttachment() {
		att := task.Attachment
		if err := o.deleteAsset(ctx, userID, att.BlobID, blob.ResourceImage, att.Size, AssetCategoryTask); err != nil {
			return err
		}
	}

	return o.store.DeleteTask(ctx, taskID, userID)
}

// DeleteTasksByDate removes all of a user's tasks on a day, cascading to
// every attachment, and reports how many tasks were removed.
func (o *Orchestrator) DeleteTasksByDate(ctx context.Context, userID, date string) (int64, error) {
	tasks, err := o.store.ListTasksByDate(ctx, userID, date)
	if err != nil {
		return 0, err
	}

	for _, task := range tasks {
		if !task.HasAttachment() {
			continue
		}
		att := task.Attachment
		if err := o.deleteAsset(ctx, userID, att.BlobID, blob.ResourceImage, att.Size, AssetCategoryTask); err != nil {
			return 0, err
		}
	}

	return o.store.DeleteTasksByDate(ctx, userID, date)
}

// ============================================
// DOCUMENT ATTACHMENTS
// ============================================

// UploadDocumentAttachments appends files to a document's attachment list.
// All files are validated and the quota is checked for their combined size
// before any blob is written.
func (o *Orchestrator) UploadDocumentAttachments(ctx context.Context, userID, documentID string, uploads []Upload) (*models.Document, error) {
	doc, err := o.store.GetDocument(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, up := range uploads {
		size := int64(len(up.Data))
		if err := ValidateAttachment(size, up.MimeType); err != nil {
			return nil, err
		}
		total += size
	}
	if err := o.checkQuota(ctx, userID, total); err != nil {
		return nil, err
	}

	attachments := doc.Attachments
	for _, up := range uploads {
		size := int64(len(up.Data))
		result, err := o.blobs.Upload(ctx, up.Data, up.FileName, up.MimeType, NamespaceDocuments)
		if err != nil {
			return nil, err
		}

		attachments = append(attachments, models.DocumentAttachment{
			ID:           uuid.New().String(),
			BlobID:       result.BlobID,
			URL:          result.URL,
			OriginalName: up.FileName,
			Size:         size,
			MimeType:     up.MimeType,
			ResourceType: result.ResourceType,
		})

		if err := o.ledger.Credit(ctx, userID, size); err != nil {
			return nil, err
		}
		o.metrics.RecordUpload(AssetCategoryAttachment, size)
	}

	if err := o.store.SetDocumentAttachments(ctx, documentID, userID, attachments); err != nil {
		return nil, err
	}

	doc.Attachments = attachments
	return doc, nil
}

// DeleteDocumentAttachment removes one attachment from a document.
func (o *Orchestrator) DeleteDocumentAttachment(ctx context.Context, userID, documentID, attachmentID string) (*models.Document, error) {
	doc, err := o.store.GetDocument(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}

	att := doc.AttachmentByID(attachmentID)
	if att == nil {
		return nil, models.ErrAttachmentNotFound
	}

	if err := o.deleteAsset(ctx, userID, att.BlobID, att.ResourceType, att.Size, AssetCategoryAttachment); err != nil {
		return nil, err
	}

	remaining := make(models.DocumentAttachments, 0, len(doc.Attachments)-1)
	for _, a := range doc.Attachments {
		if a.ID != attachmentID {
			remaining = append(remaining, a)
		}
	}
	if err := o.store.SetDocumentAttachments(ctx, documentID, userID, remaining); err != nil {
		return nil, err
	}

	doc.Attachments = remaining
	return doc, nil
}

// ============================================
// INLINE IMAGES
// ============================================

// UploadInlineImage stores an image destined for document content. With a
// document ID the image lands on that document's tracked list immediately.
// Without one it goes into the user's pending buffer and migrates to the
// hosting document's tracked list when the document is next saved with the
// link embedded.
func (o *Orchestrator) UploadInlineImage(ctx context.Context, userID, documentID string, up Upload) (*models.InlineImage, error) {
	var doc *models.Document
	if documentID != "" {
		var err error
		doc, err = o.store.GetDocument(ctx, documentID, userID)
		if err != nil {
			return nil, err
		}
	}

	size := int64(len(up.Data))
	if err := o.checkQuota(ctx, userID, size); err != nil {
		return nil, err
	}
	if err := ValidateInlineImage(size, up.MimeType); err != nil {
		return nil, err
	}

	result, err := o.blobs.Upload(ctx, up.Data, up.FileName, up.MimeType, NamespaceInline)
	if err != nil {
		return nil, err
	}

	entry := models.InlineImage{
		BlobID:       result.BlobID,
		URL:          result.URL,
		OriginalName: up.FileName,
		Size:         size,
		UploadedAt:   o.now().UTC(),
	}

	if doc != nil {
		if err := o.store.SetDocumentInlineImages(ctx, documentID, userID, append(doc.InlineImages, entry)); err != nil {
			return nil, err
		}
	} else {
		user, err := o.store.GetUserByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		pending := models.PendingInlineImage{
			BlobID:       entry.BlobID,
			URL:          entry.URL,
			OriginalName: entry.OriginalName,
			Size:         entry.Size,
			UploadedAt:   entry.UploadedAt,
		}
		kept, _ := PartitionExpiredPending(user.PendingInlineImages, o.now())
		if err := o.store.SetPendingInlineImages(ctx, userID, append(kept, pending)); err != nil {
			return nil, err
		}
	}

	if err := o.ledger.Credit(ctx, userID, size); err != nil {
		return nil, err
	}
	o.metrics.RecordUpload(AssetCategoryInline, size)

	return &entry, nil
}

// SyncDocumentInlineImages brings a document's tracked inline images in line
// with its content, consuming matching pending uploads. Safe to call after
// every document save; unchanged content adds nothing.
func (o *Orchestrator) SyncDocumentInlineImages(ctx context.Context, userID, documentID string) (*models.Document, error) {
	doc, err := o.store.GetDocument(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	user, err := o.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	added, consumedURLs := SyncInlineImages(doc.Content, o.blobs.URLPrefix(), doc.InlineImages, user.PendingInlineImages, o.now().UTC())
	if len(added) == 0 {
		return doc, nil
	}

	images := append(doc.InlineImages, added...)
	if err := o.store.SetDocumentInlineImages(ctx, documentID, userID, images); err != nil {
		return nil, err
	}

	if len(consumedURLs) > 0 {
		consumed := map[string]bool{}
		for _, u := range consumedURLs {
			consumed[u] = true
		}
		kept := make(models.PendingInlineImages, 0, len(user.PendingInlineImages))
		for _, p := range user.PendingInlineImages {
			if !consumed[p.URL] {
				kept = append(kept, p)
			}
		}
		if err := o.store.SetPendingInlineImages(ctx, userID, kept); err != nil {
			return nil, err
		}
	}

	doc.InlineImages = images
	return doc, nil
}

// DeleteDocumentInlineImage removes an inline image by URL: the blob, the
// tracked entry, its quota credit and the embedding link in the content. An
// untracked URL under the blob store's prefix still gets its blob deleted,
// with no debit since the size is unknown.
func (o *Orchestrator) DeleteDocumentInlineImage(ctx context.Context, userID, documentID, imageURL string) (*models.Document, error) {
	doc, err := o.store.GetDocument(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}

	if img := doc.InlineImageByURL(imageURL); img != nil {
		if err := o.deleteAsset(ctx, userID, img.BlobID, blob.ResourceImage, img.Size, AssetCategoryInline); err != nil {
			return nil, err
		}
		images := make(models.InlineImages, 0, len(doc.InlineImages)-1)
		for _, i := range doc.InlineImages {
			if i.URL != imageURL {
				images = append(images, i)
			}
		}
		if err := o.store.SetDocumentInlineImages(ctx, documentID, userID, images); err != nil {
			return nil, err
		}
		doc.InlineImages = images
	} else {
		blobID, resourceType, ok := blob.ParseURL(o.blobs.URLPrefix(), imageURL)
		if !ok {
			return nil, ErrAssetNotFound
		}
		if err := o.deleteAsset(ctx, userID, blobID, resourceType, 0, AssetCategoryInline); err != nil {
			return nil, err
		}
	}

	stripped := stripInlineLink(doc.Content, imageURL)
	if stripped != doc.Content {
		doc.Content = stripped
		if err := o.store.UpdateDocument(ctx, doc); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// stripInlineLink removes every markdown image link pointing at url.
func stripInlineLink(content, url string) string {
	pattern := regexp.MustCompile(`!\[[^\]]*\]\(` + regexp.QuoteMeta(url) + `\)`)
	return pattern.ReplaceAllString(content, "")
}

// ============================================
// DOCUMENTS AND FOLDERS
// ============================================

// DeleteDocument removes a document, cascading to every attachment and every
// tracked inline image before the record itself goes away.
func (o *Orchestrator) DeleteDocument(ctx context.Context, userID, documentID string) error {
	doc, err := o.store.GetDocument(ctx, documentID, userID)
	if err != nil {
		return err
	}

	for _, att := range doc.Attachments {
		if err := o.deleteAsset(ctx, userID, att.BlobID, att.ResourceType, att.Size, AssetCategoryAttachment); err != nil {
			return err
		}
	}
	for _, img := range doc.InlineImages {
		if err := o.deleteAsset(ctx, userID, img.BlobID, blob.ResourceImage, img.Size, AssetCategoryInline); err != nil {
			return err
		}
	}

	return o.store.DeleteDocument(ctx, documentID, userID)
}

// DeleteFolder removes a folder. A folder still holding subfolders or
// documents is refused with the counts so the client can explain.
func (o *Orchestrator) DeleteFolder(ctx context.Context, userID, folderID string) error {
	if _, err := o.store.GetFolder(ctx, folderID, userID); err != nil {
		return err
	}

	subfolders, err := o.store.CountChildFolders(ctx, userID, folderID)
	if err != nil {
		return err
	}
	documents, err := o.store.CountDocumentsInFolder(ctx, userID, folderID)
	if err != nil {
		return err
	}
	if subfolders > 0 || documents > 0 {
		return &FolderNotEmptyError{Subfolders: subfolders, Documents: documents}
	}

	return o.store.DeleteFolder(ctx, folderID, userID)
}

// ============================================
// BUCKET
// ============================================

// UploadBucketObject stores a standalone file in the user's bucket. Any mime
// type is accepted.
func (o *Orchestrator) UploadBucketObject(ctx context.Context, userID string, up Upload) (*models.BucketObject, error) {
	size := int64(len(up.Data))
	if err := o.checkQuota(ctx, userID, size); err != nil {
		return nil, err
	}
	if err := ValidateBucketObject(size); err != nil {
		return nil, err
	}

	result, err := o.blobs.Upload(ctx, up.Data, up.FileName, up.MimeType, NamespaceBucket)
	if err != nil {
		return nil, err
	}

	obj := &models.BucketObject{
		UserID:       userID,
		BlobID:       result.BlobID,
		URL:          result.URL,
		ResourceType: result.ResourceType,
		FileName:     up.FileName,
		MimeType:     up.MimeType,
		Size:         size,
	}
	if _, err := o.store.CreateBucketObject(ctx, obj); err != nil {
		return nil, err
	}
	if err := o.ledger.Credit(ctx, userID, size); err != nil {
		return nil, err
	}
	o.metrics.RecordUpload(AssetCategoryBucket, size)

	return obj, nil
}

// DeleteBucketObject removes a bucket file and releases its quota credit.
func (o *Orchestrator) DeleteBucketObject(ctx context.Context, userID, objectID string) error {
	obj, err := o.store.GetBucketObject(ctx, objectID, userID)
	if err != nil {
		return err
	}

	if err := o.deleteAsset(ctx, userID, obj.BlobID, obj.ResourceType, obj.Size, AssetCategoryBucket); err != nil {
		return err
	}

	return o.store.DeleteBucketObject(ctx, objectID, userID)
}

// ============================================
// RECONCILIATION AND REPORTING
// ============================================

// Recompute walks the user's assets and overwrites the ledger with the
// canonical usage.
func (o *Orchestrator) Recompute(ctx context.Context, userID string) (int64, error) {
	total, err := o.reconciler.Recompute(ctx, userID)
	if err != nil {
		return 0, err
	}
	o.metrics.RecordReconciliation()
	return total, nil
}

// StorageOverview reports usage, limit and the full asset inventory. The
// walk doubles as a reconciliation: the ledger is overwritten with the
// freshly computed total before the report is returned.
func (o *Orchestrator) StorageOverview(ctx context.Context, userID string) (*Overview, error) {
	user, err := o.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	assets, err := o.reconciler.Collect(ctx, userID)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, a := range assets {
		if a.Size > 0 {
			total += a.Size
		}
	}
	if total != user.StorageUsed {
		if err := o.ledger.SetCanonical(ctx, userID, total); err != nil {
			return nil, err
		}
	}
	o.metrics.RecordReconciliation()

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].UploadedAt.After(assets[j].UploadedAt)
	})

	return &Overview{
		StorageUsed:  total,
		StorageLimit: user.StorageLimit,
		Assets:       assets,
	}, nil
}

// EvictExpiredPendingInline garbage-collects pending inline images older
// than the TTL: their blobs are deleted and their quota credits released.
// Returns how many entries were evicted.
func (o *Orchestrator) EvictExpiredPendingInline(ctx context.Context, userID string) (int, error) {
	user, err := o.store.GetUserByID(ctx, userID)
	if err != nil {
		return 0, err
	}

	kept, expired := PartitionExpiredPending(user.PendingInlineImages, o.now())
	if len(expired) == 0 {
		return 0, nil
	}

	for _, p := range expired {
		if err := o.deleteAsset(ctx, userID, p.BlobID, blob.ResourceImage, p.Size, AssetCategoryInline); err != nil {
			return 0, err
		}
	}
	if err := o.store.SetPendingInlineImages(ctx, userID, kept); err != nil {
		return 0, err
	}

	return len(expired), nil
}
