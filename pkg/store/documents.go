package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/daylytics/daylytics/pkg/models"
)

// ============================================
// DOCUMENT OPERATIONS
// ============================================

func (s *GORMStore) CreateDocument(ctx context.Context, doc *models.Document) (string, error) {
	return createWithID(s.db, ctx, doc, func(d *models.Document, id string) { d.ID = id }, doc.ID, gorm.ErrDuplicatedKey)
}

func (s *GORMStore) GetDocument(ctx context.Context, id, userID string) (*models.Document, error) {
	return getOwned[models.Document](s.db, ctx, id, userID, models.ErrDocumentNotFound)
}

// ListDocuments returns all of a user's documents, pinned first.
func (s *GORMStore) ListDocuments(ctx context.Context, userID string) ([]*models.Document, error) {
	return listOwned[models.Document](s.db, ctx, userID, func(q *gorm.DB) *gorm.DB {
		return q.Order("is_pinned DESC, updated_at DESC")
	})
}

// ListDocumentsInFolder returns the user's documents in one folder. A nil
// folderID selects documents outside any folder.
func (s *GORMStore) ListDocumentsInFolder(ctx context.Context, userID string, folderID *string) ([]*models.Document, error) {
	return listOwned[models.Document](s.db, ctx, userID, func(q *gorm.DB) *gorm.DB {
		if folderID == nil {
			return q.Where("folder_id IS NULL").Order("is_pinned DESC, updated_at DESC")
		}
		return q.Where("folder_id = ?", *folderID).Order("is_pinned DESC, updated_at DESC")
	})
}

// CountDocumentsInFolder counts the user's documents inside one folder.
func (s *GORMStore) CountDocumentsInFolder(ctx context.Context, userID, folderID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("user_id = ? AND folder_id = ?", userID, folderID).
		Count(&count).Error
	return count, err
}

func (s *GORMStore) UpdateDocument(ctx context.Context, doc *models.Document) error {
	result := s.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND user_id = ?", doc.ID, doc.UserID).
		Select("Title", "Content", "IsPinned", "Tags", "FolderID", "InlineImages").
		Updates(doc)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrDocumentNotFound
	}
	return nil
}

// SetDocumentAttachments replaces the document's attachment list.
func (s *GORMStore) SetDocumentAttachments(ctx context.Context, id, userID string, attachments models.DocumentAttachments) error {
	result := s.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("attachments", attachments)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrDocumentNotFound
	}
	return nil
}

// SetDocumentInlineImages replaces the document's tracked inline image list.
func (s *GORMStore) SetDocumentInlineImages(ctx context.Context, id, userID string, images models.InlineImages) error {
	result := s.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("inline_images", images)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrDocumentNotFound
	}
	return nil
}

func (s *GORMStore) DeleteDocument(ctx context.Context, id, userID string) error {
	return deleteOwned[models.Document](s.db, ctx, id, userID, models.ErrDocumentNotFound)
}
