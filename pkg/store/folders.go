package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/daylytics/daylytics/pkg/models"
)

// ============================================
// FOLDER OPERATIONS
// ============================================

func (s *GORMStore) CreateFolder(ctx context.Context, folder *models.Folder) (string, error) {
	return createWithID(s.db, ctx, folder, func(f *models.Folder, id string) { f.ID = id }, folder.ID, gorm.ErrDuplicatedKey)
}

func (s *GORMStore) GetFolder(ctx context.Context, id, userID string) (*models.Folder, error) {
	return getOwned[models.Folder](s.db, ctx, id, userID, models.ErrFolderNotFound)
}

// ListFolders returns all of a user's folders, pinned first.
func (s *GORMStore) ListFolders(ctx context.Context, userID string) ([]*models.Folder, error) {
	return listOwned[models.Folder](s.db, ctx, userID, func(q *gorm.DB) *gorm.DB {
		return q.Order("is_pinned DESC, name ASC")
	})
}

// CountChildFolders counts the user's folders whose parent is the given folder.
func (s *GORMStore) CountChildFolders(ctx context.Context, userID, parentID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Folder{}).
		Where("user_id = ? AND parent_id = ?", userID, parentID).
		Count(&count).Error
	return count, err
}

func (s *GORMStore) UpdateFolder(ctx context.Context, folder *models.Folder) error {
	result := s.db.WithContext(ctx).
		Model(&models.Folder{}).
		Where("id = ? AND user_id = ?", folder.ID, folder.UserID).
		Select("Name", "IsPinned", "ParentID").
		Updates(folder)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrFolderNotFound
	}
	return nil
}

func (s *GORMStore) DeleteFolder(ctx context.Context, id, userID string) error {
	return deleteOwned[models.Folder](s.db, ctx, id, userID, models.ErrFolderNotFound)
}
