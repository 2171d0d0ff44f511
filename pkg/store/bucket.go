package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/daylytics/daylytics/pkg/models"
)

// ============================================
// BUCKET OPERATIONS
// ============================================

func (s *GORMStore) CreateBucketObject(ctx context.Context, obj *models.BucketObject) (string, error) {
	return createWithID(s.db, ctx, obj, func(o *models.BucketObject, id string) { o.ID = id }, obj.ID, models.ErrDuplicateBucketObject)
}

func (s *GORMStore) GetBucketObject(ctx context.Context, id, userID string) (*models.BucketObject, error) {
	return getOwned[models.BucketObject](s.db, ctx, id, userID, models.ErrBucketObjectNotFound)
}

// ListBucketObjects returns the user's bucket contents, newest first.
func (s *GORMStore) ListBucketObjects(ctx context.Context, userID string) ([]*models.BucketObject, error) {
	return listOwned[models.BucketObject](s.db, ctx, userID, func(q *gorm.DB) *gorm.DB {
		return q.Order("created_at DESC")
	})
}

func (s *GORMStore) DeleteBucketObject(ctx context.Context, id, userID string) error {
	return deleteOwned[models.BucketObject](s.db, ctx, id, userID, models.ErrBucketObjectNotFound)
}
