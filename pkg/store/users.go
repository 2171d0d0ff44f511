package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/daylytics/daylytics/pkg/models"
)

// ============================================
// USER OPERATIONS
// ============================================

func (s *GORMStore) CreateUser(ctx context.Context, user *models.User) (string, error) {
	user.CreatedAt = time.Now()
	return createWithID(s.db, ctx, user, func(u *models.User, id string) { u.ID = id }, user.ID, models.ErrDuplicateUser)
}

func (s *GORMStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "id", id, models.ErrUserNotFound)
}

func (s *GORMStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "email", email, models.ErrUserNotFound)
}

func (s *GORMStore) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if !models.VerifyPassword(password, user.PasswordHash) {
		return nil, models.ErrInvalidCredentials
	}

	return user, nil
}

// AdjustStorageUsed applies a signed delta to a user's storage accounting in
// a single conditional UPDATE, clamping the result at zero. Doing the
// arithmetic in the database keeps concurrent writers from losing updates.
func (s *GORMStore) AdjustStorageUsed(ctx context.Context, userID string, delta int64) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("storage_used", gorm.Expr(
			"CASE WHEN storage_used + ? < 0 THEN 0 ELSE storage_used + ? END", delta, delta,
		))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// SetStorageUsed overwrites a user's storage accounting with a canonical
// value, typically computed by reconciliation.
func (s *GORMStore) SetStorageUsed(ctx context.Context, userID string, used int64) error {
	if used < 0 {
		used = 0
	}
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("storage_used", used)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// ListUsers returns all users ordered by creation time. Used by management
// tooling, not by the API.
func (s *GORMStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	users := []*models.User{}
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserPassword replaces a user's password hash.
func (s *GORMStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// DeleteUser removes a user and all rows they own. Blob objects referenced by
// the deleted rows are not touched here; callers that care run reconciliation
// against the blob store afterwards.
func (s *GORMStore) DeleteUser(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entity := range []any{
			&models.Task{}, &models.Document{}, &models.Folder{}, &models.BucketObject{},
		} {
			if err := tx.Where("user_id = ?", userID).Delete(entity).Error; err != nil {
				return err
			}
		}

		result := tx.Where("id = ?", userID).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrUserNotFound
		}
		return nil
	})
}

// SetPendingInlineImages replaces the user's buffer of images uploaded for
// documents that have not been saved yet.
func (s *GORMStore) SetPendingInlineImages(ctx context.Context, userID string, pending models.PendingInlineImages) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("pending_inline_images", pending)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}
