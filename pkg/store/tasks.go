package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/daylytics/daylytics/pkg/models"
)

// ============================================
// TASK OPERATIONS
// ============================================

func (s *GORMStore) CreateTask(ctx context.Context, task *models.Task) (string, error) {
	return createWithID(s.db, ctx, task, func(t *models.Task, id string) { t.ID = id }, task.ID, gorm.ErrDuplicatedKey)
}

func (s *GORMStore) GetTask(ctx context.Context, id, userID string) (*models.Task, error) {
	return getOwned[models.Task](s.db, ctx, id, userID, models.ErrTaskNotFound)
}

// ListTasksByDate returns all tasks a user has on a given day (YYYY-MM-DD).
func (s *GORMStore) ListTasksByDate(ctx context.Context, userID, date string) ([]*models.Task, error) {
	return listOwned[models.Task](s.db, ctx, userID, func(q *gorm.DB) *gorm.DB {
		return q.Where("date = ?", date).Order("created_at ASC")
	})
}

// ListTasksWithAttachments returns the user's tasks that carry an attachment.
func (s *GORMStore) ListTasksWithAttachments(ctx context.Context, userID string) ([]*models.Task, error) {
	return listOwned[models.Task](s.db, ctx, userID, func(q *gorm.DB) *gorm.DB {
		return q.Where("attachment IS NOT NULL AND attachment != ''")
	})
}

func (s *GORMStore) UpdateTask(ctx context.Context, task *models.Task) error {
	result := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND user_id = ?", task.ID, task.UserID).
		Select("Title", "Done").
		Updates(task)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrTaskNotFound
	}
	return nil
}

// SetTaskAttachment replaces the task's attachment slot. A nil attachment
// clears the slot.
func (s *GORMStore) SetTaskAttachment(ctx context.Context, id, userID string, attachment *models.TaskAttachment) error {
	result := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("attachment", attachment)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrTaskNotFound
	}
	return nil
}

func (s *GORMStore) DeleteTask(ctx context.Context, id, userID string) error {
	return deleteOwned[models.Task](s.db, ctx, id, userID, models.ErrTaskNotFound)
}

// DeleteTasksByDate removes all of a user's tasks on a given day and reports
// how many rows were deleted. Zero is not an error.
func (s *GORMStore) DeleteTasksByDate(ctx context.Context, userID, date string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Delete(&models.Task{})
	return result.RowsAffected, result.Error
}
