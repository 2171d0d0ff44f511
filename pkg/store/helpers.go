package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ============================================================================
// Generic GORM Helpers
// ============================================================================
//
// These helpers reduce repetitive CRUD boilerplate across store implementation
// files. They are unexported and operate on the raw *gorm.DB to avoid coupling
// to GORMStore. Every entity except User is owned by a user, so the owned
// variants always scope queries by user_id to keep tenants isolated.

// getByField retrieves a single record of type T by matching field=value,
// converting gorm.ErrRecordNotFound to the provided notFoundErr.
func getByField[T any](db *gorm.DB, ctx context.Context, field string, value any, notFoundErr error) (*T, error) {
	var result T
	if err := db.WithContext(ctx).Where(field+" = ?", value).First(&result).Error; err != nil {
		return nil, convertNotFoundError(err, notFoundErr)
	}
	return &result, nil
}

// getOwned retrieves a single user-owned record of type T by id. A record
// belonging to another user is indistinguishable from a missing one.
func getOwned[T any](db *gorm.DB, ctx context.Context, id, userID string, notFoundErr error) (*T, error) {
	var result T
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&result).Error; err != nil {
		return nil, convertNotFoundError(err, notFoundErr)
	}
	return &result, nil
}

// listOwned retrieves all records of type T owned by a user, with optional
// extra conditions. Returns an empty slice (not nil) on success with no rows.
func listOwned[T any](db *gorm.DB, ctx context.Context, userID string, conds ...func(*gorm.DB) *gorm.DB) ([]*T, error) {
	results := []*T{}
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	for _, c := range conds {
		q = c(q)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// createWithID generates a UUID for the entity if it has no ID, then creates
// it in the database. Unique constraint violations are converted to dupErr.
func createWithID[T any](db *gorm.DB, ctx context.Context, entity *T, idSetter func(*T, string), currentID string, dupErr error) (string, error) {
	id := currentID
	if id == "" {
		id = uuid.New().String()
		idSetter(entity, id)
	}
	if err := db.WithContext(ctx).Create(entity).Error; err != nil {
		if isUniqueConstraintError(err) {
			return "", dupErr
		}
		return "", err
	}
	return id, nil
}

// deleteOwned deletes the user-owned record of type T with the given id.
// Returns notFoundErr if no rows were affected.
func deleteOwned[T any](db *gorm.DB, ctx context.Context, id, userID string, notFoundErr error) error {
	var zero T
	result := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&zero)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFoundErr
	}
	return nil
}
