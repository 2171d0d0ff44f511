// Package models defines the persistent entities for daylytics: users with
// their storage quota ledger, tasks, documents, folders, and bucket objects,
// plus the asset value types embedded in them.
package models

// AllModels returns all GORM models for auto-migration.
func AllModels() []any {
	return []any{
		&User{},
		&Task{},
		&Document{},
		&Folder{},
		&BucketObject{},
	}
}
