package models

import "time"

// BucketObject is a standalone uploaded file in the user's object bucket.
// Unlike task and document assets it is a first-class row: the blob metadata
// has no other owning record.
type BucketObject struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	UserID string `gorm:"index;not null;size:36" json:"user_id"`

	BlobID       string `gorm:"uniqueIndex;not null;size:255" json:"blob_id"`
	URL          string `gorm:"not null" json:"url"`
	ResourceType string `gorm:"size:50" json:"resource_type"`
	FileName     string `gorm:"not null;size:255" json:"file_name"`
	MimeType     string `gorm:"not null;size:255" json:"mime_type"`
	Size         int64  `gorm:"not null" json:"size"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for BucketObject.
func (BucketObject) TableName() string {
	return "bucket_objects"
}
