package models

import (
	"fmt"
	"strings"
	"time"
)

// MaxFolderNameLength bounds folder names.
const MaxFolderNameLength = 100

// Folder groups documents. Folders never cascade to assets: deletion is
// refused while a folder still has child folders or documents.
type Folder struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	UserID string `gorm:"index;not null;size:36" json:"user_id"`

	Name string `gorm:"not null;size:100" json:"name"`

	// ParentID is nil for root folders.
	ParentID *string `gorm:"index;size:36" json:"parent_id,omitempty"`

	IsPinned bool `gorm:"default:false" json:"is_pinned"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Folder.
func (Folder) TableName() string {
	return "folders"
}

// ValidateFolderName checks folder name constraints.
func ValidateFolderName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("folder name is required")
	}
	if len(name) > MaxFolderNameLength {
		return fmt.Errorf("folder name must be %d characters or less", MaxFolderNameLength)
	}
	return nil
}
