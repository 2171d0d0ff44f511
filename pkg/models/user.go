package models

import (
	"fmt"
	"strings"
	"time"
)

// DefaultStorageLimit is the per-user storage quota applied to new accounts.
const DefaultStorageLimit = 100 * 1024 * 1024 // 100 MiB

// User represents a daylytics account.
//
// The user row doubles as the quota ledger: StorageUsed tracks the running
// total of bytes held in blob storage on the user's behalf, StorageLimit is
// the configured cap. StorageUsed is maintained by the lifecycle orchestrator
// on every asset create/delete and overwritten wholesale by reconciliation.
type User struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Name         string `gorm:"size:30" json:"name"`
	Email        string `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	StorageUsed  int64 `gorm:"not null;default:0" json:"storage_used"`
	StorageLimit int64 `gorm:"not null;default:104857600" json:"storage_limit"`

	// PendingInlineImages buffers inline uploads that have no hosting
	// document yet. Entries older than 24h are evicted opportunistically.
	PendingInlineImages PendingInlineImages `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// StorageRemaining returns the unused portion of the user's quota.
// Never negative, even when the ledger has overshot the limit.
func (u *User) StorageRemaining() int64 {
	remaining := u.StorageLimit - u.StorageUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Validate checks if the user has valid configuration.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if len(u.Name) > 30 {
		return fmt.Errorf("name cannot exceed 30 characters")
	}
	if u.StorageLimit <= 0 {
		return fmt.Errorf("storage limit must be positive")
	}
	return nil
}
