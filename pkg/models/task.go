package models

import (
	"fmt"
	"strings"
	"time"
)

// Task title constraints.
const (
	MaxTaskTitleLength = 500
	MaxTaskTitleWords  = 50
)

// Task is a daily todo item. It owns at most one image attachment.
type Task struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	UserID string `gorm:"index;not null;size:36" json:"user_id"`

	// Date is the ISO day (YYYY-MM-DD) the task belongs to.
	Date  string `gorm:"index;not null;size:10" json:"date"`
	Title string `gorm:"not null;size:500" json:"title"`
	Done  bool   `gorm:"default:false" json:"done"`

	// Attachment is the task's single optional image. Nil when absent.
	Attachment *TaskAttachment `gorm:"type:text" json:"attachment,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Task.
func (Task) TableName() string {
	return "tasks"
}

// HasAttachment reports whether the task currently holds an attachment.
func (t *Task) HasAttachment() bool {
	return t.Attachment != nil && t.Attachment.BlobID != ""
}

// ValidateTaskTitle checks task title constraints: non-empty, at most 500
// characters and 50 words.
func ValidateTaskTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(title) > MaxTaskTitleLength {
		return fmt.Errorf("task title cannot exceed %d characters", MaxTaskTitleLength)
	}
	if words := len(strings.Fields(title)); words > MaxTaskTitleWords {
		return fmt.Errorf("task title cannot exceed %d words", MaxTaskTitleWords)
	}
	return nil
}
