package models

import (
	"fmt"
	"strings"
	"time"
)

// Document content constraints.
const (
	MaxDocumentTitleLength   = 200
	MaxDocumentContentLength = 50000
)

// Document is a markdown note. It owns two asset lists: file attachments
// and inline images referenced from its content.
type Document struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	UserID string `gorm:"index;not null;size:36" json:"user_id"`

	// FolderID is nil for documents at the root.
	FolderID *string `gorm:"index;size:36" json:"folder_id,omitempty"`

	Title    string     `gorm:"not null;size:200" json:"title"`
	Content  string     `gorm:"type:text" json:"content"`
	IsPinned bool       `gorm:"default:false" json:"is_pinned"`
	Tags     StringList `gorm:"type:text" json:"tags"`

	Attachments  DocumentAttachments `gorm:"type:text" json:"attachments"`
	InlineImages InlineImages        `gorm:"type:text" json:"inline_images"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Document.
func (Document) TableName() string {
	return "documents"
}

// AttachmentByID returns the attachment with the given id, or nil.
func (d *Document) AttachmentByID(id string) *DocumentAttachment {
	for i := range d.Attachments {
		if d.Attachments[i].ID == id {
			return &d.Attachments[i]
		}
	}
	return nil
}

// InlineImageByURL returns the tracked inline image with the given URL, or nil.
func (d *Document) InlineImageByURL(url string) *InlineImage {
	for i := range d.InlineImages {
		if d.InlineImages[i].URL == url {
			return &d.InlineImages[i]
		}
	}
	return nil
}

// ValidateDocumentTitle checks the document title constraints.
func ValidateDocumentTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(title) > MaxDocumentTitleLength {
		return fmt.Errorf("title cannot exceed %d characters", MaxDocumentTitleLength)
	}
	return nil
}

// ValidateDocumentContent checks the document content length constraint.
func ValidateDocumentContent(content string) error {
	if len(content) > MaxDocumentContentLength {
		return fmt.Errorf("content cannot exceed %d characters", MaxDocumentContentLength)
	}
	return nil
}
