package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TaskAttachment is the single optional image attached to a task.
// A task holds at most one; replacing it deletes the previous blob.
type TaskAttachment struct {
	BlobID       string `json:"blob_id"`
	URL          string `json:"url"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mime_type"`
}

// DocumentAttachment is one of the files attached to a document.
type DocumentAttachment struct {
	ID           string `json:"id"`
	BlobID       string `json:"blob_id"`
	URL          string `json:"url"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mime_type"`
	ResourceType string `json:"resource_type"`
}

// InlineImage is an image referenced from a document's markdown content.
// It may exist in content before (or without) a tracking entry; the sync
// pass in pkg/storage closes that gap.
type InlineImage struct {
	BlobID       string    `json:"blob_id"`
	URL          string    `json:"url"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// PendingInlineImage is an uploaded inline image not yet associated with a
// saved document. It lives on the user record and is evicted after 24 hours.
type PendingInlineImage struct {
	BlobID       string    `json:"blob_id"`
	URL          string    `json:"url"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Named slice types below are serialized as JSON columns. Keeping asset
// lists on their owning row (rather than join tables) mirrors the document
// structure of the data: assets have no identity outside their owner.

// DocumentAttachments is a JSON column of DocumentAttachment values.
type DocumentAttachments []DocumentAttachment

// InlineImages is a JSON column of InlineImage values.
type InlineImages []InlineImage

// PendingInlineImages is a JSON column of PendingInlineImage values.
type PendingInlineImages []PendingInlineImage

// StringList is a JSON column of strings (document tags).
type StringList []string

func jsonValue(v any) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func jsonScan(dest any, src any) error {
	if src == nil {
		return nil
	}
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, dest)
	case string:
		return json.Unmarshal([]byte(data), dest)
	default:
		return fmt.Errorf("cannot scan %T into JSON column", src)
	}
}

// Value implements driver.Valuer.
func (a TaskAttachment) Value() (driver.Value, error) { return jsonValue(a) }

// Scan implements sql.Scanner.
func (a *TaskAttachment) Scan(src any) error { return jsonScan(a, src) }

// Value implements driver.Valuer.
func (a DocumentAttachments) Value() (driver.Value, error) { return jsonValue([]DocumentAttachment(a)) }

// Scan implements sql.Scanner.
func (a *DocumentAttachments) Scan(src any) error { return jsonScan(a, src) }

// Value implements driver.Valuer.
func (i InlineImages) Value() (driver.Value, error) { return jsonValue([]InlineImage(i)) }

// Scan implements sql.Scanner.
func (i *InlineImages) Scan(src any) error { return jsonScan(i, src) }

// Value implements driver.Valuer.
func (p PendingInlineImages) Value() (driver.Value, error) { return jsonValue([]PendingInlineImage(p)) }

// Scan implements sql.Scanner.
func (p *PendingInlineImages) Scan(src any) error { return jsonScan(p, src) }

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) { return jsonValue([]string(l)) }

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error { return jsonScan(l, src) }
