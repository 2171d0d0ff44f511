package storage

import (
	"strings"

	"github.com/daylytics/daylytics/internal/bytesize"
)

// Upload namespaces, one per asset category. The namespace becomes the first
// segment of every blob ID the category produces.
const (
	NamespaceTasks     = "tasks"
	NamespaceDocuments = "documents"
	NamespaceInline    = "inline"
	NamespaceBucket    = "bucket"
)

// Size caps per category.
const (
	// MaxImageSize caps task images and inline images.
	MaxImageSize = 10 * bytesize.MiB

	// MaxAttachmentSize caps document attachments.
	MaxAttachmentSize = 100 * bytesize.MiB

	// MaxBucketObjectSize caps bucket uploads.
	MaxBucketObjectSize = 10 * bytesize.MiB
)

// allowedTaskImageTypes is the closed set of mime types accepted for the
// single image a task may carry.
var allowedTaskImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// allowedAttachmentTypes is the closed set of mime types accepted as
// document attachments.
var allowedAttachmentTypes = map[string]bool{
	// Images
	"image/jpeg":    true,
	"image/jpg":     true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
	// Videos
	"video/mp4":       true,
	"video/mpeg":      true,
	"video/quicktime": true,
	"video/x-msvideo": true,
	"video/webm":      true,
	// Documents
	"application/pdf":              true,
	"application/zip":              true,
	"application/x-zip-compressed": true,
	"application/x-rar-compressed": true,
	"application/vnd.rar":          true,
	"application/msword":           true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/plain": true,
}

// ValidateTaskImage checks an upload destined for a task's image slot.
func ValidateTaskImage(size int64, mimeType string) error {
	if size > MaxImageSize.Int64() {
		return &InvalidAssetTypeError{Reason: "image must be less than 10MB"}
	}
	if !allowedTaskImageTypes[mimeType] {
		return &InvalidAssetTypeError{Reason: "only image files (JPEG, PNG, GIF, WEBP) are allowed for tasks"}
	}
	return nil
}

// ValidateAttachment checks an upload destined for a document's attachment list.
func ValidateAttachment(size int64, mimeType string) error {
	if size > MaxAttachmentSize.Int64() {
		return &InvalidAssetTypeError{Reason: "attachment must be less than 100MB"}
	}
	if !allowedAttachmentTypes[mimeType] {
		return &InvalidAssetTypeError{Reason: "file type not supported. Allowed: images, videos, PDF, ZIP, RAR, Word, Excel, TXT"}
	}
	return nil
}

// ValidateInlineImage checks an image upload embedded in document content.
// Any image type is accepted.
func ValidateInlineImage(size int64, mimeType string) error {
	if !strings.HasPrefix(mimeType, "image/") {
		return &InvalidAssetTypeError{Reason: "only image files are allowed"}
	}
	if size > MaxImageSize.Int64() {
		return &InvalidAssetTypeError{Reason: "image must be less than 10MB"}
	}
	return nil
}

// ValidateBucketObject checks a bucket upload. Any mime type is accepted,
// only the size is capped.
func ValidateBucketObject(size int64) error {
	if size > MaxBucketObjectSize.Int64() {
		return &InvalidAssetTypeError{Reason: "file must be less than 10MB"}
	}
	return nil
}
