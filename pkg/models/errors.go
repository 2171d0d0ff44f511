package models

import "errors"

// Common domain errors for store operations.
var (
	// User errors
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")

	// Task errors
	ErrTaskNotFound       = errors.New("task not found")
	ErrAttachmentNotFound = errors.New("attachment not found")

	// Document errors
	ErrDocumentNotFound = errors.New("document not found")

	// Folder errors
	ErrFolderNotFound = errors.New("folder not found")

	// Bucket errors
	ErrBucketObjectNotFound  = errors.New("bucket object not found")
	ErrDuplicateBucketObject = errors.New("bucket object already exists")
)
