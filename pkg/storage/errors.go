package storage

import (
	"errors"
	"fmt"
)

// QuotaExceededError rejects an upload that would push a user past their
// storage limit. Remaining is the number of bytes still available.
type QuotaExceededError struct {
	Remaining int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("storage limit exceeded: %d bytes remaining", e.Remaining)
}

// InvalidAssetTypeError rejects an upload whose mime type or size is not
// acceptable for the target asset category.
type InvalidAssetTypeError struct {
	Reason string
}

func (e *InvalidAssetTypeError) Error() string {
	return e.Reason
}

// FolderNotEmptyError blocks deletion of a folder that still has contents.
type FolderNotEmptyError struct {
	Subfolders int64
	Documents  int64
}

func (e *FolderNotEmptyError) Error() string {
	return fmt.Sprintf("folder is not empty: %d subfolders, %d documents", e.Subfolders, e.Documents)
}

// ErrAssetNotFound reports a lifecycle operation aimed at an asset slot that
// holds nothing, such as deleting the attachment of a task without one.
var ErrAssetNotFound = errors.New("asset not found")
