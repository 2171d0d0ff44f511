package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/daylytics/daylytics/internal/logger"
	"github.com/daylytics/daylytics/pkg/blob"
	"github.com/daylytics/daylytics/pkg/models"
	"github.com/daylytics/daylytics/pkg/storage"
)

// maxUploadBytes caps multipart request bodies. Set above the largest
// per-category file limit so category validation produces the error message.
const maxUploadBytes = 105 << 20

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns true if successful, false if decoding fails (error response is written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// optionalString is a nullable string field that records whether the JSON
// key was present at all. Absent fields leave the stored value untouched;
// an explicit null clears it.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

// writeStorageError maps domain errors from the storage subsystem onto HTTP
// problem responses. Anything unrecognized becomes a 500.
func writeStorageError(w http.ResponseWriter, err error) {
	var quotaErr *storage.QuotaExceededError
	var typeErr *storage.InvalidAssetTypeError
	var notEmptyErr *storage.FolderNotEmptyError

	switch {
	case errors.As(err, &quotaErr):
		PayloadTooLarge(w, fmt.Sprintf("Storage limit exceeded. You have %d bytes remaining.", quotaErr.Remaining))
	case errors.As(err, &typeErr):
		BadRequest(w, typeErr.Reason)
	case errors.As(err, &notEmptyErr):
		WriteProblem(w, http.StatusConflict, "Folder Not Empty",
			fmt.Sprintf("Folder contains %d subfolders and %d documents.", notEmptyErr.Subfolders, notEmptyErr.Documents))
	case errors.Is(err, blob.ErrStoreUnavailable):
		ServiceUnavailable(w, "Blob storage is not configured")
	case errors.Is(err, blob.ErrOperationFailed):
		BadGateway(w, "Blob storage operation failed")
	case errors.Is(err, storage.ErrAssetNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrTaskNotFound),
		errors.Is(err, models.ErrAttachmentNotFound),
		errors.Is(err, models.ErrDocumentNotFound),
		errors.Is(err, models.ErrFolderNotFound),
		errors.Is(err, models.ErrBucketObjectNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, models.ErrDuplicateUser),
		errors.Is(err, models.ErrDuplicateBucketObject):
		Conflict(w, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		Unauthorized(w, "Invalid credentials")
	default:
		logger.Error("request failed", "error", err)
		InternalServerError(w, "An internal error occurred")
	}
}

// readFormFile reads one multipart file into memory.
func readFormFile(file multipart.File, header *multipart.FileHeader) (storage.Upload, error) {
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return storage.Upload{}, err
	}
	return storage.Upload{
		Data:     data,
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
	}, nil
}

// readMultipartFile extracts a single uploaded file from the request. On
// failure an error response is written and ok is false.
func readMultipartFile(w http.ResponseWriter, r *http.Request, field string) (storage.Upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile(field)
	if err != nil {
		BadRequest(w, "No file provided")
		return storage.Upload{}, false
	}

	up, err := readFormFile(file, header)
	if err != nil {
		BadRequest(w, "Failed to read uploaded file")
		return storage.Upload{}, false
	}
	return up, true
}

// readMultipartFiles extracts every file uploaded under field, up to limit.
func readMultipartFiles(w http.ResponseWriter, r *http.Request, field string, limit int) ([]storage.Upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		BadRequest(w, "Invalid multipart request")
		return nil, false
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		BadRequest(w, "No files provided")
		return nil, false
	}
	if len(headers) > limit {
		BadRequest(w, fmt.Sprintf("At most %d files per upload", limit))
		return nil, false
	}

	uploads := make([]storage.Upload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			BadRequest(w, "Failed to read uploaded file")
			return nil, false
		}
		up, err := readFormFile(file, header)
		if err != nil {
			BadRequest(w, "Failed to read uploaded file")
			return nil, false
		}
		uploads = append(uploads, up)
	}
	return uploads, true
}
