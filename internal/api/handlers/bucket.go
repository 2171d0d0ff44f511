package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daylytics/daylytics/internal/api/middleware"
	"github.com/daylytics/daylytics/pkg/storage"
	"github.com/daylytics/daylytics/pkg/store"
)

// BucketHandler serves the user's standalone file bucket.
type BucketHandler struct {
	store store.Store
	orch  *storage.Orchestrator
}

// NewBucketHandler creates a bucket handler.
func NewBucketHandler(st store.Store, orch *storage.Orchestrator) *BucketHandler {
	return &BucketHandler{store: st, orch: orch}
}

// List returns the bucket contents, newest first.
func (h *BucketHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	objs, err := h.store.ListBucketObjects(r.Context(), claims.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, objs)
}

// Get returns one bucket object.
func (h *BucketHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	obj, err := h.store.GetBucketObject(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, obj)
}

// Upload stores a file in the bucket.
func (h *BucketHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	up, ok := readMultipartFile(w, r, "file")
	if !ok {
		return
	}

	obj, err := h.orch.UploadBucketObject(r.Context(), claims.UserID, up)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONCreated(w, obj)
}

// Delete removes a bucket object and its blob.
func (h *BucketHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	if err := h.orch.DeleteBucketObject(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		writeStorageError(w, err)
		return
	}
	WriteNoContent(w)
}
