package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daylytics/daylytics/internal/api/middleware"
	"github.com/daylytics/daylytics/pkg/storage"
)

// StorageHandler serves the storage overview and reconciliation endpoints.
type StorageHandler struct {
	orch *storage.Orchestrator
}

// NewStorageHandler creates a storage handler.
func NewStorageHandler(orch *storage.Orchestrator) *StorageHandler {
	return &StorageHandler{orch: orch}
}

// Overview returns usage, limit and the full asset inventory. The walk also
// rewrites the ledger with the freshly computed total, so the numbers shown
// are always canonical.
func (h *StorageHandler) Overview(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	overview, err := h.orch.StorageOverview(r.Context(), claims.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, overview)
}

// Recompute re-derives the user's canonical storage usage.
func (h *StorageHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	total, err := h.orch.Recompute(r.Context(), claims.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, map[string]int64{"storageUsed": total})
}

// EvictPending garbage-collects expired pending inline images.
func (h *StorageHandler) EvictPending(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	evicted, err := h.orch.EvictExpiredPendingInline(r.Context(), claims.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, map[string]int{"evicted": evicted})
}

// DeleteAsset removes an asset through the unified storage view. The
// category segment selects the deletion path:
//
//	task/{taskID}     - the task's image
//	bucket/{objectID} - a bucket object
//	inline/{docID}    - an inline image, URL given in the url query parameter
func (h *StorageHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	category := chi.URLParam(r, "category")
	id := chi.URLParam(r, "id")

	switch category {
	case storage.AssetCategoryTask:
		if _, err := h.orch.DeleteTaskImage(r.Context(), claims.UserID, id); err != nil {
			writeStorageError(w, err)
			return
		}
	case storage.AssetCategoryBucket:
		if err := h.orch.DeleteBucketObject(r.Context(), claims.UserID, id); err != nil {
			writeStorageError(w, err)
			return
		}
	case storage.AssetCategoryInline:
		imageURL := r.URL.Query().Get("url")
		if imageURL == "" {
			BadRequest(w, "A url query parameter is required")
			return
		}
		if _, err := h.orch.DeleteDocumentInlineImage(r.Context(), claims.UserID, id, imageURL); err != nil {
			writeStorageError(w, err)
			return
		}
	default:
		BadRequest(w, "Unknown asset category")
		return
	}

	WriteNoContent(w)
}
