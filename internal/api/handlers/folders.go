package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daylytics/daylytics/internal/api/middleware"
	"github.com/daylytics/daylytics/pkg/models"
	"github.com/daylytics/daylytics/pkg/storage"
	"github.com/daylytics/daylytics/pkg/store"
)

// FolderHandler serves folder CRUD.
type FolderHandler struct {
	store store.Store
	orch  *storage.Orchestrator
}

// NewFolderHandler creates a folder handler.
func NewFolderHandler(st store.Store, orch *storage.Orchestrator) *FolderHandler {
	return &FolderHandler{store: st, orch: orch}
}

type folderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

type updateFolderRequest struct {
	Name     *string        `json:"name"`
	ParentID optionalString `json:"parent_id"`
}

// List returns all of the user's folders.
func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	folders, err := h.store.ListFolders(r.Context(), claims.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, folders)
}

// Get returns one folder.
func (h *FolderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	folder, err := h.store.GetFolder(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, folder)
}

// Create adds a folder, optionally nested under a parent.
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	var req folderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := models.ValidateFolderName(req.Name); err != nil {
		BadRequest(w, err.Error())
		return
	}
	if req.ParentID != nil {
		if _, err := h.store.GetFolder(r.Context(), *req.ParentID, claims.UserID); err != nil {
			writeStorageError(w, err)
			return
		}
	}

	folder := &models.Folder{
		UserID:   claims.UserID,
		Name:     req.Name,
		ParentID: req.ParentID,
	}
	if _, err := h.store.CreateFolder(r.Context(), folder); err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONCreated(w, folder)
}

// Update changes the fields present in the request. Omitted fields keep
// their current value; an explicit null parent_id moves the folder to the
// root.
func (h *FolderHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	folderID := chi.URLParam(r, "id")

	var req updateFolderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	folder, err := h.store.GetFolder(r.Context(), folderID, claims.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	if req.Name != nil {
		if err := models.ValidateFolderName(*req.Name); err != nil {
			BadRequest(w, err.Error())
			return
		}
		folder.Name = *req.Name
	}
	if req.ParentID.Set {
		if req.ParentID.Value != nil {
			if *req.ParentID.Value == folderID {
				BadRequest(w, "A folder cannot be its own parent")
				return
			}
			if _, err := h.store.GetFolder(r.Context(), *req.ParentID.Value, claims.UserID); err != nil {
				writeStorageError(w, err)
				return
			}
		}
		folder.ParentID = req.ParentID.Value
	}

	if err := h.store.UpdateFolder(r.Context(), folder); err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, folder)
}

// TogglePin flips a folder's pinned state.
func (h *FolderHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	folder, err := h.store.GetFolder(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	folder.IsPinned = !folder.IsPinned
	if err := h.store.UpdateFolder(r.Context(), folder); err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, folder)
}

// Delete removes an empty folder. Folders still holding subfolders or
// documents are refused with a 409 carrying the counts.
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	if err := h.orch.DeleteFolder(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		writeStorageError(w, err)
		return
	}
	WriteNoContent(w)
}
