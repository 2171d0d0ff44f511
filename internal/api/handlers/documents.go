package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daylytics/daylytics/internal/api/middleware"
	"github.com/daylytics/daylytics/pkg/models"
	"github.com/daylytics/daylytics/pkg/storage"
	"github.com/daylytics/daylytics/pkg/store"
)

// maxAttachmentsPerUpload caps how many files one attachment request may carry.
const maxAttachmentsPerUpload = 10

// DocumentHandler serves document CRUD, attachments and inline images.
type DocumentHandler struct {
	store store.Store
	orch  *storage.Orchestrator
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(st store.Store, orch *storage.Orchestrator) *DocumentHandler {
	return &DocumentHandler{store: st, orch: orch}
}

type documentRequest struct {
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	FolderID *string           `json:"folder_id"`
	Tags     models.StringList `json:"tags"`
}

type updateDocumentRequest struct {
	Title    *string            `json:"title"`
	Content  *string            `json:"content"`
	FolderID optionalString     `json:"folder_id"`
	Tags     *models.StringList `json:"tags"`
}

// List returns the user's documents. With a folder query parameter the
// listing is restricted to that folder; the literal "null" selects documents
// outside any folder.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	if !r.URL.Query().Has("folder") {
		docs, err := h.store.ListDocuments(r.Context(), claims.UserID)
		if err != nil {
			writeStorageError(w, err)
			return
		}
		WriteJSONOK(w, docs)
		return
	}

	var folderID *string
	if f := r.URL.Query().Get("folder"); f != "" && f != "null" {
		folderID = &f
	}
	docs, err := h.store.ListDocumentsInFolder(r.Context(), claims.UserID, folderID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, docs)
}

// Get returns one document.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	doc, err := h.store.GetDocument(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, doc)
}

// Create adds a document, syncing inline images embedded in its content.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	var req documentRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := models.ValidateDocumentTitle(req.Title); err != nil {
		BadRequest(w, err.Error())
		return
	}
	if err := models.ValidateDocumentContent(req.Content); err != nil {
		BadRequest(w, err.Error())
		return
	}

	doc := &models.Document{
		UserID:   claims.UserID,
		Title:    req.Title,
		Content:  req.Content,
		FolderID: req.FolderID,
		Tags:     req.Tags,
	}
	if _, err := h.store.CreateDocument(r.Context(), doc); err != nil {
		writeStorageError(w, err)
		return
	}

	doc, err := h.orch.SyncDocumentInlineImages(r.Context(), claims.UserID, doc.ID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONCreated(w, doc)
}

// Update changes the fields present in the request, syncing inline images
// afterwards. Omitted fields keep their current value; an explicit null
// folder_id moves the document to the root.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	documentID := chi.URLParam(r, "id")

	var req updateDocumentRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	doc, err := h.store.GetDocument(r.Context(), documentID, claims.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	if req.Title != nil {
		if err := models.ValidateDocumentTitle(*req.Title); err != nil {
			BadRequest(w, err.Error())
			return
		}
		doc.Title = *req.Title
	}
	if req.Content != nil {
		if err := models.ValidateDocumentContent(*req.Content); err != nil {
			BadRequest(w, err.Error())
			return
		}
		doc.Content = *req.Content
	}
	if req.FolderID.Set {
		doc.FolderID = req.FolderID.Value
	}
	if req.Tags != nil {
		doc.Tags = *req.Tags
	}

	if err := h.store.UpdateDocument(r.Context(), doc); err != nil {
		writeStorageError(w, err)
		return
	}

	doc, err = h.orch.SyncDocumentInlineImages(r.Context(), claims.UserID, documentID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, doc)
}

// TogglePin flips a document's pinned state.
func (h *DocumentHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	documentID := chi.URLParam(r, "id")

	doc, err := h.store.GetDocument(r.Context(), documentID, claims.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	doc.IsPinned = !doc.IsPinned
	if err := h.store.UpdateDocument(r.Context(), doc); err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, doc)
}

// Delete removes a document and all its assets.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	if err := h.orch.DeleteDocument(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		writeStorageError(w, err)
		return
	}
	WriteNoContent(w)
}

// UploadAttachments appends uploaded files to a document.
func (h *DocumentHandler) UploadAttachments(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	documentID := chi.URLParam(r, "id")

	uploads, ok := readMultipartFiles(w, r, "files", maxAttachmentsPerUpload)
	if !ok {
		return
	}

	doc, err := h.orch.UploadDocumentAttachments(r.Context(), claims.UserID, documentID, uploads)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, doc)
}

// DeleteAttachment removes one attachment from a document.
func (h *DocumentHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	doc, err := h.orch.DeleteDocumentAttachment(r.Context(), claims.UserID,
		chi.URLParam(r, "id"), chi.URLParam(r, "attachmentID"))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, doc)
}

// UploadInlineImage stores an image for embedding in document content. An
// optional document_id form field tracks the image on that document right
// away; without it the image stays in the user's pending buffer until a
// saved document references its URL.
func (h *DocumentHandler) UploadInlineImage(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	up, ok := readMultipartFile(w, r, "image")
	if !ok {
		return
	}

	img, err := h.orch.UploadInlineImage(r.Context(), claims.UserID, r.FormValue("document_id"), up)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONCreated(w, img)
}

// DeleteInlineImage removes an inline image by URL, given in the url query
// parameter.
func (h *DocumentHandler) DeleteInlineImage(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	imageURL := r.URL.Query().Get("url")
	if imageURL == "" {
		BadRequest(w, "A url query parameter is required")
		return
	}

	doc, err := h.orch.DeleteDocumentInlineImage(r.Context(), claims.UserID, chi.URLParam(r, "id"), imageURL)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, doc)
}
