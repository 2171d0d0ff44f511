//go:build integration

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/daylytics/daylytics/internal/api/auth"
	"github.com/daylytics/daylytics/internal/bytesize"
	"github.com/daylytics/daylytics/pkg/blob"
	"github.com/daylytics/daylytics/pkg/blob/memory"
	"github.com/daylytics/daylytics/pkg/storage"
	"github.com/daylytics/daylytics/pkg/store"
)

// setupRouter builds the full router against an in-memory SQLite store.
// limit is the storage quota given to newly registered accounts.
func setupRouter(t *testing.T, limit int64, blobs blob.Store) http.Handler {
	t.Helper()

	st, err := store.New(&store.Config{
		Type: store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{
			Path: ":memory:",
		},
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := APIConfig{
		Port:                    18080,
		ReadTimeout:             5 * time.Second,
		WriteTimeout:            5 * time.Second,
		IdleTimeout:             10 * time.Second,
		DefaultUserStorageLimit: bytesize.ByteSize(limit),
		JWT: JWTConfig{
			Secret: "test-secret-key-for-testing-only-32chars",
		},
	}

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret: cfg.JWT.Secret,
		Issuer: "test",
	})
	if err != nil {
		t.Fatalf("failed to create JWT service: %v", err)
	}

	orch := storage.NewOrchestrator(st, blobs, nil)
	return NewRouter(cfg, st, blobs, orch, jwtService, nil)
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func doUpload(t *testing.T, h http.Handler, path, token, field, fileName, mimeType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, fileName))
	header.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write multipart data: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// registerUser registers an account and returns its access token.
func registerUser(t *testing.T, h http.Handler, email string) string {
	t.Helper()

	w := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal register response: %v", err)
	}
	if resp.Tokens.AccessToken == "" {
		t.Fatal("expected access token in register response")
	}
	return resp.Tokens.AccessToken
}

func TestRouter_Health(t *testing.T) {
	h := setupRouter(t, 0, memory.New())

	w := doJSON(t, h, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Service string `json:"service"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal health response: %v", err)
	}
	if resp.Status != "healthy" || resp.Data.Service != "daylytics" {
		t.Errorf("unexpected health response: %s", w.Body.String())
	}

	w = doJSON(t, h, http.MethodGet, "/health/ready", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("readiness status = %d", w.Code)
	}
}

func TestRouter_HealthBlobUnconfigured(t *testing.T) {
	h := setupRouter(t, 0, blob.Unavailable{})

	w := doJSON(t, h, http.MethodGet, "/health/blob", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("blob health status = %d, want 503", w.Code)
	}
}

func TestRouter_AuthFlow(t *testing.T) {
	h := setupRouter(t, 0, memory.New())

	token := registerUser(t, h, "alice@example.com")

	t.Run("duplicate email conflicts", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"email":    "alice@example.com",
			"password": "password123",
		})
		if w.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
			t.Errorf("content type = %q, want problem+json", ct)
		}
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "wrongpassword",
		})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("me with token", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet, "/api/v1/auth/me", token, nil)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
		}
	})

	t.Run("protected route without token", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet, "/api/v1/tasks?date=2026-08-30", "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
}

func TestRouter_QuotaLifecycle(t *testing.T) {
	mem := memory.New()
	h := setupRouter(t, 1000, mem)
	token := registerUser(t, h, "quota@example.com")

	upload := func(size int) *httptest.ResponseRecorder {
		return doUpload(t, h, "/api/v1/bucket", token, "file",
			fmt.Sprintf("file-%d.bin", size), "application/octet-stream", bytes.Repeat([]byte("x"), size))
	}

	// Fill most of the quota
	w := upload(960)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload 960 status = %d, body = %s", w.Code, w.Body.String())
	}
	var first struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("failed to unmarshal upload response: %v", err)
	}

	// An upload past the limit is denied with the remaining headroom
	w = upload(50)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("upload 50 status = %d, want 413, body = %s", w.Code, w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("40 bytes remaining")) {
		t.Errorf("expected remaining bytes in denial, got %s", w.Body.String())
	}
	if mem.Len() != 1 {
		t.Errorf("denied upload reached blob store: %d objects", mem.Len())
	}

	// An upload that exactly fills the quota is accepted
	w = upload(40)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload 40 status = %d, body = %s", w.Code, w.Body.String())
	}

	// Overview reports the canonical totals
	w = doJSON(t, h, http.MethodGet, "/api/v1/storage", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("overview status = %d, body = %s", w.Code, w.Body.String())
	}
	var overview struct {
		StorageUsed  int64 `json:"storageUsed"`
		StorageLimit int64 `json:"storageLimit"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &overview); err != nil {
		t.Fatalf("failed to unmarshal overview: %v", err)
	}
	if overview.StorageUsed != 1000 || overview.StorageLimit != 1000 {
		t.Errorf("overview = %+v, want used=1000 limit=1000", overview)
	}

	// Deleting releases the quota credit and the blob
	w = doJSON(t, h, http.MethodDelete, "/api/v1/bucket/"+first.ID, token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, body = %s", w.Code, w.Body.String())
	}
	if mem.Len() != 1 {
		t.Errorf("expected 1 blob after delete, got %d", mem.Len())
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/storage/recompute", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("recompute status = %d", w.Code)
	}
	var recompute struct {
		StorageUsed int64 `json:"storageUsed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &recompute); err != nil {
		t.Fatalf("failed to unmarshal recompute: %v", err)
	}
	if recompute.StorageUsed != 40 {
		t.Errorf("recompute = %d, want 40", recompute.StorageUsed)
	}
}

func TestRouter_TaskImageFlow(t *testing.T) {
	mem := memory.New()
	h := setupRouter(t, 0, mem)
	token := registerUser(t, h, "tasks@example.com")

	w := doJSON(t, h, http.MethodPost, "/api/v1/tasks", token, map[string]string{
		"date":  "2026-08-30",
		"title": "walk the dog",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create task status = %d, body = %s", w.Code, w.Body.String())
	}
	var task struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("failed to unmarshal task: %v", err)
	}

	t.Run("non-image rejected", func(t *testing.T) {
		w := doUpload(t, h, "/api/v1/tasks/"+task.ID+"/image", token, "image", "notes.txt", "text/plain", []byte("hello"))
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400, body = %s", w.Code, w.Body.String())
		}
	})

	w = doUpload(t, h, "/api/v1/tasks/"+task.ID+"/image", token, "image", "photo.png", "image/png", bytes.Repeat([]byte("p"), 128))
	if w.Code != http.StatusOK {
		t.Fatalf("upload image status = %d, body = %s", w.Code, w.Body.String())
	}
	if mem.Len() != 1 {
		t.Fatalf("expected 1 blob, got %d", mem.Len())
	}

	t.Run("replace deletes old blob", func(t *testing.T) {
		w := doUpload(t, h, "/api/v1/tasks/"+task.ID+"/image", token, "image", "photo2.png", "image/png", bytes.Repeat([]byte("q"), 64))
		if w.Code != http.StatusOK {
			t.Fatalf("replace status = %d, body = %s", w.Code, w.Body.String())
		}
		if mem.Len() != 1 {
			t.Errorf("expected 1 blob after replace, got %d", mem.Len())
		}
	})

	t.Run("task delete cascades to blob", func(t *testing.T) {
		w := doJSON(t, h, http.MethodDelete, "/api/v1/tasks/"+task.ID, token, nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("delete status = %d, body = %s", w.Code, w.Body.String())
		}
		if mem.Len() != 0 {
			t.Errorf("expected no blobs after task delete, got %d", mem.Len())
		}
	})
}

func TestRouter_FolderDeleteGuard(t *testing.T) {
	h := setupRouter(t, 0, memory.New())
	token := registerUser(t, h, "folders@example.com")

	w := doJSON(t, h, http.MethodPost, "/api/v1/folders", token, map[string]string{"name": "Work"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create folder status = %d, body = %s", w.Code, w.Body.String())
	}
	var folder struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &folder); err != nil {
		t.Fatalf("failed to unmarshal folder: %v", err)
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/documents", token, map[string]any{
		"title":     "Meeting notes",
		"content":   "agenda",
		"folder_id": folder.ID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create document status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, http.MethodDelete, "/api/v1/folders/"+folder.ID, token, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("delete non-empty folder status = %d, want 409, body = %s", w.Code, w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("1 documents")) {
		t.Errorf("expected document count in conflict detail, got %s", w.Body.String())
	}
}

func TestRouter_FolderGetAndPin(t *testing.T) {
	h := setupRouter(t, 0, memory.New())
	token := registerUser(t, h, "pins@example.com")

	w := doJSON(t, h, http.MethodPost, "/api/v1/folders", token, map[string]string{"name": "Ideas"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create folder status = %d, body = %s", w.Code, w.Body.String())
	}
	var folder struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		IsPinned bool   `json:"is_pinned"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &folder); err != nil {
		t.Fatalf("failed to unmarshal folder: %v", err)
	}

	w = doJSON(t, h, http.MethodGet, "/api/v1/folders/"+folder.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get folder status = %d, body = %s", w.Code, w.Body.String())
	}
	var got struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal folder: %v", err)
	}
	if got.ID != folder.ID || got.Name != "Ideas" {
		t.Errorf("get folder = %+v", got)
	}

	t.Run("unknown folder is 404", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet, "/api/v1/folders/missing", token, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("pin toggles and persists", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPost, "/api/v1/folders/"+folder.ID+"/pin", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("pin status = %d, body = %s", w.Code, w.Body.String())
		}
		var pinned struct {
			IsPinned bool `json:"is_pinned"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &pinned); err != nil {
			t.Fatalf("failed to unmarshal folder: %v", err)
		}
		if !pinned.IsPinned {
			t.Error("expected folder pinned after toggle")
		}

		w = doJSON(t, h, http.MethodGet, "/api/v1/folders/"+folder.ID, token, nil)
		if err := json.Unmarshal(w.Body.Bytes(), &pinned); err != nil {
			t.Fatalf("failed to unmarshal folder: %v", err)
		}
		if !pinned.IsPinned {
			t.Error("expected pinned state persisted")
		}

		w = doJSON(t, h, http.MethodPost, "/api/v1/folders/"+folder.ID+"/pin", token, nil)
		if err := json.Unmarshal(w.Body.Bytes(), &pinned); err != nil {
			t.Fatalf("failed to unmarshal folder: %v", err)
		}
		if pinned.IsPinned {
			t.Error("expected folder unpinned after second toggle")
		}
	})
}

func TestRouter_PartialUpdates(t *testing.T) {
	h := setupRouter(t, 0, memory.New())
	token := registerUser(t, h, "partial@example.com")

	createFolder := func(name string, parentID *string) string {
		w := doJSON(t, h, http.MethodPost, "/api/v1/folders", token, map[string]any{
			"name": name, "parent_id": parentID,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create folder status = %d, body = %s", w.Code, w.Body.String())
		}
		var folder struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &folder); err != nil {
			t.Fatalf("failed to unmarshal folder: %v", err)
		}
		return folder.ID
	}

	parentID := createFolder("Parent", nil)
	childID := createFolder("Child", &parentID)

	t.Run("folder rename keeps parent", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPut, "/api/v1/folders/"+childID, token, map[string]string{
			"name": "Renamed",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
		}
		var folder struct {
			Name     string  `json:"name"`
			ParentID *string `json:"parent_id"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &folder); err != nil {
			t.Fatalf("failed to unmarshal folder: %v", err)
		}
		if folder.Name != "Renamed" {
			t.Errorf("name = %q", folder.Name)
		}
		if folder.ParentID == nil || *folder.ParentID != parentID {
			t.Errorf("rename must not move the folder, parent = %v", folder.ParentID)
		}
	})

	t.Run("explicit null moves folder to root", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPut, "/api/v1/folders/"+childID, token, map[string]any{
			"parent_id": nil,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
		}
		var folder struct {
			Name     string  `json:"name"`
			ParentID *string `json:"parent_id"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &folder); err != nil {
			t.Fatalf("failed to unmarshal folder: %v", err)
		}
		if folder.ParentID != nil {
			t.Errorf("expected root folder, parent = %v", folder.ParentID)
		}
		if folder.Name != "Renamed" {
			t.Errorf("move must not rename, name = %q", folder.Name)
		}
	})

	t.Run("document retitle keeps folder and content", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPost, "/api/v1/documents", token, map[string]any{
			"title":     "Draft",
			"content":   "body text",
			"folder_id": parentID,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create document status = %d, body = %s", w.Code, w.Body.String())
		}
		var doc struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
			t.Fatalf("failed to unmarshal document: %v", err)
		}

		w = doJSON(t, h, http.MethodPut, "/api/v1/documents/"+doc.ID, token, map[string]string{
			"title": "Final",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
		}
		var updated struct {
			Title    string  `json:"title"`
			Content  string  `json:"content"`
			FolderID *string `json:"folder_id"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
			t.Fatalf("failed to unmarshal document: %v", err)
		}
		if updated.Title != "Final" || updated.Content != "body text" {
			t.Errorf("retitle changed other fields: %+v", updated)
		}
		if updated.FolderID == nil || *updated.FolderID != parentID {
			t.Errorf("retitle must not move the document, folder = %v", updated.FolderID)
		}
	})
}

func TestRouter_InlineImageWithDocumentID(t *testing.T) {
	mem := memory.New()
	h := setupRouter(t, 0, mem)
	token := registerUser(t, h, "inline@example.com")

	w := doJSON(t, h, http.MethodPost, "/api/v1/documents", token, map[string]string{
		"title":   "Illustrated",
		"content": "",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create document status = %d, body = %s", w.Code, w.Body.String())
	}
	var doc struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("failed to unmarshal document: %v", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("document_id", doc.ID); err != nil {
		t.Fatalf("failed to write form field: %v", err)
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="diagram.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("d"), 96)); err != nil {
		t.Fatalf("failed to write multipart data: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/inline-images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("inline upload status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var img struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &img); err != nil {
		t.Fatalf("failed to unmarshal inline image: %v", err)
	}

	// The image is tracked on the document right away, no save required.
	w = doJSON(t, h, http.MethodGet, "/api/v1/documents/"+doc.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get document status = %d, body = %s", w.Code, w.Body.String())
	}
	var got struct {
		InlineImages []struct {
			URL  string `json:"url"`
			Size int64  `json:"size"`
		} `json:"inline_images"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal document: %v", err)
	}
	if len(got.InlineImages) != 1 || got.InlineImages[0].URL != img.URL || got.InlineImages[0].Size != 96 {
		t.Errorf("expected tracked inline image, got %+v", got.InlineImages)
	}
}

func TestRouter_BlobUnavailable(t *testing.T) {
	h := setupRouter(t, 0, blob.Unavailable{})
	token := registerUser(t, h, "noblobs@example.com")

	w := doUpload(t, h, "/api/v1/bucket", token, "file", "file.bin", "application/octet-stream", []byte("data"))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("upload status = %d, want 503, body = %s", w.Code, w.Body.String())
	}
}
