//go:build integration

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/daylytics/daylytics/pkg/models"
)

// createTestStore creates an in-memory SQLite store for testing.
func createTestStore(t *testing.T) *GORMStore {
	t.Helper()
	store, err := New(&Config{
		Type: DatabaseTypeSQLite,
		SQLite: SQLiteConfig{
			Path: ":memory:",
		},
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	return store
}

func createTestUser(t *testing.T, store *GORMStore, email string) *models.User {
	t.Helper()
	hash, err := models.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
	}
	if _, err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestNew(t *testing.T) {
	t.Run("default config uses sqlite", func(t *testing.T) {
		config := &Config{}
		config.ApplyDefaults()

		if config.Type != DatabaseTypeSQLite {
			t.Errorf("expected SQLite, got %s", config.Type)
		}
	})

	t.Run("invalid config returns error", func(t *testing.T) {
		config := &Config{
			Type: "invalid",
		}
		_, err := New(config)
		if err == nil {
			t.Error("expected error for invalid config")
		}
	})
}

func TestUserOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	user := createTestUser(t, store, "alice@example.com")

	t.Run("get by email", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("expected id %s, got %s", user.ID, got.ID)
		}
		if got.StorageLimit != models.DefaultStorageLimit {
			t.Errorf("expected default storage limit, got %d", got.StorageLimit)
		}
	})

	t.Run("duplicate email fails", func(t *testing.T) {
		dup := &models.User{
			Name:         "Other",
			Email:        "alice@example.com",
			PasswordHash: "x",
		}
		if _, err := store.CreateUser(ctx, dup); !errors.Is(err, models.ErrDuplicateUser) {
			t.Errorf("expected ErrDuplicateUser, got %v", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		if _, err := store.GetUserByID(ctx, "nope"); !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("validate credentials", func(t *testing.T) {
		if _, err := store.ValidateCredentials(ctx, "alice@example.com", "correct horse battery"); err != nil {
			t.Errorf("expected valid credentials, got %v", err)
		}
		if _, err := store.ValidateCredentials(ctx, "alice@example.com", "wrong"); !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
		if _, err := store.ValidateCredentials(ctx, "ghost@example.com", "x"); !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
		}
	})
}

func TestUserManagement(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	first := createTestUser(t, store, "first@example.com")
	second := createTestUser(t, store, "second@example.com")

	t.Run("list users", func(t *testing.T) {
		users, err := store.ListUsers(ctx)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 2 {
			t.Fatalf("expected 2 users, got %d", len(users))
		}
	})

	t.Run("update password", func(t *testing.T) {
		hash, err := models.HashPassword("new password 123")
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
		if err := store.UpdateUserPassword(ctx, first.ID, hash); err != nil {
			t.Fatalf("failed to update password: %v", err)
		}
		if _, err := store.ValidateCredentials(ctx, "first@example.com", "new password 123"); err != nil {
			t.Errorf("new password rejected: %v", err)
		}
		if _, err := store.ValidateCredentials(ctx, "first@example.com", "correct horse battery"); !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("old password still accepted")
		}
		if err := store.UpdateUserPassword(ctx, "nope", hash); !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("delete removes owned rows", func(t *testing.T) {
		task := &models.Task{UserID: second.ID, Date: "2026-08-30", Title: "doomed"}
		if _, err := store.CreateTask(ctx, task); err != nil {
			t.Fatalf("failed to create task: %v", err)
		}
		obj := &models.BucketObject{
			UserID:   second.ID,
			BlobID:   "bucket/doomed",
			URL:      "https://cdn/image/bucket/doomed",
			FileName: "file.bin",
			MimeType: "application/octet-stream",
			Size:     10,
		}
		if _, err := store.CreateBucketObject(ctx, obj); err != nil {
			t.Fatalf("failed to create bucket object: %v", err)
		}

		if err := store.DeleteUser(ctx, second.ID); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		if _, err := store.GetUserByID(ctx, second.ID); !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected user gone, got %v", err)
		}
		tasks, err := store.ListTasksByDate(ctx, second.ID, "2026-08-30")
		if err != nil {
			t.Fatalf("failed to list tasks: %v", err)
		}
		if len(tasks) != 0 {
			t.Errorf("expected no tasks after user delete, got %d", len(tasks))
		}
		objs, err := store.ListBucketObjects(ctx, second.ID)
		if err != nil {
			t.Fatalf("failed to list bucket objects: %v", err)
		}
		if len(objs) != 0 {
			t.Errorf("expected no bucket objects after user delete, got %d", len(objs))
		}

		if err := store.DeleteUser(ctx, second.ID); !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound on second delete, got %v", err)
		}
	})
}

func TestStorageAccounting(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	user := createTestUser(t, store, "bob@example.com")

	t.Run("credit and debit", func(t *testing.T) {
		if err := store.AdjustStorageUsed(ctx, user.ID, 500); err != nil {
			t.Fatalf("credit failed: %v", err)
		}
		if err := store.AdjustStorageUsed(ctx, user.ID, -200); err != nil {
			t.Fatalf("debit failed: %v", err)
		}

		got, err := store.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if got.StorageUsed != 300 {
			t.Errorf("expected 300 bytes used, got %d", got.StorageUsed)
		}
	})

	t.Run("debit clamps at zero", func(t *testing.T) {
		if err := store.AdjustStorageUsed(ctx, user.ID, -10_000); err != nil {
			t.Fatalf("debit failed: %v", err)
		}

		got, err := store.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if got.StorageUsed != 0 {
			t.Errorf("expected usage clamped to 0, got %d", got.StorageUsed)
		}
	})

	t.Run("set canonical value", func(t *testing.T) {
		if err := store.SetStorageUsed(ctx, user.ID, 1234); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		got, _ := store.GetUserByID(ctx, user.ID)
		if got.StorageUsed != 1234 {
			t.Errorf("expected 1234, got %d", got.StorageUsed)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if err := store.AdjustStorageUsed(ctx, "nope", 1); !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestPendingInlineImages(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	user := createTestUser(t, store, "carol@example.com")

	pending := models.PendingInlineImages{
		{BlobID: "inline/abc", URL: "https://cdn/image/inline/abc", Size: 42, UploadedAt: time.Now().UTC()},
	}
	if err := store.SetPendingInlineImages(ctx, user.ID, pending); err != nil {
		t.Fatalf("failed to set pending images: %v", err)
	}

	got, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to get user: %v", err)
	}
	if len(got.PendingInlineImages) != 1 || got.PendingInlineImages[0].BlobID != "inline/abc" {
		t.Errorf("unexpected pending images: %+v", got.PendingInlineImages)
	}

	if err := store.SetPendingInlineImages(ctx, user.ID, nil); err != nil {
		t.Fatalf("failed to clear pending images: %v", err)
	}
	got, _ = store.GetUserByID(ctx, user.ID)
	if len(got.PendingInlineImages) != 0 {
		t.Errorf("expected empty buffer, got %+v", got.PendingInlineImages)
	}
}

func TestTaskOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	user := createTestUser(t, store, "dave@example.com")

	task := &models.Task{UserID: user.ID, Date: "2026-08-30", Title: "write report"}
	id, err := store.CreateTask(ctx, task)
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	t.Run("scoped by user", func(t *testing.T) {
		if _, err := store.GetTask(ctx, id, "someone-else"); !errors.Is(err, models.ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound for foreign user, got %v", err)
		}
	})

	t.Run("attachment slot", func(t *testing.T) {
		att := &models.TaskAttachment{
			BlobID:       "tasks/abc",
			URL:          "https://cdn/image/tasks/abc",
			OriginalName: "photo.png",
			Size:         99,
			MimeType:     "image/png",
		}
		if err := store.SetTaskAttachment(ctx, id, user.ID, att); err != nil {
			t.Fatalf("failed to set attachment: %v", err)
		}

		withAtt, err := store.ListTasksWithAttachments(ctx, user.ID)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(withAtt) != 1 || withAtt[0].Attachment.BlobID != "tasks/abc" {
			t.Errorf("unexpected attachment listing: %+v", withAtt)
		}

		if err := store.SetTaskAttachment(ctx, id, user.ID, nil); err != nil {
			t.Fatalf("failed to clear attachment: %v", err)
		}
		withAtt, _ = store.ListTasksWithAttachments(ctx, user.ID)
		if len(withAtt) != 0 {
			t.Errorf("expected no attachments after clear, got %+v", withAtt)
		}
	})

	t.Run("delete by date", func(t *testing.T) {
		other := &models.Task{UserID: user.ID, Date: "2026-08-30", Title: "second"}
		if _, err := store.CreateTask(ctx, other); err != nil {
			t.Fatalf("failed to create task: %v", err)
		}

		deleted, err := store.DeleteTasksByDate(ctx, user.ID, "2026-08-30")
		if err != nil {
			t.Fatalf("failed to delete by date: %v", err)
		}
		if deleted != 2 {
			t.Errorf("expected 2 deleted, got %d", deleted)
		}

		deleted, err = store.DeleteTasksByDate(ctx, user.ID, "2026-08-30")
		if err != nil || deleted != 0 {
			t.Errorf("expected 0 deleted on empty day, got %d (%v)", deleted, err)
		}
	})
}

func TestDocumentAndFolderOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	user := createTestUser(t, store, "erin@example.com")

	folder := &models.Folder{UserID: user.ID, Name: "Work"}
	folderID, err := store.CreateFolder(ctx, folder)
	if err != nil {
		t.Fatalf("failed to create folder: %v", err)
	}

	child := &models.Folder{UserID: user.ID, Name: "Reports", ParentID: &folderID}
	if _, err := store.CreateFolder(ctx, child); err != nil {
		t.Fatalf("failed to create child folder: %v", err)
	}

	doc := &models.Document{UserID: user.ID, Title: "Q3 notes", FolderID: &folderID}
	docID, err := store.CreateDocument(ctx, doc)
	if err != nil {
		t.Fatalf("failed to create document: %v", err)
	}

	t.Run("child counts", func(t *testing.T) {
		folders, err := store.CountChildFolders(ctx, user.ID, folderID)
		if err != nil || folders != 1 {
			t.Errorf("expected 1 child folder, got %d (%v)", folders, err)
		}
		docs, err := store.CountDocumentsInFolder(ctx, user.ID, folderID)
		if err != nil || docs != 1 {
			t.Errorf("expected 1 document, got %d (%v)", docs, err)
		}
	})

	t.Run("list by folder", func(t *testing.T) {
		inFolder, err := store.ListDocumentsInFolder(ctx, user.ID, &folderID)
		if err != nil || len(inFolder) != 1 {
			t.Fatalf("expected 1 document in folder, got %d (%v)", len(inFolder), err)
		}
		loose, err := store.ListDocumentsInFolder(ctx, user.ID, nil)
		if err != nil || len(loose) != 0 {
			t.Errorf("expected no loose documents, got %d (%v)", len(loose), err)
		}
	})

	t.Run("asset lists round trip", func(t *testing.T) {
		atts := models.DocumentAttachments{
			{ID: "a1", BlobID: "documents/x", URL: "https://cdn/raw/documents/x", OriginalName: "x.pdf", Size: 10, MimeType: "application/pdf", ResourceType: "raw"},
		}
		if err := store.SetDocumentAttachments(ctx, docID, user.ID, atts); err != nil {
			t.Fatalf("failed to set attachments: %v", err)
		}

		images := models.InlineImages{
			{BlobID: "inline/y", URL: "https://cdn/image/inline/y", Size: 5, UploadedAt: time.Now().UTC()},
		}
		if err := store.SetDocumentInlineImages(ctx, docID, user.ID, images); err != nil {
			t.Fatalf("failed to set inline images: %v", err)
		}

		got, err := store.GetDocument(ctx, docID, user.ID)
		if err != nil {
			t.Fatalf("failed to get document: %v", err)
		}
		if len(got.Attachments) != 1 || got.Attachments[0].BlobID != "documents/x" {
			t.Errorf("unexpected attachments: %+v", got.Attachments)
		}
		if len(got.InlineImages) != 1 || got.InlineImages[0].BlobID != "inline/y" {
			t.Errorf("unexpected inline images: %+v", got.InlineImages)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.DeleteDocument(ctx, docID, user.ID); err != nil {
			t.Fatalf("failed to delete document: %v", err)
		}
		if err := store.DeleteDocument(ctx, docID, user.ID); !errors.Is(err, models.ErrDocumentNotFound) {
			t.Errorf("expected ErrDocumentNotFound on second delete, got %v", err)
		}
	})
}

func TestBucketOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	user := createTestUser(t, store, "frank@example.com")

	obj := &models.BucketObject{
		UserID:       user.ID,
		BlobID:       "bucket/z",
		URL:          "https://cdn/raw/bucket/z",
		ResourceType: "raw",
		FileName:     "backup.zip",
		MimeType:     "application/zip",
		Size:         2048,
	}
	id, err := store.CreateBucketObject(ctx, obj)
	if err != nil {
		t.Fatalf("failed to create bucket object: %v", err)
	}

	t.Run("duplicate blob id fails", func(t *testing.T) {
		dup := &models.BucketObject{UserID: user.ID, BlobID: "bucket/z", FileName: "again.zip"}
		if _, err := store.CreateBucketObject(ctx, dup); !errors.Is(err, models.ErrDuplicateBucketObject) {
			t.Errorf("expected ErrDuplicateBucketObject, got %v", err)
		}
	})

	t.Run("list and delete", func(t *testing.T) {
		objs, err := store.ListBucketObjects(ctx, user.ID)
		if err != nil || len(objs) != 1 {
			t.Fatalf("expected 1 object, got %d (%v)", len(objs), err)
		}

		if err := store.DeleteBucketObject(ctx, id, user.ID); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if err := store.DeleteBucketObject(ctx, id, user.ID); !errors.Is(err, models.ErrBucketObjectNotFound) {
			t.Errorf("expected ErrBucketObjectNotFound, got %v", err)
		}
	})
}
