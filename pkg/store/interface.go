package store

import (
	"context"

	"github.com/daylytics/daylytics/pkg/models"
)

// Store defines the persistence contract for all application entities.
// GORMStore is the only production implementation; the interface exists so
// higher layers can be exercised against fakes.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) (string, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ValidateCredentials(ctx context.Context, email, password string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserPassword(ctx context.Context, userID, passwordHash string) error
	DeleteUser(ctx context.Context, userID string) error
	AdjustStorageUsed(ctx context.Context, userID string, delta int64) error
	SetStorageUsed(ctx context.Context, userID string, used int64) error
	SetPendingInlineImages(ctx context.Context, userID string, pending models.PendingInlineImages) error

	// Tasks
	CreateTask(ctx context.Context, task *models.Task) (string, error)
	GetTask(ctx context.Context, id, userID string) (*models.Task, error)
	ListTasksByDate(ctx context.Context, userID, date string) ([]*models.Task, error)
	ListTasksWithAttachments(ctx context.Context, userID string) ([]*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	SetTaskAttachment(ctx context.Context, id, userID string, attachment *models.TaskAttachment) error
	DeleteTask(ctx context.Context, id, userID string) error
	DeleteTasksByDate(ctx context.Context, userID, date string) (int64, error)

	// Documents
	CreateDocument(ctx context.Context, doc *models.Document) (string, error)
	GetDocument(ctx context.Context, id, userID string) (*models.Document, error)
	ListDocuments(ctx context.Context, userID string) ([]*models.Document, error)
	ListDocumentsInFolder(ctx context.Context, userID string, folderID *string) ([]*models.Document, error)
	CountDocumentsInFolder(ctx context.Context, userID, folderID string) (int64, error)
	UpdateDocument(ctx context.Context, doc *models.Document) error
	SetDocumentAttachments(ctx context.Context, id, userID string, attachments models.DocumentAttachments) error
	SetDocumentInlineImages(ctx context.Context, id, userID string, images models.InlineImages) error
	DeleteDocument(ctx context.Context, id, userID string) error

	// Folders
	CreateFolder(ctx context.Context, folder *models.Folder) (string, error)
	GetFolder(ctx context.Context, id, userID string) (*models.Folder, error)
	ListFolders(ctx context.Context, userID string) ([]*models.Folder, error)
	CountChildFolders(ctx context.Context, userID, parentID string) (int64, error)
	UpdateFolder(ctx context.Context, folder *models.Folder) error
	DeleteFolder(ctx context.Context, id, userID string) error

	// Bucket
	CreateBucketObject(ctx context.Context, obj *models.BucketObject) (string, error)
	GetBucketObject(ctx context.Context, id, userID string) (*models.BucketObject, error)
	ListBucketObjects(ctx context.Context, userID string) ([]*models.BucketObject, error)
	DeleteBucketObject(ctx context.Context, id, userID string) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// Ensure GORMStore implements Store.
var _ Store = (*GORMStore)(nil)
