package models

import (
	"strings"
	"testing"
	"time"
)

func TestTaskAttachmentJSONRoundTrip(t *testing.T) {
	att := TaskAttachment{
		BlobID:       "tasks/image/abc123",
		URL:          "https://cdn.example.com/tasks/image/abc123.png",
		OriginalName: "photo.png",
		Size:         2048,
		MimeType:     "image/png",
	}

	val, err := att.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var got TaskAttachment
	if err := got.Scan(val); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got != att {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, att)
	}
}

func TestPendingInlineImagesScanNull(t *testing.T) {
	var p PendingInlineImages
	if err := p.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if len(p) != 0 {
		t.Errorf("expected empty list, got %d entries", len(p))
	}
}

func TestInlineImagesScanBytes(t *testing.T) {
	data := []byte(`[{"blob_id":"abc","url":"https://cdn.example.com/abc.png","size":10,"uploaded_at":"2026-01-02T03:04:05Z"}]`)
	var imgs InlineImages
	if err := imgs.Scan(data); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(imgs) != 1 || imgs[0].BlobID != "abc" || imgs[0].Size != 10 {
		t.Errorf("unexpected scan result: %+v", imgs)
	}
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if !imgs[0].UploadedAt.Equal(want) {
		t.Errorf("uploaded_at = %v, want %v", imgs[0].UploadedAt, want)
	}
}

func TestStorageRemaining(t *testing.T) {
	u := &User{StorageUsed: 950, StorageLimit: 1000}
	if got := u.StorageRemaining(); got != 50 {
		t.Errorf("StorageRemaining = %d, want 50", got)
	}

	u.StorageUsed = 1200
	if got := u.StorageRemaining(); got != 0 {
		t.Errorf("StorageRemaining after overshoot = %d, want 0", got)
	}
}

func TestValidateTaskTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{"valid", "buy milk", false},
		{"empty", "   ", true},
		{"too long", strings.Repeat("x", MaxTaskTitleLength+1), true},
		{"too many words", strings.Repeat("word ", MaxTaskTitleWords+1), true},
		{"exactly fifty words", strings.TrimSpace(strings.Repeat("w ", MaxTaskTitleWords)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTaskTitle(tt.title)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTaskTitle(%q) error = %v, wantErr %v", tt.title, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFolderName(t *testing.T) {
	if err := ValidateFolderName("projects"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	if err := ValidateFolderName(""); err == nil {
		t.Error("empty name accepted")
	}
	if err := ValidateFolderName(strings.Repeat("a", MaxFolderNameLength+1)); err == nil {
		t.Error("oversized name accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword("correct-horse", hash) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("wrong-horse12", hash) {
		t.Error("wrong password accepted")
	}
	if _, err := HashPassword("short"); err == nil {
		t.Error("short password accepted")
	}
}
