package storage

import (
	"context"

	"github.com/daylytics/daylytics/pkg/models"
)

// LedgerStore is the slice of the persistence layer the ledger needs.
type LedgerStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	AdjustStorageUsed(ctx context.Context, userID string, delta int64) error
	SetStorageUsed(ctx context.Context, userID string, used int64) error
}

// Ledger tracks per-user storage consumption against a byte quota.
//
// CheckAndReserve is advisory: it reads the current usage and rejects uploads
// that would exceed the limit, but does not hold a reservation. Two uploads
// racing through the check can briefly overshoot the limit; reconciliation
// restores the canonical value.
type Ledger struct {
	store LedgerStore
}

// NewLedger creates a quota ledger over the given store.
func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{store: store}
}

// CheckAndReserve decides whether an upload of incoming bytes fits inside
// the user's quota. On rejection it returns a QuotaExceededError carrying
// the remaining headroom; the caller must not touch the blob store.
func (l *Ledger) CheckAndReserve(ctx context.Context, userID string, incoming int64) error {
	user, err := l.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.StorageUsed+incoming > user.StorageLimit {
		return &QuotaExceededError{Remaining: user.StorageRemaining()}
	}
	return nil
}

// Credit records size bytes as consumed after a successful upload.
func (l *Ledger) Credit(ctx context.Context, userID string, size int64) error {
	if size <= 0 {
		return nil
	}
	return l.store.AdjustStorageUsed(ctx, userID, size)
}

// Debit releases size bytes after a deletion. A zero or unknown size is a
// no-op; the clamp at zero happens in the store.
func (l *Ledger) Debit(ctx context.Context, userID string, size int64) error {
	if size <= 0 {
		return nil
	}
	return l.store.AdjustStorageUsed(ctx, userID, -size)
}

// SetCanonical overwrites the user's usage with a recomputed value.
func (l *Ledger) SetCanonical(ctx context.Context, userID string, used int64) error {
	return l.store.SetStorageUsed(ctx, userID, used)
}

// Usage reports the user's current consumption and limit.
func (l *Ledger) Usage(ctx context.Context, userID string) (used, limit int64, err error) {
	user, err := l.store.GetUserByID(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return user.StorageUsed, user.StorageLimit, nil
}
