package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// SlotLockModel is the GORM model for the slot_locks table backing the
// admission mutex. One row per claimed key; the primary key is the mutual
// exclusion guarantee.
type SlotLockModel struct {
	Key       string    `gorm:"primaryKey;size:200"`
	Owner     string    `gorm:"not null;size:40"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (SlotLockModel) TableName() string {
	return "slot_locks"
}

// GormLockStore implements locking.LockStore over a shared table, so the
// admission mutex holds across every service instance on the same database.
type GormLockStore struct {
	db *gorm.DB
}

// NewGormLockStore creates a new GormLockStore.
func NewGormLockStore(db *gorm.DB) *GormLockStore {
	return &GormLockStore{db: db}
}

// TryInsert atomically claims key for owner. A row abandoned past its expiry
// is cleared first so a crashed holder cannot shadow the key forever. The
// delete and insert race benignly: losing the insert just means another
// caller claimed the key, which reports as not-won.
func (s *GormLockStore) TryInsert(ctx context.Context, key, owner string, expiresAt time.Time) (bool, error) {
	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).
		Where("key = ? AND expires_at <= ?", key, now).
		Delete(&SlotLockModel{}).Error; err != nil {
		return false, err
	}

	model := &SlotLockModel{
		Key:       key,
		Owner:     owner,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete releases a claim, but only for its owner. Releasing a key another
// owner has since reclaimed is a no-op.
func (s *GormLockStore) Delete(ctx context.Context, key, owner string) error {
	return s.db.WithContext(ctx).
		Where("key = ? AND owner = ?", key, owner).
		Delete(&SlotLockModel{}).Error
}
