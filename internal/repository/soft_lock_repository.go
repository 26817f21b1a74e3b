package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slotwise/service-scheduling/internal/domain"
	bookingDomain "github.com/slotwise/service-scheduling/internal/domain/booking"
)

// SoftLockModel is the GORM model for the soft_locks table. The unique index
// on slot_key enforces at most one hold per slot across all instances.
type SoftLockModel struct {
	Token      uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SlotKey    string     `gorm:"uniqueIndex;not null;size:200"`
	ServiceID  uuid.UUID  `gorm:"type:uuid;not null"`
	EmployeeID *uuid.UUID `gorm:"type:uuid"`
	LocationID *uuid.UUID `gorm:"type:uuid"`
	Date       time.Time  `gorm:"not null"`
	StartAt    time.Time  `gorm:"not null"`
	EndAt      time.Time  `gorm:"not null"`
	ExpiresAt  time.Time  `gorm:"not null;index"`
	CreatedAt  time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (SoftLockModel) TableName() string {
	return "soft_locks"
}

// GormSoftLockRepository is the GORM-based implementation of SoftLockRepository.
type GormSoftLockRepository struct {
	db *gorm.DB
}

// NewGormSoftLockRepository creates a new GormSoftLockRepository.
func NewGormSoftLockRepository(db *gorm.DB) *GormSoftLockRepository {
	return &GormSoftLockRepository{db: db}
}

// FindBySlotKey returns the lock for the slot, expired or not, or nil.
func (r *GormSoftLockRepository) FindBySlotKey(ctx context.Context, slotKey string) (*bookingDomain.SoftLock, error) {
	var model SoftLockModel
	if err := r.db.WithContext(ctx).Where("slot_key = ?", slotKey).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, domain.NewInternalError("failed to find soft lock by slot key", err)
	}
	return toDomainSoftLock(&model), nil
}

// FindByToken retrieves a lock by its token.
func (r *GormSoftLockRepository) FindByToken(ctx context.Context, token uuid.UUID) (*bookingDomain.SoftLock, error) {
	var model SoftLockModel
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("SoftLock", token.String())
		}
		return nil, domain.NewInternalError("failed to find soft lock by token", err)
	}
	return toDomainSoftLock(&model), nil
}

// Save persists a new lock. A duplicate slot key surfaces as a conflict.
func (r *GormSoftLockRepository) Save(ctx context.Context, lock *bookingDomain.SoftLock) error {
	model := &SoftLockModel{
		Token:      lock.Token,
		SlotKey:    lock.SlotKey,
		ServiceID:  lock.Resource.ServiceID,
		EmployeeID: lock.Resource.EmployeeID,
		LocationID: lock.Resource.LocationID,
		Date:       lock.Date,
		StartAt:    lock.StartAt,
		EndAt:      lock.EndAt,
		ExpiresAt:  lock.ExpiresAt,
		CreatedAt:  lock.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("slot is already held by another checkout")
		}
		return domain.NewInternalError("failed to save soft lock", err)
	}
	return nil
}

// DeleteByToken removes a lock, reporting whether one existed.
func (r *GormSoftLockRepository) DeleteByToken(ctx context.Context, token uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Where("token = ?", token).Delete(&SoftLockModel{})
	if result.Error != nil {
		return false, domain.NewInternalError("failed to delete soft lock", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteExpired reclaims storage for lapsed locks.
func (r *GormSoftLockRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&SoftLockModel{})
	if result.Error != nil {
		return 0, domain.NewInternalError("failed to delete expired soft locks", result.Error)
	}
	return result.RowsAffected, nil
}

func toDomainSoftLock(m *SoftLockModel) *bookingDomain.SoftLock {
	return &bookingDomain.SoftLock{
		Token:      m.Token,
		SlotKey:    m.SlotKey,
		Resource:   domain.ResourceKey{ServiceID: m.ServiceID, EmployeeID: m.EmployeeID, LocationID: m.LocationID},
		Date:       m.Date,
		StartAt:    m.StartAt,
		EndAt:      m.EndAt,
		ExpiresAt:  m.ExpiresAt,
		CreatedAt:  m.CreatedAt,
	}
}
