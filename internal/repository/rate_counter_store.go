package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RateCounterModel is the GORM model for the rate_counters table. One row
// per (scope, identity, window); counts from closed windows are pruned
// opportunistically on increment.
type RateCounterModel struct {
	Scope       string    `gorm:"primaryKey;size:20"`
	Identity    string    `gorm:"primaryKey;size:254"`
	WindowStart time.Time `gorm:"primaryKey"`
	Count       int       `gorm:"not null;default:0"`
}

// TableName returns the table name for the GORM model.
func (RateCounterModel) TableName() string {
	return "rate_counters"
}

// GormCounterStore implements ratelimit.CounterStore over a shared table so
// attempt counts aggregate across all service instances.
type GormCounterStore struct {
	db *gorm.DB
}

// NewGormCounterStore creates a new GormCounterStore.
func NewGormCounterStore(db *gorm.DB) *GormCounterStore {
	return &GormCounterStore{db: db}
}

// Increment bumps the counter for (scope, identity, windowStart) atomically
// via an upsert and returns the post-increment count.
func (s *GormCounterStore) Increment(ctx context.Context, scope, identity string, windowStart time.Time) (int, error) {
	model := &RateCounterModel{
		Scope:       scope,
		Identity:    identity,
		WindowStart: windowStart,
		Count:       1,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}, {Name: "identity"}, {Name: "window_start"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count": gorm.Expr("rate_counters.count + 1"),
		}),
	}).Create(model).Error; err != nil {
		return 0, err
	}

	var row RateCounterModel
	if err := s.db.WithContext(ctx).
		Where("scope = ? AND identity = ? AND window_start = ?", scope, identity, windowStart).
		First(&row).Error; err != nil {
		return 0, err
	}

	// Prune counters two windows behind; cheap enough to do inline.
	cutoff := windowStart.Add(-2 * time.Hour)
	_ = s.db.WithContext(ctx).
		Where("window_start < ?", cutoff).
		Delete(&RateCounterModel{}).Error

	return row.Count, nil
}
