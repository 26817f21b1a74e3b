package repository

import "gorm.io/gorm"

// AutoMigrate creates or updates every table the service owns, then applies
// the raw-SQL indexes GORM tags cannot express.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&ServiceModel{},
		&ScheduleRuleModel{},
		&BlackoutModel{},
		&ReservationModel{},
		&SoftLockModel{},
		&SlotLockModel{},
		&RateCounterModel{},
	); err != nil {
		return err
	}
	return EnsureReservationIndexes(db)
}
