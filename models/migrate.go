package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every table, parents before children.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Hotel{},
		&Room{},
		&Inventory{},
		&Guest{},
		&Booking{},
	)
}
