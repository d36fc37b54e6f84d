package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every table owned by the service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Salon{},
		&User{},
		&Client{},
		&Service{},
		&Order{},
		&Invoice{},
		&InvoiceItem{},
		&ReminderTemplate{},
		&ReminderLog{},
		&Task{},
		&ChatMessage{},
		&WebConfig{},
	)
}
