// models/reminder_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReminderLog struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	SalonID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"salonId"`
	ClientID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"clientId"`
	TemplateID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"templateId"`
	OrderID      *uuid.UUID `gorm:"type:uuid;index" json:"orderId"`
	Type         string     `gorm:"type:varchar(20)" json:"type"` // birthday, anniversary, appointment
	Message      string     `gorm:"type:text" json:"message"`
	Status       string     `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorMessage string     `gorm:"type:text" json:"errorMessage"`
	Channel      string     `gorm:"type:varchar(20)" json:"channel"` // whatsapp, sms
	SentAt       time.Time  `json:"sentAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	r.ID = uuid.New()
	return
}
