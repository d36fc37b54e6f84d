package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebConfig controls the salon's public web page.
type WebConfig struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SalonID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"salonId"`
	Slug           string    `gorm:"uniqueIndex;not null" json:"slug"`
	Enabled        bool      `gorm:"default:false;index" json:"enabled"`
	Headline       string    `json:"headline"`
	BookingEnabled bool      `gorm:"default:false" json:"bookingEnabled"`
	AccentColor    string    `gorm:"type:varchar(7)" json:"accentColor"`

	Salon *Salon `gorm:"foreignKey:SalonID" json:"salon,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (w *WebConfig) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}
