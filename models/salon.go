package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Salon struct {
	ID                    uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	Name                  string            `gorm:"not null" json:"name"`
	Address               string            `json:"address"`
	WorkingHours          datatypes.JSONMap `json:"workingHours"`
	BirthdayReminders     bool              `gorm:"default:true" json:"birthdayReminders"`
	AnniversaryReminders  bool              `gorm:"default:true" json:"anniversaryReminders"`
	AppointmentReminders  bool              `gorm:"default:true" json:"appointmentReminders"`
	WhatsAppNotifications bool              `gorm:"default:false" json:"whatsAppNotifications"`
	SMSNotifications      bool              `gorm:"default:false" json:"smsNotifications"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Salon) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// DefaultWorkingHours is applied when a salon registers without its own schedule.
func DefaultWorkingHours() datatypes.JSONMap {
	return datatypes.JSONMap{
		"monday":    map[string]interface{}{"open": "09:00", "close": "20:00", "closed": false},
		"tuesday":   map[string]interface{}{"open": "09:00", "close": "20:00", "closed": false},
		"wednesday": map[string]interface{}{"open": "09:00", "close": "20:00", "closed": false},
		"thursday":  map[string]interface{}{"open": "09:00", "close": "20:00", "closed": false},
		"friday":    map[string]interface{}{"open": "09:00", "close": "20:00", "closed": false},
		"saturday":  map[string]interface{}{"open": "09:00", "close": "21:00", "closed": false},
		"sunday":    map[string]interface{}{"open": "10:00", "close": "19:00", "closed": true},
	}
}
