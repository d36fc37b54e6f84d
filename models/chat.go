package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatMessage is a post in the salon's team chat.
type ChatMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SalonID    uuid.UUID `gorm:"type:uuid;index;not null" json:"salonId"`
	SenderID   uuid.UUID `gorm:"type:uuid;index;not null" json:"senderId"`
	SenderName string    `gorm:"-" json:"senderName,omitempty"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
