package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Client is a salon customer. Orders reference it through CustomerUUID.
// Phone is unique per salon among clients that are not deleted.
type Client struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SalonID         uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_salon_phone,priority:1,where:deleted_at IS NULL" json:"salonId"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index" json:"createdByUserId"`
	CustomerUUID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"customerUuid"`

	Name        string                      `gorm:"not null" json:"name"`
	Phone       string                      `gorm:"not null;uniqueIndex:idx_salon_phone,priority:2,where:deleted_at IS NULL" json:"phone"`
	Email       string                      `json:"email"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	Birthday    *time.Time                  `json:"birthday"`
	Anniversary *time.Time                  `json:"anniversary"`
	Notes       string                      `json:"notes"`
	Coupon      *string                     `json:"coupon"`
	PhotoObject string                      `json:"-"`
	IsActive    bool                        `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CustomerUUID == uuid.Nil {
		c.CustomerUUID = uuid.New()
	}
	return
}

// HasTag reports whether the client carries tag (case-sensitive).
func (c *Client) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
