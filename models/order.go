package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
	OrderNoShow    = "no_show"
	OrderDeleted   = "deleted" // soft delete, rows are never removed
)

// OrderStatuses lists every valid status in display order.
var OrderStatuses = []string{OrderPending, OrderConfirmed, OrderCompleted, OrderCancelled, OrderNoShow, OrderDeleted}

// OrderService is the snapshot of a catalog service taken when it is booked.
type OrderService struct {
	ServiceID       uuid.UUID `json:"serviceId"`
	Name            string    `json:"name"`
	Price           float64   `json:"price"`
	DurationMinutes int       `json:"durationMinutes"`
	Premium         bool      `json:"premium"`
}

// Order is an appointment/booking.
type Order struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	SalonID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"salonId"`
	CustomerUUID uuid.UUID  `gorm:"type:uuid;index;not null" json:"customerUuid"`
	TeamMemberID *uuid.UUID `gorm:"type:uuid;index" json:"teamMemberId"`

	StartAt time.Time `gorm:"index;not null" json:"startAt"`
	EndAt   time.Time `gorm:"not null" json:"endAt"`
	Price   float64   `gorm:"type:decimal(10,2);default:0.0" json:"price"`
	Status  string    `gorm:"type:varchar(20);index;not null" json:"status"`

	Services datatypes.JSONSlice[OrderService] `json:"services"`
	Notes    string                            `json:"notes"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderPending
	}
	return
}

// Duration is the booked length of the appointment.
func (o *Order) Duration() time.Duration {
	return o.EndAt.Sub(o.StartAt)
}

func (o *Order) IsDeleted() bool {
	return o.Status == OrderDeleted
}

func ValidOrderStatus(s string) bool {
	for _, st := range OrderStatuses {
		if st == s {
			return true
		}
	}
	return false
}
