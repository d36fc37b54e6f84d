package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentPaid    = "paid"
	PaymentUnpaid  = "unpaid"
	PaymentPartial = "partial"
)

type Invoice struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SalonID         uuid.UUID `gorm:"type:uuid;index;not null" json:"salonId"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index" json:"createdByUserId"`

	InvoiceNumber string     `gorm:"uniqueIndex;not null" json:"invoiceNumber"`
	ClientID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"clientId"`
	OrderID       *uuid.UUID `gorm:"type:uuid;index" json:"orderId"`
	InvoiceDate   time.Time  `json:"invoiceDate"`

	Subtotal float64 `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Discount float64 `gorm:"type:decimal(10,2);default:0.0" json:"discount"`
	Tax      float64 `gorm:"type:decimal(10,2);default:0.0" json:"tax"`
	Total    float64 `gorm:"type:decimal(10,2);not null" json:"total"`

	PaymentStatus string     `gorm:"type:varchar(20);default:'unpaid'" json:"paymentStatus"`
	PaidAmount    float64    `gorm:"type:decimal(10,2);default:0.0" json:"paidAmount"`
	PaymentMethod string     `json:"paymentMethod"`
	Notes         string     `json:"notes"`
	EmailedAt     *time.Time `json:"emailedAt"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

type InvoiceItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;index;not null" json:"invoiceId"`
	ServiceID   uuid.UUID `gorm:"type:uuid;index;not null" json:"serviceId"`
	ServiceName string    `gorm:"not null" json:"serviceName"`
	Quantity    int       `gorm:"default:1" json:"quantity"`
	UnitPrice   float64   `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	TotalPrice  float64   `gorm:"type:decimal(10,2);not null" json:"totalPrice"`
}

func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

// InvoiceTotal applies a flat discount and a percentage tax on the subtotal.
func InvoiceTotal(subtotal, discount, taxPercent float64) float64 {
	return subtotal - discount + (subtotal * taxPercent / 100)
}
