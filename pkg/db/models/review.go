package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a customer's rating of a completed booking.
type Review struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	BookingID    uuid.UUID `gorm:"column:booking_id;type:uuid;not null;uniqueIndex"`
	CustomerID   uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	TechnicianID uuid.UUID `gorm:"column:technician_id;type:uuid;not null;index"`
	Rating       int       `gorm:"column:rating;not null"`
	Comment      *string   `gorm:"column:comment"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
