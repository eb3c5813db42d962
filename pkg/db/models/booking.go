package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

// Booking is a customer's reservation of a technician at a date and hour.
type Booking struct {
	ID                uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID        uuid.UUID                `gorm:"column:customer_id;type:uuid;not null;index"`
	TechnicianID      uuid.UUID                `gorm:"column:technician_id;type:uuid;not null;index"`
	ScheduledDate     datatypes.Date           `gorm:"column:scheduled_date;type:date;not null"`
	ScheduledTime     string                   `gorm:"column:scheduled_time;type:text;not null"`
	ServiceType       string                   `gorm:"column:service_type;not null"`
	Description       string                   `gorm:"column:description;not null;default:''"`
	Address           string                   `gorm:"column:address;not null;default:''"`
	City              string                   `gorm:"column:city;not null;default:''"`
	Phone             string                   `gorm:"column:phone;not null;default:''"`
	EstimatedDuration int                      `gorm:"column:estimated_duration;not null;default:60"`
	Status            enums.BookingStatus      `gorm:"column:status;type:text;not null"`
	ConfirmedAt       *time.Time               `gorm:"column:confirmed_at"`
	StartedAt         *time.Time               `gorm:"column:started_at"`
	CompletedAt       *time.Time               `gorm:"column:completed_at"`
	CancelledAt       *time.Time               `gorm:"column:cancelled_at"`
	CancelledBy       *enums.CancellationActor `gorm:"column:cancelled_by;type:text"`
	CancelReason      *string                  `gorm:"column:cancel_reason"`
	TotalPrice        *decimal.Decimal         `gorm:"column:total_price;type:numeric(10,2)"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`

	Customer   *User              `gorm:"foreignKey:CustomerID"`
	Technician *TechnicianProfile `gorm:"foreignKey:TechnicianID"`
}

func (b *Booking) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}
