package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TimeOff blocks a technician for an inclusive range of dates.
type TimeOff struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	TechnicianID uuid.UUID      `gorm:"column:technician_id;type:uuid;not null;index"`
	StartDate    datatypes.Date `gorm:"column:start_date;type:date;not null"`
	EndDate      datatypes.Date `gorm:"column:end_date;type:date;not null"`
	Reason       *string        `gorm:"column:reason"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (TimeOff) TableName() string { return "time_offs" }

func (t *TimeOff) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}
