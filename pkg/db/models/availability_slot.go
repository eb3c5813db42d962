package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AvailabilitySlot is one weekly window during which a technician accepts work.
// StartTime and EndTime are "HH:MM" wall-clock values.
type AvailabilitySlot struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TechnicianID uuid.UUID `gorm:"column:technician_id;type:uuid;not null;index"`
	DayOfWeek    int       `gorm:"column:day_of_week;not null"`
	StartTime    string    `gorm:"column:start_time;type:text;not null"`
	EndTime      string    `gorm:"column:end_time;type:text;not null"`
	IsAvailable  bool      `gorm:"column:is_available;not null"`
	IsRecurring  bool      `gorm:"column:is_recurring;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (s *AvailabilitySlot) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}
