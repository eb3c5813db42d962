package availability

import (
	"time"

	"github.com/google/uuid"
)

// SlotQuery asks whether a technician can take a booking at a date and time.
// Duration is accepted for forward compatibility and does not affect the result.
type SlotQuery struct {
	TechnicianID uuid.UUID
	Date         time.Time
	Time         string
	Duration     int
}

// SlotInput describes one recurring weekly window.
type SlotInput struct {
	DayOfWeek   int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime   string `json:"start_time" validate:"required,clock"`
	EndTime     string `json:"end_time" validate:"required,clock"`
	IsAvailable *bool  `json:"is_available,omitempty"`
}

// TimeOffInput blocks an inclusive range of dates.
type TimeOffInput struct {
	StartDate time.Time
	EndDate   time.Time
	Reason    *string
}

// SlotDTO is the public shape of a recurring schedule window.
type SlotDTO struct {
	ID          uuid.UUID `json:"id"`
	DayOfWeek   int       `json:"day_of_week"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
	IsRecurring bool      `json:"is_recurring"`
}

// TimeOffDTO is the public shape of a blocked date range.
type TimeOffDTO struct {
	ID        uuid.UUID `json:"id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Reason    *string   `json:"reason,omitempty"`
}

// Schedule groups the weekly slots with upcoming time off.
type Schedule struct {
	TechnicianID uuid.UUID    `json:"technician_id"`
	UsesDefault  bool         `json:"uses_default"`
	Slots        []SlotDTO    `json:"slots"`
	TimeOff      []TimeOffDTO `json:"time_off"`
}
