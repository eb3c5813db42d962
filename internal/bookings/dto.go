package bookings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/servicehub-backend/pkg/calendar"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

// CreateInput is what a customer submits to reserve a technician.
type CreateInput struct {
	CustomerID        uuid.UUID
	TechnicianID      uuid.UUID
	ScheduledDate     time.Time
	ScheduledTime     string
	ServiceType       string
	Description       string
	Address           string
	City              string
	Phone             string
	EstimatedDuration int
}

// CancelInput names who cancels and why.
type CancelInput struct {
	BookingID   uuid.UUID
	CallerID    uuid.UUID
	CancelledBy enums.CancellationActor
	Reason      *string
}

// Actor is the authenticated caller of a read.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Party is the display shape of a booking participant.
type Party struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
}

// TechnicianParty adds the profile id to the owning user's details.
type TechnicianParty struct {
	ProfileID uuid.UUID `json:"profile_id"`
	Party
	City          string  `json:"city"`
	AverageRating float64 `json:"average_rating"`
}

// BookingDTO is the public shape of a booking with its participants.
type BookingDTO struct {
	ID                uuid.UUID                `json:"id"`
	Status            enums.BookingStatus      `json:"status"`
	ScheduledDate     string                   `json:"scheduled_date"`
	ScheduledTime     string                   `json:"scheduled_time"`
	ServiceType       string                   `json:"service_type"`
	Description       string                   `json:"description"`
	Address           string                   `json:"address"`
	City              string                   `json:"city"`
	Phone             string                   `json:"phone"`
	EstimatedDuration int                      `json:"estimated_duration"`
	TotalPrice        *decimal.Decimal         `json:"total_price,omitempty"`
	ConfirmedAt       *time.Time               `json:"confirmed_at,omitempty"`
	StartedAt         *time.Time               `json:"started_at,omitempty"`
	CompletedAt       *time.Time               `json:"completed_at,omitempty"`
	CancelledAt       *time.Time               `json:"cancelled_at,omitempty"`
	CancelledBy       *enums.CancellationActor `json:"cancelled_by,omitempty"`
	CancelReason      *string                  `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
	Customer          *Party                   `json:"customer,omitempty"`
	Technician        *TechnicianParty         `json:"technician,omitempty"`
}

// ToDTO projects a booking and whichever participants were preloaded.
func ToDTO(b *models.Booking) BookingDTO {
	dto := BookingDTO{
		ID:                b.ID,
		Status:            b.Status,
		ScheduledDate:     calendar.FormatDate(time.Time(b.ScheduledDate)),
		ScheduledTime:     b.ScheduledTime,
		ServiceType:       b.ServiceType,
		Description:       b.Description,
		Address:           b.Address,
		City:              b.City,
		Phone:             b.Phone,
		EstimatedDuration: b.EstimatedDuration,
		TotalPrice:        b.TotalPrice,
		ConfirmedAt:       b.ConfirmedAt,
		StartedAt:         b.StartedAt,
		CompletedAt:       b.CompletedAt,
		CancelledAt:       b.CancelledAt,
		CancelledBy:       b.CancelledBy,
		CancelReason:      b.CancelReason,
		CreatedAt:         b.CreatedAt,
	}
	if b.Customer != nil {
		p := toParty(*b.Customer)
		dto.Customer = &p
	}
	if b.Technician != nil {
		tech := &TechnicianParty{
			ProfileID:     b.Technician.ID,
			City:          b.Technician.City,
			AverageRating: b.Technician.AverageRating,
		}
		if b.Technician.User != nil {
			tech.Party = toParty(*b.Technician.User)
		}
		dto.Technician = tech
	}
	return dto
}

func toParty(u models.User) Party {
	return Party{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
	}
}
