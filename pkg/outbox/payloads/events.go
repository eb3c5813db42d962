package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

// Party is the display snapshot of one booking participant.
type Party struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Phone  string    `json:"phone,omitempty"`
}

// BookingSnapshot is the fully joined booking carried by notification requests.
type BookingSnapshot struct {
	BookingID     uuid.UUID           `json:"booking_id"`
	Status        enums.BookingStatus `json:"status"`
	ServiceType   string              `json:"service_type"`
	Description   string              `json:"description,omitempty"`
	ScheduledDate string              `json:"scheduled_date"`
	ScheduledTime string              `json:"scheduled_time"`
	Address       string              `json:"address,omitempty"`
	City          string              `json:"city,omitempty"`
	TotalPrice    *string             `json:"total_price,omitempty"`
	Customer      Party               `json:"customer"`
	Technician    Party               `json:"technician"`
}

// NotificationRequestedEvent asks the dispatcher to notify booking participants.
type NotificationRequestedEvent struct {
	Kind        enums.NotificationKind   `json:"kind"`
	Booking     BookingSnapshot          `json:"booking"`
	CancelledBy *enums.CancellationActor `json:"cancelled_by,omitempty"`
	Reason      *string                  `json:"reason,omitempty"`
}

// RewardRedeemedEvent carries the code handed to the user after a redemption.
type RewardRedeemedEvent struct {
	RedemptionID uuid.UUID `json:"redemption_id"`
	User         Party     `json:"user"`
	RewardCode   string    `json:"reward_code"`
	RewardName   string    `json:"reward_name"`
	Code         string    `json:"code"`
	PointsUsed   int       `json:"points_used"`
	ExpiresAt    time.Time `json:"expires_at"`
}
