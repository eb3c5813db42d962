package notifications

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/calendar"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	"github.com/angelmondragon/servicehub-backend/pkg/outbox"
	"github.com/angelmondragon/servicehub-backend/pkg/outbox/payloads"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Emitter queues notification requests in the caller's transaction.
type Emitter struct {
	outbox outboxPublisher
}

func NewEmitter(publisher outboxPublisher) (*Emitter, error) {
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Emitter{outbox: publisher}, nil
}

// NotifyBooking queues kind for booking. The booking must carry its customer
// and its technician's owning user.
func (e *Emitter) NotifyBooking(ctx context.Context, tx *gorm.DB, kind enums.NotificationKind, booking *models.Booking) error {
	if !kind.IsValid() {
		return fmt.Errorf("invalid notification kind %q", kind)
	}
	snapshot, err := SnapshotBooking(booking)
	if err != nil {
		return err
	}
	event := payloads.NotificationRequestedEvent{Kind: kind, Booking: snapshot}
	if kind == enums.NotificationBookingCancelled {
		event.CancelledBy = booking.CancelledBy
		event.Reason = booking.CancelReason
	}
	return e.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateBooking,
		AggregateID:   booking.ID,
		Data:          event,
	})
}

// NotifyRedemption queues the redemption code email.
func (e *Emitter) NotifyRedemption(ctx context.Context, tx *gorm.DB, user models.User, reward models.Reward, redemption models.RewardRedemption) error {
	return e.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventRewardRedeemed,
		AggregateType: enums.AggregateRedemption,
		AggregateID:   redemption.ID,
		Actor:         &outbox.ActorRef{UserID: user.ID, Role: string(user.Role)},
		Data: payloads.RewardRedeemedEvent{
			RedemptionID: redemption.ID,
			User:         party(user),
			RewardCode:   reward.Code,
			RewardName:   reward.Name,
			Code:         redemption.Code,
			PointsUsed:   redemption.PointsUsed,
			ExpiresAt:    redemption.ExpiresAt,
		},
	})
}

// SnapshotBooking flattens a joined booking into its notification payload.
func SnapshotBooking(booking *models.Booking) (payloads.BookingSnapshot, error) {
	if booking == nil {
		return payloads.BookingSnapshot{}, fmt.Errorf("booking required")
	}
	if booking.Customer == nil || booking.Technician == nil || booking.Technician.User == nil {
		return payloads.BookingSnapshot{}, fmt.Errorf("booking %s is missing participant details", booking.ID)
	}
	snapshot := payloads.BookingSnapshot{
		BookingID:     booking.ID,
		Status:        booking.Status,
		ServiceType:   booking.ServiceType,
		Description:   booking.Description,
		ScheduledDate: calendar.FormatDate(time.Time(booking.ScheduledDate)),
		ScheduledTime: booking.ScheduledTime,
		Address:       booking.Address,
		City:          booking.City,
		Customer:      party(*booking.Customer),
		Technician:    party(*booking.Technician.User),
	}
	if booking.TotalPrice != nil {
		price := booking.TotalPrice.StringFixed(2)
		snapshot.TotalPrice = &price
	}
	return snapshot, nil
}

func party(user models.User) payloads.Party {
	p := payloads.Party{UserID: user.ID, Name: user.DisplayName(), Email: user.Email}
	if user.Phone != nil {
		p.Phone = *user.Phone
	}
	return p
}
