package notifications

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/servicehub-backend/pkg/calendar"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	"github.com/angelmondragon/servicehub-backend/pkg/outbox/payloads"
)

// Message is one plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// RenderBooking builds the emails for a booking notification request.
func RenderBooking(event payloads.NotificationRequestedEvent) ([]Message, error) {
	b := event.Booking
	when := b.ScheduledDate + " " + b.ScheduledTime
	switch event.Kind {
	case enums.NotificationBookingCreatedCustomer:
		return []Message{{
			To:      b.Customer.Email,
			Subject: "Booking request received",
			Body: lines(
				greeting(b.Customer),
				fmt.Sprintf("Your %s booking with %s on %s was received and is waiting for confirmation.", b.ServiceType, b.Technician.Name, when),
				details(b),
			),
		}}, nil
	case enums.NotificationBookingCreatedTechnician:
		return []Message{{
			To:      b.Technician.Email,
			Subject: "New booking request",
			Body: lines(
				greeting(b.Technician),
				fmt.Sprintf("%s requested %s on %s. Confirm it soon to earn a quick response bonus.", b.Customer.Name, b.ServiceType, when),
				details(b),
			),
		}}, nil
	case enums.NotificationBookingConfirmed:
		return []Message{{
			To:      b.Customer.Email,
			Subject: "Booking confirmed",
			Body: lines(
				greeting(b.Customer),
				fmt.Sprintf("%s confirmed your %s booking on %s.", b.Technician.Name, b.ServiceType, when),
				details(b),
			),
		}}, nil
	case enums.NotificationBookingCompleted:
		total := ""
		if b.TotalPrice != nil {
			total = "Total: " + *b.TotalPrice
		}
		return []Message{{
			To:      b.Customer.Email,
			Subject: "Service completed",
			Body: lines(
				greeting(b.Customer),
				fmt.Sprintf("Your %s service with %s is complete. Leave a review to earn points.", b.ServiceType, b.Technician.Name),
				total,
			),
		}}, nil
	case enums.NotificationBookingCancelled:
		by := "a participant"
		if event.CancelledBy != nil {
			by = "the " + string(*event.CancelledBy)
		}
		reason := ""
		if event.Reason != nil && strings.TrimSpace(*event.Reason) != "" {
			reason = "Reason: " + *event.Reason
		}
		body := func(to payloads.Party) string {
			return lines(
				greeting(to),
				fmt.Sprintf("The %s booking on %s was cancelled by %s.", b.ServiceType, when, by),
				reason,
			)
		}
		return []Message{
			{To: b.Customer.Email, Subject: "Booking cancelled", Body: body(b.Customer)},
			{To: b.Technician.Email, Subject: "Booking cancelled", Body: body(b.Technician)},
		}, nil
	}
	return nil, fmt.Errorf("unsupported notification kind %q", event.Kind)
}

// RenderRedemption builds the email carrying a reward code.
func RenderRedemption(event payloads.RewardRedeemedEvent) []Message {
	return []Message{{
		To:      event.User.Email,
		Subject: "Your reward code",
		Body: lines(
			greeting(event.User),
			fmt.Sprintf("You redeemed %s for %d points.", event.RewardName, event.PointsUsed),
			"Code: "+event.Code,
			"Valid until "+calendar.FormatDate(event.ExpiresAt),
		),
	}}
}

func greeting(p payloads.Party) string {
	if p.Name == "" {
		return "Hello,"
	}
	return "Hello " + p.Name + ","
}

func details(b payloads.BookingSnapshot) string {
	parts := []string{"Service: " + b.ServiceType}
	if b.Address != "" {
		parts = append(parts, "Address: "+strings.TrimSpace(b.Address+" "+b.City))
	}
	if b.Description != "" {
		parts = append(parts, "Notes: "+b.Description)
	}
	return strings.Join(parts, "\n")
}

func lines(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n") + "\n"
}
