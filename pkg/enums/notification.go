package enums

import "fmt"

// NotificationKind selects the message rendered for a notification request.
type NotificationKind string

const (
	NotificationBookingCreatedCustomer   NotificationKind = "booking_created_customer"
	NotificationBookingCreatedTechnician NotificationKind = "booking_created_technician"
	NotificationBookingConfirmed         NotificationKind = "booking_confirmed"
	NotificationBookingCompleted         NotificationKind = "booking_completed"
	NotificationBookingCancelled         NotificationKind = "booking_cancelled"
)

var validNotificationKinds = []NotificationKind{
	NotificationBookingCreatedCustomer,
	NotificationBookingCreatedTechnician,
	NotificationBookingConfirmed,
	NotificationBookingCompleted,
	NotificationBookingCancelled,
}

func (k NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
