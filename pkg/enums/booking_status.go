package enums

import "fmt"

// BookingStatus tracks the lifecycle of a booking.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "PENDING"
	BookingStatusConfirmed  BookingStatus = "CONFIRMED"
	BookingStatusInProgress BookingStatus = "IN_PROGRESS"
	BookingStatusCompleted  BookingStatus = "COMPLETED"
	BookingStatusCancelled  BookingStatus = "CANCELLED"
	// BookingStatusNoShow is reserved; no transition produces it yet.
	BookingStatusNoShow BookingStatus = "NO_SHOW"
)

var validBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusInProgress,
	BookingStatusCompleted,
	BookingStatusCancelled,
	BookingStatusNoShow,
}

// InactiveBookingStatuses no longer occupy a technician's time slot.
var InactiveBookingStatuses = []BookingStatus{
	BookingStatusCancelled,
	BookingStatusNoShow,
}

// String implements fmt.Stringer.
func (s BookingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches a known status.
func (s BookingStatus) IsValid() bool {
	for _, candidate := range validBookingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// OccupiesSlot reports whether a booking in this status blocks its time slot.
func (s BookingStatus) OccupiesSlot() bool {
	for _, inactive := range InactiveBookingStatuses {
		if inactive == s {
			return false
		}
	}
	return true
}

// ParseBookingStatus converts raw input into a BookingStatus.
func ParseBookingStatus(value string) (BookingStatus, error) {
	for _, candidate := range validBookingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking status %q", value)
}
