package bookings

import "github.com/angelmondragon/servicehub-backend/pkg/enums"

// transitions lists every legal move. Completion is accepted straight from
// CONFIRMED so a technician can close a job without an explicit start.
var transitions = map[enums.BookingStatus][]enums.BookingStatus{
	enums.BookingStatusPending: {
		enums.BookingStatusConfirmed,
		enums.BookingStatusCancelled,
	},
	enums.BookingStatusConfirmed: {
		enums.BookingStatusInProgress,
		enums.BookingStatusCompleted,
		enums.BookingStatusCancelled,
	},
	enums.BookingStatusInProgress: {
		enums.BookingStatusCompleted,
		enums.BookingStatusCancelled,
	},
}

// CanTransition reports whether a booking in from may move to to.
func CanTransition(from, to enums.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
