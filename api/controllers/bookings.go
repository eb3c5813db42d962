package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/servicehub-backend/api/responses"
	"github.com/angelmondragon/servicehub-backend/api/validators"
	"github.com/angelmondragon/servicehub-backend/internal/bookings"
	"github.com/angelmondragon/servicehub-backend/pkg/calendar"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicehub-backend/pkg/errors"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
)

type createBookingRequest struct {
	TechnicianID      string `json:"technician_id" validate:"required,uuid"`
	ScheduledDate     string `json:"scheduled_date" validate:"required,date"`
	ScheduledTime     string `json:"scheduled_time" validate:"required,clock"`
	ServiceType       string `json:"service_type" validate:"required,max=100"`
	Description       string `json:"description" validate:"required,max=2000"`
	Address           string `json:"address" validate:"required,max=500"`
	City              string `json:"city" validate:"required,max=100"`
	Phone             string `json:"phone" validate:"required,max=20"`
	EstimatedDuration int    `json:"estimated_duration" validate:"omitempty,min=1,max=1440"`
}

// CreateBooking reserves a technician for the calling customer.
func CreateBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createBookingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := calendar.ParseDate(body.ScheduledDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scheduled_date"))
			return
		}
		technicianID, err := parseUUID(body.TechnicianID, "technician_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Create(r.Context(), bookings.CreateInput{
			CustomerID:        userID,
			TechnicianID:      technicianID,
			ScheduledDate:     date,
			ScheduledTime:     strings.TrimSpace(body.ScheduledTime),
			ServiceType:       validators.SanitizeString(body.ServiceType, 100),
			Description:       validators.SanitizeString(body.Description, 2000),
			Address:           validators.SanitizeString(body.Address, 500),
			City:              validators.SanitizeString(body.City, 100),
			Phone:             validators.SanitizeString(body.Phone, 20),
			EstimatedDuration: body.EstimatedDuration,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, booking)
	}
}

// GetBooking returns a booking to one of its participants or an admin.
func GetBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookingID, err := uuidParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.Get(r.Context(), bookingID, bookings.Actor{UserID: userID, Role: role})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// ListBookings returns the caller's bookings, newest scheduled first.
func ListBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var status *enums.BookingStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseBookingStatus(strings.ToUpper(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			status = &parsed
		}
		list, err := svc.List(r.Context(), bookings.Actor{UserID: userID, Role: role}, status, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ConfirmBooking moves a PENDING booking to CONFIRMED for its technician.
func ConfirmBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return technicianTransition(logg, svc.Confirm)
}

// StartBooking moves a CONFIRMED booking to IN_PROGRESS for its technician.
func StartBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return technicianTransition(logg, svc.Start)
}

type completeBookingRequest struct {
	TotalPrice *string `json:"total_price,omitempty"`
}

// CompleteBooking finishes a booking and records the optional final price.
func CompleteBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookingID, err := uuidParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body completeBookingRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		var price *decimal.Decimal
		if body.TotalPrice != nil {
			parsed, err := decimal.NewFromString(strings.TrimSpace(*body.TotalPrice))
			if err != nil || parsed.IsNegative() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "total_price must be a non-negative decimal"))
				return
			}
			price = &parsed
		}
		booking, err := svc.Complete(r.Context(), bookingID, userID, price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

type cancelBookingRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// CancelBooking cancels on behalf of the caller; the cancelling party follows the caller's role.
func CancelBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookingID, err := uuidParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body cancelBookingRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		actor, err := enums.CancellationActorForRole(role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "role cannot cancel"))
			return
		}
		body.Reason = validators.SanitizeOptional(body.Reason, 500)
		booking, err := svc.Cancel(r.Context(), bookings.CancelInput{
			BookingID:   bookingID,
			CallerID:    userID,
			CancelledBy: actor,
			Reason:      body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

type transitionFunc func(ctx context.Context, bookingID, callerID uuid.UUID) (*bookings.BookingDTO, error)

func technicianTransition(logg *logger.Logger, apply transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookingID, err := uuidParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := apply(r.Context(), bookingID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}
