package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/servicehub-backend/api/responses"
	"github.com/angelmondragon/servicehub-backend/api/validators"
	"github.com/angelmondragon/servicehub-backend/internal/availability"
	"github.com/angelmondragon/servicehub-backend/pkg/calendar"
	pkgerrors "github.com/angelmondragon/servicehub-backend/pkg/errors"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
)

// TechnicianAvailability answers whether a technician can take a booking at date and time.
func TechnicianAvailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		technicianID, err := uuidParam(r, "technicianId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := validators.ParseQueryDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clock := strings.TrimSpace(r.URL.Query().Get("time"))
		duration, err := validators.ParseQueryInt(r, "duration", 60, 1, 24*60)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ok, err := svc.CheckAvailability(r.Context(), availability.SlotQuery{
			TechnicianID: technicianID,
			Date:         date,
			Time:         clock,
			Duration:     duration,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"technician_id": technicianID,
			"date":          calendar.FormatDate(date),
			"time":          clock,
			"available":     ok,
		})
	}
}

// TechnicianSlots lists the free hourly starts on a date.
func TechnicianSlots(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		technicianID, err := uuidParam(r, "technicianId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := validators.ParseQueryDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		slots, err := svc.GetAvailableSlots(r.Context(), technicianID, date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"technician_id": technicianID,
			"date":          calendar.FormatDate(date),
			"slots":         slots,
		})
	}
}

// TechnicianSchedule returns a technician's weekly slots and upcoming time off.
func TechnicianSchedule(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		technicianID, err := uuidParam(r, "technicianId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		schedule, err := svc.GetSchedule(r.Context(), technicianID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, schedule)
	}
}

type replaceScheduleRequest struct {
	Slots []availability.SlotInput `json:"slots" validate:"dive"`
}

// ReplaceSchedule swaps the calling technician's recurring weekly slots.
func ReplaceSchedule(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body replaceScheduleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		schedule, err := svc.ReplaceWeeklySchedule(r.Context(), userID, body.Slots)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, schedule)
	}
}

type timeOffRequest struct {
	StartDate string  `json:"start_date" validate:"required,date"`
	EndDate   string  `json:"end_date" validate:"required,date"`
	Reason    *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// AddTimeOff blocks an inclusive date range for the calling technician.
func AddTimeOff(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body timeOffRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		start, err := calendar.ParseDate(body.StartDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid start_date"))
			return
		}
		end, err := calendar.ParseDate(body.EndDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid end_date"))
			return
		}
		body.Reason = validators.SanitizeOptional(body.Reason, 500)

		off, err := svc.AddTimeOff(r.Context(), userID, availability.TimeOffInput{
			StartDate: start,
			EndDate:   end,
			Reason:    body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, off)
	}
}

// OwnSchedule returns the calling technician's schedule, including upcoming time off.
func OwnSchedule(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		schedule, err := svc.OwnSchedule(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, schedule)
	}
}

// OwnTimeOff lists the calling technician's upcoming time off.
func OwnTimeOff(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		schedule, err := svc.OwnSchedule(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, schedule.TimeOff)
	}
}
