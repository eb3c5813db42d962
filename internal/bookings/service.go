package bookings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/internal/availability"
	"github.com/angelmondragon/servicehub-backend/internal/gamification"
	"github.com/angelmondragon/servicehub-backend/pkg/calendar"
	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicehub-backend/pkg/errors"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
	"github.com/angelmondragon/servicehub-backend/pkg/metrics"
)

const (
	activeSlotConstraint = "ux_bookings_active_slot"

	defaultQuickResponseWindow = time.Hour
	defaultOnTimeGrace         = 15 * time.Minute
	defaultDuration            = 60
	defaultListLimit           = 50
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type availabilityChecker interface {
	CheckAvailabilityTx(ctx context.Context, tx *gorm.DB, query availability.SlotQuery) (bool, error)
}

type eventAwarder interface {
	AwardPointsForEvent(ctx context.Context, tx *gorm.DB, userID uuid.UUID, event enums.GamificationEvent, sourceID *uuid.UUID) (*gamification.EventResult, error)
}

type notifier interface {
	NotifyBooking(ctx context.Context, tx *gorm.DB, kind enums.NotificationKind, booking *models.Booking) error
}

// Options tunes time-based rules. Zero values fall back to UTC, one hour and
// fifteen minutes.
type Options struct {
	Location            *time.Location
	QuickResponseWindow time.Duration
	OnTimeGrace         time.Duration
}

// Service runs the booking lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*BookingDTO, error)
	Confirm(ctx context.Context, bookingID, callerID uuid.UUID) (*BookingDTO, error)
	Start(ctx context.Context, bookingID, callerID uuid.UUID) (*BookingDTO, error)
	Complete(ctx context.Context, bookingID, callerID uuid.UUID, totalPrice *decimal.Decimal) (*BookingDTO, error)
	Cancel(ctx context.Context, input CancelInput) (*BookingDTO, error)
	Get(ctx context.Context, bookingID uuid.UUID, actor Actor) (*BookingDTO, error)
	List(ctx context.Context, actor Actor, status *enums.BookingStatus, limit int) ([]BookingDTO, error)
}

type service struct {
	repo         Repository
	tx           txRunner
	availability availabilityChecker
	events       eventAwarder
	notify       notifier
	logg         *logger.Logger
	metrics      *metrics.DomainMetrics
	opts         Options
	now          func() time.Time
}

// NewService wires the booking state machine. metrics may be nil.
func NewService(
	repo Repository,
	tx txRunner,
	checker availabilityChecker,
	events eventAwarder,
	notify notifier,
	logg *logger.Logger,
	domainMetrics *metrics.DomainMetrics,
	opts Options,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if checker == nil {
		return nil, fmt.Errorf("availability checker required")
	}
	if events == nil {
		return nil, fmt.Errorf("event awarder required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.QuickResponseWindow <= 0 {
		opts.QuickResponseWindow = defaultQuickResponseWindow
	}
	if opts.OnTimeGrace <= 0 {
		opts.OnTimeGrace = defaultOnTimeGrace
	}
	return &service{
		repo:         repo,
		tx:           tx,
		availability: checker,
		events:       events,
		notify:       notify,
		logg:         logg,
		metrics:      domainMetrics,
		opts:         opts,
		now:          time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*BookingDTO, error) {
	clock, err := validateCreate(input)
	if err != nil {
		return nil, err
	}
	duration := input.EstimatedDuration
	if duration == 0 {
		duration = defaultDuration
	}

	var created *models.Booking
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		customer, err := repo.FindCustomer(ctx, input.CustomerID)
		if err != nil {
			return lookupError(err, "customer")
		}
		technician, err := repo.FindTechnician(ctx, input.TechnicianID)
		if err != nil {
			return lookupError(err, "technician")
		}

		date := calendar.DateOnly(input.ScheduledDate)
		ok, err := s.availability.CheckAvailabilityTx(ctx, tx, availability.SlotQuery{
			TechnicianID: input.TechnicianID,
			Date:         date,
			Time:         clock.String(),
			Duration:     duration,
		})
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeSlotUnavailable, "technician is not available at the requested time")
		}

		booking := &models.Booking{
			CustomerID:        input.CustomerID,
			TechnicianID:      input.TechnicianID,
			ScheduledDate:     datatypes.Date(date),
			ScheduledTime:     clock.String(),
			ServiceType:       strings.TrimSpace(input.ServiceType),
			Description:       input.Description,
			Address:           input.Address,
			City:              input.City,
			Phone:             input.Phone,
			EstimatedDuration: duration,
			Status:            enums.BookingStatusPending,
		}
		if err := repo.Create(ctx, booking); err != nil {
			if db.IsUniqueViolation(err, activeSlotConstraint) {
				return pkgerrors.New(pkgerrors.CodeSlotUnavailable, "time slot already booked")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
		}

		count, err := repo.CountByCustomer(ctx, input.CustomerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count customer bookings")
		}
		if count == 1 {
			if _, err := s.events.AwardPointsForEvent(ctx, tx, input.CustomerID, enums.EventFirstBooking, &booking.ID); err != nil {
				return err
			}
		}

		booking.Customer = customer
		booking.Technician = technician
		s.queueNotification(ctx, tx, enums.NotificationBookingCreatedCustomer, booking)
		s.queueNotification(ctx, tx, enums.NotificationBookingCreatedTechnician, booking)
		created = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.BookingTransition(string(enums.BookingStatusPending))
	s.logg.Info(s.logg.WithBookingID(ctx, created.ID.String()), "booking created")
	dto := ToDTO(created)
	return &dto, nil
}

func validateCreate(input CreateInput) (calendar.ClockTime, error) {
	if input.CustomerID == uuid.Nil {
		return calendar.ClockTime{}, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.TechnicianID == uuid.Nil {
		return calendar.ClockTime{}, pkgerrors.New(pkgerrors.CodeValidation, "technician id required")
	}
	if input.ScheduledDate.IsZero() {
		return calendar.ClockTime{}, pkgerrors.New(pkgerrors.CodeValidation, "scheduled date required")
	}
	if strings.TrimSpace(input.ServiceType) == "" {
		return calendar.ClockTime{}, pkgerrors.New(pkgerrors.CodeValidation, "service type required")
	}
	if input.EstimatedDuration < 0 {
		return calendar.ClockTime{}, pkgerrors.New(pkgerrors.CodeValidation, "estimated duration must be positive")
	}
	clock, err := calendar.ParseClock(input.ScheduledTime)
	if err != nil {
		return calendar.ClockTime{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scheduled time")
	}
	return clock, nil
}

// step describes one state change. authorize runs before the transition
// check; after runs inside the same transaction once the row is updated.
type step struct {
	target    enums.BookingStatus
	notify    enums.NotificationKind
	authorize func(booking *models.Booking, technician *models.TechnicianProfile) error
	fields    func(now time.Time) map[string]any
	after     func(ctx context.Context, tx *gorm.DB, booking *models.Booking, technician *models.TechnicianProfile, now time.Time) error
}

func technicianOnly(callerID uuid.UUID) func(*models.Booking, *models.TechnicianProfile) error {
	return func(_ *models.Booking, technician *models.TechnicianProfile) error {
		if technician.UserID != callerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the assigned technician can change this booking")
		}
		return nil
	}
}

func (s *service) advance(ctx context.Context, bookingID uuid.UUID, st step) (*models.Booking, *models.TechnicianProfile, time.Time, error) {
	if bookingID == uuid.Nil {
		return nil, nil, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}

	now := s.now()
	var (
		updated    *models.Booking
		technician *models.TechnicianProfile
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		booking, err := repo.LockByID(ctx, bookingID)
		if err != nil {
			return lookupError(err, "booking")
		}
		technician, err = repo.FindTechnician(ctx, booking.TechnicianID)
		if err != nil {
			return lookupError(err, "technician")
		}
		if err := st.authorize(booking, technician); err != nil {
			return err
		}
		if !CanTransition(booking.Status, st.target) {
			return pkgerrors.New(
				pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot move booking from %s to %s", booking.Status, st.target),
			).WithDetails(map[string]any{"from": booking.Status, "to": st.target})
		}

		if err := repo.UpdateStatus(ctx, booking.ID, st.target, st.fields(now)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking status")
		}
		updated, err = repo.FindByID(ctx, booking.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload booking")
		}
		if st.after != nil {
			if err := st.after(ctx, tx, updated, technician, now); err != nil {
				return err
			}
		}
		if st.notify != "" {
			s.queueNotification(ctx, tx, st.notify, updated)
		}
		return nil
	})
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	s.metrics.BookingTransition(string(st.target))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"booking_id": bookingID.String(),
		"status":     string(st.target),
	})
	s.logg.Info(logCtx, "booking status changed")
	return updated, technician, now, nil
}

func (s *service) Confirm(ctx context.Context, bookingID, callerID uuid.UUID) (*BookingDTO, error) {
	booking, technician, now, err := s.advance(ctx, bookingID, step{
		target:    enums.BookingStatusConfirmed,
		notify:    enums.NotificationBookingConfirmed,
		authorize: technicianOnly(callerID),
		fields: func(now time.Time) map[string]any {
			return map[string]any{"confirmed_at": now}
		},
	})
	if err != nil {
		return nil, err
	}

	if now.Sub(booking.CreatedAt) <= s.opts.QuickResponseWindow {
		if _, err := s.events.AwardPointsForEvent(ctx, nil, technician.UserID, enums.EventQuickResponse, &booking.ID); err != nil {
			s.logg.Error(s.logg.WithBookingID(ctx, booking.ID.String()), "quick response bonus failed", err)
		}
	}
	dto := ToDTO(booking)
	return &dto, nil
}

func (s *service) Start(ctx context.Context, bookingID, callerID uuid.UUID) (*BookingDTO, error) {
	booking, _, _, err := s.advance(ctx, bookingID, step{
		target:    enums.BookingStatusInProgress,
		authorize: technicianOnly(callerID),
		fields: func(now time.Time) map[string]any {
			return map[string]any{"started_at": now}
		},
	})
	if err != nil {
		return nil, err
	}
	dto := ToDTO(booking)
	return &dto, nil
}

func (s *service) Complete(ctx context.Context, bookingID, callerID uuid.UUID, totalPrice *decimal.Decimal) (*BookingDTO, error) {
	if totalPrice != nil && totalPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total price cannot be negative")
	}
	booking, _, _, err := s.advance(ctx, bookingID, step{
		target:    enums.BookingStatusCompleted,
		notify:    enums.NotificationBookingCompleted,
		authorize: technicianOnly(callerID),
		fields: func(now time.Time) map[string]any {
			fields := map[string]any{"completed_at": now}
			if totalPrice != nil {
				fields["total_price"] = *totalPrice
			}
			return fields
		},
		after: s.afterComplete,
	})
	if err != nil {
		return nil, err
	}
	dto := ToDTO(booking)
	return &dto, nil
}

func (s *service) afterComplete(ctx context.Context, tx *gorm.DB, booking *models.Booking, technician *models.TechnicianProfile, now time.Time) error {
	if err := s.repo.WithTx(tx).IncrementJobsCompleted(ctx, technician.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment jobs completed")
	}
	if _, err := s.events.AwardPointsForEvent(ctx, tx, booking.CustomerID, enums.EventBookingCompleted, &booking.ID); err != nil {
		return err
	}
	if _, err := s.events.AwardPointsForEvent(ctx, tx, technician.UserID, enums.EventJobCompleted, &booking.ID); err != nil {
		return err
	}
	if s.onTime(ctx, booking, now) {
		if _, err := s.events.AwardPointsForEvent(ctx, tx, technician.UserID, enums.EventOnTimeArrival, &booking.ID); err != nil {
			return err
		}
	}
	return nil
}

// onTime reports whether completion happened no later than the grace period
// after the scheduled start. Early completion counts as on time.
func (s *service) onTime(ctx context.Context, booking *models.Booking, now time.Time) bool {
	clock, err := calendar.ParseClock(booking.ScheduledTime)
	if err != nil {
		s.logg.Warn(s.logg.WithBookingID(ctx, booking.ID.String()), "unparseable scheduled time; skipping on-time bonus")
		return false
	}
	scheduled := calendar.Combine(time.Time(booking.ScheduledDate), clock, s.opts.Location)
	return now.Sub(scheduled) <= s.opts.OnTimeGrace
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*BookingDTO, error) {
	if !input.CancelledBy.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid cancelled_by %q", input.CancelledBy))
	}
	booking, _, _, err := s.advance(ctx, input.BookingID, step{
		target:    enums.BookingStatusCancelled,
		notify:    enums.NotificationBookingCancelled,
		authorize: cancelAuthorizer(input),
		fields: func(now time.Time) map[string]any {
			return map[string]any{
				"cancelled_at":  now,
				"cancelled_by":  input.CancelledBy,
				"cancel_reason": input.Reason,
			}
		},
	})
	if err != nil {
		return nil, err
	}
	dto := ToDTO(booking)
	return &dto, nil
}

func cancelAuthorizer(input CancelInput) func(*models.Booking, *models.TechnicianProfile) error {
	return func(booking *models.Booking, technician *models.TechnicianProfile) error {
		switch input.CancelledBy {
		case enums.CancelledByCustomer:
			if booking.CustomerID != input.CallerID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "only the booking customer can cancel as customer")
			}
		case enums.CancelledByTechnician:
			if technician.UserID != input.CallerID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "only the assigned technician can cancel as technician")
			}
		}
		return nil
	}
}

func (s *service) Get(ctx context.Context, bookingID uuid.UUID, actor Actor) (*BookingDTO, error) {
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, lookupError(err, "booking")
	}
	if !participant(booking, actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "booking belongs to other users")
	}
	dto := ToDTO(booking)
	return &dto, nil
}

func participant(booking *models.Booking, actor Actor) bool {
	if actor.Role == enums.UserRoleAdmin {
		return true
	}
	if booking.CustomerID == actor.UserID {
		return true
	}
	return booking.Technician != nil && booking.Technician.UserID == actor.UserID
}

func (s *service) List(ctx context.Context, actor Actor, status *enums.BookingStatus, limit int) ([]BookingDTO, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", *status))
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	filter := ListFilter{Status: status, Limit: limit}
	switch actor.Role {
	case enums.UserRoleAdmin:
	case enums.UserRoleTechnician:
		profile, err := s.repo.FindTechnicianByUser(ctx, actor.UserID)
		if err != nil {
			return nil, lookupError(err, "technician profile")
		}
		filter.TechnicianID = &profile.ID
	default:
		filter.CustomerID = &actor.UserID
	}

	rows, err := s.repo.ListForUser(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	out := make([]BookingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, ToDTO(&rows[i]))
	}
	return out, nil
}

// queueNotification writes the outbox row under a savepoint so a failed
// insert is logged without aborting the booking transaction.
func (s *service) queueNotification(ctx context.Context, tx *gorm.DB, kind enums.NotificationKind, booking *models.Booking) {
	err := tx.Transaction(func(sp *gorm.DB) error {
		return s.notify.NotifyBooking(ctx, sp, kind, booking)
	})
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"booking_id": booking.ID.String(),
			"kind":       string(kind),
		})
		s.logg.Error(logCtx, "queue booking notification failed", err)
	}
}

func lookupError(err error, entity string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}
