package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/calendar"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/servicehub-backend/pkg/errors"
)

// Technicians without any slot rows work Monday to Saturday from 08:00 until 18:00.
var (
	defaultOpen  = calendar.ClockTime{Hour: 8}
	defaultClose = calendar.ClockTime{Hour: 18}
)

const closedDay = 0

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service resolves bookable slots and manages technician schedules.
type Service interface {
	CheckAvailability(ctx context.Context, query SlotQuery) (bool, error)
	CheckAvailabilityTx(ctx context.Context, tx *gorm.DB, query SlotQuery) (bool, error)
	GetAvailableSlots(ctx context.Context, technicianID uuid.UUID, date time.Time) ([]string, error)
	GetSchedule(ctx context.Context, technicianID uuid.UUID) (*Schedule, error)
	// OwnSchedule resolves the caller's technician profile and returns its
	// weekly slots with upcoming time off.
	OwnSchedule(ctx context.Context, userID uuid.UUID) (*Schedule, error)
	ReplaceWeeklySchedule(ctx context.Context, userID uuid.UUID, slots []SlotInput) (*Schedule, error)
	AddTimeOff(ctx context.Context, userID uuid.UUID, input TimeOffInput) (*TimeOffDTO, error)
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService wires the availability resolver.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("availability repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

func (s *service) CheckAvailability(ctx context.Context, query SlotQuery) (bool, error) {
	return s.CheckAvailabilityTx(ctx, nil, query)
}

// CheckAvailabilityTx evaluates the query against tx so callers can hold the
// answer stable until they insert.
func (s *service) CheckAvailabilityTx(ctx context.Context, tx *gorm.DB, query SlotQuery) (bool, error) {
	if query.TechnicianID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "technician id required")
	}
	if query.Date.IsZero() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "date required")
	}
	clock, err := calendar.ParseClock(query.Time)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid time")
	}

	repo := s.repo.WithTx(tx)
	date := calendar.DateOnly(query.Date)
	day := calendar.DayOfWeek(date)

	count, err := repo.CountSlots(ctx, query.TechnicianID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count availability slots")
	}
	if count == 0 {
		if day == closedDay || clock.Before(defaultOpen) || !clock.Before(defaultClose) {
			return false, nil
		}
	} else {
		slots, err := repo.ListSlotsForDay(ctx, query.TechnicianID, day)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list availability slots")
		}
		matched, err := anySlotCovers(slots, clock)
		if err != nil {
			return false, err
		}
		if !matched {
			return false, nil
		}
	}

	off, err := repo.HasTimeOffOn(ctx, query.TechnicianID, date)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check time off")
	}
	if off {
		return false, nil
	}

	booked, err := repo.HasActiveBookingAt(ctx, query.TechnicianID, date, clock.String())
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing bookings")
	}
	return !booked, nil
}

func (s *service) GetAvailableSlots(ctx context.Context, technicianID uuid.UUID, date time.Time) ([]string, error) {
	if technicianID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "technician id required")
	}
	if date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date required")
	}
	date = calendar.DateOnly(date)
	// Unknown technicians are NotFound before any schedule rule applies; for
	// known ones time-off short-circuits ahead of slot expansion.
	if _, err := s.loadTechnician(ctx, technicianID); err != nil {
		return nil, err
	}

	off, err := s.repo.HasTimeOffOn(ctx, technicianID, date)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check time off")
	}
	if off {
		return []string{}, nil
	}

	count, err := s.repo.CountSlots(ctx, technicianID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count availability slots")
	}

	var candidates []string
	if count == 0 {
		if calendar.DayOfWeek(date) == closedDay {
			return []string{}, nil
		}
		candidates = calendar.HourlySlots(defaultOpen.Hour, defaultClose.Hour)
	} else {
		slots, err := s.repo.ListSlotsForDay(ctx, technicianID, calendar.DayOfWeek(date))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list availability slots")
		}
		for _, slot := range slots {
			start, end, err := slotBounds(slot)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, calendar.HourlySlots(start.Hour, end.Hour)...)
		}
	}

	bookedTimes, err := s.repo.ListActiveBookingTimes(ctx, technicianID, date)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list booked times")
	}
	bookedHours := make(map[int]struct{}, len(bookedTimes))
	for _, raw := range bookedTimes {
		clock, err := calendar.ParseClock(raw)
		if err != nil {
			continue
		}
		bookedHours[clock.Hour] = struct{}{}
	}

	free := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		clock, err := calendar.ParseClock(candidate)
		if err != nil {
			continue
		}
		if _, taken := bookedHours[clock.Hour]; taken {
			continue
		}
		free = append(free, candidate)
	}
	return free, nil
}

func (s *service) GetSchedule(ctx context.Context, technicianID uuid.UUID) (*Schedule, error) {
	if technicianID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "technician id required")
	}
	if _, err := s.loadTechnician(ctx, technicianID); err != nil {
		return nil, err
	}
	return s.buildSchedule(ctx, s.repo, technicianID)
}

func (s *service) OwnSchedule(ctx context.Context, userID uuid.UUID) (*Schedule, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	profile, err := s.repo.FindTechnicianByUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "technician profile required")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load technician profile")
	}
	return s.buildSchedule(ctx, s.repo, profile.ID)
}

func (s *service) ReplaceWeeklySchedule(ctx context.Context, userID uuid.UUID, inputs []SlotInput) (*Schedule, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	normalized := make([]models.AvailabilitySlot, 0, len(inputs))
	for i, input := range inputs {
		slot, err := normalizeSlot(input)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid slot").
				WithDetails(map[string]any{"index": i})
		}
		normalized = append(normalized, slot)
	}

	var schedule *Schedule
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		profile, err := repo.FindTechnicianByUser(ctx, userID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeForbidden, "technician profile required")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load technician profile")
		}
		for i := range normalized {
			normalized[i].TechnicianID = profile.ID
		}
		if err := repo.ReplaceRecurringSlots(ctx, profile.ID, normalized); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace availability slots")
		}
		schedule, err = s.buildSchedule(ctx, repo, profile.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *service) AddTimeOff(ctx context.Context, userID uuid.UUID, input TimeOffInput) (*TimeOffDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start and end dates required")
	}
	start := calendar.DateOnly(input.StartDate)
	end := calendar.DateOnly(input.EndDate)
	if end.Before(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must not precede start date")
	}

	profile, err := s.repo.FindTechnicianByUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "technician profile required")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load technician profile")
	}

	row := &models.TimeOff{
		TechnicianID: profile.ID,
		StartDate:    datatypes.Date(start),
		EndDate:      datatypes.Date(end),
		Reason:       input.Reason,
	}
	if err := s.repo.CreateTimeOff(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create time off")
	}
	dto := timeOffDTO(*row)
	return &dto, nil
}

func (s *service) loadTechnician(ctx context.Context, technicianID uuid.UUID) (*models.TechnicianProfile, error) {
	profile, err := s.repo.FindTechnician(ctx, technicianID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "technician not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load technician")
	}
	return profile, nil
}

func (s *service) buildSchedule(ctx context.Context, repo Repository, technicianID uuid.UUID) (*Schedule, error) {
	slots, err := repo.ListSlots(ctx, technicianID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list availability slots")
	}
	offs, err := repo.ListTimeOffFrom(ctx, technicianID, calendar.DateOnly(s.now()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list time off")
	}

	schedule := &Schedule{
		TechnicianID: technicianID,
		UsesDefault:  len(slots) == 0,
		Slots:        make([]SlotDTO, 0, len(slots)),
		TimeOff:      make([]TimeOffDTO, 0, len(offs)),
	}
	for _, slot := range slots {
		schedule.Slots = append(schedule.Slots, SlotDTO{
			ID:          slot.ID,
			DayOfWeek:   slot.DayOfWeek,
			StartTime:   slot.StartTime,
			EndTime:     slot.EndTime,
			IsAvailable: slot.IsAvailable,
			IsRecurring: slot.IsRecurring,
		})
	}
	for _, off := range offs {
		schedule.TimeOff = append(schedule.TimeOff, timeOffDTO(off))
	}
	return schedule, nil
}

func anySlotCovers(slots []models.AvailabilitySlot, clock calendar.ClockTime) (bool, error) {
	for _, slot := range slots {
		start, end, err := slotBounds(slot)
		if err != nil {
			return false, err
		}
		if clock.Within(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func slotBounds(slot models.AvailabilitySlot) (calendar.ClockTime, calendar.ClockTime, error) {
	start, err := calendar.ParseClock(slot.StartTime)
	if err != nil {
		return calendar.ClockTime{}, calendar.ClockTime{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stored slot start is malformed")
	}
	end, err := calendar.ParseClock(slot.EndTime)
	if err != nil {
		return calendar.ClockTime{}, calendar.ClockTime{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stored slot end is malformed")
	}
	return start, end, nil
}

func normalizeSlot(input SlotInput) (models.AvailabilitySlot, error) {
	if input.DayOfWeek < 0 || input.DayOfWeek > 6 {
		return models.AvailabilitySlot{}, fmt.Errorf("day_of_week must be between 0 and 6")
	}
	start, err := calendar.ParseClock(input.StartTime)
	if err != nil {
		return models.AvailabilitySlot{}, err
	}
	end, err := calendar.ParseClock(input.EndTime)
	if err != nil {
		return models.AvailabilitySlot{}, err
	}
	if !start.Before(end) {
		return models.AvailabilitySlot{}, fmt.Errorf("start_time must precede end_time")
	}
	available := true
	if input.IsAvailable != nil {
		available = *input.IsAvailable
	}
	return models.AvailabilitySlot{
		DayOfWeek:   input.DayOfWeek,
		StartTime:   start.String(),
		EndTime:     end.String(),
		IsAvailable: available,
		IsRecurring: true,
	}, nil
}

func timeOffDTO(row models.TimeOff) TimeOffDTO {
	return TimeOffDTO{
		ID:        row.ID,
		StartDate: calendar.FormatDate(time.Time(row.StartDate)),
		EndDate:   calendar.FormatDate(time.Time(row.EndDate)),
		Reason:    row.Reason,
	}
}
