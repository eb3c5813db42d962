package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

// Repository reads and writes technician schedule state.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindTechnician(ctx context.Context, technicianID uuid.UUID) (*models.TechnicianProfile, error)
	FindTechnicianByUser(ctx context.Context, userID uuid.UUID) (*models.TechnicianProfile, error)
	CountSlots(ctx context.Context, technicianID uuid.UUID) (int64, error)
	ListSlotsForDay(ctx context.Context, technicianID uuid.UUID, dayOfWeek int) ([]models.AvailabilitySlot, error)
	ListSlots(ctx context.Context, technicianID uuid.UUID) ([]models.AvailabilitySlot, error)
	ReplaceRecurringSlots(ctx context.Context, technicianID uuid.UUID, slots []models.AvailabilitySlot) error
	HasTimeOffOn(ctx context.Context, technicianID uuid.UUID, date time.Time) (bool, error)
	CreateTimeOff(ctx context.Context, timeOff *models.TimeOff) error
	ListTimeOffFrom(ctx context.Context, technicianID uuid.UUID, from time.Time) ([]models.TimeOff, error)
	HasActiveBookingAt(ctx context.Context, technicianID uuid.UUID, date time.Time, clock string) (bool, error)
	ListActiveBookingTimes(ctx context.Context, technicianID uuid.UUID, date time.Time) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a schedule repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindTechnician(ctx context.Context, technicianID uuid.UUID) (*models.TechnicianProfile, error) {
	var profile models.TechnicianProfile
	if err := r.db.WithContext(ctx).Where("id = ?", technicianID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) FindTechnicianByUser(ctx context.Context, userID uuid.UUID) (*models.TechnicianProfile, error) {
	var profile models.TechnicianProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) CountSlots(ctx context.Context, technicianID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AvailabilitySlot{}).
		Where("technician_id = ?", technicianID).
		Count(&count).Error
	return count, err
}

func (r *repository) ListSlotsForDay(ctx context.Context, technicianID uuid.UUID, dayOfWeek int) ([]models.AvailabilitySlot, error) {
	var slots []models.AvailabilitySlot
	err := r.db.WithContext(ctx).
		Where("technician_id = ? AND day_of_week = ? AND is_recurring = ? AND is_available = ?", technicianID, dayOfWeek, true, true).
		Order("start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *repository) ListSlots(ctx context.Context, technicianID uuid.UUID) ([]models.AvailabilitySlot, error) {
	var slots []models.AvailabilitySlot
	err := r.db.WithContext(ctx).
		Where("technician_id = ?", technicianID).
		Order("day_of_week ASC").
		Order("start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *repository) ReplaceRecurringSlots(ctx context.Context, technicianID uuid.UUID, slots []models.AvailabilitySlot) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("technician_id = ? AND is_recurring = ?", technicianID, true).
		Delete(&models.AvailabilitySlot{}).Error; err != nil {
		return err
	}
	if len(slots) == 0 {
		return nil
	}
	return db.Create(&slots).Error
}

func (r *repository) HasTimeOffOn(ctx context.Context, technicianID uuid.UUID, date time.Time) (bool, error) {
	var count int64
	day := datatypes.Date(date)
	err := r.db.WithContext(ctx).
		Model(&models.TimeOff{}).
		Where("technician_id = ? AND start_date <= ? AND end_date >= ?", technicianID, day, day).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateTimeOff(ctx context.Context, timeOff *models.TimeOff) error {
	return r.db.WithContext(ctx).Create(timeOff).Error
}

func (r *repository) ListTimeOffFrom(ctx context.Context, technicianID uuid.UUID, from time.Time) ([]models.TimeOff, error) {
	var rows []models.TimeOff
	err := r.db.WithContext(ctx).
		Where("technician_id = ? AND end_date >= ?", technicianID, datatypes.Date(from)).
		Order("start_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) HasActiveBookingAt(ctx context.Context, technicianID uuid.UUID, date time.Time, clock string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("technician_id = ? AND scheduled_date = ? AND scheduled_time = ?", technicianID, datatypes.Date(date), clock).
		Where("status NOT IN ?", enums.InactiveBookingStatuses).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListActiveBookingTimes(ctx context.Context, technicianID uuid.UUID, date time.Time) ([]string, error) {
	var times []string
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("technician_id = ? AND scheduled_date = ?", technicianID, datatypes.Date(date)).
		Where("status NOT IN ?", enums.InactiveBookingStatuses).
		Pluck("scheduled_time", &times).Error
	return times, err
}
