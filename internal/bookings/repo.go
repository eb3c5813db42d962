package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

// Repository persists bookings and the participant rows they join.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error)
	LockByID(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error)
	FindCustomer(ctx context.Context, userID uuid.UUID) (*models.User, error)
	FindTechnician(ctx context.Context, technicianID uuid.UUID) (*models.TechnicianProfile, error)
	FindTechnicianByUser(ctx context.Context, userID uuid.UUID) (*models.TechnicianProfile, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status enums.BookingStatus, fields map[string]any) error
	IncrementJobsCompleted(ctx context.Context, technicianID uuid.UUID) error
	ListForUser(ctx context.Context, filter ListFilter) ([]models.Booking, error)
}

// ListFilter narrows a participant's booking list.
type ListFilter struct {
	CustomerID   *uuid.UUID
	TechnicianID *uuid.UUID
	Status       *enums.BookingStatus
	From         *time.Time
	Limit        int
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a booking repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Omit("Customer", "Technician").Create(booking).Error
}

func (r *repository) FindByID(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Technician.User").
		Where("id = ?", bookingID).
		First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) LockByID(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", bookingID).
		First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) FindCustomer(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindTechnician(ctx context.Context, technicianID uuid.UUID) (*models.TechnicianProfile, error) {
	var profile models.TechnicianProfile
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", technicianID).
		First(&profile).Error; err != nil {
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

func (r *repository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).Where("customer_id = ?", customerID).Count(&count).Error
	return count, err
}

func (r *repository) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status enums.BookingStatus, fields map[string]any) error {
	updates := map[string]any{"status": status}
	for k, v := range fields {
		updates[k] = v
	}
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Updates(updates).Error
}

func (r *repository) IncrementJobsCompleted(ctx context.Context, technicianID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.TechnicianProfile{}).
		Where("id = ?", technicianID).
		UpdateColumn("total_jobs_completed", gorm.Expr("total_jobs_completed + ?", 1)).Error
}

func (r *repository) ListForUser(ctx context.Context, filter ListFilter) ([]models.Booking, error) {
	query := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Technician.User")
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.TechnicianID != nil {
		query = query.Where("technician_id = ?", *filter.TechnicianID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("scheduled_date >= ?", *filter.From)
	}
	var rows []models.Booking
	err := query.
		Order("scheduled_date ASC").
		Order("scheduled_time ASC").
		Limit(filter.Limit).
		Find(&rows).Error
	return rows, err
}
