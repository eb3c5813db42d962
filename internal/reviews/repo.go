package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
)

// Repository stores reviews and keeps technician rating aggregates current.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockBooking(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error)
	LockTechnician(ctx context.Context, technicianID uuid.UUID) (*models.TechnicianProfile, error)
	Create(ctx context.Context, review *models.Review) error
	RatingStats(ctx context.Context, technicianID uuid.UUID) (RatingStats, error)
	UpdateRating(ctx context.Context, technicianID uuid.UUID, stats RatingStats) error
	ListByTechnician(ctx context.Context, technicianID uuid.UUID, limit int) ([]models.Review, error)
}

// RatingStats is the aggregate over a technician's reviews.
type RatingStats struct {
	Average float64
	Count   int64
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) LockBooking(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := db.ForUpdate(r.db.WithContext(ctx)).Where("id = ?", bookingID).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) LockTechnician(ctx context.Context, technicianID uuid.UUID) (*models.TechnicianProfile, error) {
	var profile models.TechnicianProfile
	if err := db.ForUpdate(r.db.WithContext(ctx)).Where("id = ?", technicianID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *repository) RatingStats(ctx context.Context, technicianID uuid.UUID) (RatingStats, error) {
	var row struct {
		Average float64
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("technician_id = ?", technicianID).
		Scan(&row).Error
	return RatingStats{Average: row.Average, Count: row.Count}, err
}

func (r *repository) UpdateRating(ctx context.Context, technicianID uuid.UUID, stats RatingStats) error {
	return r.db.WithContext(ctx).
		Model(&models.TechnicianProfile{}).
		Where("id = ?", technicianID).
		Updates(map[string]any{
			"average_rating": stats.Average,
			"total_reviews":  stats.Count,
		}).Error
}

func (r *repository) ListByTechnician(ctx context.Context, technicianID uuid.UUID, limit int) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Where("technician_id = ?", technicianID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
