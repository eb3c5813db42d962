package achievements

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

// Repository reads the catalog, user statistics and unlock records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListCatalog(ctx context.Context) ([]models.Achievement, error)
	FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	CountCompletedBookings(ctx context.Context, customerID uuid.UUID) (int64, error)
	CountReviewsWritten(ctx context.Context, customerID uuid.UUID) (int64, error)
	CountFiveStarReviews(ctx context.Context, technicianID uuid.UUID) (int64, error)
	ListUnlockedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListUnlocked(ctx context.Context, userID uuid.UUID) ([]models.UserAchievement, error)
	// InsertUnlock reports whether this call created the unlock row.
	InsertUnlock(ctx context.Context, unlock *models.UserAchievement) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an achievements repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListCatalog(ctx context.Context) ([]models.Achievement, error) {
	var rows []models.Achievement
	err := r.db.WithContext(ctx).Order("category ASC").Order("points ASC").Order("code ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Preload("TechnicianProfile").
		Where("id = ?", userID).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) CountCompletedBookings(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("customer_id = ? AND status = ?", customerID, enums.BookingStatusCompleted).
		Count(&count).Error
	return count, err
}

func (r *repository) CountReviewsWritten(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).Where("customer_id = ?", customerID).Count(&count).Error
	return count, err
}

func (r *repository) CountFiveStarReviews(ctx context.Context, technicianID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("technician_id = ? AND rating = ?", technicianID, 5).
		Count(&count).Error
	return count, err
}

func (r *repository) ListUnlockedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.UserAchievement{}).
		Where("user_id = ?", userID).
		Pluck("achievement_id", &ids).Error
	return ids, err
}

func (r *repository) ListUnlocked(ctx context.Context, userID uuid.UUID) ([]models.UserAchievement, error) {
	var rows []models.UserAchievement
	err := r.db.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) InsertUnlock(ctx context.Context, unlock *models.UserAchievement) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Create(unlock)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
