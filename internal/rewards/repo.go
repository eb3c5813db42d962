package rewards

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context) ([]models.Reward, error)
	LockByCode(ctx context.Context, code string) (*models.Reward, error)
	DecrementStock(ctx context.Context, rewardID uuid.UUID) error
	FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	CreateRedemption(ctx context.Context, redemption *models.RewardRedemption) error
	ListRedemptions(ctx context.Context, userID uuid.UUID) ([]models.RewardRedemption, error)
	ExpireRedemptions(ctx context.Context, now time.Time) (int64, error)
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

func (r *repository) ListActive(ctx context.Context) ([]models.Reward, error) {
	var rows []models.Reward
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("points_cost ASC").
		Order("code ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) LockByCode(ctx context.Context, code string) (*models.Reward, error) {
	var reward models.Reward
	if err := db.ForUpdate(r.db.WithContext(ctx)).Where("code = ?", code).First(&reward).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

func (r *repository) DecrementStock(ctx context.Context, rewardID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Reward{}).
		Where("id = ? AND stock IS NOT NULL", rewardID).
		UpdateColumn("stock", gorm.Expr("stock - ?", 1)).Error
}

func (r *repository) FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) CreateRedemption(ctx context.Context, redemption *models.RewardRedemption) error {
	return r.db.WithContext(ctx).Omit("Reward").Create(redemption).Error
}

func (r *repository) ListRedemptions(ctx context.Context, userID uuid.UUID) ([]models.RewardRedemption, error) {
	var rows []models.RewardRedemption
	err := r.db.WithContext(ctx).
		Preload("Reward").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ExpireRedemptions flips ACTIVE redemptions whose expiry has passed.
func (r *repository) ExpireRedemptions(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RewardRedemption{}).
		Where("status = ? AND expires_at < ?", enums.RedemptionStatusActive, now).
		Update("status", enums.RedemptionStatusExpired)
	return res.RowsAffected, res.Error
}
