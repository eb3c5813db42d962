package points

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/pagination"
)

// Repository persists the ledger and its projection.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EnsureAccount(ctx context.Context, userID uuid.UUID) error
	LockAccount(ctx context.Context, userID uuid.UUID) (*models.UserPoints, error)
	FindAccount(ctx context.Context, userID uuid.UUID) (*models.UserPoints, error)
	SaveAccount(ctx context.Context, account *models.UserPoints) error
	AppendTransaction(ctx context.Context, txn *models.PointTransaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.PointTransaction, error)
	SumTransactions(ctx context.Context, userID uuid.UUID) (int, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// EnsureAccount inserts a zeroed projection row unless one exists.
func (r *repository) EnsureAccount(ctx context.Context, userID uuid.UUID) error {
	account := models.UserPoints{UserID: userID, CurrentLevel: 1}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&account).Error
}

func (r *repository) LockAccount(ctx context.Context, userID uuid.UUID) (*models.UserPoints, error) {
	var account models.UserPoints
	if err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindAccount(ctx context.Context, userID uuid.UUID) (*models.UserPoints, error) {
	var account models.UserPoints
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) SaveAccount(ctx context.Context, account *models.UserPoints) error {
	return r.db.WithContext(ctx).
		Model(&models.UserPoints{}).
		Where("user_id = ?", account.UserID).
		Updates(map[string]any{
			"total_points":    account.TotalPoints,
			"lifetime_points": account.LifetimePoints,
			"current_level":   account.CurrentLevel,
			"level_progress":  account.LevelProgress,
		}).Error
}

func (r *repository) AppendTransaction(ctx context.Context, txn *models.PointTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.PointTransaction, error) {
	var rows []models.PointTransaction
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if cursor != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	err := q.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) SumTransactions(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&models.PointTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	return total, err
}
