package leaderboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

// Row is one ranked user before rank numbers are assigned.
type Row struct {
	UserID        uuid.UUID
	FirstName     string
	LastName      string
	Role          enums.UserRole
	Points        int
	Level         int
	JobsCompleted int
	AverageRating float64
}

type Repository interface {
	AllTime(ctx context.Context, limit int) ([]Row, error)
	Since(ctx context.Context, from time.Time, limit int) ([]Row, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// AllTime ranks the points projection by lifetime points.
func (r *repository) AllTime(ctx context.Context, limit int) ([]Row, error) {
	var rows []Row
	err := r.db.WithContext(ctx).
		Table("user_points AS up").
		Select(`up.user_id AS user_id,
			u.first_name AS first_name,
			u.last_name AS last_name,
			u.role AS role,
			up.lifetime_points AS points,
			up.current_level AS level,
			COALESCE(tp.total_jobs_completed, 0) AS jobs_completed,
			COALESCE(tp.average_rating, 0) AS average_rating`).
		Joins("JOIN users u ON u.id = up.user_id").
		Joins("LEFT JOIN technician_profiles tp ON tp.user_id = up.user_id").
		Order("up.lifetime_points DESC").
		Order("up.user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// Since sums positive ledger rows created at or after from.
func (r *repository) Since(ctx context.Context, from time.Time, limit int) ([]Row, error) {
	var rows []Row
	err := r.db.WithContext(ctx).
		Table("point_transactions AS pt").
		Select(`pt.user_id AS user_id,
			u.first_name AS first_name,
			u.last_name AS last_name,
			u.role AS role,
			SUM(pt.points) AS points,
			COALESCE(up.current_level, 1) AS level,
			COALESCE(tp.total_jobs_completed, 0) AS jobs_completed,
			COALESCE(tp.average_rating, 0) AS average_rating`).
		Joins("JOIN users u ON u.id = pt.user_id").
		Joins("LEFT JOIN user_points up ON up.user_id = pt.user_id").
		Joins("LEFT JOIN technician_profiles tp ON tp.user_id = pt.user_id").
		Where("pt.points > 0 AND pt.created_at >= ?", from).
		Group("pt.user_id, u.first_name, u.last_name, u.role, up.current_level, tp.total_jobs_completed, tp.average_rating").
		Order("points DESC").
		Order("pt.user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
