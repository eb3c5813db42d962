package models

import (
	"time"

	"github.com/google/uuid"
)

// UserPoints is the cached projection of a user's point ledger.
type UserPoints struct {
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	TotalPoints    int       `gorm:"column:total_points;not null;default:0"`
	LifetimePoints int       `gorm:"column:lifetime_points;not null;default:0"`
	CurrentLevel   int       `gorm:"column:current_level;not null;default:1"`
	LevelProgress  int       `gorm:"column:level_progress;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserPoints) TableName() string { return "user_points" }
