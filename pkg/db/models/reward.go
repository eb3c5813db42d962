package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

// Reward is a redeemable catalog item. A nil Stock means unlimited.
type Reward struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Code        string               `gorm:"column:code;type:text;not null;uniqueIndex"`
	Name        string               `gorm:"column:name;not null"`
	Description string               `gorm:"column:description;not null;default:''"`
	Category    enums.RewardCategory `gorm:"column:category;type:text;not null"`
	PointsCost  int                  `gorm:"column:points_cost;not null"`
	Stock       *int                 `gorm:"column:stock"`
	IsActive    bool                 `gorm:"column:is_active;not null"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Reward) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// RewardRedemption snapshots the cost paid and carries the code handed to the user.
type RewardRedemption struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	RewardID   uuid.UUID              `gorm:"column:reward_id;type:uuid;not null"`
	PointsUsed int                    `gorm:"column:points_used;not null"`
	Code       string                 `gorm:"column:code;type:text;not null;uniqueIndex"`
	Status     enums.RedemptionStatus `gorm:"column:status;type:text;not null"`
	ExpiresAt  time.Time              `gorm:"column:expires_at;not null"`
	UsedAt     *time.Time             `gorm:"column:used_at"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`

	Reward *Reward `gorm:"foreignKey:RewardID"`
}

func (r *RewardRedemption) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
