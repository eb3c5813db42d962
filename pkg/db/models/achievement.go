package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Achievement is a catalog entry; Requirements is a JSON object of predicate keys.
type Achievement struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Code         string         `gorm:"column:code;type:text;not null;uniqueIndex"`
	Name         string         `gorm:"column:name;not null"`
	NameEn       string         `gorm:"column:name_en;not null"`
	Description  string         `gorm:"column:description;not null;default:''"`
	Icon         string         `gorm:"column:icon;not null;default:''"`
	Category     string         `gorm:"column:category;not null"`
	Points       int            `gorm:"column:points;not null;default:0"`
	Requirements datatypes.JSON `gorm:"column:requirements;type:jsonb;not null"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (a *Achievement) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}

// UserAchievement records a one-time unlock.
type UserAchievement struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	AchievementID uuid.UUID `gorm:"column:achievement_id;type:uuid;not null"`
	UnlockedAt    time.Time `gorm:"column:unlocked_at;not null"`

	Achievement *Achievement `gorm:"foreignKey:AchievementID"`
}

func (u *UserAchievement) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}
