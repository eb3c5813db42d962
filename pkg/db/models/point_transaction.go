package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

// PointTransaction is an append-only ledger row; Points is signed.
type PointTransaction struct {
	ID          uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID                  `gorm:"column:user_id;type:uuid;not null;index"`
	Points      int                        `gorm:"column:points;not null"`
	Type        enums.PointTransactionType `gorm:"column:type;type:text;not null"`
	Source      string                     `gorm:"column:source;type:text;not null"`
	SourceID    *uuid.UUID                 `gorm:"column:source_id;type:uuid"`
	Description string                     `gorm:"column:description;not null;default:''"`
	CreatedAt   time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (t *PointTransaction) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}
