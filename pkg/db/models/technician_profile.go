package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TechnicianProfile holds the provider side of a technician account, including
// the cached rating and job aggregates.
type TechnicianProfile struct {
	ID                 uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	UserID             uuid.UUID                   `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Specializations    datatypes.JSONSlice[string] `gorm:"column:specializations;type:jsonb;not null"`
	City               string                      `gorm:"column:city;not null;default:''"`
	Location           string                      `gorm:"column:location;not null;default:''"`
	IsVerified         bool                        `gorm:"column:is_verified;not null;default:false"`
	AverageRating      float64                     `gorm:"column:average_rating;not null;default:0"`
	TotalReviews       int                         `gorm:"column:total_reviews;not null;default:0"`
	TotalJobsCompleted int                         `gorm:"column:total_jobs_completed;not null;default:0"`
	CreatedAt          time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                   `gorm:"column:updated_at;autoUpdateTime"`

	User *User `gorm:"foreignKey:UserID"`
}

func (p *TechnicianProfile) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
