package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Role       enums.UserRole `gorm:"column:role;type:text;not null"`
	Email      string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	FirstName  string         `gorm:"column:first_name;not null"`
	LastName   string         `gorm:"column:last_name;not null"`
	Phone      *string        `gorm:"column:phone"`
	IsVerified bool           `gorm:"column:is_verified;not null;default:false"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`

	TechnicianProfile *TechnicianProfile `gorm:"foreignKey:UserID"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// DisplayName joins first and last name.
func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
