package achievements

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
)

// Unlocked is an achievement granted by a single evaluation.
type Unlocked struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	NameEn     string    `json:"name_en"`
	Icon       string    `json:"icon"`
	Points     int       `json:"points"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// AchievementDTO is a catalog entry annotated with the caller's unlock state.
type AchievementDTO struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	NameEn      string     `json:"name_en"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Category    string     `json:"category"`
	Points      int        `json:"points"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

func unlockedDTO(a models.Achievement, at time.Time) Unlocked {
	return Unlocked{
		ID:         a.ID,
		Code:       a.Code,
		Name:       a.Name,
		NameEn:     a.NameEn,
		Icon:       a.Icon,
		Points:     a.Points,
		UnlockedAt: at,
	}
}

func achievementDTO(a models.Achievement) AchievementDTO {
	return AchievementDTO{
		ID:          a.ID,
		Code:        a.Code,
		Name:        a.Name,
		NameEn:      a.NameEn,
		Description: a.Description,
		Icon:        a.Icon,
		Category:    a.Category,
		Points:      a.Points,
	}
}
