package points

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

// AwardInput describes one ledger movement. Points is signed.
type AwardInput struct {
	UserID      uuid.UUID
	Points      int
	Type        enums.PointTransactionType
	Source      string
	Description string
	SourceID    *uuid.UUID
}

// AwardResult reports the projection after an award.
type AwardResult struct {
	PointsAwarded  int     `json:"points_awarded"`
	NewTotal       int     `json:"new_total"`
	LevelUp        bool    `json:"level_up"`
	NewLevel       *int    `json:"new_level,omitempty"`
	NewLevelName   *string `json:"new_level_name,omitempty"`
	NewLevelNameEn *string `json:"new_level_name_en,omitempty"`
}

// LevelDTO names a band.
type LevelDTO struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	NameEn string `json:"name_en"`
}

// Summary is the read projection of a user's points.
type Summary struct {
	UserID            uuid.UUID `json:"user_id"`
	TotalPoints       int       `json:"total_points"`
	LifetimePoints    int       `json:"lifetime_points"`
	CurrentLevel      LevelDTO  `json:"current_level"`
	LevelProgress     int       `json:"level_progress"`
	PointsToNextLevel int       `json:"points_to_next_level"`
	NextLevel         *LevelDTO `json:"next_level,omitempty"`
}

// TransactionDTO is a ledger row as exposed to clients.
type TransactionDTO struct {
	ID          uuid.UUID                  `json:"id"`
	Points      int                        `json:"points"`
	Type        enums.PointTransactionType `json:"type"`
	Source      string                     `json:"source"`
	SourceID    *uuid.UUID                 `json:"source_id,omitempty"`
	Description string                     `json:"description"`
	CreatedAt   time.Time                  `json:"created_at"`
}

func levelDTO(level Level) LevelDTO {
	return LevelDTO{Number: level.Number, Name: level.Name, NameEn: level.NameEn}
}

// TransactionPage is one page of ledger history. Cursor is empty on the last page.
type TransactionPage struct {
	Items  []TransactionDTO `json:"items"`
	Cursor string           `json:"cursor,omitempty"`
}
