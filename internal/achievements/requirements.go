package achievements

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/servicehub-backend/pkg/calendar"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

// Requirements is a conjunction; only the keys that are set take part.
type Requirements struct {
	Role              *string  `json:"role,omitempty"`
	BookingsCompleted *int     `json:"bookingsCompleted,omitempty"`
	JobsCompleted     *int     `json:"jobsCompleted,omitempty"`
	ReviewsWritten    *int     `json:"reviewsWritten,omitempty"`
	FiveStarReviews   *int     `json:"fiveStarReviews,omitempty"`
	AverageRating     *float64 `json:"averageRating,omitempty"`
	MinReviews        *int     `json:"minReviews,omitempty"`
	IsVerified        *bool    `json:"isVerified,omitempty"`
	RegisteredBefore  *string  `json:"registeredBefore,omitempty"`
}

// Stats are the user facts requirements are evaluated against.
type Stats struct {
	BookingsCompleted int
	ReviewsWritten    int
	RegisteredAt      time.Time

	IsTechnician    bool
	JobsCompleted   int
	TotalReviews    int
	AverageRating   float64
	FiveStarReviews int
	IsVerified      bool
}

func parseRequirements(raw []byte) (Requirements, error) {
	var req Requirements
	if len(raw) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("decode requirements: %w", err)
	}
	return req, nil
}

// applies reports false when the requirement targets a role the user does not hold.
func (r Requirements) applies(stats Stats) bool {
	if r.Role == nil {
		return true
	}
	return *r.Role == string(enums.UserRoleTechnician) && stats.IsTechnician
}

// satisfied evaluates every present key. An empty requirement set is satisfied.
func (r Requirements) satisfied(stats Stats) (bool, error) {
	if r.BookingsCompleted != nil && stats.BookingsCompleted < *r.BookingsCompleted {
		return false, nil
	}
	if r.JobsCompleted != nil && stats.JobsCompleted < *r.JobsCompleted {
		return false, nil
	}
	if r.ReviewsWritten != nil && stats.ReviewsWritten < *r.ReviewsWritten {
		return false, nil
	}
	if r.FiveStarReviews != nil && stats.FiveStarReviews < *r.FiveStarReviews {
		return false, nil
	}
	if r.AverageRating != nil {
		minReviews := 0
		if r.MinReviews != nil {
			minReviews = *r.MinReviews
		}
		if stats.AverageRating < *r.AverageRating || stats.TotalReviews < minReviews {
			return false, nil
		}
	}
	if r.IsVerified != nil && *r.IsVerified && !(stats.IsTechnician && stats.IsVerified) {
		return false, nil
	}
	if r.RegisteredBefore != nil {
		deadline, err := calendar.ParseDate(*r.RegisteredBefore)
		if err != nil {
			return false, fmt.Errorf("registeredBefore: %w", err)
		}
		if stats.RegisteredAt.After(deadline) {
			return false, nil
		}
	}
	return true, nil
}
