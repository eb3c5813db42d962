package enums

import "fmt"

// GamificationEvent names a point-earning occurrence. Values double as ledger sources.
type GamificationEvent string

const (
	EventBookingCompleted     GamificationEvent = "BOOKING_COMPLETED"
	EventReviewSubmitted      GamificationEvent = "REVIEW_SUBMITTED"
	EventFirstBooking         GamificationEvent = "FIRST_BOOKING"
	EventJobCompleted         GamificationEvent = "JOB_COMPLETED"
	EventFiveStarReview       GamificationEvent = "FIVE_STAR_REVIEW"
	EventQuickResponse        GamificationEvent = "QUICK_RESPONSE"
	EventOnTimeArrival        GamificationEvent = "ON_TIME_ARRIVAL"
	EventWeeklyStreak         GamificationEvent = "WEEKLY_STREAK"
	EventReferralSignup       GamificationEvent = "REFERRAL_SIGNUP"
	EventReferralFirstBooking GamificationEvent = "REFERRAL_FIRST_BOOKING"
)

// Ledger sources that are not point-table events.
const (
	SourceAchievementUnlocked = "ACHIEVEMENT_UNLOCKED"
	SourceRewardRedeemed      = "REWARD_REDEEMED"
)

var validGamificationEvents = []GamificationEvent{
	EventBookingCompleted,
	EventReviewSubmitted,
	EventFirstBooking,
	EventJobCompleted,
	EventFiveStarReview,
	EventQuickResponse,
	EventOnTimeArrival,
	EventWeeklyStreak,
	EventReferralSignup,
	EventReferralFirstBooking,
}

func (e GamificationEvent) String() string {
	return string(e)
}

func (e GamificationEvent) IsValid() bool {
	for _, candidate := range validGamificationEvents {
		if candidate == e {
			return true
		}
	}
	return false
}

func ParseGamificationEvent(value string) (GamificationEvent, error) {
	for _, candidate := range validGamificationEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gamification event %q", value)
}
