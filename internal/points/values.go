package points

import "github.com/angelmondragon/servicehub-backend/pkg/enums"

// EventAward is the fixed point value and ledger description for an event.
type EventAward struct {
	Points      int
	Description string
}

var eventAwards = map[enums.GamificationEvent]EventAward{
	enums.EventBookingCompleted:     {Points: 50, Description: "Booking completed"},
	enums.EventReviewSubmitted:      {Points: 20, Description: "Review submitted"},
	enums.EventFirstBooking:         {Points: 100, Description: "First booking"},
	enums.EventJobCompleted:         {Points: 100, Description: "Job completed"},
	enums.EventFiveStarReview:       {Points: 50, Description: "Five star review received"},
	enums.EventQuickResponse:        {Points: 25, Description: "Quick response to booking"},
	enums.EventOnTimeArrival:        {Points: 25, Description: "On-time arrival"},
	enums.EventWeeklyStreak:         {Points: 75, Description: "Weekly streak"},
	enums.EventReferralSignup:       {Points: 200, Description: "Referral signed up"},
	enums.EventReferralFirstBooking: {Points: 300, Description: "Referral made first booking"},
}

// AwardFor reports the configured award for event.
func AwardFor(event enums.GamificationEvent) (EventAward, bool) {
	award, ok := eventAwards[event]
	return award, ok
}
