package enums

import (
	"fmt"
	"strings"
)

// LeaderboardPeriod selects the ranking window.
type LeaderboardPeriod string

const (
	LeaderboardWeekly  LeaderboardPeriod = "WEEKLY"
	LeaderboardMonthly LeaderboardPeriod = "MONTHLY"
	LeaderboardAllTime LeaderboardPeriod = "ALL_TIME"
)

// LeaderboardPeriods lists every period in display order.
var LeaderboardPeriods = []LeaderboardPeriod{
	LeaderboardWeekly,
	LeaderboardMonthly,
	LeaderboardAllTime,
}

func (p LeaderboardPeriod) IsValid() bool {
	for _, candidate := range LeaderboardPeriods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseLeaderboardPeriod accepts any casing.
func ParseLeaderboardPeriod(value string) (LeaderboardPeriod, error) {
	normalized := LeaderboardPeriod(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid leaderboard period %q", value)
}
