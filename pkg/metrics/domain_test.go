package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDomainMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDomainMetrics(reg)

	m.BookingTransition("CONFIRMED")
	m.BookingTransition("CONFIRMED")
	m.PointsAwarded("EARNED", 100)
	m.PointsAwarded("REDEEMED", -400)
	m.AchievementUnlocked("FIRST_BOOKING")
	m.RewardRedeemed("DISCOUNT_10")
	m.NotificationDelivered("booking_confirmed", false)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	checks := []struct {
		name, label, value string
		want               float64
	}{
		{"servicehub_booking_transitions_total", "status", "CONFIRMED", 2},
		{"servicehub_points_awarded_total", "type", "EARNED", 100},
		{"servicehub_points_awarded_total", "type", "REDEEMED", 400},
		{"servicehub_achievements_unlocked_total", "code", "FIRST_BOOKING", 1},
		{"servicehub_reward_redemptions_total", "reward", "DISCOUNT_10", 1},
		{"servicehub_notifications_total", "outcome", "failed", 1},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.label, c.value)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s{%s=%s}: expected %v, got %v", c.name, c.label, c.value, c.want, got)
		}
	}
}

func TestNilDomainMetricsAreSafe(t *testing.T) {
	var m *DomainMetrics
	m.BookingTransition("COMPLETED")
	m.PointsAwarded("BONUS", 10)
	NewDomainMetrics(nil).RewardRedeemed("X")
}
