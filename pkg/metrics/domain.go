package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics counts booking, points and rewards activity.
type DomainMetrics struct {
	bookingTransitions   *prometheus.CounterVec
	pointsAwarded        *prometheus.CounterVec
	achievementsUnlocked *prometheus.CounterVec
	redemptions          *prometheus.CounterVec
	notifications        *prometheus.CounterVec
}

// NewDomainMetrics registers the domain counters on reg. A nil registerer
// yields a no-op recorder.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	m := &DomainMetrics{
		bookingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking state changes by target status.",
		}, []string{"status"}),
		pointsAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_awarded_total",
			Help:      "Absolute points moved through the ledger by transaction type.",
		}, []string{"type"}),
		achievementsUnlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "achievements_unlocked_total",
			Help:      "Achievement unlocks by code.",
		}, []string{"code"}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reward_redemptions_total",
			Help:      "Reward redemptions by reward code.",
		}, []string{"reward"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	reg.MustRegister(m.bookingTransitions, m.pointsAwarded, m.achievementsUnlocked, m.redemptions, m.notifications)
	return m
}

func (m *DomainMetrics) BookingTransition(status string) {
	if m == nil || m.bookingTransitions == nil {
		return
	}
	m.bookingTransitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// PointsAwarded adds |points| under the transaction type label.
func (m *DomainMetrics) PointsAwarded(txType string, points int) {
	if m == nil || m.pointsAwarded == nil {
		return
	}
	if points < 0 {
		points = -points
	}
	m.pointsAwarded.WithLabelValues(normalizeLabel(txType)).Add(float64(points))
}

func (m *DomainMetrics) AchievementUnlocked(code string) {
	if m == nil || m.achievementsUnlocked == nil {
		return
	}
	m.achievementsUnlocked.WithLabelValues(normalizeLabel(code)).Inc()
}

func (m *DomainMetrics) RewardRedeemed(reward string) {
	if m == nil || m.redemptions == nil {
		return
	}
	m.redemptions.WithLabelValues(normalizeLabel(reward)).Inc()
}

func (m *DomainMetrics) NotificationDelivered(kind string, ok bool) {
	if m == nil || m.notifications == nil {
		return
	}
	outcome := "sent"
	if !ok {
		outcome = "failed"
	}
	m.notifications.WithLabelValues(normalizeLabel(kind), outcome).Inc()
}
