package models

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&User{},
		&TechnicianProfile{},
		&AvailabilitySlot{},
		&TimeOff{},
		&Booking{},
		&Review{},
		&Level{},
		&UserPoints{},
		&PointTransaction{},
		&Achievement{},
		&UserAchievement{},
		&Reward{},
		&RewardRedemption{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
