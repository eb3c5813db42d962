package gamification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/internal/achievements"
	"github.com/angelmondragon/servicehub-backend/internal/points"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicehub-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pointsAwarder interface {
	Award(ctx context.Context, tx *gorm.DB, input points.AwardInput) (*points.AwardResult, error)
}

type achievementChecker interface {
	CheckAndUnlock(ctx context.Context, tx *gorm.DB, userID uuid.UUID, trigger string) ([]achievements.Unlocked, error)
}

// EventResult reports what one event produced.
type EventResult struct {
	Event        enums.GamificationEvent `json:"event"`
	Award        *points.AwardResult     `json:"award"`
	Achievements []achievements.Unlocked `json:"achievements"`
}

// Service turns domain events into points and achievement checks.
type Service interface {
	// AwardPointsForEvent returns nil for events without a point value. A nil
	// tx runs in a transaction of its own.
	AwardPointsForEvent(ctx context.Context, tx *gorm.DB, userID uuid.UUID, event enums.GamificationEvent, sourceID *uuid.UUID) (*EventResult, error)
}

type service struct {
	tx           txRunner
	points       pointsAwarder
	achievements achievementChecker
}

func NewService(tx txRunner, awarder pointsAwarder, checker achievementChecker) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if awarder == nil {
		return nil, fmt.Errorf("points awarder required")
	}
	if checker == nil {
		return nil, fmt.Errorf("achievement checker required")
	}
	return &service{tx: tx, points: awarder, achievements: checker}, nil
}

func (s *service) AwardPointsForEvent(ctx context.Context, tx *gorm.DB, userID uuid.UUID, event enums.GamificationEvent, sourceID *uuid.UUID) (*EventResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	award, ok := points.AwardFor(event)
	if !ok {
		return nil, nil
	}
	if tx != nil {
		return s.apply(ctx, tx, userID, event, award, sourceID)
	}

	var result *EventResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = s.apply(ctx, tx, userID, event, award, sourceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, userID uuid.UUID, event enums.GamificationEvent, award points.EventAward, sourceID *uuid.UUID) (*EventResult, error) {
	awarded, err := s.points.Award(ctx, tx, points.AwardInput{
		UserID:      userID,
		Points:      award.Points,
		Type:        enums.PointTransactionEarned,
		Source:      string(event),
		Description: award.Description,
		SourceID:    sourceID,
	})
	if err != nil {
		return nil, err
	}
	unlocked, err := s.achievements.CheckAndUnlock(ctx, tx, userID, string(event))
	if err != nil {
		return nil, err
	}
	return &EventResult{Event: event, Award: awarded, Achievements: unlocked}, nil
}
