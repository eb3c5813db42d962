package achievements

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/internal/points"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicehub-backend/pkg/errors"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
	"github.com/angelmondragon/servicehub-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pointsAwarder interface {
	Award(ctx context.Context, tx *gorm.DB, input points.AwardInput) (*points.AwardResult, error)
}

// Service evaluates achievement rules and records unlocks.
type Service interface {
	// CheckAndUnlock returns the achievements unlocked by this call. A nil tx
	// runs in a transaction of its own.
	CheckAndUnlock(ctx context.Context, tx *gorm.DB, userID uuid.UUID, trigger string) ([]Unlocked, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]AchievementDTO, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	points  pointsAwarder
	logg    *logger.Logger
	metrics *metrics.DomainMetrics
	now     func() time.Time
}

// NewService wires the evaluator. metrics may be nil.
func NewService(repo Repository, tx txRunner, awarder pointsAwarder, logg *logger.Logger, domainMetrics *metrics.DomainMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("achievements repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if awarder == nil {
		return nil, fmt.Errorf("points awarder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		points:  awarder,
		logg:    logg,
		metrics: domainMetrics,
		now:     time.Now,
	}, nil
}

func (s *service) CheckAndUnlock(ctx context.Context, tx *gorm.DB, userID uuid.UUID, trigger string) ([]Unlocked, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if tx != nil {
		return s.checkAndUnlock(ctx, tx, userID, trigger)
	}
	var unlocked []Unlocked
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		unlocked, err = s.checkAndUnlock(ctx, tx, userID, trigger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return unlocked, nil
}

func (s *service) checkAndUnlock(ctx context.Context, tx *gorm.DB, userID uuid.UUID, trigger string) ([]Unlocked, error) {
	repo := s.repo.WithTx(tx)

	user, err := repo.FindUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	stats, err := s.loadStats(ctx, repo, user)
	if err != nil {
		return nil, err
	}

	unlockedIDs, err := repo.ListUnlockedIDs(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unlocked achievements")
	}
	already := make(map[uuid.UUID]struct{}, len(unlockedIDs))
	for _, id := range unlockedIDs {
		already[id] = struct{}{}
	}

	catalog, err := repo.ListCatalog(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list achievement catalog")
	}

	unlocked := make([]Unlocked, 0)
	for _, achievement := range catalog {
		if _, ok := already[achievement.ID]; ok {
			continue
		}
		req, err := parseRequirements(achievement.Requirements)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "achievement "+achievement.Code)
		}
		if !req.applies(stats) {
			continue
		}
		ok, err := req.satisfied(stats)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "achievement "+achievement.Code)
		}
		if !ok {
			continue
		}

		unlockedAt := s.now().UTC()
		inserted, err := repo.InsertUnlock(ctx, &models.UserAchievement{
			UserID:        userID,
			AchievementID: achievement.ID,
			UnlockedAt:    unlockedAt,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record achievement unlock")
		}
		if !inserted {
			continue
		}

		if achievement.Points > 0 {
			achievementID := achievement.ID
			if _, err := s.points.Award(ctx, tx, points.AwardInput{
				UserID:      userID,
				Points:      achievement.Points,
				Type:        enums.PointTransactionBonus,
				Source:      enums.SourceAchievementUnlocked,
				SourceID:    &achievementID,
				Description: "Achievement unlocked: " + achievement.NameEn,
			}); err != nil {
				return nil, err
			}
		}

		s.metrics.AchievementUnlocked(achievement.Code)
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"user_id":     userID.String(),
			"achievement": achievement.Code,
			"trigger":     trigger,
		}), "achievement unlocked")
		unlocked = append(unlocked, unlockedDTO(achievement, unlockedAt))
	}
	return unlocked, nil
}

func (s *service) loadStats(ctx context.Context, repo Repository, user *models.User) (Stats, error) {
	stats := Stats{RegisteredAt: user.CreatedAt}

	completed, err := repo.CountCompletedBookings(ctx, user.ID)
	if err != nil {
		return stats, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count completed bookings")
	}
	written, err := repo.CountReviewsWritten(ctx, user.ID)
	if err != nil {
		return stats, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count reviews written")
	}
	stats.BookingsCompleted = int(completed)
	stats.ReviewsWritten = int(written)

	if profile := user.TechnicianProfile; profile != nil {
		fiveStars, err := repo.CountFiveStarReviews(ctx, profile.ID)
		if err != nil {
			return stats, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count five star reviews")
		}
		stats.IsTechnician = true
		stats.JobsCompleted = profile.TotalJobsCompleted
		stats.TotalReviews = profile.TotalReviews
		stats.AverageRating = profile.AverageRating
		stats.IsVerified = profile.IsVerified
		stats.FiveStarReviews = int(fiveStars)
	}
	return stats, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]AchievementDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	catalog, err := s.repo.ListCatalog(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list achievement catalog")
	}
	rows, err := s.repo.ListUnlocked(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unlocked achievements")
	}
	unlockedAt := make(map[uuid.UUID]time.Time, len(rows))
	for _, row := range rows {
		unlockedAt[row.AchievementID] = row.UnlockedAt
	}

	out := make([]AchievementDTO, 0, len(catalog))
	for _, achievement := range catalog {
		dto := achievementDTO(achievement)
		if at, ok := unlockedAt[achievement.ID]; ok {
			at := at
			dto.Unlocked = true
			dto.UnlockedAt = &at
		}
		out = append(out, dto)
	}
	return out, nil
}
