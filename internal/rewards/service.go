package rewards

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/internal/points"
	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicehub-backend/pkg/errors"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
	"github.com/angelmondragon/servicehub-backend/pkg/metrics"
)

const redemptionTTL = 30 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledger interface {
	Balance(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.UserPoints, error)
	Award(ctx context.Context, tx *gorm.DB, input points.AwardInput) (*points.AwardResult, error)
}

type redemptionNotifier interface {
	NotifyRedemption(ctx context.Context, tx *gorm.DB, user models.User, reward models.Reward, redemption models.RewardRedemption) error
}

// RewardDTO is the public shape of a catalog reward.
type RewardDTO struct {
	ID          uuid.UUID            `json:"id"`
	Code        string               `json:"code"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Category    enums.RewardCategory `json:"category"`
	PointsCost  int                  `json:"points_cost"`
	Stock       *int                 `json:"stock"`
}

// RedemptionDTO is the public shape of a redemption.
type RedemptionDTO struct {
	ID         uuid.UUID              `json:"id"`
	Code       string                 `json:"code"`
	PointsUsed int                    `json:"points_used"`
	Status     enums.RedemptionStatus `json:"status"`
	ExpiresAt  time.Time              `json:"expires_at"`
	UsedAt     *time.Time             `json:"used_at,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	Reward     *RewardDTO             `json:"reward,omitempty"`
}

// RedeemResult carries the new redemption, the reward as it was when paid for,
// and the balance afterwards.
type RedeemResult struct {
	Redemption RedemptionDTO `json:"redemption"`
	Reward     RewardDTO     `json:"reward"`
	Code       string        `json:"code"`
	NewTotal   int           `json:"new_total"`
}

// Service exposes the reward catalog and redemption flow.
type Service interface {
	Catalog(ctx context.Context) ([]RewardDTO, error)
	Redeem(ctx context.Context, userID uuid.UUID, rewardCode string) (*RedeemResult, error)
	Redemptions(ctx context.Context, userID uuid.UUID) ([]RedemptionDTO, error)
	ExpireRedemptions(ctx context.Context) (int64, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	ledger  ledger
	notify  redemptionNotifier
	logg    *logger.Logger
	metrics *metrics.DomainMetrics
	now     func() time.Time
}

// NewService wires the redemption flow. metrics may be nil.
func NewService(repo Repository, tx txRunner, ledger ledger, notify redemptionNotifier, logg *logger.Logger, domainMetrics *metrics.DomainMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rewards repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("points ledger required")
	}
	if notify == nil {
		return nil, fmt.Errorf("redemption notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		ledger:  ledger,
		notify:  notify,
		logg:    logg,
		metrics: domainMetrics,
		now:     time.Now,
	}, nil
}

func (s *service) Catalog(ctx context.Context) ([]RewardDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rewards")
	}
	out := make([]RewardDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, rewardDTO(row))
	}
	return out, nil
}

func (s *service) Redeem(ctx context.Context, userID uuid.UUID, rewardCode string) (*RedeemResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rewardCode = strings.ToUpper(strings.TrimSpace(rewardCode))
	if rewardCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reward code required")
	}

	var result *RedeemResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		reward, err := repo.LockByCode(ctx, rewardCode)
		if err != nil && !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reward")
		}
		if reward == nil || !reward.IsActive {
			return pkgerrors.New(pkgerrors.CodeRewardUnavailable, "reward is not available")
		}
		if reward.Stock != nil && *reward.Stock <= 0 {
			return pkgerrors.New(pkgerrors.CodeOutOfStock, "reward is out of stock")
		}

		account, err := s.ledger.Balance(ctx, tx, userID)
		if err != nil {
			return err
		}
		if account.TotalPoints < reward.PointsCost {
			return pkgerrors.New(pkgerrors.CodeInsufficientPoints, "not enough points for this reward").
				WithDetails(map[string]any{"required": reward.PointsCost, "available": account.TotalPoints})
		}

		now := s.now()
		redemption := &models.RewardRedemption{
			UserID:     userID,
			RewardID:   reward.ID,
			PointsUsed: reward.PointsCost,
			Code:       redemptionCode(reward.Code, now),
			Status:     enums.RedemptionStatusActive,
			ExpiresAt:  now.Add(redemptionTTL),
		}
		if err := repo.CreateRedemption(ctx, redemption); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create redemption")
		}

		award, err := s.ledger.Award(ctx, tx, points.AwardInput{
			UserID:      userID,
			Points:      -reward.PointsCost,
			Type:        enums.PointTransactionRedeemed,
			Source:      enums.SourceRewardRedeemed,
			Description: "Redeemed: " + reward.Name,
			SourceID:    &redemption.ID,
		})
		if err != nil {
			return err
		}

		if reward.Stock != nil {
			if err := repo.DecrementStock(ctx, reward.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement reward stock")
			}
			left := *reward.Stock - 1
			reward.Stock = &left
		}

		s.queueNotification(ctx, tx, repo, userID, *reward, *redemption)

		snapshot := rewardDTO(*reward)
		dto := redemptionDTO(*redemption)
		dto.Reward = &snapshot
		result = &RedeemResult{
			Redemption: dto,
			Reward:     snapshot,
			Code:       redemption.Code,
			NewTotal:   award.NewTotal,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RewardRedeemed(rewardCode)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id": userID.String(),
		"reward":  rewardCode,
	})
	s.logg.Info(logCtx, "reward redeemed")
	return result, nil
}

// redemptionCode is the reward code plus the redemption instant in base36.
func redemptionCode(rewardCode string, now time.Time) string {
	return rewardCode + "-" + strings.ToUpper(strconv.FormatInt(now.UnixNano(), 36))
}

func (s *service) queueNotification(ctx context.Context, tx *gorm.DB, repo Repository, userID uuid.UUID, reward models.Reward, redemption models.RewardRedemption) {
	user, err := repo.FindUser(ctx, userID)
	if err == nil {
		err = tx.Transaction(func(sp *gorm.DB) error {
			return s.notify.NotifyRedemption(ctx, sp, *user, reward, redemption)
		})
	}
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "queue redemption notification failed", err)
	}
}

func (s *service) Redemptions(ctx context.Context, userID uuid.UUID) ([]RedemptionDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.repo.ListRedemptions(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list redemptions")
	}
	out := make([]RedemptionDTO, 0, len(rows))
	for _, row := range rows {
		dto := redemptionDTO(row)
		if row.Reward != nil {
			reward := rewardDTO(*row.Reward)
			dto.Reward = &reward
		}
		out = append(out, dto)
	}
	return out, nil
}

func (s *service) ExpireRedemptions(ctx context.Context) (int64, error) {
	count, err := s.repo.ExpireRedemptions(ctx, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire redemptions")
	}
	return count, nil
}

func rewardDTO(r models.Reward) RewardDTO {
	return RewardDTO{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		PointsCost:  r.PointsCost,
		Stock:       r.Stock,
	}
}

func redemptionDTO(r models.RewardRedemption) RedemptionDTO {
	return RedemptionDTO{
		ID:         r.ID,
		Code:       r.Code,
		PointsUsed: r.PointsUsed,
		Status:     r.Status,
		ExpiresAt:  r.ExpiresAt,
		UsedAt:     r.UsedAt,
		CreatedAt:  r.CreatedAt,
	}
}
