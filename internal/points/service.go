package points

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/servicehub-backend/pkg/errors"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
	"github.com/angelmondragon/servicehub-backend/pkg/metrics"
	"github.com/angelmondragon/servicehub-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the point ledger and the level projection derived from it.
type Service interface {
	// Award appends a ledger row and updates the projection. A nil tx runs in
	// a transaction of its own.
	Award(ctx context.Context, tx *gorm.DB, input AwardInput) (*AwardResult, error)
	// Balance returns the locked projection inside tx, creating it when absent.
	Balance(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.UserPoints, error)
	Summary(ctx context.Context, userID uuid.UUID) (*Summary, error)
	Transactions(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionPage, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	logg    *logger.Logger
	metrics *metrics.DomainMetrics
}

// NewService wires the ledger. metrics may be nil.
func NewService(repo Repository, tx txRunner, logg *logger.Logger, domainMetrics *metrics.DomainMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("points repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg, metrics: domainMetrics}, nil
}

func (s *service) Award(ctx context.Context, tx *gorm.DB, input AwardInput) (*AwardResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}
	if input.Source == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source required")
	}

	if tx != nil {
		return s.award(ctx, s.repo.WithTx(tx), input)
	}
	var result *AwardResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = s.award(ctx, s.repo.WithTx(tx), input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) award(ctx context.Context, repo Repository, input AwardInput) (*AwardResult, error) {
	account, err := lockAccount(ctx, repo, input.UserID)
	if err != nil {
		return nil, err
	}

	txn := &models.PointTransaction{
		UserID:      input.UserID,
		Points:      input.Points,
		Type:        input.Type,
		Source:      input.Source,
		SourceID:    input.SourceID,
		Description: input.Description,
	}
	if err := repo.AppendTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append point transaction")
	}

	previousLevel := account.CurrentLevel
	account.TotalPoints += input.Points
	if input.Points > 0 {
		account.LifetimePoints += input.Points
	}
	level := LevelFor(account.TotalPoints)
	result := &AwardResult{PointsAwarded: input.Points, NewTotal: account.TotalPoints}
	if level.Number > previousLevel {
		account.CurrentLevel = level.Number
		result.LevelUp = true
		result.NewLevel = &level.Number
		result.NewLevelName = &level.Name
		result.NewLevelNameEn = &level.NameEn
	}
	// Levels never drop; progress always tracks the band the balance sits in.
	account.LevelProgress = Progress(account.TotalPoints, level)

	if err := repo.SaveAccount(ctx, account); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user points")
	}

	s.metrics.PointsAwarded(string(input.Type), input.Points)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id": input.UserID.String(),
		"points":  input.Points,
		"type":    string(input.Type),
		"source":  input.Source,
		"total":   account.TotalPoints,
	})
	s.logg.Info(logCtx, "points awarded")
	if result.LevelUp {
		s.logg.Info(s.logg.WithField(logCtx, "level", level.Number), "user leveled up")
	}
	return result, nil
}

func (s *service) Balance(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.UserPoints, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "balance requires a transaction")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return lockAccount(ctx, s.repo.WithTx(tx), userID)
}

func (s *service) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := s.repo.EnsureAccount(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "init user points")
	}
	account, err := s.repo.FindAccount(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user points")
	}

	current, ok := LevelByNumber(account.CurrentLevel)
	if !ok {
		current = LevelFor(account.TotalPoints)
	}
	summary := &Summary{
		UserID:         userID,
		TotalPoints:    account.TotalPoints,
		LifetimePoints: account.LifetimePoints,
		CurrentLevel:   levelDTO(current),
		LevelProgress:  account.LevelProgress,
	}
	if next, ok := NextLevel(current); ok {
		dto := levelDTO(next)
		summary.NextLevel = &dto
		summary.PointsToNextLevel = next.MinPoints - account.TotalPoints
	}
	return summary, nil
}

func (s *service) Transactions(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionPage, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListTransactions(ctx, userID, limit+1, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list point transactions")
	}

	page := &TransactionPage{Items: make([]TransactionDTO, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		page.Cursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:limit]
	}
	for _, row := range rows {
		page.Items = append(page.Items, TransactionDTO{
			ID:          row.ID,
			Points:      row.Points,
			Type:        row.Type,
			Source:      row.Source,
			SourceID:    row.SourceID,
			Description: row.Description,
			CreatedAt:   row.CreatedAt,
		})
	}
	return page, nil
}

func lockAccount(ctx context.Context, repo Repository, userID uuid.UUID) (*models.UserPoints, error) {
	if err := repo.EnsureAccount(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "init user points")
	}
	account, err := repo.LockAccount(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock user points")
	}
	return account, nil
}
