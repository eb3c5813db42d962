// Package catalog upserts the static level, achievement and reward catalogs.
package catalog

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/servicehub-backend/internal/achievements"
	"github.com/angelmondragon/servicehub-backend/internal/points"
	"github.com/angelmondragon/servicehub-backend/internal/rewards"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Report counts the rows written per catalog.
type Report struct {
	Levels       int
	Achievements int
	Rewards      int
}

// Seeder writes every catalog in one transaction.
type Seeder struct {
	tx   txRunner
	logg *logger.Logger
}

func NewSeeder(tx txRunner, logg *logger.Logger) (*Seeder, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Seeder{tx: tx, logg: logg}, nil
}

// Seed upserts by natural key. Reward stock is only set on insert so that
// redemptions already taken are not handed back.
func (s *Seeder) Seed(ctx context.Context) (Report, error) {
	var report Report
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var errs error
		for _, level := range points.Levels {
			row, err := level.Model()
			if err == nil {
				err = tx.WithContext(ctx).Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "level_number"}},
					DoUpdates: clause.AssignmentColumns([]string{"name", "name_en", "min_points", "max_points", "perks"}),
				}).Create(&row).Error
			}
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("level %d: %w", level.Number, err))
				continue
			}
			report.Levels++
		}

		for _, def := range achievements.Catalog {
			row, err := def.Model()
			if err == nil {
				err = tx.WithContext(ctx).Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "code"}},
					DoUpdates: clause.AssignmentColumns([]string{"name", "name_en", "description", "icon", "category", "points", "requirements"}),
				}).Create(&row).Error
			}
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("achievement %s: %w", def.Code, err))
				continue
			}
			report.Achievements++
		}

		for _, def := range rewards.Catalog {
			row := def.Model()
			err := tx.WithContext(ctx).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "description", "category", "points_cost", "is_active"}),
			}).Create(&row).Error
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("reward %s: %w", def.Code, err))
				continue
			}
			report.Rewards++
		}
		return errs
	})
	if err != nil {
		return Report{}, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"levels":       report.Levels,
		"achievements": report.Achievements,
		"rewards":      report.Rewards,
	}), "catalog seeded")
	return report, nil
}
