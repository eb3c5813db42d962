package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/config"
	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
)

// sqliteIndexes mirror the constraints the Postgres migrations declare that
// gorm's AutoMigrate cannot infer from struct tags.
var sqliteIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_bookings_active_slot
		ON bookings (technician_id, scheduled_date, scheduled_time)
		WHERE status NOT IN ('CANCELLED', 'NO_SHOW')`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_user_achievements_user_achievement
		ON user_achievements (user_id, achievement_id)`,
}

// MaybeRunDev executes migrations automatically when the app is running in dev mode and
// the feature flag is enabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	if cfg.FeatureFlags.UseSQLite {
		logg.Info(logg.WithField(ctx, "dialect", "sqlite"), "applying schema (dev auto-run)")
		return ApplySQLiteSchema(ctx, client.DB())
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	meta := map[string]any{"env": cfg.App.Env, "dir": DefaultDir}
	ctx = logg.WithFields(ctx, meta)
	logg.Info(ctx, "running goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}

// ApplySQLiteSchema builds the schema for local SQLite development.
func ApplySQLiteSchema(ctx context.Context, conn *gorm.DB) error {
	tx := conn.WithContext(ctx)
	if err := tx.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range sqliteIndexes {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
