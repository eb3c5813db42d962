package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	"github.com/angelmondragon/servicehub-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestMigrationsDeclareConcurrencyConstraints(t *testing.T) {
	checks := map[string][]string{
		"*_create_bookings.sql": {
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_bookings_active_slot",
			"WHERE status NOT IN ('CANCELLED', 'NO_SHOW')",
			"CONSTRAINT reviews_booking_id_key UNIQUE (booking_id)",
			"DROP TABLE IF EXISTS bookings",
		},
		"*_create_gamification.sql": {
			"user_id UUID PRIMARY KEY",
			"CONSTRAINT ux_user_achievements_user_achievement UNIQUE (user_id, achievement_id)",
			"CHECK (lifetime_points >= 0)",
		},
		"*_create_schedules.sql": {
			"CHECK (start_time < end_time)",
			"CHECK (start_date <= end_date)",
			"CHECK (day_of_week BETWEEN 0 AND 6)",
		},
		"*_create_rewards.sql": {
			"code TEXT NOT NULL UNIQUE",
			"stock INTEGER CHECK (stock >= 0)",
		},
	}

	for pattern, statements := range checks {
		matches, err := filepath.Glob(filepath.Join("migrations", pattern))
		if err != nil {
			t.Fatalf("glob migrations: %v", err)
		}
		if len(matches) != 1 {
			t.Fatalf("expected one migration for %s, got %d", pattern, len(matches))
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read migration file: %v", err)
		}
		content := string(data)
		for _, sub := range statements {
			if !strings.Contains(content, sub) {
				t.Errorf("%s missing expected statement %q", matches[0], sub)
			}
		}
	}
}

func TestApplySQLiteSchemaEnforcesActiveSlot(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migrate.ApplySQLiteSchema(context.Background(), conn); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	date := datatypes.Date(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	technicianID := uuid.New()
	newBooking := func(status enums.BookingStatus) *models.Booking {
		return &models.Booking{
			CustomerID:    uuid.New(),
			TechnicianID:  technicianID,
			ScheduledDate: date,
			ScheduledTime: "10:00",
			ServiceType:   "plumbing",
			Status:        status,
		}
	}

	if err := conn.Create(newBooking(enums.BookingStatusCancelled)).Error; err != nil {
		t.Fatalf("insert cancelled: %v", err)
	}
	if err := conn.Create(newBooking(enums.BookingStatusPending)).Error; err != nil {
		t.Fatalf("insert pending: %v", err)
	}
	err = conn.Create(newBooking(enums.BookingStatusConfirmed)).Error
	if !db.IsUniqueViolation(err, "ux_bookings_active_slot") {
		t.Fatalf("expected active slot violation, got %v", err)
	}
}
