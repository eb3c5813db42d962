package achievements

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/internal/points"
	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
)

type fixture struct {
	client *db.Client
	svc    Service
	points points.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	for _, def := range Catalog {
		row, err := def.Model()
		require.NoError(t, err)
		require.NoError(t, client.DB().Create(&row).Error)
	}
	logg := logger.New(logger.Options{Output: io.Discard})
	pointsSvc, err := points.NewService(points.NewRepository(client.DB()), client, logg, nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(client.DB()), client, pointsSvc, logg, nil)
	require.NoError(t, err)
	return fixture{client: client, svc: svc, points: pointsSvc}
}

func codes(unlocked []Unlocked) []string {
	out := make([]string, 0, len(unlocked))
	for _, u := range unlocked {
		out = append(out, u.Code)
	}
	return out
}

func TestCheckAndUnlockCustomerMilestones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := dbtest.CreateUser(t, f.client.DB(), enums.UserRoleCustomer)
	tech := dbtest.CreateTechnician(t, f.client.DB())
	dbtest.CreateBooking(t, f.client.DB(), models.Booking{
		CustomerID:    customer.ID,
		TechnicianID:  tech.ID,
		ScheduledDate: datatypes.Date(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)),
		ScheduledTime: "10:00",
		Status:        enums.BookingStatusCompleted,
	})

	unlocked, err := f.svc.CheckAndUnlock(ctx, nil, customer.ID, string(enums.EventBookingCompleted))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"WELCOME", "FIRST_BOOKING_COMPLETED"}, codes(unlocked))

	summary, err := f.points.Summary(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, summary.TotalPoints)

	again, err := f.svc.CheckAndUnlock(ctx, nil, customer.ID, "")
	require.NoError(t, err)
	assert.Empty(t, again)

	var bonusRows int64
	require.NoError(t, f.client.DB().Model(&models.PointTransaction{}).
		Where("user_id = ? AND source = ?", customer.ID, enums.SourceAchievementUnlocked).
		Count(&bonusRows).Error)
	assert.Equal(t, int64(2), bonusRows)
}

func TestCheckAndUnlockTechnicianOnlyForProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := dbtest.CreateTechnician(t, f.client.DB())
	require.NoError(t, f.client.DB().Model(&models.TechnicianProfile{}).
		Where("id = ?", tech.ID).
		Updates(map[string]any{"is_verified": true, "total_jobs_completed": 1}).Error)

	unlocked, err := f.svc.CheckAndUnlock(ctx, nil, tech.UserID, string(enums.EventJobCompleted))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"WELCOME", "FIRST_JOB", "VERIFIED_PRO"}, codes(unlocked))

	customer := dbtest.CreateUser(t, f.client.DB(), enums.UserRoleCustomer)
	unlocked, err = f.svc.CheckAndUnlock(ctx, nil, customer.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"WELCOME"}, codes(unlocked))
}

func TestCheckAndUnlockInsideCallerTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := dbtest.CreateUser(t, f.client.DB(), enums.UserRoleCustomer)

	err := f.client.WithTx(ctx, func(tx *gorm.DB) error {
		unlocked, err := f.svc.CheckAndUnlock(ctx, tx, customer.ID, "")
		require.NoError(t, err)
		require.Len(t, unlocked, 1)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int64
	require.NoError(t, f.client.DB().Model(&models.UserAchievement{}).Where("user_id = ?", customer.ID).Count(&count).Error)
	assert.Zero(t, count, "rolled back unlock must not persist")
}

func TestInsertUnlockIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := dbtest.CreateUser(t, f.client.DB(), enums.UserRoleCustomer)
	var welcome models.Achievement
	require.NoError(t, f.client.DB().Where("code = ?", "WELCOME").First(&welcome).Error)

	repo := NewRepository(f.client.DB())
	first, err := repo.InsertUnlock(ctx, &models.UserAchievement{UserID: customer.ID, AchievementID: welcome.ID, UnlockedAt: time.Now()})
	require.NoError(t, err)
	second, err := repo.InsertUnlock(ctx, &models.UserAchievement{UserID: customer.ID, AchievementID: welcome.ID, UnlockedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)
}

func TestListForUserMarksUnlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := dbtest.CreateUser(t, f.client.DB(), enums.UserRoleCustomer)
	_, err := f.svc.CheckAndUnlock(ctx, nil, customer.ID, "")
	require.NoError(t, err)

	list, err := f.svc.ListForUser(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, list, len(Catalog))
	unlocked := 0
	for _, a := range list {
		if a.Unlocked {
			unlocked++
			assert.Equal(t, "WELCOME", a.Code)
			assert.NotNil(t, a.UnlockedAt)
		}
	}
	assert.Equal(t, 1, unlocked)
}
