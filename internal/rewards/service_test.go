package rewards

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/internal/points"
	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicehub-backend/pkg/errors"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
)

type fakeNotifier struct {
	codes []string
	err   error
}

func (f *fakeNotifier) NotifyRedemption(_ context.Context, _ *gorm.DB, _ models.User, _ models.Reward, redemption models.RewardRedemption) error {
	if f.err != nil {
		return f.err
	}
	f.codes = append(f.codes, redemption.Code)
	return nil
}

type fixture struct {
	client   *db.Client
	svc      *service
	points   points.Service
	notifier *fakeNotifier
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	for _, def := range Catalog {
		row := def.Model()
		require.NoError(t, client.DB().Create(&row).Error)
	}
	logg := logger.New(logger.Options{Output: io.Discard})
	pointsSvc, err := points.NewService(points.NewRepository(client.DB()), client, logg, nil)
	require.NoError(t, err)

	f := &fixture{
		client:   client,
		points:   pointsSvc,
		notifier: &fakeNotifier{},
		now:      time.Date(2025, time.June, 2, 12, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(NewRepository(client.DB()), client, pointsSvc, f.notifier, logg, nil)
	require.NoError(t, err)
	f.svc = svc.(*service)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) fund(t *testing.T, userID uuid.UUID, amount int) {
	t.Helper()
	_, err := f.points.Award(context.Background(), nil, points.AwardInput{
		UserID:      userID,
		Points:      amount,
		Type:        enums.PointTransactionBonus,
		Source:      "TEST",
		Description: "seed",
	})
	require.NoError(t, err)
}

func (f *fixture) account(t *testing.T, userID uuid.UUID) models.UserPoints {
	t.Helper()
	var row models.UserPoints
	require.NoError(t, f.client.DB().First(&row, "user_id = ?", userID).Error)
	return row
}

func TestCatalogHasSixActiveRewards(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 6)
	assert.Equal(t, "PRIORITY_BOOKING", out[0].Code)
	for i := 1; i < len(out); i++ {
		assert.LessOrEqual(t, out[i-1].PointsCost, out[i].PointsCost)
	}
}

func TestRedeemExactBalanceThenInsufficient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, f.client.DB(), enums.UserRoleCustomer)
	f.fund(t, user.ID, 400)

	result, err := f.svc.Redeem(ctx, user.ID, "priority_booking")
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewTotal)
	assert.True(t, strings.HasPrefix(result.Code, "PRIORITY_BOOKING-"))
	assert.Equal(t, result.Code, strings.ToUpper(result.Code))
	assert.Equal(t, enums.RedemptionStatusActive, result.Redemption.Status)
	assert.Equal(t, f.now.Add(30*24*time.Hour), result.Redemption.ExpiresAt)
	assert.Equal(t, 400, result.Redemption.PointsUsed)
	assert.Equal(t, []string{result.Code}, f.notifier.codes)

	account := f.account(t, user.ID)
	assert.Equal(t, 0, account.TotalPoints)
	assert.Equal(t, 400, account.LifetimePoints)

	var txn models.PointTransaction
	require.NoError(t, f.client.DB().Where("user_id = ? AND points < 0", user.ID).First(&txn).Error)
	assert.Equal(t, -400, txn.Points)
	assert.Equal(t, enums.PointTransactionRedeemed, txn.Type)
	assert.Equal(t, enums.SourceRewardRedeemed, txn.Source)

	_, err = f.svc.Redeem(ctx, user.ID, "PRIORITY_BOOKING")
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientPoints) {
		t.Fatalf("expected insufficient points, got %v", err)
	}
}

func TestRedeemUnavailableAndOutOfStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, f.client.DB(), enums.UserRoleCustomer)
	f.fund(t, user.ID, 10000)

	_, err := f.svc.Redeem(ctx, user.ID, "NOPE")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRewardUnavailable))

	require.NoError(t, f.client.DB().Model(&models.Reward{}).Where("code = ?", "DISCOUNT_10").Update("is_active", false).Error)
	_, err = f.svc.Redeem(ctx, user.ID, "DISCOUNT_10")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRewardUnavailable))

	require.NoError(t, f.client.DB().Model(&models.Reward{}).Where("code = ?", "FREE_SERVICE").Update("stock", 1).Error)
	_, err = f.svc.Redeem(ctx, user.ID, "FREE_SERVICE")
	require.NoError(t, err)
	_, err = f.svc.Redeem(ctx, user.ID, "FREE_SERVICE")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock))

	var reward models.Reward
	require.NoError(t, f.client.DB().First(&reward, "code = ?", "FREE_SERVICE").Error)
	require.NotNil(t, reward.Stock)
	assert.Equal(t, 0, *reward.Stock)
	assert.Equal(t, 7000, f.account(t, user.ID).TotalPoints)
}

func TestRedeemUnlimitedStockStaysNil(t *testing.T) {
	f := newFixture(t)
	user := dbtest.CreateUser(t, f.client.DB(), enums.UserRoleCustomer)
	f.fund(t, user.ID, 500)

	result, err := f.svc.Redeem(context.Background(), user.ID, "DISCOUNT_10")
	require.NoError(t, err)
	assert.Nil(t, result.Reward.Stock)
}

func TestRedeemIgnoresNotificationFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("outbox unavailable")
	user := dbtest.CreateUser(t, f.client.DB(), enums.UserRoleCustomer)
	f.fund(t, user.ID, 400)

	_, err := f.svc.Redeem(context.Background(), user.ID, "PRIORITY_BOOKING")
	require.NoError(t, err)
	assert.Equal(t, 0, f.account(t, user.ID).TotalPoints)
}

func TestRedemptionsAndExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, f.client.DB(), enums.UserRoleCustomer)
	f.fund(t, user.ID, 900)

	_, err := f.svc.Redeem(ctx, user.ID, "PRIORITY_BOOKING")
	require.NoError(t, err)
	f.now = f.now.Add(time.Second)
	_, err = f.svc.Redeem(ctx, user.ID, "DISCOUNT_10")
	require.NoError(t, err)

	list, err := f.svc.Redemptions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].Reward)

	f.now = f.now.Add(31 * 24 * time.Hour)
	expired, err := f.svc.ExpireRedemptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), expired)

	list, err = f.svc.Redemptions(ctx, user.ID)
	require.NoError(t, err)
	for _, r := range list {
		assert.Equal(t, enums.RedemptionStatusExpired, r.Status)
	}
}

func TestRedemptionCodeEncodesInstant(t *testing.T) {
	at := time.Unix(0, 1717329600000000000)
	assert.Equal(t, "DISCOUNT_10-D1PIJAXJPC00", redemptionCode("DISCOUNT_10", at))
	assert.NotEqual(t, redemptionCode("DISCOUNT_10", at), redemptionCode("DISCOUNT_10", at.Add(time.Nanosecond)))
}
