package reviews

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/internal/gamification"
	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicehub-backend/pkg/errors"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
)

type awardCall struct {
	userID uuid.UUID
	event  enums.GamificationEvent
}

type fakeAwarder struct {
	calls []awardCall
	fn    func(event enums.GamificationEvent) error
}

func (f *fakeAwarder) AwardPointsForEvent(_ context.Context, tx *gorm.DB, userID uuid.UUID, event enums.GamificationEvent, _ *uuid.UUID) (*gamification.EventResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "expected transaction")
	}
	if f.fn != nil {
		if err := f.fn(event); err != nil {
			return nil, err
		}
	}
	f.calls = append(f.calls, awardCall{userID: userID, event: event})
	return &gamification.EventResult{Event: event}, nil
}

func newTestService(t *testing.T) (Service, *db.Client, *fakeAwarder) {
	t.Helper()
	client := dbtest.Open(t)
	awarder := &fakeAwarder{}
	svc, err := NewService(NewRepository(client.DB()), client, awarder, logger.New(logger.Options{Output: io.Discard}))
	require.NoError(t, err)
	return svc, client, awarder
}

func completedBooking(t *testing.T, client *db.Client, tech models.TechnicianProfile, status enums.BookingStatus, clock string) (models.Booking, models.User) {
	t.Helper()
	customer := dbtest.CreateUser(t, client.DB(), enums.UserRoleCustomer)
	booking := dbtest.CreateBooking(t, client.DB(), models.Booking{
		CustomerID:    customer.ID,
		TechnicianID:  tech.ID,
		ScheduledDate: datatypes.Date(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)),
		ScheduledTime: clock,
		Status:        status,
	})
	return booking, customer
}

func TestSubmitUpdatesRatingAndAwards(t *testing.T) {
	svc, client, awarder := newTestService(t)
	ctx := context.Background()
	tech := dbtest.CreateTechnician(t, client.DB())

	first, customerA := completedBooking(t, client, tech, enums.BookingStatusCompleted, "09:00")
	comment := "  quick and tidy  "
	review, err := svc.Submit(ctx, SubmitInput{BookingID: first.ID, CustomerID: customerA.ID, Rating: 5, Comment: &comment})
	require.NoError(t, err)
	require.NotNil(t, review.Comment)
	assert.Equal(t, "quick and tidy", *review.Comment)

	second, customerB := completedBooking(t, client, tech, enums.BookingStatusCompleted, "10:00")
	_, err = svc.Submit(ctx, SubmitInput{BookingID: second.ID, CustomerID: customerB.ID, Rating: 4})
	require.NoError(t, err)

	var profile models.TechnicianProfile
	require.NoError(t, client.DB().First(&profile, "id = ?", tech.ID).Error)
	assert.Equal(t, 2, profile.TotalReviews)
	assert.InDelta(t, 4.5, profile.AverageRating, 0.001)

	assert.Equal(t, []awardCall{
		{userID: customerA.ID, event: enums.EventReviewSubmitted},
		{userID: tech.UserID, event: enums.EventFiveStarReview},
		{userID: customerB.ID, event: enums.EventReviewSubmitted},
	}, awarder.calls)
}

func TestSubmitRejections(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	tech := dbtest.CreateTechnician(t, client.DB())
	booking, customer := completedBooking(t, client, tech, enums.BookingStatusCompleted, "11:00")
	pending, pendingCustomer := completedBooking(t, client, tech, enums.BookingStatusConfirmed, "12:00")

	cases := []struct {
		name  string
		input SubmitInput
		code  pkgerrors.Code
	}{
		{"rating too low", SubmitInput{BookingID: booking.ID, CustomerID: customer.ID, Rating: 0}, pkgerrors.CodeValidation},
		{"rating too high", SubmitInput{BookingID: booking.ID, CustomerID: customer.ID, Rating: 6}, pkgerrors.CodeValidation},
		{"unknown booking", SubmitInput{BookingID: uuid.New(), CustomerID: customer.ID, Rating: 3}, pkgerrors.CodeNotFound},
		{"other customer", SubmitInput{BookingID: booking.ID, CustomerID: uuid.New(), Rating: 3}, pkgerrors.CodeForbidden},
		{"not completed", SubmitInput{BookingID: pending.ID, CustomerID: pendingCustomer.ID, Rating: 3}, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tc.input)
			if !pkgerrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestSubmitTwiceConflicts(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	tech := dbtest.CreateTechnician(t, client.DB())
	booking, customer := completedBooking(t, client, tech, enums.BookingStatusCompleted, "13:00")

	_, err := svc.Submit(ctx, SubmitInput{BookingID: booking.ID, CustomerID: customer.ID, Rating: 3})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, SubmitInput{BookingID: booking.ID, CustomerID: customer.ID, Rating: 4})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSubmitRollsBackWhenAwardFails(t *testing.T) {
	svc, client, awarder := newTestService(t)
	awarder.fn = func(enums.GamificationEvent) error {
		return pkgerrors.New(pkgerrors.CodeDependency, "ledger down")
	}
	tech := dbtest.CreateTechnician(t, client.DB())
	booking, customer := completedBooking(t, client, tech, enums.BookingStatusCompleted, "14:00")

	_, err := svc.Submit(context.Background(), SubmitInput{BookingID: booking.ID, CustomerID: customer.ID, Rating: 5})
	require.Error(t, err)

	var count int64
	require.NoError(t, client.DB().Model(&models.Review{}).Count(&count).Error)
	assert.Zero(t, count)
	var profile models.TechnicianProfile
	require.NoError(t, client.DB().First(&profile, "id = ?", tech.ID).Error)
	assert.Zero(t, profile.TotalReviews)
}

func TestListForTechnician(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	tech := dbtest.CreateTechnician(t, client.DB())
	booking, customer := completedBooking(t, client, tech, enums.BookingStatusCompleted, "15:00")
	_, err := svc.Submit(ctx, SubmitInput{BookingID: booking.ID, CustomerID: customer.ID, Rating: 4})
	require.NoError(t, err)

	out, err := svc.ListForTechnician(ctx, tech.ID, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 4, out[0].Rating)
}
