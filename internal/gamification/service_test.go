package gamification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/internal/achievements"
	"github.com/angelmondragon/servicehub-backend/internal/points"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	f.calls++
	return fn(&gorm.DB{})
}

type fakeAwarder struct {
	inputs  []points.AwardInput
	awardFn func(points.AwardInput) (*points.AwardResult, error)
}

func (f *fakeAwarder) Award(_ context.Context, _ *gorm.DB, input points.AwardInput) (*points.AwardResult, error) {
	f.inputs = append(f.inputs, input)
	if f.awardFn != nil {
		return f.awardFn(input)
	}
	return &points.AwardResult{PointsAwarded: input.Points, NewTotal: input.Points}, nil
}

type fakeChecker struct {
	triggers []string
	txs      []*gorm.DB
}

func (f *fakeChecker) CheckAndUnlock(_ context.Context, tx *gorm.DB, _ uuid.UUID, trigger string) ([]achievements.Unlocked, error) {
	f.triggers = append(f.triggers, trigger)
	f.txs = append(f.txs, tx)
	return []achievements.Unlocked{{Code: "WELCOME"}}, nil
}

func TestAwardPointsForEventUsesPointTable(t *testing.T) {
	runner := &fakeTxRunner{}
	awarder := &fakeAwarder{}
	checker := &fakeChecker{}
	svc, err := NewService(runner, awarder, checker)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	sourceID := uuid.New()

	result, err := svc.AwardPointsForEvent(context.Background(), nil, uuid.New(), enums.EventFirstBooking, &sourceID)
	if err != nil {
		t.Fatalf("AwardPointsForEvent: %v", err)
	}
	if runner.calls != 1 {
		t.Fatalf("expected own transaction, got %d calls", runner.calls)
	}
	if len(awarder.inputs) != 1 {
		t.Fatalf("expected one award, got %d", len(awarder.inputs))
	}
	input := awarder.inputs[0]
	if input.Points != 100 || input.Type != enums.PointTransactionEarned || input.Source != "FIRST_BOOKING" || input.SourceID != &sourceID {
		t.Fatalf("unexpected award input %+v", input)
	}
	if len(checker.triggers) != 1 || checker.triggers[0] != "FIRST_BOOKING" {
		t.Fatalf("expected achievement check with trigger, got %v", checker.triggers)
	}
	if result.Award.PointsAwarded != 100 || len(result.Achievements) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestAwardPointsForEventReusesCallerTransaction(t *testing.T) {
	runner := &fakeTxRunner{}
	checker := &fakeChecker{}
	svc, _ := NewService(runner, &fakeAwarder{}, checker)
	tx := &gorm.DB{}

	if _, err := svc.AwardPointsForEvent(context.Background(), tx, uuid.New(), enums.EventJobCompleted, nil); err != nil {
		t.Fatalf("AwardPointsForEvent: %v", err)
	}
	if runner.calls != 0 {
		t.Fatalf("expected caller transaction to be reused")
	}
	if checker.txs[0] != tx {
		t.Fatalf("expected achievements evaluated in caller transaction")
	}
}

func TestAwardPointsForEventUnknownIsNoop(t *testing.T) {
	awarder := &fakeAwarder{}
	checker := &fakeChecker{}
	svc, _ := NewService(&fakeTxRunner{}, awarder, checker)

	result, err := svc.AwardPointsForEvent(context.Background(), nil, uuid.New(), "BIRTHDAY", nil)
	if err != nil || result != nil {
		t.Fatalf("expected nil result and error, got %+v (%v)", result, err)
	}
	if len(awarder.inputs) != 0 || len(checker.triggers) != 0 {
		t.Fatalf("unknown events must not touch the ledger")
	}
}

func TestAwardPointsForEventStopsOnAwardFailure(t *testing.T) {
	awarder := &fakeAwarder{awardFn: func(points.AwardInput) (*points.AwardResult, error) {
		return nil, errors.New("ledger down")
	}}
	checker := &fakeChecker{}
	svc, _ := NewService(&fakeTxRunner{}, awarder, checker)

	if _, err := svc.AwardPointsForEvent(context.Background(), nil, uuid.New(), enums.EventReviewSubmitted, nil); err == nil {
		t.Fatalf("expected error")
	}
	if len(checker.triggers) != 0 {
		t.Fatalf("achievements must not be evaluated after a failed award")
	}
}
