package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

type fakeInserter struct {
	rows []models.OutboxEvent
}

func (f *fakeInserter) Insert(_ *gorm.DB, event models.OutboxEvent) error {
	f.rows = append(f.rows, event)
	return nil
}

func TestEmitWrapsPayloadInEnvelope(t *testing.T) {
	repo := &fakeInserter{}
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc := &Service{repo: repo, now: func() time.Time { return now }}
	actor := uuid.New()
	aggregate := uuid.New()

	err := svc.Emit(context.Background(), &gorm.DB{}, DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateBooking,
		AggregateID:   aggregate,
		Actor:         &ActorRef{UserID: actor, Role: "customer"},
		Data:          map[string]string{"kind": "booking_confirmed"},
	})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected one row, got %d", len(repo.rows))
	}
	row := repo.rows[0]
	if row.AggregateID != aggregate || row.EventType != enums.EventNotificationRequested {
		t.Fatalf("unexpected row %+v", row)
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.EventID != row.ID.String() {
		t.Fatalf("row id %s should match envelope event id %s", row.ID, envelope.EventID)
	}
	if envelope.Version != CurrentVersion {
		t.Fatalf("expected version %d, got %d", CurrentVersion, envelope.Version)
	}
	if !envelope.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred at %s, got %s", now, envelope.OccurredAt)
	}
	if envelope.Actor == nil || envelope.Actor.UserID != actor {
		t.Fatalf("actor missing from envelope")
	}
	if string(envelope.Data) != `{"kind":"booking_confirmed"}` {
		t.Fatalf("unexpected data %s", envelope.Data)
	}
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := &Service{repo: &fakeInserter{}, now: time.Now}
	err := svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventRewardRedeemed})
	if err == nil {
		t.Fatal("expected error without transaction")
	}
}

func TestEmitRejectsUnknownEventType(t *testing.T) {
	repo := &fakeInserter{}
	svc := &Service{repo: repo, now: time.Now}
	err := svc.Emit(context.Background(), &gorm.DB{}, DomainEvent{EventType: "booking_reminder"})
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
	if len(repo.rows) != 0 {
		t.Fatal("nothing should be written")
	}
}

func TestDecodeEnvelopeRejectsFutureVersionAndEmptyData(t *testing.T) {
	future := []byte(`{"version":99,"eventId":"e","occurredAt":"2026-01-01T00:00:00Z","data":{}}`)
	if _, err := DecodeEnvelope(future); err == nil {
		t.Fatalf("expected future version to be rejected")
	}
	empty := []byte(`{"version":1,"eventId":"e","occurredAt":"2026-01-01T00:00:00Z","data":null}`)
	if _, err := DecodeEnvelope(empty); err == nil {
		t.Fatalf("expected null data to be rejected")
	}
	env, err := DecodeEnvelope([]byte(`{"version":1,"eventId":"e","occurredAt":"2026-01-01T00:00:00Z","data":{"kind":"x"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.EventID != "e" {
		t.Fatalf("unexpected event id %q", env.EventID)
	}
}

func TestEmitRequiresAggregate(t *testing.T) {
	repo := &fakeInserter{}
	svc := &Service{repo: repo, now: time.Now}
	cases := []DomainEvent{
		{EventType: enums.EventRewardRedeemed, AggregateType: enums.AggregateRedemption},
		{EventType: enums.EventRewardRedeemed, AggregateType: "wallet", AggregateID: uuid.New()},
	}
	for _, event := range cases {
		if err := svc.Emit(context.Background(), &gorm.DB{}, event); err == nil {
			t.Fatalf("expected %+v to be rejected", event)
		}
	}
	if len(repo.rows) != 0 {
		t.Fatal("nothing should be written")
	}
}
