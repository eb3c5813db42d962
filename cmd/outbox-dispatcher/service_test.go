package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/config"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
	"github.com/angelmondragon/servicehub-backend/pkg/outbox"
	"github.com/angelmondragon/servicehub-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/servicehub-backend/pkg/outbox/registry"
)

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			bookingEvent(t, "event-one", 0),
			bookingEvent(t, "event-two", 0),
		},
	}
	deliver := &fakeDeliverer{errs: []error{errors.New("smtp unavailable"), nil}}
	service := newTestService(t, repo, deliver, &fakeRegistry{resolved: bookingResolved()}, &fakeDLQRepo{}, nil, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.failed[0] != repo.events[0].ID {
		t.Fatalf("failed row recorded wrong ID")
	}
	if repo.published[0] != repo.events[1].ID {
		t.Fatalf("published row recorded wrong ID")
	}
}

func TestServiceProcessBatchReportsIdle(t *testing.T) {
	service := newTestService(t, &fakeRepo{}, &fakeDeliverer{}, &fakeRegistry{}, &fakeDLQRepo{}, nil, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("expected empty batch to report idle")
	}
}

func TestServiceProcessBatchWritesDLQOnUnresolvableEvent(t *testing.T) {
	event := bookingEvent(t, "nonretryable", 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	eventRegistry := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("invalid payload"))}
	dlqRepo := &fakeDLQRepo{}
	deliver := &fakeDeliverer{}
	service := newTestService(t, repo, deliver, eventRegistry, dlqRepo, nil, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	entry := dlqRepo.entries[0]
	if entry.EventID != event.ID {
		t.Fatalf("dlq event_id mismatch: %s", entry.EventID)
	}
	if entry.Payload == nil || !bytes.Equal(entry.Payload, event.Payload) {
		t.Fatalf("dlq payload mismatch")
	}
	if entry.ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("unexpected error reason: %s", entry.ErrorReason)
	}
	if deliver.calls != 0 {
		t.Fatalf("expected no delivery attempt, got %d", deliver.calls)
	}
}

func TestServiceProcessBatchWritesDLQOnNonRetryableDelivery(t *testing.T) {
	event := bookingEvent(t, "unsupported", 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	deliver := &fakeDeliverer{errs: []error{registry.NewNonRetryableError(errors.New("unsupported kind"))}}
	dlqRepo := &fakeDLQRepo{}
	service := newTestService(t, repo, deliver, &fakeRegistry{resolved: bookingResolved()}, dlqRepo, nil, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	if dlqRepo.entries[0].ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("unexpected error reason: %s", dlqRepo.entries[0].ErrorReason)
	}
	if len(repo.terminal) != 1 || repo.terminal[0] != event.ID {
		t.Fatalf("expected row marked terminal")
	}
}

func TestServiceProcessBatchWritesDLQOnMaxAttempts(t *testing.T) {
	event := bookingEvent(t, "max-attempts", 1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	deliver := &fakeDeliverer{errs: []error{errors.New("transient")}}
	dlqRepo := &fakeDLQRepo{}
	service := newTestService(t, repo, deliver, &fakeRegistry{resolved: bookingResolved()}, dlqRepo, nil, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	entry := dlqRepo.entries[0]
	if entry.EventID != event.ID {
		t.Fatalf("dlq event_id mismatch: %s", entry.EventID)
	}
	if entry.ErrorReason != enums.OutboxDLQReasonMaxAttempts {
		t.Fatalf("unexpected error reason: %s", entry.ErrorReason)
	}
}

func TestServiceSkipsEventsAlreadyClaimed(t *testing.T) {
	event := bookingEvent(t, "duplicate", 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	deliver := &fakeDeliverer{}
	guard := &fakeGuard{claimed: map[uuid.UUID]bool{event.ID: true}}
	service := newTestService(t, repo, deliver, &fakeRegistry{resolved: bookingResolved()}, &fakeDLQRepo{}, guard, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if deliver.calls != 0 {
		t.Fatalf("expected claimed event to skip delivery, got %d calls", deliver.calls)
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("expected claimed event marked published")
	}
}

func TestServiceReleasesClaimOnFailure(t *testing.T) {
	event := bookingEvent(t, "release", 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	deliver := &fakeDeliverer{errs: []error{errors.New("smtp timeout")}}
	guard := &fakeGuard{claimed: map[uuid.UUID]bool{}}
	service := newTestService(t, repo, deliver, &fakeRegistry{resolved: bookingResolved()}, &fakeDLQRepo{}, guard, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if guard.claimed[event.ID] {
		t.Fatalf("expected claim released after failed delivery")
	}
	if len(guard.released) != 1 || guard.released[0] != event.ID {
		t.Fatalf("expected release for %s", event.ID)
	}
	if len(repo.failed) != 1 {
		t.Fatalf("expected row marked failed")
	}
}

func TestServiceGuardErrorAbortsBatch(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{bookingEvent(t, "guard-error", 0)}}
	guard := &fakeGuard{err: errors.New("redis down")}
	service := newTestService(t, repo, &fakeDeliverer{}, &fakeRegistry{resolved: bookingResolved()}, &fakeDLQRepo{}, guard, nil)

	if _, err := service.processBatch(context.Background()); err == nil {
		t.Fatalf("expected guard error to abort the batch")
	}
	if len(repo.published) != 0 || len(repo.failed) != 0 {
		t.Fatalf("expected no row bookkeeping on guard error")
	}
}

func TestNextBackoffCaps(t *testing.T) {
	base := 100 * time.Millisecond
	if got := nextBackoff(0, base, time.Second); got != 200*time.Millisecond {
		t.Fatalf("expected doubled base got %s", got)
	}
	if got := nextBackoff(800*time.Millisecond, base, time.Second); got != time.Second {
		t.Fatalf("expected cap got %s", got)
	}
}

func newTestService(t *testing.T, repo outboxRepository, deliver deliverer, resolver registryResolver, dlq dlqRepository, guard deliveryGuard, outboxCfgOverride *config.OutboxConfig) *Service {
	outboxCfg := config.OutboxConfig{
		BatchSize:      2,
		PollIntervalMS: 100,
		MaxAttempts:    5,
	}
	if outboxCfgOverride != nil {
		outboxCfg = *outboxCfgOverride
	}
	logg := logger.New(logger.Options{
		ServiceName: "outbox-dispatcher-test",
		Output:      io.Discard,
	})
	params := ServiceParams{
		Config:        &config.Config{Outbox: outboxCfg},
		Logger:        logg,
		DB:            &fakeDB{},
		Repository:    repo,
		Registry:      resolver,
		Deliverer:     deliver,
		DLQRepository: dlq,
	}
	if guard != nil {
		params.Guard = guard
	}
	service, err := NewService(params)
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func bookingEvent(tb testing.TB, eventID string, attempts int) models.OutboxEvent {
	tb.Helper()
	env := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{}`),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateBooking,
		AggregateID:   uuid.New(),
		Payload:       payload,
		AttemptCount:  attempts,
	}
}

func bookingResolved() *registry.ResolvedEvent {
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateBooking,
		},
		Payload: &payloads.NotificationRequestedEvent{},
	}
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchForDispatch(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error {
	return nil
}

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakeDeliverer struct {
	errs  []error
	calls int
}

func (f *fakeDeliverer) Handle(context.Context, any) error {
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

type fakeGuard struct {
	claimed  map[uuid.UUID]bool
	released []uuid.UUID
	err      error
}

func (f *fakeGuard) Claim(_ context.Context, _ string, eventID uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.claimed[eventID] {
		return false, nil
	}
	f.claimed[eventID] = true
	return true, nil
}

func (f *fakeGuard) Release(_ context.Context, _ string, eventID uuid.UUID) error {
	delete(f.claimed, eventID)
	f.released = append(f.released, eventID)
	return nil
}

type fakeRegistry struct {
	resolved *registry.ResolvedEvent
	err      error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.resolved == nil {
		return nil, f.err
	}
	resolved := *f.resolved
	resolved.Envelope.EventID = event.ID.String()
	resolved.Envelope.OccurredAt = time.Now()
	return &resolved, f.err
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}
