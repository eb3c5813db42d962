package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStore struct {
	keys    map[string]bool
	setErr  error
	lastTTL time.Duration
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: map[string]bool{}}
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) Set(_ context.Context, key string, _ any, ttl time.Duration) error {
	f.lastTTL = ttl
	f.keys[key] = true
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	if f.setErr != nil {
		return false, f.setErr
	}
	f.lastTTL = ttl
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "sh:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func TestClaimOnlyOnce(t *testing.T) {
	store := newFakeStore()
	guard, err := NewGuard(store, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	eventID := uuid.New()

	first, err := guard.Claim(context.Background(), "notification-mailer", eventID)
	if err != nil || !first {
		t.Fatalf("expected first claim to win, got %v (%v)", first, err)
	}
	second, err := guard.Claim(context.Background(), "notification-mailer", eventID)
	if err != nil || second {
		t.Fatalf("expected second claim to lose, got %v (%v)", second, err)
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl %v", store.lastTTL)
	}
	other, err := guard.Claim(context.Background(), "audit", eventID)
	if err != nil || !other {
		t.Fatalf("claims are scoped per consumer, got %v (%v)", other, err)
	}
}

func TestReleaseAllowsRetry(t *testing.T) {
	store := newFakeStore()
	guard, _ := NewGuard(store, time.Hour)
	eventID := uuid.New()

	if _, err := guard.Claim(context.Background(), "notification-mailer", eventID); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := guard.Release(context.Background(), "notification-mailer", eventID); err != nil {
		t.Fatalf("Release: %v", err)
	}
	expected := "sh:idempotency:delivered:notification-mailer:" + eventID.String()
	if len(store.deleted) != 1 || store.deleted[0] != expected {
		t.Fatalf("unexpected deleted keys %v", store.deleted)
	}
	again, err := guard.Claim(context.Background(), "notification-mailer", eventID)
	if err != nil || !again {
		t.Fatalf("expected claim after release, got %v (%v)", again, err)
	}
}

func TestClaimValidation(t *testing.T) {
	guard, _ := NewGuard(newFakeStore(), time.Hour)
	if _, err := guard.Claim(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("expected consumer validation error")
	}
	if _, err := guard.Claim(context.Background(), "mailer", uuid.Nil); err == nil {
		t.Fatal("expected event id validation error")
	}
	if _, err := NewGuard(nil, time.Hour); err == nil {
		t.Fatal("expected store validation error")
	}
}

func TestClaimPropagatesStoreError(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("boom")
	guard, _ := NewGuard(store, time.Hour)
	if _, err := guard.Claim(context.Background(), "mailer", uuid.New()); err == nil {
		t.Fatal("expected error")
	}
}
