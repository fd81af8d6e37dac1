package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"opsdesk/internal/domain/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	err      error
	notify   chan struct{}
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		messages: make(map[string][][]byte),
		notify:   make(chan struct{}, 16),
	}
}

func (f *fakePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		f.notify <- struct{}{}
		return f.err
	}
	f.messages[subject] = append(f.messages[subject], data)
	f.notify <- struct{}{}
	return nil
}

func (f *fakePublisher) waitForPublish(t *testing.T) {
	t.Helper()
	select {
	case <-f.notify:
	case <-time.After(2 * time.Second):
		t.Fatalf("no publish within deadline")
	}
}

func TestInvalidationCoordinator_DropsLocalKeys(t *testing.T) {
	local := NewAggregateCache()
	coord := NewInvalidationCoordinator(local, nil, testLogger())

	year := 2025
	local.Set(Key(models.KindQuotation, nil), "kind-wide")
	local.Set(Key(models.KindQuotation, &year), "yearly")
	local.Set(Key(models.KindInvoice, &year), "other kind")

	coord.Invalidate(models.KindQuotation, &year)

	if _, ok := local.Get(Key(models.KindQuotation, nil)); ok {
		t.Errorf("kind-wide aggregate survived invalidation")
	}
	if _, ok := local.Get(Key(models.KindQuotation, &year)); ok {
		t.Errorf("yearly aggregate survived invalidation")
	}
	if _, ok := local.Get(Key(models.KindInvoice, &year)); !ok {
		t.Errorf("unrelated kind was invalidated")
	}
}

func TestInvalidationCoordinator_BroadcastsToPeers(t *testing.T) {
	local := NewAggregateCache()
	pub := newFakePublisher()
	coord := NewInvalidationCoordinator(local, pub, testLogger())

	year := 2025
	coord.Invalidate(models.KindExpense, &year)
	pub.waitForPublish(t)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	msgs := pub.messages[SubjectInvalidate]
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	var got invalidation
	if err := json.Unmarshal(msgs[0], &got); err != nil {
		t.Fatalf("unmarshal broadcast: %v", err)
	}
	if got.Kind != models.KindExpense || got.Year == nil || *got.Year != 2025 {
		t.Errorf("broadcast = %+v, want expense/2025", got)
	}
}

func TestInvalidationCoordinator_PublishFailureIsSwallowed(t *testing.T) {
	local := NewAggregateCache()
	local.Set(Key(models.KindPlan, nil), "stale")
	pub := newFakePublisher()
	pub.err = errors.New("broker down")
	coord := NewInvalidationCoordinator(local, pub, testLogger())

	// Must not panic or block; the local drop still happens.
	coord.Invalidate(models.KindPlan, nil)
	pub.waitForPublish(t)

	if _, ok := local.Get(Key(models.KindPlan, nil)); ok {
		t.Errorf("local aggregate survived despite broadcast failure")
	}
}

func TestInvalidationCoordinator_RedundantInvalidateIsSafe(t *testing.T) {
	local := NewAggregateCache()
	coord := NewInvalidationCoordinator(local, nil, testLogger())

	coord.Invalidate(models.KindTicketA, nil)
	coord.Invalidate(models.KindTicketA, nil)
}

func TestInvalidationHandler_AppliesRemoteInvalidations(t *testing.T) {
	local := NewAggregateCache()
	year := 2025
	local.Set(Key(models.KindQuotation, nil), "kind-wide")
	local.Set(Key(models.KindQuotation, &year), "yearly")

	handler := InvalidationHandler(local, testLogger())

	payload, _ := json.Marshal(invalidation{Kind: models.KindQuotation, Year: &year})
	if err := handler(context.Background(), payload); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if local.Len() != 0 {
		t.Errorf("%d entries survived a remote invalidation, want 0", local.Len())
	}
}

func TestInvalidationHandler_MalformedMessage(t *testing.T) {
	local := NewAggregateCache()
	local.Set("key", "value")

	handler := InvalidationHandler(local, testLogger())

	if err := handler(context.Background(), []byte("not json")); err == nil {
		t.Errorf("handler accepted malformed payload")
	}
	if local.Len() != 1 {
		t.Errorf("malformed payload mutated the cache")
	}
}
