package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sqliteadapter "ideaforge/contexts/ideation/workshop-service/adapters/sqlite"
	"ideaforge/contexts/ideation/workshop-service/ports"
	"ideaforge/internal/platform/messaging"
	"ideaforge/internal/shared/events"
)

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, ports.EventEnvelope) error {
	return errors.New("bus unavailable")
}

func openOutbox(t *testing.T) *sqliteadapter.Store {
	t.Helper()
	store, err := sqliteadapter.Open(sqliteadapter.MemoryPath, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, eventType := range []string{"session.created", "vote.cast"} {
		if err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
			EventID:      eventType + "-1",
			EventType:    eventType,
			OccurredAt:   base.Add(time.Duration(i) * time.Second),
			PartitionKey: "s-1",
			Data:         []byte(`{"session_id":"s-1"}`),
		}); err != nil {
			t.Fatalf("append outbox: %v", err)
		}
	}
	return store
}

func TestOutboxRelayPublishesAndMarks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := openOutbox(t)
	bus := messaging.NewLocal(nil)

	var (
		mu       sync.Mutex
		received []string
		done     = make(chan struct{}, 2)
	)
	for _, subject := range []string{"ideaforge.session.created", "ideaforge.vote.cast"} {
		bus.Subscribe(ctx, subject, func(_ context.Context, event events.Envelope) error {
			mu.Lock()
			received = append(received, event.EventType)
			mu.Unlock()
			done <- struct{}{}
			return nil
		})
	}

	relay := OutboxRelay{Outbox: store, Publisher: bus, SubjectPrefix: "ideaforge.", BatchSize: 10}
	published, err := relay.RunOnce(ctx)
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if published != 2 {
		t.Fatalf("expected 2 published events, got %d", published)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("relayed event was not delivered")
		}
	}
	mu.Lock()
	if len(received) != 2 {
		t.Fatalf("expected 2 delivered events, got %v", received)
	}
	mu.Unlock()

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox after relay, got %d", len(pending))
	}

	again, err := relay.RunOnce(ctx)
	if err != nil || again != 0 {
		t.Fatalf("second cycle should be a no-op, got %d err=%v", again, err)
	}
}

func TestOutboxRelayKeepsRowsWhenPublishFails(t *testing.T) {
	store := openOutbox(t)
	relay := OutboxRelay{Outbox: store, Publisher: failingPublisher{}}

	published, err := relay.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected publish error")
	}
	if published != 0 {
		t.Fatalf("expected nothing published, got %d", published)
	}
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("failed rows must stay pending, got %d", len(pending))
	}
}

func TestOutboxRelayRunStopsOnCancel(t *testing.T) {
	store := openOutbox(t)
	ctx, cancel := context.WithCancel(context.Background())
	relay := OutboxRelay{Outbox: store, Publisher: messaging.NewLocal(nil)}

	errCh := make(chan error, 1)
	go func() { errCh <- relay.Run(ctx, 10*time.Millisecond) }()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
