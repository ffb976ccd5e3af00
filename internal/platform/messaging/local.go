package messaging

import (
	"context"
	"log/slog"
	"sync"

	"ideaforge/internal/shared/events"
)

// Local is an in-process publish/subscribe bus. The worker falls back to it
// when no NATS URL is configured, and tests use it to observe relayed events.
type Local struct {
	mu          sync.RWMutex
	subscribers map[string][]chan events.Envelope
	logger      *slog.Logger
}

func NewLocal(logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{
		subscribers: make(map[string][]chan events.Envelope),
		logger:      logger,
	}
}

func (l *Local) Publish(ctx context.Context, subject string, event events.Envelope) error {
	l.mu.RLock()
	subs := append([]chan events.Envelope(nil), l.subscribers[subject]...)
	l.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub <- event:
		default:
			l.logger.Warn("dropping event for slow subscriber",
				"event", "local_bus_publish_drop",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"subject", subject,
				"event_id", event.EventID,
			)
		}
	}

	l.logger.Debug("event published",
		"event", "local_bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"subject", subject,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

// Subscribe delivers events published on subject to handler until ctx is
// done. Handler errors are logged and do not stop the subscription.
func (l *Local) Subscribe(
	ctx context.Context,
	subject string,
	handler func(context.Context, events.Envelope) error,
) {
	ch := make(chan events.Envelope, 128)

	l.mu.Lock()
	l.subscribers[subject] = append(l.subscribers[subject], ch)
	l.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				l.removeSubscriber(subject, ch)
				return
			case event := <-ch:
				if err := handler(ctx, event); err != nil {
					l.logger.Error("subscriber handler failed",
						"event", "local_bus_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"subject", subject,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
}

func (l *Local) removeSubscriber(subject string, target chan events.Envelope) {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := l.subscribers[subject]
	if len(items) == 0 {
		return
	}
	filtered := make([]chan events.Envelope, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	l.subscribers[subject] = filtered
}
