package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "ideaforge/contexts/ideation/workshop-service/application"
	"ideaforge/contexts/ideation/workshop-service/ports"
)

// OutboxRelay publishes pending workshop outbox rows to the event bus. Rows
// are marked published only after the publisher acknowledged them, so a
// failed cycle is retried on the next tick.
type OutboxRelay struct {
	Outbox        ports.OutboxRepository
	Publisher     ports.EventPublisher
	Clock         ports.Clock
	BatchSize     int
	SubjectPrefix string
	Logger        *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("workshop outbox list failed",
			"event", "workshop_outbox_list_failed",
			"module", "ideation/workshop-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	published := 0
	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("workshop outbox decode failed",
				"event", "workshop_outbox_decode_failed",
				"module", "ideation/workshop-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}

		subject := r.subject(event.EventType, row.EventType)
		if err := r.Publisher.Publish(ctx, subject, event); err != nil {
			logger.Error("workshop outbox publish failed",
				"event", "workshop_outbox_publish_failed",
				"module", "ideation/workshop-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"subject", subject,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("workshop outbox mark published failed",
				"event", "workshop_outbox_mark_published_failed",
				"module", "ideation/workshop-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		published++
	}

	if published > 0 {
		logger.Info("workshop outbox relay cycle completed",
			"event", "workshop_outbox_relay_completed",
			"module", "ideation/workshop-service",
			"layer", "worker",
			"published_count", published,
		)
	}
	return published, nil
}

// Run drives RunOnce every interval until ctx is cancelled. A failed cycle is
// logged by RunOnce and retried on the next tick.
func (r OutboxRelay) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		_, _ = r.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r OutboxRelay) subject(eventType string, fallback string) string {
	name := eventType
	if name == "" {
		name = fallback
	}
	prefix := strings.Trim(strings.TrimSpace(r.SubjectPrefix), ".")
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
