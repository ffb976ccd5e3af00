package commands

import (
	"context"
	"encoding/json"
	"time"

	"ideaforge/contexts/ideation/workshop-service/ports"
)

const sourceService = "workshop-service"

func newWorkshopEnvelope(
	eventID string,
	eventType string,
	sessionID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Events are partitioned by session so consumers see one session's
	// lifecycle in order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "session_id",
		PartitionKey:     sessionID,
		Data:             payload,
	}, nil
}

func appendEvent(
	ctx context.Context,
	tx ports.OutboxWriter,
	idGen ports.IDGenerator,
	eventType string,
	sessionID string,
	occurredAt time.Time,
	data map[string]any,
) error {
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	if data == nil {
		data = map[string]any{}
	}
	data["session_id"] = sessionID
	data["occurred_at"] = occurredAt.UTC().Format(time.RFC3339)
	envelope, err := newWorkshopEnvelope(eventID, eventType, sessionID, occurredAt, data)
	if err != nil {
		return err
	}
	return tx.AppendOutbox(ctx, envelope)
}
