package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ideaforge/internal/shared/events"

	"github.com/nats-io/nats.go"
)

// NATS publishes outbox events as JSON messages. The event id is sent as
// Nats-Msg-Id so a JetStream stream on the subject deduplicates redeliveries.
type NATS struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func ConnectNATS(url string, name string, logger *slog.Logger) (*NATS, error) {
	if url == "" {
		return nil, errors.New("nats url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected",
					"event", "nats_disconnected",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected",
				"event", "nats_reconnected",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"url", nc.ConnectedUrl(),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATS{conn: conn, logger: logger}, nil
}

func (n *NATS) Publish(ctx context.Context, subject string, event events.Envelope) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.EventID, err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set(nats.MsgIdHdr, event.EventID)
	msg.Header.Set("Event-Type", event.EventType)
	msg.Header.Set("Partition-Key", event.PartitionKey)
	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	// Flush so the relay only marks a row published once the server has it.
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", subject, err)
	}
	n.logger.Debug("event published",
		"event", "nats_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"subject", subject,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

func (n *NATS) Close() {
	if n == nil || n.conn == nil {
		return
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}
