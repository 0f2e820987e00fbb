// Package stanbus carries events over NATS Streaming. Each topic is a subject; each
// consumer is a durable queue group with manual acknowledgement, so an event whose
// handler failed is redelivered by the server after AckWait.
package stanbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fooddelivery/internal/core/domain/events"

	stan "github.com/nats-io/stan.go"
)

const (
	DefaultAckWait        = 30 * time.Second
	DefaultHandlerTimeout = 10 * time.Second
)

type Config struct {
	ClusterID string
	ClientID  string
	URL       string

	AckWait        time.Duration
	HandlerTimeout time.Duration
}

// Bus implements ports.EventPublisher and ports.EventSubscriber over one connection.
type Bus struct {
	conn   stan.Conn
	cfg    Config
	logger *slog.Logger
}

func Connect(cfg Config, logger *slog.Logger) (*Bus, error) {
	if cfg.AckWait <= 0 {
		cfg.AckWait = DefaultAckWait
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = DefaultHandlerTimeout
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("fooddelivery-%d", time.Now().UnixNano())
	}

	logger = logger.With("component", "stan_bus")
	conn, err := stan.Connect(cfg.ClusterID, clientID,
		stan.NatsURL(cfg.URL),
		stan.SetConnectionLostHandler(func(_ stan.Conn, reason error) {
			logger.Error("stan connection lost", "error", reason)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to stan cluster %s: %w", cfg.ClusterID, err)
	}

	return &Bus{conn: conn, cfg: cfg, logger: logger}, nil
}

func (b *Bus) Publish(_ context.Context, event events.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	data, err := events.Encode(event)
	if err != nil {
		return err
	}

	if err = b.conn.Publish(event.Topic.String(), data); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, event.Topic, err)
	}
	return nil
}

// Subscribe blocks until ctx is done. The durable subscription survives the return,
// so a restarted consumer resumes where it stopped.
func (b *Bus) Subscribe(ctx context.Context, topic events.Topic, consumer string, handler events.Handler) error {
	sub, err := b.conn.QueueSubscribe(topic.String(), consumer, func(m *stan.Msg) {
		b.onMessage(ctx, m, consumer, handler)
	},
		stan.DurableName(consumer),
		stan.SetManualAckMode(),
		stan.AckWait(b.cfg.AckWait),
		stan.DeliverAllAvailable(),
	)
	if err != nil {
		return fmt.Errorf("subscribe %s to %s: %w", consumer, topic, err)
	}

	b.logger.InfoContext(ctx, "subscribed", "topic", topic.String(), "consumer", consumer)
	<-ctx.Done()

	if err = sub.Close(); err != nil {
		b.logger.WarnContext(context.Background(), "failed to close subscription",
			"topic", topic.String(), "consumer", consumer, "error", err)
	}
	return nil
}

func (b *Bus) onMessage(ctx context.Context, m *stan.Msg, consumer string, handler events.Handler) {
	event, err := events.Decode(m.Data)
	if err != nil {
		b.logger.ErrorContext(ctx, "dropping malformed message",
			"subject", m.Subject, "sequence", m.Sequence, "error", err)
		b.ack(ctx, m)
		return
	}

	hctx, cancel := context.WithTimeout(ctx, b.cfg.HandlerTimeout)
	defer cancel()

	if err = handler(hctx, event); err != nil {
		// left unacknowledged; the server redelivers after AckWait
		b.logger.WarnContext(ctx, "event handling failed",
			"event_id", event.ID, "type", event.Type.String(), "consumer", consumer,
			"redelivered", m.Redelivered, "error", err)
		return
	}

	b.ack(ctx, m)
}

func (b *Bus) ack(ctx context.Context, m *stan.Msg) {
	if err := m.Ack(); err != nil {
		b.logger.WarnContext(ctx, "ack failed", "subject", m.Subject, "sequence", m.Sequence, "error", err)
	}
}

func (b *Bus) Close() error {
	return b.conn.Close()
}
