// Package kafkabus carries events over Kafka with segmentio/kafka-go. Topics map one
// to one; messages are keyed by order id so the events of one order stay ordered.
package kafkabus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fooddelivery/internal/core/domain/events"

	"github.com/segmentio/kafka-go"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = time.Second
)

// Config describes the cluster and the consumer groups.
type Config struct {
	Brokers []string

	// GroupPrefix is prepended to the consumer name to build the group id.
	GroupPrefix string

	// MaxAttempts bounds handling of one message before it is committed anyway.
	MaxAttempts int
	Backoff     time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Backoff <= 0 {
		c.Backoff = DefaultBackoff
	}
	return c
}

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes events synchronously and waits for the leader acknowledgement.
type Publisher struct {
	writer messageWriter
}

func NewPublisher(cfg Config) *Publisher {
	return &Publisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	value, err := events.Encode(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: event.Topic.String(),
		Key:   []byte(event.Key()),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
			{Key: "correlation-id", Value: []byte(event.CorrelationID)},
		},
	}

	if err = p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, event.Topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// messageReader is the part of *kafka.Reader the subscriber uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Subscriber joins one consumer group per consumer name and commits offsets only
// after the handler returned or the attempts ran out.
type Subscriber struct {
	cfg       Config
	logger    *slog.Logger
	newReader func(topic events.Topic, group string) messageReader
}

func NewSubscriber(cfg Config, logger *slog.Logger) *Subscriber {
	cfg = cfg.withDefaults()
	return &Subscriber{
		cfg:    cfg,
		logger: logger.With("component", "kafka_subscriber"),
		newReader: func(topic events.Topic, group string) messageReader {
			return kafka.NewReader(kafka.ReaderConfig{
				Brokers:        cfg.Brokers,
				GroupID:        group,
				Topic:          topic.String(),
				MinBytes:       1,
				MaxBytes:       10 * 1024 * 1024,
				StartOffset:    kafka.FirstOffset,
				CommitInterval: 0,
			})
		},
	}
}

func (s *Subscriber) Subscribe(ctx context.Context, topic events.Topic, consumer string, handler events.Handler) error {
	group := s.cfg.GroupPrefix + consumer
	reader := s.newReader(topic, group)
	defer func() {
		if err := reader.Close(); err != nil {
			s.logger.WarnContext(ctx, "failed to close reader", "topic", topic.String(), "error", err)
		}
	}()

	s.logger.InfoContext(ctx, "subscribed", "topic", topic.String(), "group", group)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch from %s: %w", topic, err)
		}

		s.handle(ctx, msg, consumer, handler)
		if ctx.Err() != nil {
			return nil
		}

		if err = reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.ErrorContext(ctx, "failed to commit message",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

// handle retries with linear backoff; a message that keeps failing is logged and
// committed so it cannot block its partition forever.
func (s *Subscriber) handle(ctx context.Context, msg kafka.Message, consumer string, handler events.Handler) {
	event, err := events.Decode(msg.Value)
	if err != nil {
		s.logger.ErrorContext(ctx, "dropping malformed message",
			"topic", msg.Topic, "offset", msg.Offset, "error", err)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if lastErr = handler(ctx, event); lastErr == nil {
			return
		}

		s.logger.WarnContext(ctx, "event handling failed",
			"event_id", event.ID, "type", event.Type.String(), "consumer", consumer,
			"attempt", attempt, "error", lastErr)

		if attempt == s.cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.Backoff * time.Duration(attempt)):
		}
	}

	if !errors.Is(lastErr, context.Canceled) {
		s.logger.ErrorContext(ctx, "committing poison message",
			"event_id", event.ID, "type", event.Type.String(), "consumer", consumer, "error", lastErr)
	}
}
