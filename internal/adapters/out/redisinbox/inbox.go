// Package redisinbox remembers processed event ids in Redis, shared by every replica
// of a consumer.
package redisinbox

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 24 * time.Hour

type Config struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// Inbox implements ports.Inbox with SETNX keys that expire after TTL.
type Inbox struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects and pings the server.
func New(ctx context.Context, cfg Config) (*Inbox, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}

	return NewWithClient(client, cfg.TTL), nil
}

func NewWithClient(client *redis.Client, ttl time.Duration) *Inbox {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Inbox{client: client, ttl: ttl}
}

func (i *Inbox) MarkProcessed(ctx context.Context, consumer, eventID string) (bool, error) {
	first, err := i.client.SetNX(ctx, key(consumer, eventID), time.Now().UTC().Format(time.RFC3339Nano), i.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark event %s for %s: %w", eventID, consumer, err)
	}
	return first, nil
}

func (i *Inbox) Processed(ctx context.Context, consumer, eventID string) (bool, error) {
	n, err := i.client.Exists(ctx, key(consumer, eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up event %s for %s: %w", eventID, consumer, err)
	}
	return n > 0, nil
}

func (i *Inbox) Close() error {
	return i.client.Close()
}

func key(consumer, eventID string) string {
	return "inbox:" + consumer + ":" + eventID
}
