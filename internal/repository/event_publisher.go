package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/grade-ledger-api/internal/models"
)

// EventPublisher forwards committed events to a Redis pub/sub channel for
// external indexers.
type EventPublisher struct {
	client  *redis.Client
	channel string
}

// NewEventPublisher constructs a publisher. A nil client disables publishing.
func NewEventPublisher(client *redis.Client, channel string) *EventPublisher {
	return &EventPublisher{client: client, channel: channel}
}

// Name identifies the subscriber in logs and metrics.
func (p *EventPublisher) Name() string {
	return "redis"
}

// Publish sends evt as JSON on the configured channel.
func (p *EventPublisher) Publish(ctx context.Context, evt models.Event) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event %d: %w", evt.Seq, err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}
	return nil
}
