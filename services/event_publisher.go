package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis channels status events are published on
const (
	ChannelBespokeStatusChanged = "bespoke:status_changed"
	ChannelTaskStatusChanged    = "production_task:status_changed"
)

// StatusChangedEvent is emitted after a status change has been committed.
type StatusChangedEvent struct {
	EntityType  string    `json:"entity_type"`
	EntityID    uint      `json:"entity_id"`
	OrderID     uint      `json:"order_id"`
	OrderNumber string    `json:"order_number,omitempty"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	ChangedBy   uint      `json:"changed_by"`
	Note        string    `json:"note,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventPublisher fans committed changes out to other processes
type EventPublisher interface {
	Publish(ctx context.Context, channel string, event StatusChangedEvent) error
}

// RedisEventPublisher publishes events with Redis PUBLISH
type RedisEventPublisher struct {
	rdb *redis.Client
}

var eventPublisherInstance EventPublisher = NoopEventPublisher{}

// NewRedisEventPublisher connects to redisURL and checks the connection
func NewRedisEventPublisher(ctx context.Context, redisURL string) (*RedisEventPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisEventPublisher{rdb: rdb}, nil
}

// Publish encodes the event as JSON and publishes it on channel
func (p *RedisEventPublisher) Publish(ctx context.Context, channel string, event StatusChangedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.rdb.Publish(ctx, channel, payload).Err()
}

// Close closes the Redis connection
func (p *RedisEventPublisher) Close() error {
	return p.rdb.Close()
}

// NoopEventPublisher drops every event. Used when Redis is not configured.
type NoopEventPublisher struct{}

// Publish does nothing
func (NoopEventPublisher) Publish(context.Context, string, StatusChangedEvent) error {
	return nil
}

// GetEventPublisher returns the process-wide event publisher
func GetEventPublisher() EventPublisher {
	return eventPublisherInstance
}

// SetEventPublisher sets the process-wide event publisher
func SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = NoopEventPublisher{}
	}
	eventPublisherInstance = p
}
