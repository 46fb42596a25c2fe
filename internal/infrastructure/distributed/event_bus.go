package distributed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chatlink/internal/core/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventType represents the type of event
type EventType string

const (
	EventUserOnline  EventType = "user.online"
	EventUserOffline EventType = "user.offline"
)

// Event represents a presence change announced between coordinator
// instances.
type Event struct {
	Type       EventType     `json:"type"`
	InstanceID string        `json:"instance_id"`
	Timestamp  time.Time     `json:"timestamp"`
	UserID     domain.UserID `json:"user_id"`
}

// EventBus announces presence changes over Redis pub/sub so coordinator
// instances can observe each other's registry changes.
type EventBus struct {
	client     *redis.Client
	instanceID string
	logger     *zap.SugaredLogger
	pubsub     *redis.PubSub
	channel    string
}

// NewEventBus creates a new event bus
func NewEventBus(client *redis.Client, instanceID string, logger *zap.SugaredLogger) *EventBus {
	return &EventBus{
		client:     client,
		instanceID: instanceID,
		logger:     logger,
		channel:    "chatlink:presence:events",
	}
}

// Publish publishes an event to the event bus
func (eb *EventBus) Publish(ctx context.Context, event *Event) error {
	event.InstanceID = eb.instanceID
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := eb.client.Publish(ctx, eb.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	eb.logger.Debugw("published presence event",
		"type", event.Type,
		"user_id", event.UserID,
	)

	return nil
}

// PublishOnline announces that identity came online on this instance.
// Failures are logged, not returned: the bus is advisory and must never
// block the connect path.
func (eb *EventBus) PublishOnline(ctx context.Context, identity domain.UserID) {
	if err := eb.Publish(ctx, &Event{Type: EventUserOnline, UserID: identity}); err != nil {
		eb.logger.Warnw("failed to publish online event", "user_id", identity, "error", err)
	}
}

// PublishOffline announces that identity went offline on this instance.
func (eb *EventBus) PublishOffline(ctx context.Context, identity domain.UserID) {
	if err := eb.Publish(ctx, &Event{Type: EventUserOffline, UserID: identity}); err != nil {
		eb.logger.Warnw("failed to publish offline event", "user_id", identity, "error", err)
	}
}

// Subscribe blocks, calling handler for each event published by other
// instances. Events from this instance are skipped.
func (eb *EventBus) Subscribe(ctx context.Context, handler func(*Event) error) error {
	if eb.pubsub != nil {
		return fmt.Errorf("already subscribed")
	}

	eb.pubsub = eb.client.Subscribe(ctx, eb.channel)
	defer eb.pubsub.Close()

	ch := eb.pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-ch:
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				eb.logger.Warnw("failed to unmarshal event",
					"error", err,
					"payload", msg.Payload,
				)
				continue
			}

			if event.InstanceID == eb.instanceID {
				continue
			}

			if err := handler(&event); err != nil {
				eb.logger.Warnw("error handling event",
					"type", event.Type,
					"error", err,
				)
			}
		}
	}
}

// Close closes the event bus
func (eb *EventBus) Close() error {
	if eb.pubsub != nil {
		return eb.pubsub.Close()
	}
	return nil
}
