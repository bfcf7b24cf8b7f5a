package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
	"github.com/haphazard/site/internal/infrastructure/eventbus"
)

const channelPrefix = "auth:events:"

// envelope is the wire form of one published notification.
type envelope struct {
	Origin string           `json:"origin"`
	Event  domain.AuthEvent `json:"event"`
}

// EventBus fans auth notifications out across replicas. Local listeners are
// called synchronously before Publish returns; other replicas receive the
// event through PSUBSCRIBE.
type EventBus struct {
	client *redis.Client
	local  *eventbus.Local
	origin string
	log    zerolog.Logger
}

var _ ports.AuthEventBus = (*EventBus)(nil)

// NewEventBus creates an EventBus. Call Run to receive remote events.
func NewEventBus(client *redis.Client, log zerolog.Logger) *EventBus {
	return &EventBus{
		client: client,
		local:  eventbus.NewLocal(),
		origin: uuid.NewString(),
		log:    log,
	}
}

// Publish delivers locally, then to the other replicas. The returned error
// only concerns the remote leg.
func (b *EventBus) Publish(ctx context.Context, sessionID string, event domain.AuthEvent) error {
	b.local.Dispatch(sessionID, event)

	data, err := json.Marshal(envelope{Origin: b.origin, Event: event})
	if err != nil {
		return fmt.Errorf("publish auth event: marshal: %w", err)
	}
	if err := b.client.Publish(ctx, channelPrefix+sessionID, data).Err(); err != nil {
		return fmt.Errorf("publish auth event: %w", err)
	}
	return nil
}

// Subscribe registers fn for sessionID on this replica.
func (b *EventBus) Subscribe(sessionID string, fn func(domain.AuthEvent)) ports.Subscription {
	return b.local.Subscribe(sessionID, fn)
}

// Run relays events published by other replicas until ctx is cancelled.
func (b *EventBus) Run(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe auth events: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.deliver(msg)
		}
	}
}

func (b *EventBus) deliver(msg *redis.Message) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		b.log.Warn().Err(err).Str("channel", msg.Channel).Msg("malformed auth event dropped")
		return
	}
	if env.Origin == b.origin {
		return
	}
	sessionID := strings.TrimPrefix(msg.Channel, channelPrefix)
	b.local.Dispatch(sessionID, env.Event)
}
