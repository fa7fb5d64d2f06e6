// Package distributed relays session events between portal instances over
// Redis pub/sub, so a websocket client connected to one instance still sees
// events produced on another.
package distributed

import (
	"context"
	"encoding/json"
	"fmt"

	"mswdportal/internal/core/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventsChannel = "mswd:events"

type envelope struct {
	InstanceID string              `json:"instance_id"`
	Event      domain.SessionEvent `json:"event"`
}

// SessionEventBus fans session events out to every portal instance. Events
// published here come back tagged with the sender's instance id; each
// instance drops its own echoes.
type SessionEventBus struct {
	client     *redis.Client
	instanceID string
	logger     *zap.SugaredLogger
	pubsub     *redis.PubSub
}

func NewSessionEventBus(client *redis.Client, instanceID string, logger *zap.SugaredLogger) *SessionEventBus {
	return &SessionEventBus{
		client:     client,
		instanceID: instanceID,
		logger:     logger,
	}
}

// Publish broadcasts a local session event. It is fire-and-forget so it
// can sit directly on the session manager's listener list.
func (b *SessionEventBus) Publish(ev domain.SessionEvent) {
	data, err := json.Marshal(envelope{InstanceID: b.instanceID, Event: ev})
	if err != nil {
		b.logger.Warnw("failed to marshal session event", "error", err)
		return
	}

	if err := b.client.Publish(context.Background(), eventsChannel, data).Err(); err != nil {
		b.logger.Warnw("failed to publish session event",
			"type", ev.Type,
			"error", err,
		)
	}
}

// Subscribe delivers events from other instances to handler until ctx is
// done. It blocks and is meant to run on its own goroutine.
func (b *SessionEventBus) Subscribe(ctx context.Context, handler func(domain.SessionEvent)) error {
	if b.pubsub != nil {
		return fmt.Errorf("already subscribed")
	}

	b.pubsub = b.client.Subscribe(ctx, eventsChannel)
	defer b.pubsub.Close()

	ch := b.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warnw("failed to unmarshal session event", "error", err)
				continue
			}
			if env.InstanceID == b.instanceID {
				continue
			}

			handler(env.Event)
		}
	}
}

func (b *SessionEventBus) Close() error {
	if b.pubsub != nil {
		return b.pubsub.Close()
	}
	return nil
}
