// Package realtime streams registration and check-in events to connected
// admin dashboards. Events travel through a Redis channel so every
// instance's websocket clients see writes made on any instance.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	eventChannel   = "ticketing:events"
	publishTimeout = 5 * time.Second
)

// envelope is the message published to Redis for cross-instance broadcast.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    int64           `json:"at"`
}

// PubSub bridges event producers and the hub over Redis pub/sub.
type PubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewPubSub creates a Redis pub/sub bridge for ticketing events.
func NewPubSub(client *redis.Client, logger *zap.Logger) *PubSub {
	return &PubSub{client: client, logger: logger}
}

// Publish sends an event to the shared Redis channel.
func (p *PubSub) Publish(ctx context.Context, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	body, err := json.Marshal(envelope{Event: event, Data: data, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return p.client.Publish(ctx, eventChannel, body).Err()
}

// Subscribe listens on the shared channel and calls handler for each
// message. Returns a cancel function to stop the subscription.
func (p *PubSub) Subscribe(handler func(event string, payload json.RawMessage)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := p.client.Subscribe(ctx, eventChannel)
	if _, err = pubsub.Receive(ctx); err != nil {
		cancelCtx()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var e envelope
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					p.logger.Warn("malformed event payload", zap.Error(err))
					continue
				}
				handler(e.Event, e.Data)
			}
		}
	}()
	return func() { cancelCtx() }, nil
}
