package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type relayMessage struct {
	Event    Event    `json:"event"`
	Audience Audience `json:"audience"`
}

// RedisRelay shares events between API instances over a redis channel.
// Every instance publishes through the relay and delivers what it receives
// to its own hub, including the events it published itself.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     *zap.Logger
}

func NewRedisRelay(client *redis.Client, channel string, hub *Hub, log *zap.Logger) *RedisRelay {
	return &RedisRelay{
		client:  client,
		channel: channel,
		hub:     hub,
		log:     log,
	}
}

func encode(evt Event) ([]byte, error) {
	return json.Marshal(relayMessage{Event: evt, Audience: evt.Audience})
}

func decode(payload []byte) (Event, error) {
	var msg relayMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Event{}, err
	}
	msg.Event.Audience = msg.Audience
	return msg.Event, nil
}

// Publish sends evt to every instance subscribed to the channel.
func (r *RedisRelay) Publish(ctx context.Context, evt Event) error {
	payload, err := encode(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Run delivers relayed events to the local hub until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.log.Info("event relay subscribed", zap.String("channel", r.channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.handle([]byte(msg.Payload))
		}
	}
}

func (r *RedisRelay) handle(payload []byte) {
	evt, err := decode(payload)
	if err != nil {
		r.log.Warn("dropping malformed relayed event", zap.Error(err))
		return
	}
	r.hub.Deliver(evt)
}
