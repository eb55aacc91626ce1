package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel shared by every API instance.
const DefaultChannel = "hotel_events"

// RedisPublisher publishes events on a Redis channel so that every API
// instance can relay them to its own websocket clients.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", ev.Type, err)
	}
	return nil
}

// Relay subscribes to the channel and hands each event to local until ctx
// is cancelled. Malformed messages are logged and skipped.
func (p *RedisPublisher) Relay(ctx context.Context, local Publisher) error {
	pubsub := p.client.Subscribe(ctx, p.channel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before reading.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", p.channel, err)
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
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("WARNING: drop malformed event on %s: %v", p.channel, err)
				continue
			}
			if err := local.Publish(ctx, ev); err != nil {
				log.Printf("ERROR: relay event %s: %v", ev.Type, err)
			}
		}
	}
}
