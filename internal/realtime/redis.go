package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	logger_lib "github.com/s21platform/logger-lib"

	"github.com/agrilink/negotiation-service/internal/model"
)

// RedisPublisher fans events out to every service instance through Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, event model.RealtimeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	return nil
}

// Subscriber forwards every negotiation channel from Redis into the local hub.
type Subscriber struct {
	client *redis.Client
	hub    *Hub
	logger logger_lib.LoggerInterface
}

func NewSubscriber(client *redis.Client, hub *Hub, logger logger_lib.LoggerInterface) *Subscriber {
	return &Subscriber{client: client, hub: hub, logger: logger}
}

func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.client.PSubscribe(ctx, model.NegotiationChannelPrefix+"*")
	defer pubsub.Close() //nolint:errcheck // .

	if _, err := pubsub.Receive(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("failed to subscribe to negotiation channels: %w", err)
	}
	s.logger.Info("subscribed to negotiation channels")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.hub.Dispatch(ctx, msg.Channel, []byte(msg.Payload))
		}
	}
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event model.RealtimeEvent) error
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, channel string, event model.RealtimeEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, channel, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
