package checkout

import (
	"context"
	"fmt"

	kafkalib "github.com/s21platform/kafka-lib"

	"github.com/agrilink/negotiation-service/internal/config"
	"github.com/agrilink/negotiation-service/internal/model"
)

type messageProducer interface {
	ProduceMessage(ctx context.Context, message any, key any) error
	Close() error
}

// Producer hands accepted negotiations over to the cart service.
type Producer struct {
	producer messageProducer
}

func NewProducer(cfg *config.Config) *Producer {
	producerConfig := kafkalib.DefaultProducerConfig(cfg.Kafka.Host, cfg.Kafka.Port, cfg.Kafka.CheckoutTopic)

	return &Producer{
		producer: kafkalib.NewProducer(producerConfig),
	}
}

// Publish writes the handoff keyed by negotiation id.
func (p *Producer) Publish(ctx context.Context, handoff model.CheckoutHandoff) error {
	if err := p.producer.ProduceMessage(ctx, handoff, handoff.NegotiationID); err != nil {
		return fmt.Errorf("failed to produce checkout handoff: %w", err)
	}

	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
