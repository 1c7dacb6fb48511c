package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bardan8586/Fancy-Enterprise/models"
	awspkg "github.com/bardan8586/Fancy-Enterprise/pkg/aws"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher emits order lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, evt models.OrderEvent) error
	Close() error
}

// SNSPublisher fans order events out through an SNS topic.
type SNSPublisher struct {
	client   awspkg.SNSPublisher
	topicARN string
	logger   *zap.Logger
}

func NewSNSPublisher(client awspkg.SNSPublisher, topicARN string, logger *zap.Logger) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN, logger: logger}
}

func (p *SNSPublisher) Publish(ctx context.Context, evt models.OrderEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", evt.Type, err)
	}
	if err := p.client.Publish(ctx, p.topicARN, evt.Type, body); err != nil {
		return err
	}
	p.logger.Info("order event published",
		zap.String("bus", "sns"),
		zap.String("type", evt.Type),
		zap.String("order_id", evt.OrderID),
	)
	return nil
}

func (p *SNSPublisher) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes order events keyed by order id so a consumer sees
// one order's events in order.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	logger.Info("kafka order publisher initialized", zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &KafkaPublisher{writer: w, topic: topic, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt models.OrderEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", evt.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s to %s: %w", evt.Type, p.topic, err)
	}

	p.logger.Info("order event published",
		zap.String("bus", "kafka"),
		zap.String("type", evt.Type),
		zap.String("order_id", evt.OrderID),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.logger.Info("closing kafka order publisher", zap.String("topic", p.topic))
	return p.writer.Close()
}

// NopPublisher drops events. Used when EVENT_BUS=none.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.OrderEvent) error { return nil }
func (NopPublisher) Close() error                                      { return nil }
