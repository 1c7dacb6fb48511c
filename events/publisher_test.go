package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSNS struct {
	topics []string
	types  []string
	bodies [][]byte
	err    error
}

func (m *mockSNS) Publish(_ context.Context, topicArn, eventType string, message []byte) error {
	if m.err != nil {
		return m.err
	}
	m.topics = append(m.topics, topicArn)
	m.types = append(m.types, eventType)
	m.bodies = append(m.bodies, message)
	return nil
}

type mockWriter struct {
	msgs   []kafka.Message
	closed bool
	err    error
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func sampleEvent() models.OrderEvent {
	return models.OrderEvent{
		Type:       models.EventOrderCreated,
		OrderID:    "o1",
		UserID:     "u1",
		CheckoutID: "c1",
		Status:     models.OrderStatusProcessing,
		TotalPrice: 20,
		Timestamp:  time.Now().UTC(),
	}
}

func TestSNSPublisherPublishes(t *testing.T) {
	sns := &mockSNS{}
	p := NewSNSPublisher(sns, "arn:aws:sns:us-east-1:000000000000:orders", zap.NewNop())

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.Equal(t, []string{"arn:aws:sns:us-east-1:000000000000:orders"}, sns.topics)
	assert.Equal(t, []string{models.EventOrderCreated}, sns.types)

	var decoded models.OrderEvent
	require.NoError(t, json.Unmarshal(sns.bodies[0], &decoded))
	assert.Equal(t, "o1", decoded.OrderID)
	assert.Equal(t, 20.0, decoded.TotalPrice)
}

func TestSNSPublisherPropagatesError(t *testing.T) {
	p := NewSNSPublisher(&mockSNS{err: errors.New("throttled")}, "arn", zap.NewNop())
	assert.Error(t, p.Publish(context.Background(), sampleEvent()))
}

func TestKafkaPublisherKeysByOrder(t *testing.T) {
	w := &mockWriter{}
	p := &KafkaPublisher{writer: w, topic: "orders.events", logger: zap.NewNop()}

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("o1"), w.msgs[0].Key)
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)
	assert.Equal(t, []byte(models.EventOrderCreated), w.msgs[0].Headers[0].Value)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &mockWriter{err: errors.New("no brokers")}, topic: "orders.events", logger: zap.NewNop()}
	err := p.Publish(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "orders.events")
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.NoError(t, p.Close())
}
