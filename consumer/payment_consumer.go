package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/models"
	awspkg "github.com/bardan8586/Fancy-Enterprise/pkg/aws"
	"go.uber.org/zap"
)

// PaymentMarker is the checkout operation payment events drive.
type PaymentMarker interface {
	MarkPaidFromProvider(ctx context.Context, checkoutID string, details interface{}) (*models.Checkout, error)
}

// Poller delivers queue messages to a handler until ctx is cancelled.
type Poller interface {
	StartPolling(ctx context.Context, handler awspkg.MessageHandler) error
}

// snsEnvelope unwraps the SNS -> SQS message wrapper
type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// PaymentConsumer marks checkouts paid from payment_succeeded events.
type PaymentConsumer struct {
	checkouts PaymentMarker
	metrics   awspkg.MetricsRecorder
	logger    *zap.Logger
}

func NewPaymentConsumer(checkouts PaymentMarker, metrics awspkg.MetricsRecorder, logger *zap.Logger) *PaymentConsumer {
	if metrics == nil {
		metrics = awspkg.NopMetrics()
	}
	return &PaymentConsumer{checkouts: checkouts, metrics: metrics, logger: logger}
}

// Run blocks until ctx is cancelled.
func (pc *PaymentConsumer) Run(ctx context.Context, poller Poller) error {
	return poller.StartPolling(ctx, pc.Handle)
}

// Handle processes one message body. Messages that can never succeed are
// wrapped in awspkg.ErrPermanent so the poller deletes them; anything else
// is left on the queue for another attempt.
func (pc *PaymentConsumer) Handle(ctx context.Context, body string) error {
	event, err := decodePaymentEvent(body)
	if err != nil {
		pc.record(ctx, "unknown", "invalid")
		return fmt.Errorf("%w: %v", awspkg.ErrPermanent, err)
	}

	if event.Type != models.EventPaymentSucceeded {
		pc.logger.Debug("ignoring payment event", zap.String("type", event.Type))
		pc.record(ctx, event.Type, "ignored")
		return nil
	}
	if event.CheckoutID == "" {
		pc.record(ctx, event.Type, "invalid")
		return fmt.Errorf("%w: payment event without checkoutId", awspkg.ErrPermanent)
	}

	if _, err := pc.checkouts.MarkPaidFromProvider(ctx, event.CheckoutID, event.PaymentDetails); err != nil {
		if appErr, ok := apperrors.As(err); ok && appErr.Code < 500 {
			pc.record(ctx, event.Type, "rejected")
			return fmt.Errorf("%w: checkout %s: %s", awspkg.ErrPermanent, event.CheckoutID, appErr.Message)
		}
		pc.record(ctx, event.Type, "retry")
		return fmt.Errorf("mark checkout %s paid: %w", event.CheckoutID, err)
	}

	pc.logger.Info("checkout paid from queue", zap.String("checkout_id", event.CheckoutID))
	pc.record(ctx, event.Type, "processed")
	return nil
}

func (pc *PaymentConsumer) record(ctx context.Context, eventType, outcome string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := pc.metrics.RecordCount(ctx, awspkg.MetricSQSMessages, map[string]string{
		"Type":    eventType,
		"Outcome": outcome,
	}); err != nil {
		pc.logger.Debug("metric not recorded", zap.Error(err))
	}
}

// decodePaymentEvent accepts the event either raw or inside an SNS
// notification.
func decodePaymentEvent(body string) (*models.PaymentEvent, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("empty message body")
	}

	var envelope snsEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if envelope.Type == "Notification" && envelope.Message != "" {
		body = envelope.Message
	}

	var event models.PaymentEvent
	if err := json.Unmarshal([]byte(body), &event); err != nil {
		return nil, fmt.Errorf("decode payment event: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("payment event without type")
	}
	return &event, nil
}
