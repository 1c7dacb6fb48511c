package services

import (
	"context"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/events"
	"github.com/bardan8586/Fancy-Enterprise/mailer"
	"github.com/bardan8586/Fancy-Enterprise/models"
	awspkg "github.com/bardan8586/Fancy-Enterprise/pkg/aws"
	"github.com/bardan8586/Fancy-Enterprise/repository"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// orderNotifier fans an order change out to the event bus, the customer's
// inbox and CloudWatch. Every step is best-effort: failures are logged and
// never reach the caller.
type orderNotifier struct {
	publisher events.Publisher
	mail      Mailer
	users     repository.UserRepository
	metrics   awspkg.MetricsRecorder
	logger    *zap.Logger
}

func (n *orderNotifier) publish(ctx context.Context, eventType string, order *models.Order) {
	if n.publisher == nil {
		return
	}
	evt := models.OrderEvent{
		Type:       eventType,
		OrderID:    order.ID.Hex(),
		UserID:     order.User.Hex(),
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		Timestamp:  time.Now().UTC(),
	}
	if order.Checkout != nil {
		evt.CheckoutID = order.Checkout.Hex()
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := n.publisher.Publish(pubCtx, evt); err != nil {
		n.logger.Error("failed to publish order event",
			zap.String("type", eventType),
			zap.String("order_id", evt.OrderID),
			zap.Error(err),
		)
	}
}

func (n *orderNotifier) mailCustomer(ctx context.Context, template string, order *models.Order) {
	if n.mail == nil || n.users == nil {
		return
	}
	user, err := n.users.FindByID(ctx, order.User)
	if err != nil {
		n.logger.Warn("order mail skipped, customer lookup failed",
			zap.String("order_id", order.ID.Hex()),
			zap.Error(err),
		)
		return
	}

	var msg mailer.Message
	if template == models.TemplateOrderConfirmation {
		msg, err = mailer.OrderConfirmation(order)
	} else {
		msg, err = mailer.OrderStatus(order)
	}
	if err != nil {
		n.logger.Error("failed to render order mail", zap.String("template", template), zap.Error(err))
		return
	}
	n.mail.SendAsync(template, user.Email, msg)
}

func (n *orderNotifier) count(ctx context.Context, metric string, dims map[string]string) {
	if n.metrics == nil {
		return
	}
	if err := n.metrics.RecordCount(ctx, metric, dims); err != nil {
		n.logger.Debug("metric not recorded", zap.String("metric", metric), zap.Error(err))
	}
}
