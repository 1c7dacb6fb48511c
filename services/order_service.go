package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/events"
	"github.com/bardan8586/Fancy-Enterprise/models"
	awspkg "github.com/bardan8586/Fancy-Enterprise/pkg/aws"
	"github.com/bardan8586/Fancy-Enterprise/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const orderNotFoundMessage = "Order not found"

type OrderListResponse struct {
	Orders []models.Order  `json:"orders"`
	Meta   models.PageMeta `json:"meta"`
}

type OrderServiceDeps struct {
	Orders    repository.OrderRepository
	Users     repository.UserRepository
	Publisher events.Publisher
	Mail      Mailer
	Metrics   awspkg.MetricsRecorder
	Logger    *zap.Logger
}

type OrderService struct {
	orders   repository.OrderRepository
	notifier *orderNotifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrderService(d OrderServiceDeps) *OrderService {
	return &OrderService{
		orders: d.Orders,
		notifier: &orderNotifier{
			publisher: d.Publisher,
			mail:      d.Mail,
			users:     d.Users,
			metrics:   d.Metrics,
			logger:    d.Logger,
		},
		logger: d.Logger,
		now:    time.Now,
	}
}

// MyOrders returns the requester's orders, newest first.
func (s *OrderService) MyOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	orders, err := s.orders.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to fetch user orders", zap.String("user_id", userID.Hex()), zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, req Requester, idHex string) (*models.Order, error) {
	order, err := s.find(ctx, idHex)
	if err != nil {
		return nil, err
	}
	if !req.Owns(order.User) {
		return nil, apperrors.Forbidden("Not authorized to view this order")
	}
	return order, nil
}

// Create stores an order placed directly, outside the checkout flow. Such
// orders start unpaid.
func (s *OrderService) Create(ctx context.Context, userID primitive.ObjectID, body models.CreateOrderRequest) (*models.Order, error) {
	if len(body.OrderItems) == 0 {
		return nil, apperrors.Validation("No order items provided")
	}

	items := make([]models.OrderItem, 0, len(body.OrderItems))
	for _, in := range body.OrderItems {
		productID, err := primitive.ObjectIDFromHex(in.ProductID)
		if err != nil {
			return nil, apperrors.Validation("Invalid product in order items")
		}
		item := models.OrderItem{
			ProductID: productID,
			Name:      strings.TrimSpace(in.Name),
			Image:     in.Image,
			Price:     in.Price,
			Size:      in.Size,
			Color:     in.Color,
			Quantity:  in.Quantity,
		}
		if item.Name == "" {
			item.Name = models.FallbackItemName
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		items = append(items, item)
	}

	now := s.now().UTC()
	order := &models.Order{
		User:            userID,
		OrderItems:      items,
		ShippingAddress: body.ShippingAddress,
		PaymentMethod:   body.PaymentMethod,
		ShippingPrice:   body.ShippingPrice,
		TaxPrice:        body.TaxPrice,
		TotalPrice:      body.TotalPrice,
		IsPaid:          false,
		IsDelivered:     false,
		Status:          models.OrderStatusProcessing,
		PaymentStatus:   models.PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if body.ItemsPrice != nil {
		order.ItemsPrice = *body.ItemsPrice
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("failed to create order", zap.String("user_id", userID.Hex()), zap.Error(err))
		return nil, apperrors.Internal("Failed to create order", err)
	}

	s.notifier.publish(ctx, models.EventOrderCreated, order)
	s.notifier.count(ctx, awspkg.MetricOrdersCreated, map[string]string{"Source": "direct"})
	return order, nil
}

func (s *OrderService) AdminList(ctx context.Context, page, limit int) (*OrderListResponse, error) {
	page, limit = NormalizePage(page, limit)
	orders, total, err := s.orders.List(ctx, page, limit)
	if err != nil {
		s.logger.Error("failed to fetch all orders", zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return &OrderListResponse{Orders: orders, Meta: models.NewPageMeta(page, limit, total)}, nil
}

// UpdateStatus moves an order along Processing -> Shipped -> Delivered, with
// Cancelled reachable until delivery. Delivered and Cancelled are final.
func (s *OrderService) UpdateStatus(ctx context.Context, idHex, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, apperrors.Validation("Invalid order status")
	}
	order, err := s.find(ctx, idHex)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if !models.CanTransitionOrder(order.Status, status) {
		return nil, apperrors.Conflict("Cannot change order status from " + order.Status + " to " + status)
	}

	previous := order.Status
	now := s.now().UTC()
	order.Status = status
	order.UpdatedAt = now
	if status == models.OrderStatusDelivered {
		order.IsDelivered = true
		order.DeliveredAt = &now
	}

	if err := s.orders.UpdateStatus(ctx, order, previous); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Conflict("Order was modified concurrently, please retry")
		}
		return nil, apperrors.Internal("Failed to update order", err)
	}

	s.logger.Info("order status updated",
		zap.String("order_id", order.ID.Hex()),
		zap.String("from", previous),
		zap.String("to", status),
	)
	s.notifier.publish(ctx, models.EventOrderStatusUpdated, order)
	s.notifier.mailCustomer(ctx, models.TemplateOrderStatus, order)
	if status == models.OrderStatusCancelled {
		s.notifier.count(ctx, awspkg.MetricOrdersCancelled, nil)
	}
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, idHex string) error {
	order, err := s.find(ctx, idHex)
	if err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, order.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(orderNotFoundMessage)
		}
		return apperrors.Internal("Failed to delete order", err)
	}

	s.logger.Info("order deleted", zap.String("order_id", order.ID.Hex()))
	s.notifier.publish(ctx, models.EventOrderDeleted, order)
	return nil
}

func (s *OrderService) find(ctx context.Context, idHex string) (*models.Order, error) {
	id, err := parseObjectID(idHex, orderNotFoundMessage)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(orderNotFoundMessage)
		}
		s.logger.Error("failed to fetch order", zap.String("order_id", idHex), zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch order", err)
	}
	return order, nil
}
