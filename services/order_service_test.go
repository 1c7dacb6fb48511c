package services

import (
	"context"
	"testing"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/models"
	awspkg "github.com/bardan8586/Fancy-Enterprise/pkg/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type orderFixture struct {
	svc       *OrderService
	orders    *memOrders
	publisher *recordingPublisher
	mail      *MockMailer
	metrics   *countingMetrics
	user      models.User
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	users := newMemUsers()
	user := models.User{Name: "Ana", Email: "ana@example.com", Role: models.RoleCustomer}
	require.NoError(t, users.Create(context.Background(), &user))

	f := &orderFixture{
		orders:    newMemOrders(),
		publisher: &recordingPublisher{},
		mail:      new(MockMailer),
		metrics:   newCountingMetrics(),
		user:      user,
	}
	f.mail.On("SendAsync", models.TemplateOrderStatus, user.Email, mock.Anything).Return().Maybe()
	f.svc = NewOrderService(OrderServiceDeps{
		Orders:    f.orders,
		Users:     users,
		Publisher: f.publisher,
		Mail:      f.mail,
		Metrics:   f.metrics,
		Logger:    zap.NewNop(),
	})
	return f
}

func (f *orderFixture) seed(t *testing.T, status string, createdAt time.Time) models.Order {
	t.Helper()
	o := models.Order{
		User:       f.user.ID,
		OrderItems: []models.OrderItem{{ProductID: primitive.NewObjectID(), Name: "Tee", Price: 10, Quantity: 1}},
		TotalPrice: 10,
		Status:     status,
		CreatedAt:  createdAt,
	}
	require.NoError(t, f.orders.Create(context.Background(), &o))
	return o
}

func TestOrderCreate(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.Create(context.Background(), f.user.ID, models.CreateOrderRequest{})
	assertAppError(t, err, apperrors.KindValidation, "No order items provided")

	order, err := f.svc.Create(context.Background(), f.user.ID, models.CreateOrderRequest{
		OrderItems:    []models.CheckoutItemInput{{ProductID: primitive.NewObjectID().Hex(), Name: "Tee", Price: 10, Quantity: 2}},
		PaymentMethod: models.PaymentMethodCreditCard,
		ShippingPrice: 5,
		TotalPrice:    25,
	})
	require.NoError(t, err)
	assert.False(t, order.IsPaid)
	assert.False(t, order.IsDelivered)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, 5.0, order.ShippingPrice)
	assert.Equal(t, []string{models.EventOrderCreated}, f.publisher.types())
}

func TestOrderGet_Authorization(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seed(t, models.OrderStatusProcessing, time.Now())
	ctx := context.Background()

	got, err := f.svc.Get(ctx, Requester{UserID: f.user.ID}, order.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.svc.Get(ctx, Requester{UserID: primitive.NewObjectID()}, order.ID.Hex())
	assertAppError(t, err, apperrors.KindForbidden, "Not authorized to view this order")

	_, err = f.svc.Get(ctx, Requester{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}, order.ID.Hex())
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, Requester{UserID: f.user.ID}, primitive.NewObjectID().Hex())
	assertAppError(t, err, apperrors.KindNotFound, "Order not found")
}

func TestOrderMyOrders_NewestFirst(t *testing.T) {
	f := newOrderFixture(t)
	now := time.Now()
	older := f.seed(t, models.OrderStatusProcessing, now.Add(-time.Hour))
	newer := f.seed(t, models.OrderStatusProcessing, now)

	orders, err := f.svc.MyOrders(context.Background(), f.user.ID)

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)
}

func TestOrderUpdateStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to string
		allowed  bool
	}{
		{models.OrderStatusProcessing, models.OrderStatusShipped, true},
		{models.OrderStatusProcessing, models.OrderStatusCancelled, true},
		{models.OrderStatusShipped, models.OrderStatusDelivered, true},
		{models.OrderStatusProcessing, models.OrderStatusDelivered, false},
		{models.OrderStatusDelivered, models.OrderStatusCancelled, false},
		{models.OrderStatusCancelled, models.OrderStatusProcessing, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			f := newOrderFixture(t)
			order := f.seed(t, tt.from, time.Now())

			updated, err := f.svc.UpdateStatus(context.Background(), order.ID.Hex(), tt.to)

			if !tt.allowed {
				assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
				stored, _ := f.orders.FindByID(context.Background(), order.ID)
				assert.Equal(t, tt.from, stored.Status)
				assert.Empty(t, f.publisher.types())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, updated.Status)
			assert.Equal(t, []string{models.EventOrderStatusUpdated}, f.publisher.types())
		})
	}
}

func TestOrderUpdateStatus_DeliveredStampsAndCancelCounts(t *testing.T) {
	f := newOrderFixture(t)
	shipped := f.seed(t, models.OrderStatusShipped, time.Now())
	processing := f.seed(t, models.OrderStatusProcessing, time.Now())
	ctx := context.Background()

	delivered, err := f.svc.UpdateStatus(ctx, shipped.ID.Hex(), models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	assert.NotNil(t, delivered.DeliveredAt)

	same, err := f.svc.UpdateStatus(ctx, shipped.ID.Hex(), models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, same.Status)

	_, err = f.svc.UpdateStatus(ctx, processing.ID.Hex(), models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 1, f.metrics.get(awspkg.MetricOrdersCancelled))

	_, err = f.svc.UpdateStatus(ctx, processing.ID.Hex(), "Lost")
	assertAppError(t, err, apperrors.KindValidation, "Invalid order status")
}

func TestOrderAdminListAndDelete(t *testing.T) {
	f := newOrderFixture(t)
	for i := 0; i < 3; i++ {
		f.seed(t, models.OrderStatusProcessing, time.Now())
	}
	ctx := context.Background()

	page, err := f.svc.AdminList(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Orders, 2)
	assert.Equal(t, int64(3), page.Meta.Total)
	assert.Equal(t, 2, page.Meta.TotalPages)
	assert.True(t, page.Meta.HasMore)

	victim := page.Orders[0]
	require.NoError(t, f.svc.Delete(ctx, victim.ID.Hex()))
	err = f.svc.Delete(ctx, victim.ID.Hex())
	assertAppError(t, err, apperrors.KindNotFound, "Order not found")
	assert.Contains(t, f.publisher.types(), models.EventOrderDeleted)
}
