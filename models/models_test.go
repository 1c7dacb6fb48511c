package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCartRecalculate(t *testing.T) {
	cart := &Cart{Products: []CartItem{
		{Price: 10.10, Quantity: 3},
		{Price: 0.2, Quantity: 1},
	}}
	cart.Recalculate()
	assert.Equal(t, 30.5, cart.TotalPrice)

	cart.Products = nil
	cart.Recalculate()
	assert.Equal(t, 0.0, cart.TotalPrice)
}

func TestIsPaidStatus(t *testing.T) {
	for _, s := range []string{"paid", "PAID", " Paid "} {
		assert.True(t, IsPaidStatus(s), s)
	}
	for _, s := range []string{"", "unknown", "pending", "paid!"} {
		assert.False(t, IsPaidStatus(s), s)
	}
}

func TestOrderTransitions(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusDelivered, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusProcessing, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
		{OrderStatusShipped, OrderStatusShipped, true},
		{OrderStatusShipped, "Lost", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransitionOrder(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.True(t, IsTerminalOrderStatus(OrderStatusDelivered))
	assert.True(t, IsTerminalOrderStatus(OrderStatusCancelled))
	assert.False(t, IsTerminalOrderStatus(OrderStatusProcessing))
}

func TestOrderFromCheckoutSnapshotsItems(t *testing.T) {
	paidAt := time.Now().Add(-time.Minute)
	co := &Checkout{
		ID:   primitive.NewObjectID(),
		User: primitive.NewObjectID(),
		CheckoutItems: []CheckoutItem{
			{ProductID: primitive.NewObjectID(), Name: "Tee", Price: 10, Quantity: 2},
		},
		PaymentMethod: PaymentMethodPayPal,
		TotalPrice:    20,
		IsPaid:        true,
		PaidAt:        &paidAt,
	}

	order := OrderFromCheckout(co, time.Now())

	assert.Equal(t, co.CheckoutItems, order.OrderItems)
	assert.Equal(t, co.ID, *order.Checkout)
	assert.True(t, order.IsPaid)
	assert.False(t, order.IsDelivered)
	assert.Equal(t, OrderStatusProcessing, order.Status)
	assert.Equal(t, &paidAt, order.PaidAt)

	order.OrderItems[0].Quantity = 99
	assert.Equal(t, 2, co.CheckoutItems[0].Quantity)
}

func TestAmountMinor(t *testing.T) {
	co := &Checkout{TotalPrice: 19.99}
	assert.Equal(t, int64(1999), co.AmountMinor())
}

func TestNewPageMeta(t *testing.T) {
	meta := NewPageMeta(1, 10, 25)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasMore)

	meta = NewPageMeta(3, 10, 25)
	assert.False(t, meta.HasMore)

	meta = NewPageMeta(1, 10, 0)
	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasMore)
}

func TestShippingAddressComplete(t *testing.T) {
	assert.False(t, (*ShippingAddress)(nil).Complete())
	assert.False(t, (&ShippingAddress{Address: "1 Main", City: " ", PostalCode: "1", Country: "NP"}).Complete())
	assert.True(t, (&ShippingAddress{Address: "1 Main", City: "Kathmandu", PostalCode: "44600", Country: "NP"}).Complete())
}
