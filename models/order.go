package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

// orderTransitions lists the statuses each status may move to.
var orderTransitions = map[string][]string{
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  nil,
	OrderStatusCancelled:  nil,
}

func ValidOrderStatus(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminalOrderStatus reports whether no further transition is allowed.
func IsTerminalOrderStatus(s string) bool {
	return len(orderTransitions[s]) == 0
}

// CanTransitionOrder reports whether from -> to is allowed. Setting the
// current status again is allowed and treated as a no-op by callers.
func CanTransitionOrder(from, to string) bool {
	if from == to {
		return ValidOrderStatus(to)
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type OrderItem = CheckoutItem

type Order struct {
	ID              primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	User            primitive.ObjectID  `json:"user" bson:"user"`
	Checkout        *primitive.ObjectID `json:"checkout,omitempty" bson:"checkout,omitempty"`
	OrderItems      []OrderItem         `json:"orderItems" bson:"orderItems"`
	ShippingAddress ShippingAddress     `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMethod   string              `json:"paymentMethod" bson:"paymentMethod"`
	ItemsPrice      float64             `json:"itemsPrice,omitempty" bson:"itemsPrice,omitempty"`
	ShippingPrice   float64             `json:"shippingPrice" bson:"shippingPrice"`
	TaxPrice        float64             `json:"taxPrice" bson:"taxPrice"`
	TotalPrice      float64             `json:"totalPrice" bson:"totalPrice"`
	IsPaid          bool                `json:"isPaid" bson:"isPaid"`
	PaidAt          *time.Time          `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	IsDelivered     bool                `json:"isDelivered" bson:"isDelivered"`
	DeliveredAt     *time.Time          `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	Status          string              `json:"status" bson:"status"`
	PaymentStatus   string              `json:"paymentStatus,omitempty" bson:"paymentStatus,omitempty"`
	PaymentDetails  interface{}         `json:"paymentDetails,omitempty" bson:"paymentDetails,omitempty"`
	CreatedAt       time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// OrderFromCheckout snapshots a paid checkout into a new order.
func OrderFromCheckout(c *Checkout, now time.Time) *Order {
	items := make([]OrderItem, len(c.CheckoutItems))
	copy(items, c.CheckoutItems)

	checkoutID := c.ID
	return &Order{
		ID:              primitive.NewObjectID(),
		User:            c.User,
		Checkout:        &checkoutID,
		OrderItems:      items,
		ShippingAddress: c.ShippingAddress,
		PaymentMethod:   c.PaymentMethod,
		TotalPrice:      c.TotalPrice,
		IsPaid:          true,
		PaidAt:          c.PaidAt,
		IsDelivered:     false,
		Status:          OrderStatusProcessing,
		PaymentStatus:   PaymentStatusPaid,
		PaymentDetails:  c.PaymentDetails,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

type CreateOrderRequest struct {
	OrderItems      []CheckoutItemInput `json:"orderItems"`
	ShippingAddress ShippingAddress     `json:"shippingAddress"`
	PaymentMethod   string              `json:"paymentMethod"`
	ItemsPrice      *float64            `json:"itemsPrice"`
	ShippingPrice   float64             `json:"shippingPrice" binding:"gte=0"`
	TaxPrice        float64             `json:"taxPrice" binding:"gte=0"`
	TotalPrice      float64             `json:"totalPrice" binding:"gte=0"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Processing Shipped Delivered Cancelled"`
}
