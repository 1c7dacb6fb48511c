package models

import "time"

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusUpdated = "order_status_updated"
	EventOrderDeleted       = "order_deleted"

	EventPaymentSucceeded = "payment_succeeded"
)

// OrderEvent is published whenever an order is created, changes status or
// is removed.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	CheckoutID string    `json:"checkoutId,omitempty"`
	Status     string    `json:"status,omitempty"`
	TotalPrice float64   `json:"totalPrice"`
	Timestamp  time.Time `json:"timestamp"`
}

// PaymentEvent arrives on the payment events queue.
type PaymentEvent struct {
	Type           string      `json:"type"`
	CheckoutID     string      `json:"checkoutId"`
	PaymentDetails interface{} `json:"paymentDetails"`
}
