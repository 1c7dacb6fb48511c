package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PaymentMethodPayPal     = "PayPal"
	PaymentMethodCreditCard = "Credit Card"
	PaymentMethodStripe     = "Stripe"

	PaymentStatusPending = "Pending"
	PaymentStatusPaid    = "paid"

	// FallbackItemImage is used when a checkout line has no image and the
	// product has none either.
	FallbackItemImage = "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=800&q=80"
	FallbackItemName  = "Product"
)

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodPayPal, PaymentMethodCreditCard, PaymentMethodStripe:
		return true
	}
	return false
}

// IsPaidStatus compares a client supplied payment status with "paid",
// ignoring case and surrounding whitespace.
func IsPaidStatus(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), PaymentStatusPaid)
}

type ShippingAddress struct {
	Address    string `json:"address" bson:"address"`
	City       string `json:"city" bson:"city"`
	PostalCode string `json:"postalCode" bson:"postalCode"`
	Country    string `json:"country" bson:"country"`
}

// Complete reports whether all four fields are non-blank.
func (a *ShippingAddress) Complete() bool {
	return a != nil &&
		strings.TrimSpace(a.Address) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.PostalCode) != "" &&
		strings.TrimSpace(a.Country) != ""
}

type CheckoutItem struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Name      string             `json:"name" bson:"name"`
	Image     string             `json:"image" bson:"image"`
	Price     float64            `json:"price" bson:"price"`
	Size      string             `json:"size,omitempty" bson:"size,omitempty"`
	Color     string             `json:"color,omitempty" bson:"color,omitempty"`
	Quantity  int                `json:"quantity" bson:"quantity"`
}

type Checkout struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	User            primitive.ObjectID `json:"user" bson:"user"`
	CheckoutItems   []CheckoutItem     `json:"checkoutItems" bson:"checkoutItems"`
	ShippingAddress ShippingAddress    `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod" bson:"paymentMethod"`
	TotalPrice      float64            `json:"totalPrice" bson:"totalPrice"`
	IsPaid          bool               `json:"isPaid" bson:"isPaid"`
	PaidAt          *time.Time         `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	PaymentStatus   string             `json:"paymentStatus" bson:"paymentStatus"`
	PaymentDetails  interface{}        `json:"paymentDetails,omitempty" bson:"paymentDetails,omitempty"`
	IsFinalized     bool               `json:"isFinalized" bson:"isFinalized"`
	FinalizedAt     *time.Time         `json:"finalizedAt,omitempty" bson:"finalizedAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// AmountMinor converts the total to the smallest currency unit.
func (c *Checkout) AmountMinor() int64 {
	return decimal.NewFromFloat(c.TotalPrice).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CheckoutItemInput is lenient: missing fields are backfilled by the
// service rather than rejected.
type CheckoutItemInput struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity"`
}

type CreateCheckoutRequest struct {
	CheckoutItems   []CheckoutItemInput `json:"checkoutItems"`
	ShippingAddress *ShippingAddress    `json:"shippingAddress"`
	PaymentMethod   string              `json:"paymentMethod"`
	TotalPrice      float64             `json:"totalPrice"`
}

type PayCheckoutRequest struct {
	PaymentStatus  string      `json:"paymentStatus"`
	PaymentDetails interface{} `json:"paymentDetails"`
}

type PaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}
