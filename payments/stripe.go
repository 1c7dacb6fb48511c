package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
)

var (
	ErrNotConfigured = errors.New("stripe is not configured")
	// ErrInvalidSignature marks deliveries that did not come from Stripe.
	ErrInvalidSignature = errors.New("invalid stripe signature")
	// ErrUnmatchedIntent marks a verified payment that no checkout started.
	ErrUnmatchedIntent = errors.New("payment intent has no checkout")
)

type IntentRequest struct {
	CheckoutID  string
	UserID      string
	AmountMinor int64
	Currency    string
}

type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
}

// Succeeded is what a verified payment_intent.succeeded webhook carries.
type Succeeded struct {
	CheckoutID string
	Details    map[string]interface{}
}

// Gateway is the slice of Stripe the checkout flow needs.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	// ParseWebhook verifies the signature and returns the succeeded payment,
	// or nil for event types that do not mark a checkout paid. Signature
	// failures wrap ErrInvalidSignature.
	ParseWebhook(payload []byte, signature string) (*Succeeded, error)
}

type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, nil), webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("checkout_id", req.CheckoutID)
	params.AddMetadata("user_id", req.UserID)
	// one intent per checkout and amount, even if the client retries
	params.SetIdempotencyKey(fmt.Sprintf("checkout-%s-%d", req.CheckoutID, req.AmountMinor))

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Amount: pi.Amount, Currency: string(pi.Currency)}, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Succeeded, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return succeededFromEvent(event)
}

func succeededFromEvent(event stripe.Event) (*Succeeded, error) {
	if event.Type != stripe.EventTypePaymentIntentSucceeded {
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}

	checkoutID := pi.Metadata["checkout_id"]
	if checkoutID == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnmatchedIntent, pi.ID)
	}

	return &Succeeded{
		CheckoutID: checkoutID,
		Details: map[string]interface{}{
			"provider":        "stripe",
			"paymentIntentId": pi.ID,
			"amount":          pi.Amount,
			"currency":        string(pi.Currency),
			"status":          string(pi.Status),
			"eventId":         event.ID,
		},
	}, nil
}
