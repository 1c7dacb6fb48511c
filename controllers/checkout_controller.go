package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/middleware"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/bardan8586/Fancy-Enterprise/services"
	"github.com/gin-gonic/gin"
)

// maxWebhookBytes bounds the Stripe webhook body.
const maxWebhookBytes = 64 << 10

type CheckoutService interface {
	Create(ctx context.Context, req services.Requester, idempotencyKey string, body models.CreateCheckoutRequest) (*models.Checkout, bool, error)
	Get(ctx context.Context, req services.Requester, idHex string) (*models.Checkout, error)
	MarkPaid(ctx context.Context, req services.Requester, idHex string, body models.PayCheckoutRequest) (*models.Checkout, error)
	Finalize(ctx context.Context, req services.Requester, idHex string) (*models.Order, error)
	CreatePaymentIntent(ctx context.Context, req services.Requester, idHex string) (*models.PaymentIntentResponse, error)
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
}

// CheckoutController handles /api/checkout and the Stripe webhook.
type CheckoutController struct {
	checkouts CheckoutService
}

func NewCheckoutController(checkouts CheckoutService) *CheckoutController {
	return &CheckoutController{checkouts: checkouts}
}

// Create handles POST /api/checkout. A replayed Idempotency-Key answers 200
// with the checkout the first request created.
func (cc *CheckoutController) Create(c *gin.Context) {
	var body models.CreateCheckoutRequest
	// An empty body falls through so the caller sees which field is missing.
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(apperrors.Validation("Invalid request body"))
		return
	}

	checkout, created, err := cc.checkouts.Create(
		c.Request.Context(),
		middleware.RequesterFrom(c),
		c.GetHeader("Idempotency-Key"),
		body,
	)
	if err != nil {
		_ = c.Error(err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, checkout)
}

// Get handles GET /api/checkout/:id
func (cc *CheckoutController) Get(c *gin.Context) {
	checkout, err := cc.checkouts.Get(c.Request.Context(), middleware.RequesterFrom(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, checkout)
}

// Pay handles PUT /api/checkout/:id/pay
func (cc *CheckoutController) Pay(c *gin.Context) {
	var body models.PayCheckoutRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(apperrors.Validation("Invalid Payment Status"))
		return
	}
	checkout, err := cc.checkouts.MarkPaid(c.Request.Context(), middleware.RequesterFrom(c), c.Param("id"), body)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, checkout)
}

// Finalize handles POST /api/checkout/:id/finalize
func (cc *CheckoutController) Finalize(c *gin.Context) {
	order, err := cc.checkouts.Finalize(c.Request.Context(), middleware.RequesterFrom(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// PaymentIntent handles POST /api/checkout/:id/payment-intent
func (cc *CheckoutController) PaymentIntent(c *gin.Context) {
	resp, err := cc.checkouts.CreatePaymentIntent(c.Request.Context(), middleware.RequesterFrom(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StripeWebhook handles POST /api/payments/stripe/webhook. The raw body is
// needed for signature verification.
func (cc *CheckoutController) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		_ = c.Error(apperrors.Validation("Unable to read request body"))
		return
	}
	if err := cc.checkouts.HandleStripeWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
