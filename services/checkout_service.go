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
	"github.com/bardan8586/Fancy-Enterprise/payments"
	"github.com/bardan8586/Fancy-Enterprise/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	checkoutNotFoundMessage  = "Checkout not found"
	checkoutForbiddenMessage = "Not authorized to access this checkout"
	alreadyFinalizedMessage  = "Checkout already finalized"
	notPaidMessage           = "Checkout is not paid"
	checkoutInFlightMessage  = "A checkout with this Idempotency-Key is already being processed"
)

// IdempotencyKeys remembers which checkout a retried create produced.
// Reserve must be atomic: of two concurrent callers only one gets reserved.
type IdempotencyKeys interface {
	Reserve(ctx context.Context, userID, key string) (checkoutID string, reserved bool, err error)
	Remember(ctx context.Context, userID, key, checkoutID string) error
	Release(ctx context.Context, userID, key string) error
}

type CheckoutServiceDeps struct {
	Checkouts repository.CheckoutRepository
	Orders    repository.OrderRepository
	Carts     repository.CartRepository
	Products  repository.ProductRepository
	Users     repository.UserRepository
	Tx        repository.TxRunner
	// Compensate undoes the order and the finalize flag by hand when Tx is
	// not a real transaction.
	Compensate  bool
	Idempotency IdempotencyKeys
	Gateway     payments.Gateway
	Currency    string
	Publisher   events.Publisher
	Mail        Mailer
	Metrics     awspkg.MetricsRecorder
	Logger      *zap.Logger
}

// CheckoutService drives a checkout from creation through payment to the
// order it becomes.
type CheckoutService struct {
	checkouts   repository.CheckoutRepository
	orders      repository.OrderRepository
	carts       repository.CartRepository
	products    repository.ProductRepository
	tx          repository.TxRunner
	compensate  bool
	idempotency IdempotencyKeys
	gateway     payments.Gateway
	currency    string
	notifier    *orderNotifier
	logger      *zap.Logger
	now         func() time.Time
}

func NewCheckoutService(d CheckoutServiceDeps) *CheckoutService {
	currency := d.Currency
	if currency == "" {
		currency = "usd"
	}
	return &CheckoutService{
		checkouts:   d.Checkouts,
		orders:      d.Orders,
		carts:       d.Carts,
		products:    d.Products,
		tx:          d.Tx,
		compensate:  d.Compensate,
		idempotency: d.Idempotency,
		gateway:     d.Gateway,
		currency:    currency,
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

// Create validates the request and stores a pending checkout. The boolean
// result is false when an earlier checkout was replayed for the same
// idempotency key.
func (s *CheckoutService) Create(ctx context.Context, req Requester, idempotencyKey string, body models.CreateCheckoutRequest) (*models.Checkout, bool, error) {
	if len(body.CheckoutItems) == 0 {
		return nil, false, apperrors.Validation("no items in checkout")
	}
	if !body.ShippingAddress.Complete() {
		return nil, false, apperrors.Validation("Complete shipping address is required")
	}
	if !models.ValidPaymentMethod(body.PaymentMethod) {
		return nil, false, apperrors.Validation("Valid payment method is required")
	}
	if body.TotalPrice <= 0 {
		return nil, false, apperrors.Validation("Valid total price is required")
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	reserved, replay, err := s.reserveKey(ctx, req.UserID, idempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if replay != nil {
		return replay, false, nil
	}

	items, err := s.snapshotItems(ctx, body.CheckoutItems)
	if err != nil {
		s.releaseKey(ctx, req.UserID, idempotencyKey, reserved)
		return nil, false, err
	}

	checkout := &models.Checkout{
		User:            req.UserID,
		CheckoutItems:   items,
		ShippingAddress: *body.ShippingAddress,
		PaymentMethod:   body.PaymentMethod,
		TotalPrice:      body.TotalPrice,
		PaymentStatus:   models.PaymentStatusPending,
		IsPaid:          false,
	}
	if err := s.checkouts.Create(ctx, checkout); err != nil {
		s.releaseKey(ctx, req.UserID, idempotencyKey, reserved)
		return nil, false, apperrors.Internal("Server Error", err)
	}

	if reserved {
		if err := s.idempotency.Remember(ctx, req.UserID.Hex(), idempotencyKey, checkout.ID.Hex()); err != nil {
			s.logger.Warn("failed to remember idempotency key", zap.String("checkout_id", checkout.ID.Hex()), zap.Error(err))
		}
	}

	s.notifier.count(ctx, awspkg.MetricCartCheckouts, map[string]string{"PaymentMethod": checkout.PaymentMethod})
	s.logger.Info("checkout created",
		zap.String("checkout_id", checkout.ID.Hex()),
		zap.String("user_id", req.UserID.Hex()),
		zap.Int("items", len(items)),
	)
	return checkout, true, nil
}

// reserveKey claims the idempotency key for this request. A key already
// bound to a checkout replays it; a key held by a request still in flight is
// a conflict. Store failures skip idempotency rather than fail the checkout.
func (s *CheckoutService) reserveKey(ctx context.Context, userID primitive.ObjectID, key string) (bool, *models.Checkout, error) {
	if key == "" || s.idempotency == nil {
		return false, nil, nil
	}
	existingID, reserved, err := s.idempotency.Reserve(ctx, userID.Hex(), key)
	if err != nil {
		s.logger.Warn("idempotency reservation failed", zap.Error(err))
		return false, nil, nil
	}
	if reserved {
		return true, nil, nil
	}
	if existingID == "" {
		return false, nil, apperrors.Conflict(checkoutInFlightMessage)
	}

	id, err := primitive.ObjectIDFromHex(existingID)
	if err != nil {
		return false, nil, nil
	}
	existing, err := s.checkouts.FindByID(ctx, id)
	if err != nil || existing.User != userID {
		return false, nil, nil
	}
	s.logger.Info("checkout create replayed", zap.String("checkout_id", existingID))
	return false, existing, nil
}

func (s *CheckoutService) releaseKey(ctx context.Context, userID primitive.ObjectID, key string, reserved bool) {
	if !reserved {
		return
	}
	if err := s.idempotency.Release(ctx, userID.Hex(), key); err != nil {
		s.logger.Warn("failed to release idempotency key", zap.Error(err))
	}
}

// snapshotItems fills the gaps clients leave in line items: images come from
// the product (or a stock photo), and name, price and quantity get defaults.
func (s *CheckoutService) snapshotItems(ctx context.Context, inputs []models.CheckoutItemInput) ([]models.CheckoutItem, error) {
	items := make([]models.CheckoutItem, 0, len(inputs))
	for _, in := range inputs {
		productID, err := primitive.ObjectIDFromHex(in.ProductID)
		if err != nil {
			return nil, apperrors.Validation("Invalid product in checkout items")
		}

		item := models.CheckoutItem{
			ProductID: productID,
			Name:      strings.TrimSpace(in.Name),
			Image:     strings.TrimSpace(in.Image),
			Price:     in.Price,
			Size:      in.Size,
			Color:     in.Color,
			Quantity:  in.Quantity,
		}
		if item.Image == "" {
			item.Image = s.productImage(ctx, productID)
		}
		if item.Name == "" {
			item.Name = models.FallbackItemName
		}
		if item.Price < 0 {
			item.Price = 0
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *CheckoutService) productImage(ctx context.Context, id primitive.ObjectID) string {
	if s.products != nil {
		if p, err := s.products.FindByID(ctx, id); err == nil {
			if url := p.FirstImageURL(); url != "" {
				return url
			}
		}
	}
	return models.FallbackItemImage
}

func (s *CheckoutService) Get(ctx context.Context, req Requester, idHex string) (*models.Checkout, error) {
	return s.load(ctx, req, idHex)
}

// MarkPaid records a successful payment. Paying an already paid checkout is
// a no-op that returns it unchanged.
func (s *CheckoutService) MarkPaid(ctx context.Context, req Requester, idHex string, body models.PayCheckoutRequest) (*models.Checkout, error) {
	checkout, err := s.load(ctx, req, idHex)
	if err != nil {
		return nil, err
	}

	if !models.IsPaidStatus(body.PaymentStatus) {
		s.notifier.count(ctx, awspkg.MetricPaymentRejected, nil)
		return nil, apperrors.Validation("Invalid Payment Status")
	}
	if checkout.IsPaid {
		return checkout, nil
	}

	flipped, err := s.checkouts.MarkPaid(ctx, checkout.ID, body.PaymentDetails, s.now().UTC())
	if err != nil {
		return nil, apperrors.Internal("Server Error", err)
	}
	updated, err := s.checkouts.FindByID(ctx, checkout.ID)
	if err != nil {
		return nil, apperrors.Internal("Server Error", err)
	}

	if flipped {
		s.notifier.count(ctx, awspkg.MetricPaymentSucceeded, map[string]string{"PaymentMethod": updated.PaymentMethod})
		s.logger.Info("checkout paid",
			zap.String("checkout_id", updated.ID.Hex()),
			zap.Bool("system", req.IsSystem()),
		)
	}
	return updated, nil
}

// MarkPaidFromProvider is the entry point for payment notifications that
// arrive without a user session.
func (s *CheckoutService) MarkPaidFromProvider(ctx context.Context, checkoutID string, details interface{}) (*models.Checkout, error) {
	return s.MarkPaid(ctx, SystemRequester(), checkoutID, models.PayCheckoutRequest{
		PaymentStatus:  models.PaymentStatusPaid,
		PaymentDetails: details,
	})
}

// Finalize turns a paid checkout into an order and clears the owner's cart.
// The checkout flag is flipped with a compare-and-swap so concurrent calls
// produce exactly one order.
func (s *CheckoutService) Finalize(ctx context.Context, req Requester, idHex string) (*models.Order, error) {
	checkout, err := s.load(ctx, req, idHex)
	if err != nil {
		return nil, err
	}
	if checkout.IsFinalized {
		return nil, apperrors.Conflict(alreadyFinalizedMessage)
	}
	if !checkout.IsPaid {
		return nil, apperrors.Conflict(notPaidMessage)
	}

	now := s.now().UTC()
	var order *models.Order
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		flipped, err := s.checkouts.MarkFinalized(txCtx, checkout.ID, now)
		if err != nil {
			return err
		}
		if !flipped {
			return s.finalizeConflict(txCtx, checkout.ID)
		}

		order = models.OrderFromCheckout(checkout, now)
		if err := s.orders.Create(txCtx, order); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.Conflict(alreadyFinalizedMessage)
			}
			s.undoFinalize(txCtx, checkout.ID)
			return err
		}

		if err := s.carts.DeleteByUser(txCtx, checkout.User); err != nil {
			s.undoOrder(txCtx, order.ID)
			s.undoFinalize(txCtx, checkout.ID)
			return err
		}
		return nil
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.Internal("Server Error", err)
	}

	s.notifier.publish(ctx, models.EventOrderCreated, order)
	s.notifier.mailCustomer(ctx, models.TemplateOrderConfirmation, order)
	s.notifier.count(ctx, awspkg.MetricOrdersCreated, map[string]string{"PaymentMethod": order.PaymentMethod})
	s.logger.Info("checkout finalized",
		zap.String("checkout_id", checkout.ID.Hex()),
		zap.String("order_id", order.ID.Hex()),
	)
	return order, nil
}

// finalizeConflict explains why the compare-and-swap matched nothing.
func (s *CheckoutService) finalizeConflict(ctx context.Context, id primitive.ObjectID) error {
	current, err := s.checkouts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(checkoutNotFoundMessage)
		}
		return err
	}
	if current.IsFinalized {
		return apperrors.Conflict(alreadyFinalizedMessage)
	}
	return apperrors.Conflict(notPaidMessage)
}

// undoOrder removes an order whose finalize could not complete, so a retry
// starts from a paid, unfinalized checkout again.
func (s *CheckoutService) undoOrder(ctx context.Context, id primitive.ObjectID) {
	if !s.compensate {
		return
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		s.logger.Error("failed to roll back order", zap.String("order_id", id.Hex()), zap.Error(err))
	}
}

func (s *CheckoutService) undoFinalize(ctx context.Context, id primitive.ObjectID) {
	if !s.compensate {
		return
	}
	if err := s.checkouts.UnmarkFinalized(ctx, id); err != nil {
		s.logger.Error("failed to roll back finalize flag", zap.String("checkout_id", id.Hex()), zap.Error(err))
	}
}

// CreatePaymentIntent opens a Stripe PaymentIntent for the checkout total.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, req Requester, idHex string) (*models.PaymentIntentResponse, error) {
	checkout, err := s.load(ctx, req, idHex)
	if err != nil {
		return nil, err
	}
	if checkout.PaymentMethod != models.PaymentMethodStripe {
		return nil, apperrors.Validation("Payment intents are only available for Stripe checkouts")
	}
	if checkout.IsPaid {
		return nil, apperrors.Conflict("Checkout is already paid")
	}
	if s.gateway == nil {
		return nil, apperrors.Internal("Payment provider is not configured", payments.ErrNotConfigured)
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, payments.IntentRequest{
		CheckoutID:  checkout.ID.Hex(),
		UserID:      checkout.User.Hex(),
		AmountMinor: checkout.AmountMinor(),
		Currency:    s.currency,
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to create payment intent", err)
	}

	return &models.PaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
	}, nil
}

// HandleStripeWebhook verifies a Stripe delivery and marks the referenced
// checkout paid. Only a bad signature is refused; other event types and
// intents without a checkout are acknowledged and logged.
func (s *CheckoutService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return apperrors.Internal("Payment provider is not configured", payments.ErrNotConfigured)
	}
	succeeded, err := s.gateway.ParseWebhook(payload, signature)
	switch {
	case errors.Is(err, payments.ErrInvalidSignature):
		s.logger.Warn("stripe webhook rejected", zap.Error(err))
		return apperrors.Validation("Webhook signature verification failed")
	case err != nil:
		// Verified but unusable. Stripe would redeliver it forever on a 4xx.
		s.logger.Warn("stripe webhook ignored", zap.Error(err))
		return nil
	case succeeded == nil:
		return nil
	}

	if _, err := s.MarkPaidFromProvider(ctx, succeeded.CheckoutID, succeeded.Details); err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			s.logger.Warn("stripe payment for unknown checkout", zap.String("checkout_id", succeeded.CheckoutID))
			return nil
		}
		return err
	}
	return nil
}

func (s *CheckoutService) load(ctx context.Context, req Requester, idHex string) (*models.Checkout, error) {
	id, err := parseObjectID(idHex, checkoutNotFoundMessage)
	if err != nil {
		return nil, err
	}
	checkout, err := s.checkouts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(checkoutNotFoundMessage)
		}
		return nil, apperrors.Internal("Server Error", err)
	}
	if !req.Owns(checkout.User) {
		return nil, apperrors.Forbidden(checkoutForbiddenMessage)
	}
	return checkout, nil
}
