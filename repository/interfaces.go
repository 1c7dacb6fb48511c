package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// TxRunner executes fn atomically. Repository calls made with the ctx passed
// to fn participate in the transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) error
	RemoveFromWishlist(ctx context.Context, userID, productID primitive.ObjectID) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	FindBySKU(ctx context.Context, sku string) (*models.Product, error)
	Save(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Search(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	BestSeller(ctx context.Context) (*models.Product, error)
	NewArrivals(ctx context.Context, limit int) ([]models.Product, error)
	Similar(ctx context.Context, product *models.Product, limit int) ([]models.Product, error)
	List(ctx context.Context, page, limit int) ([]models.Product, int64, error)
}

type CartRepository interface {
	FindByOwner(ctx context.Context, owner models.CartOwner) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

type CheckoutRepository interface {
	Create(ctx context.Context, checkout *models.Checkout) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Checkout, error)
	// MarkPaid flips an unpaid checkout to paid. It reports false when the
	// checkout was already paid.
	MarkPaid(ctx context.Context, id primitive.ObjectID, details interface{}, paidAt time.Time) (bool, error)
	// MarkFinalized flips a paid, unfinalized checkout. It reports false when
	// the checkout was unpaid or already finalized.
	MarkFinalized(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
	UnmarkFinalized(ctx context.Context, id primitive.ObjectID) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	List(ctx context.Context, page, limit int) ([]models.Order, int64, error)
	// UpdateStatus persists order's status fields if the stored status still
	// equals previous.
	UpdateStatus(ctx context.Context, order *models.Order, previous string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type SubscriberRepository interface {
	Create(ctx context.Context, sub *models.Subscriber) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, log *models.NotificationLog) error
	List(ctx context.Context, status string, page, limit int) ([]models.NotificationLog, int64, error)
}
