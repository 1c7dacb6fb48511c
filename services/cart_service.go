package services

import (
	"context"
	"errors"
	"strings"

	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/bardan8586/Fancy-Enterprise/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *zap.Logger
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, logger *zap.Logger) *CartService {
	return &CartService{carts: carts, products: products, logger: logger}
}

// ResolveCartOwner picks the signed-in user when there is one and falls back
// to the guest id otherwise.
func ResolveCartOwner(userID *primitive.ObjectID, guestID string) (models.CartOwner, error) {
	if userID != nil && !userID.IsZero() {
		id := *userID
		return models.CartOwner{UserID: &id}, nil
	}
	guestID = strings.TrimSpace(guestID)
	if guestID == "" {
		return models.CartOwner{}, apperrors.Validation("guestId is required")
	}
	return models.CartOwner{GuestID: guestID}, nil
}

func (s *CartService) Add(ctx context.Context, owner models.CartOwner, req models.AddToCartRequest) (*models.Cart, error) {
	productID, err := parseObjectID(req.ProductID, "Product not found")
	if err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, apperrors.Internal("Server Error", err)
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	cart, err := s.load(ctx, owner)
	if err != nil && !apperrors.IsKind(err, apperrors.KindNotFound) {
		return nil, err
	}
	if cart == nil {
		cart = newCart(owner)
	}

	merged := false
	for i := range cart.Products {
		if cart.Products[i].Matches(productID, req.Size, req.Color) {
			cart.Products[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Products = append(cart.Products, models.CartItem{
			ProductID: productID,
			Name:      product.Name,
			Image:     product.FirstImageURL(),
			Price:     product.Price,
			Size:      req.Size,
			Color:     req.Color,
			Quantity:  quantity,
		})
	}

	return s.save(ctx, cart)
}

// Update sets a line's quantity. A quantity of zero removes the line.
func (s *CartService) Update(ctx context.Context, owner models.CartOwner, req models.UpdateCartRequest) (*models.Cart, error) {
	productID, err := parseObjectID(req.ProductID, "Product not found in cart")
	if err != nil {
		return nil, err
	}
	cart, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}

	idx := lineIndex(cart, productID, req.Size, req.Color)
	if idx < 0 {
		return nil, apperrors.NotFound("Product not found in cart")
	}
	if req.Quantity > 0 {
		cart.Products[idx].Quantity = req.Quantity
	} else {
		cart.Products = append(cart.Products[:idx], cart.Products[idx+1:]...)
	}

	return s.save(ctx, cart)
}

func (s *CartService) Remove(ctx context.Context, owner models.CartOwner, req models.RemoveFromCartRequest) (*models.Cart, error) {
	productID, err := parseObjectID(req.ProductID, "Product not found in cart")
	if err != nil {
		return nil, err
	}
	cart, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}

	idx := lineIndex(cart, productID, req.Size, req.Color)
	if idx < 0 {
		return nil, apperrors.NotFound("Product not found in cart")
	}
	cart.Products = append(cart.Products[:idx], cart.Products[idx+1:]...)

	return s.save(ctx, cart)
}

func (s *CartService) Get(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	return s.load(ctx, owner)
}

// MergeGuestCart folds the guest cart into the user's cart and deletes it.
// When the user has no cart yet the guest cart is simply re-owned.
func (s *CartService) MergeGuestCart(ctx context.Context, userID primitive.ObjectID, guestID string) (*models.Cart, error) {
	userOwner := models.CartOwner{UserID: &userID}

	guest, err := s.carts.FindByOwner(ctx, models.CartOwner{GuestID: guestID})
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("Server Error", err)
	}
	user, err := s.carts.FindByOwner(ctx, userOwner)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("Server Error", err)
	}

	switch {
	case guest == nil && user == nil:
		return nil, apperrors.NotFound("Guest cart not found")
	case guest == nil:
		return user, nil
	case user == nil:
		guest.User = &userID
		guest.GuestID = ""
		return s.save(ctx, guest)
	}

	for _, item := range guest.Products {
		if idx := lineIndex(user, item.ProductID, item.Size, item.Color); idx >= 0 {
			user.Products[idx].Quantity += item.Quantity
		} else {
			user.Products = append(user.Products, item)
		}
	}

	merged, err := s.save(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.carts.Delete(ctx, guest.ID); err != nil {
		s.logger.Warn("failed to delete merged guest cart", zap.String("guest_id", guestID), zap.Error(err))
	}
	s.logger.Info("guest cart merged",
		zap.String("user_id", userID.Hex()),
		zap.String("guest_id", guestID),
		zap.Int("items", len(merged.Products)),
	)
	return merged, nil
}

func (s *CartService) Clear(ctx context.Context, owner models.CartOwner) error {
	cart, err := s.load(ctx, owner)
	if err != nil {
		return err
	}
	if err := s.carts.Delete(ctx, cart.ID); err != nil {
		return apperrors.Internal("Server Error", err)
	}
	return nil
}

func (s *CartService) load(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	cart, err := s.carts.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Cart not found")
		}
		return nil, apperrors.Internal("Server Error", err)
	}
	return cart, nil
}

func (s *CartService) save(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if cart.Products == nil {
		cart.Products = []models.CartItem{}
	}
	cart.Recalculate()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, apperrors.Internal("Server Error", err)
	}
	return cart, nil
}

func newCart(owner models.CartOwner) *models.Cart {
	cart := &models.Cart{Products: []models.CartItem{}}
	if owner.IsUser() {
		id := *owner.UserID
		cart.User = &id
	} else {
		cart.GuestID = owner.GuestID
	}
	return cart
}

func lineIndex(cart *models.Cart, productID primitive.ObjectID, size, color string) int {
	for i, item := range cart.Products {
		if item.Matches(productID, size, color) {
			return i
		}
	}
	return -1
}
