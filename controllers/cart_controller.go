package controllers

import (
	"context"
	"net/http"

	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/bardan8586/Fancy-Enterprise/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartService interface {
	Add(ctx context.Context, owner models.CartOwner, req models.AddToCartRequest) (*models.Cart, error)
	Update(ctx context.Context, owner models.CartOwner, req models.UpdateCartRequest) (*models.Cart, error)
	Remove(ctx context.Context, owner models.CartOwner, req models.RemoveFromCartRequest) (*models.Cart, error)
	Get(ctx context.Context, owner models.CartOwner) (*models.Cart, error)
	MergeGuestCart(ctx context.Context, userID primitive.ObjectID, guestID string) (*models.Cart, error)
	Clear(ctx context.Context, owner models.CartOwner) error
}

// CartController handles /api/cart. A bearer token identifies the owner when
// present, otherwise the request must carry a guestId.
type CartController struct {
	carts CartService
}

func NewCartController(carts CartService) *CartController {
	return &CartController{carts: carts}
}

// Add handles POST /api/cart
func (cc *CartController) Add(c *gin.Context) {
	var req models.AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}
	owner, ok := cc.owner(c, req.GuestID)
	if !ok {
		return
	}
	cc.respond(c)(cc.carts.Add(c.Request.Context(), owner, req))
}

// Update handles PUT /api/cart
func (cc *CartController) Update(c *gin.Context) {
	var req models.UpdateCartRequest
	if !bindJSON(c, &req) {
		return
	}
	owner, ok := cc.owner(c, req.GuestID)
	if !ok {
		return
	}
	cc.respond(c)(cc.carts.Update(c.Request.Context(), owner, req))
}

// Remove handles DELETE /api/cart
func (cc *CartController) Remove(c *gin.Context) {
	var req models.RemoveFromCartRequest
	if !bindJSON(c, &req) {
		return
	}
	owner, ok := cc.owner(c, req.GuestID)
	if !ok {
		return
	}
	cc.respond(c)(cc.carts.Remove(c.Request.Context(), owner, req))
}

// Get handles GET /api/cart?guestId=
func (cc *CartController) Get(c *gin.Context) {
	owner, ok := cc.owner(c, c.Query("guestId"))
	if !ok {
		return
	}
	cc.respond(c)(cc.carts.Get(c.Request.Context(), owner))
}

// Merge handles POST /api/cart/merge
func (cc *CartController) Merge(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.MergeCartRequest
	if !bindJSON(c, &req) {
		return
	}
	cc.respond(c)(cc.carts.MergeGuestCart(c.Request.Context(), userID, req.GuestID))
}

// Clear handles DELETE /api/cart/clear
func (cc *CartController) Clear(c *gin.Context) {
	owner, ok := cc.owner(c, c.Query("guestId"))
	if !ok {
		return
	}
	if err := cc.carts.Clear(c.Request.Context(), owner); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

func (cc *CartController) owner(c *gin.Context, guestID string) (models.CartOwner, bool) {
	owner, err := services.ResolveCartOwner(optionalUser(c), guestID)
	if err != nil {
		_ = c.Error(err)
		return models.CartOwner{}, false
	}
	return owner, true
}

func (cc *CartController) respond(c *gin.Context) func(*models.Cart, error) {
	return func(cart *models.Cart, err error) {
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}
