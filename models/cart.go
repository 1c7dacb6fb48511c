package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartItem struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Name      string             `json:"name" bson:"name"`
	Image     string             `json:"image" bson:"image"`
	Price     float64            `json:"price" bson:"price"`
	Size      string             `json:"size,omitempty" bson:"size,omitempty"`
	Color     string             `json:"color,omitempty" bson:"color,omitempty"`
	Quantity  int                `json:"quantity" bson:"quantity"`
}

// Matches reports whether the line is for the same product variant.
func (i CartItem) Matches(productID primitive.ObjectID, size, color string) bool {
	return i.ProductID == productID && i.Size == size && i.Color == color
}

// Cart is owned either by a user or by a guestId, never both.
type Cart struct {
	ID         primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	User       *primitive.ObjectID `json:"user,omitempty" bson:"user,omitempty"`
	GuestID    string              `json:"guestId,omitempty" bson:"guestId,omitempty"`
	Products   []CartItem          `json:"products" bson:"products"`
	TotalPrice float64             `json:"totalPrice" bson:"totalPrice"`
	CreatedAt  time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Recalculate sets TotalPrice to the sum of price x quantity.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, item := range c.Products {
		total = total.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	c.TotalPrice = total.Round(2).InexactFloat64()
}

// CartOwner identifies whose cart an operation targets.
type CartOwner struct {
	UserID  *primitive.ObjectID
	GuestID string
}

func (o CartOwner) IsUser() bool { return o.UserID != nil }

type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"omitempty,min=1"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	GuestID   string `json:"guestId"`
}

type UpdateCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"min=0"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	GuestID   string `json:"guestId"`
}

type RemoveFromCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	GuestID   string `json:"guestId"`
}

type MergeCartRequest struct {
	GuestID string `json:"guestId" binding:"required"`
}
