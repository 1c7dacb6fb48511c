package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductImage struct {
	URL     string `json:"url" bson:"url"`
	AltText string `json:"altText,omitempty" bson:"altText,omitempty"`
}

type Dimensions struct {
	Length float64 `json:"length" bson:"length"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

type Product struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Description   string             `json:"description" bson:"description"`
	Price         float64            `json:"price" bson:"price"`
	DiscountPrice *float64           `json:"discountPrice,omitempty" bson:"discountPrice,omitempty"`
	CountInStock  int                `json:"countInStock" bson:"countInStock"`
	SKU           string             `json:"sku" bson:"sku"`
	Category      string             `json:"category" bson:"category"`
	Brand         string             `json:"brand,omitempty" bson:"brand,omitempty"`
	Sizes         []string           `json:"sizes" bson:"sizes"`
	Colors        []string           `json:"colors" bson:"colors"`
	Collections   string             `json:"collections" bson:"collections"`
	Material      string             `json:"material,omitempty" bson:"material,omitempty"`
	Gender        string             `json:"gender,omitempty" bson:"gender,omitempty"`
	Images        []ProductImage     `json:"images" bson:"images"`
	IsFeatured    bool               `json:"isFeatured" bson:"isFeatured"`
	IsPublished   bool               `json:"isPublished" bson:"isPublished"`
	Rating        float64            `json:"rating" bson:"rating"`
	NumReviews    int                `json:"numReviews" bson:"numReviews"`
	Tags          []string           `json:"tags,omitempty" bson:"tags,omitempty"`
	User          primitive.ObjectID `json:"user,omitempty" bson:"user,omitempty"`
	Weight        float64            `json:"weight,omitempty" bson:"weight,omitempty"`
	Dimensions    *Dimensions        `json:"dimensions,omitempty" bson:"dimensions,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// FirstImageURL returns the primary image or "".
func (p *Product) FirstImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// ProductFilter carries the public catalogue query string.
type ProductFilter struct {
	Collection string   `form:"collection"`
	Size       string   `form:"size"`
	Color      string   `form:"color"`
	Gender     string   `form:"gender"`
	MinPrice   *float64 `form:"minPrice"`
	MaxPrice   *float64 `form:"maxPrice"`
	SortBy     string   `form:"sortBy" binding:"omitempty,oneof=priceAsc priceDesc popularity"`
	Search     string   `form:"search"`
	Category   string   `form:"category"`
	Material   string   `form:"material"`
	Brand      string   `form:"brand"`
	Limit      int      `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ProductInput is used for both create and partial update; pointer fields
// distinguish "absent" from zero.
type ProductInput struct {
	Name          *string        `json:"name" binding:"omitempty,notblank"`
	Description   *string        `json:"description"`
	Price         *float64       `json:"price" binding:"omitempty,gte=0"`
	DiscountPrice *float64       `json:"discountPrice" binding:"omitempty,gte=0"`
	CountInStock  *int           `json:"countInStock" binding:"omitempty,gte=0"`
	SKU           *string        `json:"sku" binding:"omitempty,sku"`
	Category      *string        `json:"category"`
	Brand         *string        `json:"brand"`
	Sizes         []string       `json:"sizes"`
	Colors        []string       `json:"colors"`
	Collections   *string        `json:"collections"`
	Material      *string        `json:"material"`
	Gender        *string        `json:"gender" binding:"omitempty,oneof=Men Women Unisex"`
	Images        []ProductImage `json:"images"`
	IsFeatured    *bool          `json:"isFeatured"`
	IsPublished   *bool          `json:"isPublished"`
	Tags          []string       `json:"tags"`
	Weight        *float64       `json:"weight"`
	Dimensions    *Dimensions    `json:"dimensions"`
}
