package controllers

import (
	"context"
	"net/http"

	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/middleware"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/bardan8586/Fancy-Enterprise/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductService interface {
	Search(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	BestSeller(ctx context.Context) (*models.Product, error)
	NewArrivals(ctx context.Context) ([]models.Product, error)
	Similar(ctx context.Context, idHex string) ([]models.Product, error)
	Get(ctx context.Context, idHex string) (*models.Product, error)
	AdminList(ctx context.Context, page, limit int) (*services.ProductListResponse, error)
	Create(ctx context.Context, adminID primitive.ObjectID, in models.ProductInput) (*models.Product, error)
	Update(ctx context.Context, idHex string, in models.ProductInput) (*models.Product, error)
	Delete(ctx context.Context, idHex string) error
}

// ProductController serves the public catalogue and the admin product
// endpoints.
type ProductController struct {
	products ProductService
}

func NewProductController(products ProductService) *ProductController {
	return &ProductController{products: products}
}

// List handles GET /api/products
func (pc *ProductController) List(c *gin.Context) {
	var filter models.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		_ = c.Error(apperrors.Validation(middleware.BindingMessage(err)))
		return
	}
	products, err := pc.products.Search(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, nonNil(products))
}

// BestSeller handles GET /api/products/best-seller
func (pc *ProductController) BestSeller(c *gin.Context) {
	product, err := pc.products.BestSeller(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// NewArrivals handles GET /api/products/new-arrivals
func (pc *ProductController) NewArrivals(c *gin.Context) {
	products, err := pc.products.NewArrivals(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, nonNil(products))
}

// Similar handles GET /api/products/similar/:id
func (pc *ProductController) Similar(c *gin.Context) {
	products, err := pc.products.Similar(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, nonNil(products))
}

// Get handles GET /api/products/:id
func (pc *ProductController) Get(c *gin.Context) {
	product, err := pc.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// AdminList handles GET /api/admin/products
func (pc *ProductController) AdminList(c *gin.Context) {
	page, limit := parsePaginationParams(c)
	resp, err := pc.products.AdminList(c.Request.Context(), page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create handles POST /api/admin/products
func (pc *ProductController) Create(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	var in models.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	product, err := pc.products.Create(c.Request.Context(), adminID, in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// Update handles PUT /api/admin/products/:id
func (pc *ProductController) Update(c *gin.Context) {
	var in models.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	product, err := pc.products.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Delete handles DELETE /api/admin/products/:id
func (pc *ProductController) Delete(c *gin.Context) {
	if err := pc.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func nonNil(products []models.Product) []models.Product {
	if products == nil {
		return []models.Product{}
	}
	return products
}
