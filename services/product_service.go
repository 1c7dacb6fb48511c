package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/cache"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/bardan8586/Fancy-Enterprise/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	newArrivalsLimit = 8
	similarLimit     = 4

	requiredProductFieldsMessage = "Please provide all required fields: name, description, price, sku, category"
	duplicateSKUMessage          = "A product with this SKU already exists"
)

// CatalogueCache is the subset of cache.ProductCache the product service uses.
// Get reports the catalogue version it read so a miss is stored under that
// version and never outlives an invalidation that raced with the load.
type CatalogueCache interface {
	Get(ctx context.Context, view string, dst any) (version int64, hit bool)
	SetAsync(version int64, view string, value any)
	Invalidate(ctx context.Context) error
}

type ProductListResponse struct {
	Products []models.Product `json:"products"`
	Meta     models.PageMeta  `json:"meta"`
}

type ProductService struct {
	repo   repository.ProductRepository
	cache  CatalogueCache
	logger *zap.Logger
	now    func() time.Time
}

func NewProductService(repo repository.ProductRepository, c CatalogueCache, logger *zap.Logger) *ProductService {
	return &ProductService{repo: repo, cache: c, logger: logger, now: time.Now}
}

func (s *ProductService) Search(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	view := cache.ListView(filter)
	var products []models.Product
	version, hit := s.cached(ctx, view, &products)
	if hit {
		return products, nil
	}

	products, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("Server Error", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	s.store(version, view, products)
	return products, nil
}

func (s *ProductService) BestSeller(ctx context.Context) (*models.Product, error) {
	var product models.Product
	version, hit := s.cached(ctx, cache.BestSellerView, &product)
	if hit {
		return &product, nil
	}

	best, err := s.repo.BestSeller(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("No best seller found")
		}
		return nil, apperrors.Internal("Server Error", err)
	}
	s.store(version, cache.BestSellerView, best)
	return best, nil
}

func (s *ProductService) NewArrivals(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	version, hit := s.cached(ctx, cache.NewArrivalsView, &products)
	if hit {
		return products, nil
	}

	products, err := s.repo.NewArrivals(ctx, newArrivalsLimit)
	if err != nil {
		return nil, apperrors.Internal("Server Error", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	s.store(version, cache.NewArrivalsView, products)
	return products, nil
}

func (s *ProductService) Similar(ctx context.Context, idHex string) ([]models.Product, error) {
	var products []models.Product
	version, hit := s.cached(ctx, cache.SimilarView(idHex), &products)
	if hit {
		return products, nil
	}

	product, err := s.published(ctx, idHex)
	if err != nil {
		return nil, err
	}
	products, err = s.repo.Similar(ctx, product, similarLimit)
	if err != nil {
		return nil, apperrors.Internal("Server Error", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	s.store(version, cache.SimilarView(idHex), products)
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, idHex string) (*models.Product, error) {
	var product models.Product
	version, hit := s.cached(ctx, cache.DetailView(idHex), &product)
	if hit {
		return &product, nil
	}

	p, err := s.published(ctx, idHex)
	if err != nil {
		return nil, err
	}
	s.store(version, cache.DetailView(idHex), p)
	return p, nil
}

// published loads a product visible on the storefront.
func (s *ProductService) published(ctx context.Context, idHex string) (*models.Product, error) {
	id, err := parseObjectID(idHex, "Product not found")
	if err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, apperrors.Internal("Server Error", err)
	}
	if !p.IsPublished {
		return nil, apperrors.NotFound("Product not found")
	}
	return p, nil
}

// Admin operations.

func (s *ProductService) AdminList(ctx context.Context, page, limit int) (*ProductListResponse, error) {
	page, limit = NormalizePage(page, limit)
	products, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch products", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return &ProductListResponse{Products: products, Meta: models.NewPageMeta(page, limit, total)}, nil
}

func (s *ProductService) Create(ctx context.Context, adminID primitive.ObjectID, in models.ProductInput) (*models.Product, error) {
	if blank(in.Name) || blank(in.Description) || in.Price == nil || blank(in.SKU) || blank(in.Category) {
		return nil, apperrors.Validation(requiredProductFieldsMessage)
	}

	sku := strings.TrimSpace(*in.SKU)
	if err := s.ensureSKUFree(ctx, sku, primitive.NilObjectID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &models.Product{
		Sizes:       []string{"One Size"},
		Colors:      []string{"Default"},
		Collections: "General",
		Images:      []models.ProductImage{},
		IsPublished: true,
		User:        adminID,
		CreatedAt:   now,
	}
	applyProductInput(p, in)
	p.SKU = sku
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Validation(duplicateSKUMessage)
		}
		return nil, apperrors.Internal("Server Error", err)
	}

	s.invalidate(ctx)
	s.logger.Info("product created", zap.String("product_id", p.ID.Hex()), zap.String("sku", p.SKU))
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, idHex string, in models.ProductInput) (*models.Product, error) {
	p, err := s.find(ctx, idHex)
	if err != nil {
		return nil, err
	}

	if in.SKU != nil {
		sku := strings.TrimSpace(*in.SKU)
		if sku != p.SKU {
			if err := s.ensureSKUFree(ctx, sku, p.ID); err != nil {
				return nil, err
			}
		}
		in.SKU = &sku
	}

	applyProductInput(p, in)
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Validation(duplicateSKUMessage)
		}
		return nil, apperrors.Internal("Server Error", err)
	}

	s.invalidate(ctx)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, idHex string) error {
	id, err := parseObjectID(idHex, "Product not found")
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Product not found")
		}
		return apperrors.Internal("Server Error", err)
	}

	s.invalidate(ctx)
	s.logger.Info("product deleted", zap.String("product_id", idHex))
	return nil
}

func (s *ProductService) find(ctx context.Context, idHex string) (*models.Product, error) {
	id, err := parseObjectID(idHex, "Product not found")
	if err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, apperrors.Internal("Server Error", err)
	}
	return p, nil
}

func (s *ProductService) ensureSKUFree(ctx context.Context, sku string, self primitive.ObjectID) error {
	existing, err := s.repo.FindBySKU(ctx, sku)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return apperrors.Internal("Server Error", err)
	case existing.ID != self:
		return apperrors.Validation(duplicateSKUMessage)
	}
	return nil
}

func (s *ProductService) cached(ctx context.Context, view string, dst any) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	return s.cache.Get(ctx, view, dst)
}

func (s *ProductService) store(version int64, view string, value any) {
	if s.cache != nil {
		s.cache.SetAsync(version, view, value)
	}
}

func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.Error(err))
	}
}

func applyProductInput(p *models.Product, in models.ProductInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.DiscountPrice != nil {
		p.DiscountPrice = in.DiscountPrice
	}
	if in.CountInStock != nil {
		p.CountInStock = *in.CountInStock
	}
	if in.SKU != nil {
		p.SKU = *in.SKU
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Brand != nil {
		p.Brand = *in.Brand
	}
	if len(in.Sizes) > 0 {
		p.Sizes = in.Sizes
	}
	if len(in.Colors) > 0 {
		p.Colors = in.Colors
	}
	if in.Collections != nil && strings.TrimSpace(*in.Collections) != "" {
		p.Collections = *in.Collections
	}
	if in.Material != nil {
		p.Material = *in.Material
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.IsPublished != nil {
		p.IsPublished = *in.IsPublished
	}
	if in.Tags != nil {
		p.Tags = in.Tags
	}
	if in.Weight != nil {
		p.Weight = *in.Weight
	}
	if in.Dimensions != nil {
		p.Dimensions = in.Dimensions
	}
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
