package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/cache"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// stubCatalogueCache always misses. Its version starts at 1 and each
// invalidation bumps it.
type stubCatalogueCache struct {
	mu            sync.Mutex
	invalidations int
	stored        map[string]any
	storedAt      map[string]int64
}

func (c *stubCatalogueCache) Get(context.Context, string, any) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(c.invalidations) + 1, false
}

func (c *stubCatalogueCache) SetAsync(version int64, view string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stored == nil {
		c.stored = map[string]any{}
		c.storedAt = map[string]int64{}
	}
	c.stored[view] = value
	c.storedAt[view] = version
}

func (c *stubCatalogueCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	return nil
}

// racingProducts runs onFind before every FindByID, standing in for an
// admin write that lands while a storefront read is in flight.
type racingProducts struct {
	*memProducts
	onFind func()
}

func (r *racingProducts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.onFind()
	return r.memProducts.FindByID(ctx, id)
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func validProductInput(sku string) models.ProductInput {
	return models.ProductInput{
		Name:        strPtr("Wool Coat"),
		Description: strPtr("Warm"),
		Price:       floatPtr(120),
		SKU:         strPtr(sku),
		Category:    strPtr("Top Wear"),
	}
}

func TestProductCreate_DefaultsAndInvalidation(t *testing.T) {
	c := &stubCatalogueCache{}
	svc := NewProductService(newMemProducts(), c, zap.NewNop())

	p, err := svc.Create(context.Background(), primitive.NewObjectID(), validProductInput("WC-1"))

	require.NoError(t, err)
	assert.Equal(t, []string{"One Size"}, p.Sizes)
	assert.Equal(t, []string{"Default"}, p.Colors)
	assert.Equal(t, "General", p.Collections)
	assert.True(t, p.IsPublished)
	assert.Equal(t, 1, c.invalidations)
}

func TestProductCreate_Validation(t *testing.T) {
	svc := NewProductService(newMemProducts(), nil, zap.NewNop())
	ctx := context.Background()

	in := validProductInput("WC-1")
	in.Category = nil
	_, err := svc.Create(ctx, primitive.NewObjectID(), in)
	assertAppError(t, err, apperrors.KindValidation, requiredProductFieldsMessage)

	_, err = svc.Create(ctx, primitive.NewObjectID(), validProductInput("WC-1"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, primitive.NewObjectID(), validProductInput("WC-1"))
	assertAppError(t, err, apperrors.KindValidation, duplicateSKUMessage)
}

func TestProductUpdate_PartialAndSKUConflict(t *testing.T) {
	svc := NewProductService(newMemProducts(), nil, zap.NewNop())
	ctx := context.Background()
	a, err := svc.Create(ctx, primitive.NewObjectID(), validProductInput("A-1"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, primitive.NewObjectID(), validProductInput("B-1"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, a.ID.Hex(), models.ProductInput{Price: floatPtr(99)})
	require.NoError(t, err)
	assert.Equal(t, 99.0, updated.Price)
	assert.Equal(t, "Wool Coat", updated.Name)

	_, err = svc.Update(ctx, a.ID.Hex(), models.ProductInput{SKU: strPtr("B-1")})
	assertAppError(t, err, apperrors.KindValidation, duplicateSKUMessage)

	_, err = svc.Update(ctx, a.ID.Hex(), models.ProductInput{SKU: strPtr("A-1")})
	assert.NoError(t, err)
}

func TestProductGet_HidesUnpublished(t *testing.T) {
	hidden := models.Product{ID: primitive.NewObjectID(), Name: "Draft", IsPublished: false}
	svc := NewProductService(newMemProducts(hidden), nil, zap.NewNop())

	_, err := svc.Get(context.Background(), hidden.ID.Hex())
	assertAppError(t, err, apperrors.KindNotFound, "Product not found")

	_, err = svc.Get(context.Background(), "bogus")
	assertAppError(t, err, apperrors.KindNotFound, "Product not found")
}

func TestProductPublicViews(t *testing.T) {
	now := time.Now()
	base := models.Product{ID: primitive.NewObjectID(), Gender: "Women", Category: "Top Wear", IsPublished: true, Rating: 3, CreatedAt: now}
	twin := models.Product{ID: primitive.NewObjectID(), Gender: "Women", Category: "Top Wear", IsPublished: true, Rating: 5, CreatedAt: now.Add(-time.Hour)}
	other := models.Product{ID: primitive.NewObjectID(), Gender: "Men", Category: "Top Wear", IsPublished: true, Rating: 4, CreatedAt: now.Add(-2 * time.Hour)}
	c := &stubCatalogueCache{}
	svc := NewProductService(newMemProducts(base, twin, other), c, zap.NewNop())
	ctx := context.Background()

	similar, err := svc.Similar(ctx, base.ID.Hex())
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, twin.ID, similar[0].ID)

	best, err := svc.BestSeller(ctx)
	require.NoError(t, err)
	assert.Equal(t, twin.ID, best.ID)

	arrivals, err := svc.NewArrivals(ctx)
	require.NoError(t, err)
	assert.Equal(t, base.ID, arrivals[0].ID)

	assert.Contains(t, c.stored, "best-seller")
	assert.Contains(t, c.stored, "new-arrivals")
}

func TestProductGet_CachesUnderVersionReadAtMiss(t *testing.T) {
	p := models.Product{ID: primitive.NewObjectID(), Name: "Tee", IsPublished: true}
	c := &stubCatalogueCache{}
	repo := &racingProducts{memProducts: newMemProducts(p)}
	repo.onFind = func() { _ = c.Invalidate(context.Background()) }
	svc := NewProductService(repo, c, zap.NewNop())

	_, err := svc.Get(context.Background(), p.ID.Hex())
	require.NoError(t, err)

	view := cache.DetailView(p.ID.Hex())
	assert.Equal(t, 1, c.invalidations)
	assert.Equal(t, int64(1), c.storedAt[view])
}

func TestProductDelete(t *testing.T) {
	c := &stubCatalogueCache{}
	p := models.Product{ID: primitive.NewObjectID()}
	svc := NewProductService(newMemProducts(p), c, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), p.ID.Hex()))
	assert.Equal(t, 1, c.invalidations)

	err := svc.Delete(context.Background(), p.ID.Hex())
	assertAppError(t, err, apperrors.KindNotFound, "Product not found")
}
