package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/models"
	awspkg "github.com/bardan8586/Fancy-Enterprise/pkg/aws"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	productKeyPrefix  = "products:v:"
	productVersionKey = "products:version"

	DefaultProductTTL = 10 * time.Minute
)

// ProductCache stores rendered catalogue responses. Every key embeds the
// current catalogue version, so bumping the version invalidates all of them
// at once.
type ProductCache struct {
	redis   *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
	metrics awspkg.MetricsRecorder
}

func NewProductCache(client *redis.Client, ttl time.Duration, logger *zap.Logger, metrics awspkg.MetricsRecorder) *ProductCache {
	if ttl <= 0 {
		ttl = DefaultProductTTL
	}
	return &ProductCache{redis: client, ttl: ttl, logger: logger, metrics: metrics}
}

// Get decodes the cached value for view into dst and reports the catalogue
// version it looked under. Any Redis failure counts as a miss, and a zero
// version means the miss must not be cached.
func (c *ProductCache) Get(ctx context.Context, view string, dst any) (int64, bool) {
	version, err := c.version(ctx)
	if err != nil {
		c.record(ctx, awspkg.MetricCacheMisses)
		return 0, false
	}

	raw, err := c.redis.Get(ctx, c.key(version, view)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("product cache read failed", zap.String("view", view), zap.Error(err))
		}
		c.record(ctx, awspkg.MetricCacheMisses)
		return version, false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("failed to unmarshal cached products", zap.String("view", view), zap.Error(err))
		c.record(ctx, awspkg.MetricCacheMisses)
		return version, false
	}

	c.record(ctx, awspkg.MetricCacheHits)
	return version, true
}

// SetAsync caches value for view under the version the miss was read at,
// without blocking the request. A write racing an Invalidate lands under the
// old version, which no reader uses any more.
func (c *ProductCache) SetAsync(version int64, view string, value any) {
	if version <= 0 {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("failed to marshal products for cache", zap.String("view", view), zap.Error(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.redis.Set(ctx, c.key(version, view), payload, c.ttl).Err(); err != nil {
			c.logger.Warn("failed to cache products", zap.String("view", view), zap.Error(err))
		}
	}()
}

// Invalidate bumps the catalogue version.
func (c *ProductCache) Invalidate(ctx context.Context) error {
	version, err := c.redis.Incr(ctx, productVersionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate product cache: %w", err)
	}
	c.logger.Info("product cache invalidated", zap.Int64("version", version))
	return nil
}

func (c *ProductCache) version(ctx context.Context) (int64, error) {
	v, err := c.redis.Get(ctx, productVersionKey).Int64()
	if err == nil && v > 0 {
		return v, nil
	}
	if errors.Is(err, redis.Nil) {
		// SetNX keeps a concurrent Invalidate from being overwritten.
		if err := c.redis.SetNX(ctx, productVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.redis.Get(ctx, productVersionKey).Int64()
	}
	if err == nil {
		return 0, fmt.Errorf("invalid product cache version %d", v)
	}
	return 0, err
}

func (c *ProductCache) key(version int64, view string) string {
	return productKeyPrefix + strconv.FormatInt(version, 10) + ":" + view
}

func (c *ProductCache) record(ctx context.Context, metric string) {
	if c.metrics == nil {
		return
	}
	_ = c.metrics.RecordCount(ctx, metric, map[string]string{"Cache": "products"})
}

// Views.

func DetailView(id string) string { return "detail:" + id }

func SimilarView(id string) string { return "similar:" + id }

const (
	BestSellerView  = "best-seller"
	NewArrivalsView = "new-arrivals"
)

// ListView derives a stable key from the catalogue filters.
func ListView(f models.ProductFilter) string {
	parts := []string{
		"list",
		"col=" + f.Collection,
		"size=" + f.Size,
		"color=" + f.Color,
		"gender=" + f.Gender,
		"min=" + formatFloat(f.MinPrice),
		"max=" + formatFloat(f.MaxPrice),
		"sort=" + f.SortBy,
		"q=" + strings.ToLower(strings.TrimSpace(f.Search)),
		"cat=" + f.Category,
		"mat=" + f.Material,
		"brand=" + f.Brand,
		"limit=" + strconv.Itoa(f.Limit),
	}
	return strings.Join(parts, "|")
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
