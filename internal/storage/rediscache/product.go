// Package rediscache decorates the product repository with a Redis
// read-through cache. Cache failures degrade to the underlying repository;
// they are never surfaced to callers.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shoplane/commerce-core/internal/domain/product"
)

var _ product.Repository = (*ProductCache)(nil)

// ProductCache wraps a product.Repository with per-product caching of Get
// lookups. Entries expire by TTL; writes and the discount expiry handler
// invalidate eagerly on top of that.
type ProductCache struct {
	inner  product.Repository
	client *redis.Client
	ttl    time.Duration
	lg     *zap.Logger
}

// NewProductCache returns a caching decorator around inner.
func NewProductCache(inner product.Repository, client *redis.Client, ttl time.Duration, lg *zap.Logger) *ProductCache {
	return &ProductCache{inner: inner, client: client, ttl: ttl, lg: lg}
}

func cacheKey(productID string) string {
	return "product:" + productID
}

// Get returns the cached product when present, otherwise reads through to
// the underlying repository and stores the result.
func (c *ProductCache) Get(ctx context.Context, id string) (*product.Product, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err == nil {
		var p product.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		// Corrupt entry; drop it and read through.
		c.client.Del(ctx, cacheKey(id))
	} else if err != redis.Nil {
		c.lg.Warn("product cache read failed", zap.String("product_id", id), zap.Error(err))
	}

	p, err := c.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, p)
	return p, nil
}

// GetBySKU is a pass-through; SKU lookups are rare and not worth a second
// key space.
func (c *ProductCache) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	return c.inner.GetBySKU(ctx, sku)
}

// GetByIDs is a pass-through; checkout wants one consistent snapshot of all
// lines, not a mix of cached and fresh rows.
func (c *ProductCache) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	return c.inner.GetByIDs(ctx, ids)
}

// List is a pass-through.
func (c *ProductCache) List(ctx context.Context) ([]product.Product, error) {
	return c.inner.List(ctx)
}

// Update writes through to the repository and invalidates the cached entry.
func (c *ProductCache) Update(ctx context.Context, p *product.Product) error {
	if err := c.inner.Update(ctx, p); err != nil {
		return err
	}
	return c.Invalidate(ctx, p.ID)
}

// Invalidate drops the cached entry for a product. A failed delete is logged
// and swallowed; the entry still expires by TTL.
func (c *ProductCache) Invalidate(ctx context.Context, productID string) error {
	if err := c.client.Del(ctx, cacheKey(productID)).Err(); err != nil {
		c.lg.Warn("product cache invalidation failed",
			zap.String("product_id", productID),
			zap.Error(err),
		)
	}
	return nil
}

func (c *ProductCache) store(ctx context.Context, p *product.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(p.ID), data, c.ttl).Err(); err != nil {
		c.lg.Warn("product cache write failed", zap.String("product_id", p.ID), zap.Error(err))
	}
}
