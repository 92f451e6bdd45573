package events

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/shoplane/commerce-core/internal/domain/product"
)

// CacheInvalidator drops a product entry from a read cache. Implemented by
// the redis product cache; a nil invalidator disables invalidation.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, productID string) error
}

// DiscountExpiredHandler reacts to ProductDiscountExpired by clearing the
// product's cached discounted price. The producer already cleared it before
// publishing, so the handler is an idempotent reconciliation step that keeps
// replicas and caches consistent under at-least-once delivery.
type DiscountExpiredHandler struct {
	products product.Repository
	cache    CacheInvalidator
	lg       *zap.Logger
}

// NewDiscountExpiredHandler creates the handler. cache may be nil.
func NewDiscountExpiredHandler(products product.Repository, cache CacheInvalidator, lg *zap.Logger) *DiscountExpiredHandler {
	return &DiscountExpiredHandler{products: products, cache: cache, lg: lg}
}

// Handle clears the cached discounted price of the referenced product.
// A missing product is logged and swallowed: the handler runs
// asynchronously with no caller to report to, and the product may have
// been removed between the delete and the delivery.
func (h *DiscountExpiredHandler) Handle(ctx context.Context, e ProductDiscountExpired) error {
	p, err := h.products.Get(ctx, e.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			h.lg.Error("product does not exist",
				zap.String("product_id", e.ProductID),
				zap.String("discount_id", e.DiscountID),
			)
			return nil
		}
		return errors.Wrap(err, "get product")
	}

	p.ClearDiscountedPrice()
	if err := h.products.Update(ctx, p); err != nil {
		return errors.Wrap(err, "clear discounted price")
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, e.ProductID); err != nil {
			// The cache entry expires on its own TTL; reads fall back to
			// the repository meanwhile.
			h.lg.Warn("cache invalidation failed",
				zap.String("product_id", e.ProductID),
				zap.Error(err),
			)
		}
	}

	h.lg.Info("discount expired for product",
		zap.String("product_id", e.ProductID),
		zap.String("discount_id", e.DiscountID),
	)
	return nil
}
