package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shoplane/commerce-core/internal/clock"
	"github.com/shoplane/commerce-core/internal/domain/money"
	"github.com/shoplane/commerce-core/internal/domain/product"
	"github.com/shoplane/commerce-core/internal/events"
)

// AddRequest holds the input for creating a product discount.
type AddRequest struct {
	ProductID string
	NewPrice  money.Price
	ValidFrom time.Time
	ValidTo   time.Time
}

// Service orchestrates discount creation and deletion. Deleting a discount
// clears the product's cached discounted price and publishes exactly one
// ProductDiscountExpired event, in that order.
type Service struct {
	discounts Repository
	products  product.Repository
	broker    events.Publisher
	clock     clock.Clock
	lg        *zap.Logger
}

// NewService creates a discount Service with the required dependencies.
func NewService(
	discounts Repository,
	products product.Repository,
	broker events.Publisher,
	clk clock.Clock,
	lg *zap.Logger,
) *Service {
	return &Service{
		discounts: discounts,
		products:  products,
		broker:    broker,
		clock:     clk,
		lg:        lg,
	}
}

// Add validates and persists a new discount for a product. The window must
// start in the future, end after it starts, and not overlap any existing
// window for the same product. The product's cached discounted price is NOT
// touched here; the sweeper sets it once the window becomes active.
func (s *Service) Add(ctx context.Context, req AddRequest) (string, error) {
	p, err := s.products.Get(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return "", &product.NotFoundError{ProductID: req.ProductID}
		}
		return "", errors.Wrap(err, "get product")
	}

	if err := ValidateWindow(req.ValidFrom, req.ValidTo, s.clock.Now()); err != nil {
		return "", err
	}

	if !req.NewPrice.LessThan(p.StandardPrice) {
		return "", product.ErrDiscountedPriceTooHigh
	}

	ok, err := s.discounts.CanAddForProduct(ctx, req.ProductID, req.ValidFrom, req.ValidTo)
	if err != nil {
		return "", errors.Wrap(err, "check discount window")
	}
	if !ok {
		return "", &ConflictError{ProductID: req.ProductID}
	}

	d := &ProductDiscount{
		ID:        uuid.New().String(),
		ProductID: req.ProductID,
		NewPrice:  req.NewPrice,
		ValidFrom: req.ValidFrom,
		ValidTo:   req.ValidTo,
	}
	if err := s.discounts.Add(ctx, d); err != nil {
		return "", errors.Wrap(err, "add discount")
	}

	s.lg.Info("discount added",
		zap.String("discount_id", d.ID),
		zap.String("product_id", d.ProductID),
		zap.Time("valid_from", d.ValidFrom),
		zap.Time("valid_to", d.ValidTo),
	)
	return d.ID, nil
}

// Delete removes a discount, unconditionally clears the referenced product's
// cached discounted price, and publishes a single ProductDiscountExpired
// event. The cache clear is persisted before the publish call so consumers
// never observe the event ahead of the cleared cache.
func (s *Service) Delete(ctx context.Context, id string) error {
	d, err := s.discounts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &NotFoundError{DiscountID: id}
		}
		return errors.Wrap(err, "get discount")
	}

	if err := s.discounts.Delete(ctx, d); err != nil {
		return errors.Wrap(err, "delete discount")
	}

	if err := s.clearCachedPrice(ctx, d.ProductID); err != nil {
		return err
	}

	event := events.ProductDiscountExpired{
		ID:         uuid.New().String(),
		ProductID:  d.ProductID,
		DiscountID: d.ID,
		OccurredAt: s.clock.Now(),
	}
	if err := s.broker.Publish(ctx, event); err != nil {
		return errors.Wrap(err, "publish discount expired")
	}

	s.lg.Info("discount deleted",
		zap.String("discount_id", d.ID),
		zap.String("product_id", d.ProductID),
	)
	return nil
}

// clearCachedPrice drops the product's cached discounted price. A vanished
// product is not an error here: the delete already happened and the expiry
// event will be a no-op for consumers too.
func (s *Service) clearCachedPrice(ctx context.Context, productID string) error {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			s.lg.Warn("product missing while clearing discounted price",
				zap.String("product_id", productID))
			return nil
		}
		return errors.Wrap(err, "get product")
	}

	p.ClearDiscountedPrice()
	if err := s.products.Update(ctx, p); err != nil {
		return errors.Wrap(err, "clear discounted price")
	}
	return nil
}
