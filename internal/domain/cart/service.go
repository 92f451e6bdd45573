package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shoplane/commerce-core/internal/clock"
	"github.com/shoplane/commerce-core/internal/domain/discount"
	"github.com/shoplane/commerce-core/internal/domain/money"
	"github.com/shoplane/commerce-core/internal/domain/product"
)

// Service implements the cart use cases: adding and removing products and
// attaching discount references. A cart is created implicitly on first add.
type Service struct {
	carts     Repository
	items     ItemRepository
	products  product.Repository
	discounts discount.Repository
	clock     clock.Clock
	lg        *zap.Logger
}

// NewService creates a cart Service with the required dependencies.
func NewService(
	carts Repository,
	items ItemRepository,
	products product.Repository,
	discounts discount.Repository,
	clk clock.Clock,
	lg *zap.Logger,
) *Service {
	return &Service{
		carts:     carts,
		items:     items,
		products:  products,
		discounts: discounts,
		clock:     clk,
		lg:        lg,
	}
}

// AddProduct adds quantity units of a product to the user's cart, creating
// the cart when the user does not have one yet.
func (s *Service) AddProduct(ctx context.Context, userID, productID string, quantity int) error {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return &product.NotFoundError{ProductID: productID}
		}
		return errors.Wrap(err, "get product")
	}

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return errors.Wrap(err, "get cart")
		}
		c = New(userID)
	}

	if err := c.AddItem(p.ID, quantity); err != nil {
		return err
	}
	if err := s.carts.Update(ctx, c); err != nil {
		return errors.Wrap(err, "update cart")
	}

	s.lg.Debug("product added to cart",
		zap.String("user_id", userID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
	)
	return nil
}

// RemoveProduct removes the whole line for a product from the user's cart.
// Both the cart and the product must exist; the caller is told which one is
// missing.
func (s *Service) RemoveProduct(ctx context.Context, userID, productID string) error {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &NotFoundError{UserID: userID}
		}
		return errors.Wrap(err, "get cart")
	}

	p, err := s.products.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return &product.NotFoundError{ProductID: productID}
		}
		return errors.Wrap(err, "get product")
	}

	if !c.RemoveItem(p.ID) {
		return &product.NotFoundError{ProductID: productID}
	}
	if err := s.carts.Update(ctx, c); err != nil {
		return errors.Wrap(err, "update cart")
	}
	if err := s.items.Delete(ctx, userID, p.ID); err != nil {
		return errors.Wrap(err, "delete cart item")
	}
	return nil
}

// AttachProductDiscount attaches a currently valid product discount to the
// user's cart, scoped to that discount's product.
func (s *Service) AttachProductDiscount(ctx context.Context, userID, discountID string) error {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &NotFoundError{UserID: userID}
		}
		return errors.Wrap(err, "get cart")
	}

	d, err := s.discounts.Get(ctx, discountID)
	if err != nil {
		if errors.Is(err, discount.ErrNotFound) {
			return &discount.NotFoundError{DiscountID: discountID}
		}
		return errors.Wrap(err, "get discount")
	}
	if d.ExpiredAt(s.clock.Now()) {
		return errors.Wrapf(ErrDiscountExpired, "discount %s", discountID)
	}

	p, err := s.products.Get(ctx, d.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return &product.NotFoundError{ProductID: d.ProductID}
		}
		return errors.Wrap(err, "get product")
	}

	c.ApplyDiscount(AppliedDiscount{
		DiscountID: d.ID,
		Type:       DiscountProduct,
		Percentage: d.Percentage(p.StandardPrice),
		ProductIDs: []string{d.ProductID},
	})
	if err := s.carts.Update(ctx, c); err != nil {
		return errors.Wrap(err, "update cart")
	}
	return nil
}

// AttachCartDiscount attaches a cart-wide percentage discount. The
// percentage must be within [0, 100].
func (s *Service) AttachCartDiscount(ctx context.Context, userID string, percentage decimal.Decimal) error {
	if percentage.IsNegative() || percentage.GreaterThan(decimal.NewFromInt(100)) {
		return money.ErrInvalidPercent
	}

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &NotFoundError{UserID: userID}
		}
		return errors.Wrap(err, "get cart")
	}

	c.ApplyDiscount(AppliedDiscount{
		Type:       DiscountCart,
		Percentage: percentage,
	})
	if err := s.carts.Update(ctx, c); err != nil {
		return errors.Wrap(err, "update cart")
	}
	return nil
}

// ClearDiscount removes the cart's discount reference, if any.
func (s *Service) ClearDiscount(ctx context.Context, userID string) error {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &NotFoundError{UserID: userID}
		}
		return errors.Wrap(err, "get cart")
	}

	c.ClearDiscount()
	if err := s.carts.Update(ctx, c); err != nil {
		return errors.Wrap(err, "update cart")
	}
	return nil
}

// Get returns the user's cart.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{UserID: userID}
		}
		return nil, errors.Wrap(err, "get cart")
	}
	return c, nil
}
