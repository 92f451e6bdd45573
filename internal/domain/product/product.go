package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/shoplane/commerce-core/internal/domain/money"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrDiscountedPriceTooHigh is returned when a cached discounted price is
// not strictly below the standard price.
var ErrDiscountedPriceTooHigh = errors.New("discounted price must be less than standard price")

// NotFoundError carries the identifier of a missing product. It unwraps to
// ErrNotFound.
type NotFoundError struct {
	ProductID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Product represents a catalog item available for purchase.
//
// DiscountedPrice is a denormalized cache of the currently active discount:
// when set it is always strictly below StandardPrice and mirrors exactly one
// active discount window. It is cleared by the ProductDiscountExpired event
// handler, so it is only eventually consistent with the discounts table.
type Product struct {
	ID              string
	SKU             string
	Name            string
	Manufacturer    string
	Description     string
	Category        string
	StandardPrice   money.Price
	DiscountedPrice *money.Price
	ImageURL        string
	IsAvailable     bool
}

// EffectivePrice returns the discounted price when one is cached, otherwise
// the standard price. This is the base every pricing calculation starts from.
func (p *Product) EffectivePrice() money.Price {
	if p.DiscountedPrice != nil {
		return *p.DiscountedPrice
	}
	return p.StandardPrice
}

// SetDiscountedPrice caches a discounted price, enforcing that it is
// strictly below the standard price.
func (p *Product) SetDiscountedPrice(price money.Price) error {
	if !price.LessThan(p.StandardPrice) {
		return ErrDiscountedPriceTooHigh
	}
	p.DiscountedPrice = &price
	return nil
}

// ClearDiscountedPrice removes the cached discounted price. Clearing an
// already absent price is a no-op.
func (p *Product) ClearDiscountedPrice() {
	p.DiscountedPrice = nil
}

// Repository defines persistence operations for products.
type Repository interface {
	Get(ctx context.Context, id string) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	List(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, p *Product) error
}
