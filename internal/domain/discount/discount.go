// Package discount implements time-bounded product discounts: validation of
// discount windows, the per-product non-overlap rule, and the service that
// keeps the product's cached discounted price in sync on expiry.
package discount

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/shoplane/commerce-core/internal/domain/money"
)

// Sentinel errors for discount operations.
var (
	ErrNotFound    = errors.New("product discount not found")
	ErrConflict    = errors.New("product already has a discount in this window")
	ErrInvalidDate = errors.New("invalid discount date")
)

// NotFoundError carries the identifier of a missing discount. It unwraps to
// ErrNotFound.
type NotFoundError struct {
	DiscountID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product discount %s not found", e.DiscountID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError indicates the requested window overlaps an existing discount
// for the same product. It unwraps to ErrConflict.
type ConflictError struct {
	ProductID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("product %s already has a discount overlapping the requested window", e.ProductID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Window is a half-open time range [From, To). The To instant itself is
// excluded, so back-to-back windows do not overlap.
type Window struct {
	From time.Time
	To   time.Time
}

// Overlaps reports whether two half-open windows intersect:
// [a1,b1) and [a2,b2) overlap iff a1 < b2 && a2 < b1.
func (w Window) Overlaps(other Window) bool {
	return w.From.Before(other.To) && other.From.Before(w.To)
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// ProductDiscount is a time-bounded price override for a single product.
type ProductDiscount struct {
	ID        string
	ProductID string
	NewPrice  money.Price
	ValidFrom time.Time
	ValidTo   time.Time
}

// Window returns the discount's validity range.
func (d *ProductDiscount) Window() Window {
	return Window{From: d.ValidFrom, To: d.ValidTo}
}

// ActiveAt reports whether the discount applies at the given instant.
func (d *ProductDiscount) ActiveAt(t time.Time) bool {
	return d.Window().Contains(t)
}

// ExpiredAt reports whether the discount's window has fully elapsed.
func (d *ProductDiscount) ExpiredAt(t time.Time) bool {
	return !t.Before(d.ValidTo)
}

// Percentage derives the discount percentage relative to the given standard
// price, rounded to two decimal places. A zero standard price yields zero.
func (d *ProductDiscount) Percentage(standard money.Price) decimal.Decimal {
	if standard.IsZero() {
		return decimal.Zero
	}
	reduction := standard.Amount.Sub(d.NewPrice.Amount)
	return reduction.Div(standard.Amount).Mul(decimal.NewFromInt(100)).Round(2)
}

// Repository defines persistence operations for product discounts.
//
// CanAddForProduct and Add together form the overlap guard. Because a
// read-then-write check races with concurrent adds for the same product, Add
// must itself be atomic at the storage layer: it re-checks the window and
// returns a *ConflictError when another discount slipped in between.
type Repository interface {
	CanAddForProduct(ctx context.Context, productID string, from, to time.Time) (bool, error)
	Add(ctx context.Context, d *ProductDiscount) error
	Get(ctx context.Context, id string) (*ProductDiscount, error)
	Delete(ctx context.Context, d *ProductDiscount) error
	ListExpired(ctx context.Context, asOf time.Time) ([]ProductDiscount, error)
	FindActive(ctx context.Context, productID string, at time.Time) (*ProductDiscount, error)
}
