// Package cart implements the mutable shopping cart for a user and the
// immutable checkout snapshot an order is created from.
package cart

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for cart operations.
var (
	ErrNotFound        = errors.New("cart not found")
	ErrQuantityTooLow  = errors.New("quantity must be at least 1")
	ErrDiscountExpired = errors.New("discount window has elapsed")
)

// NotFoundError carries the owner of a missing cart. It unwraps to
// ErrNotFound.
type NotFoundError struct {
	UserID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cart for user %s not found", e.UserID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DiscountType scopes an applied discount to a subset of products or to the
// whole cart.
type DiscountType string

const (
	// DiscountProduct applies only to the listed product IDs.
	DiscountProduct DiscountType = "product"
	// DiscountCart applies to every line in the cart.
	DiscountCart DiscountType = "cart"
)

// AppliedDiscount is the cart's single optional discount reference.
type AppliedDiscount struct {
	DiscountID string
	Type       DiscountType
	Percentage decimal.Decimal
	ProductIDs []string
}

// Covers reports whether the discount applies to the given product.
func (d *AppliedDiscount) Covers(productID string) bool {
	if d.Type == DiscountCart {
		return true
	}
	return slices.Contains(d.ProductIDs, productID)
}

// CartItem is one line in a cart: a product reference and a quantity ≥ 1.
type CartItem struct {
	ProductID string
	Quantity  int
}

// Cart is the mutable collection of line items owned by exactly one user.
// Lines keep insertion order; adding an already present product accumulates
// its quantity instead of appending a duplicate line.
type Cart struct {
	UserID   string
	Items    []CartItem
	Discount *AppliedDiscount
}

// New creates an empty cart for the given user.
func New(userID string) *Cart {
	return &Cart{UserID: userID}
}

// AddItem adds quantity units of a product. If the product already has a
// line its quantity accumulates; otherwise a new line is appended. No upper
// bound is imposed here.
func (c *Cart) AddItem(productID string, quantity int) error {
	if quantity < 1 {
		return ErrQuantityTooLow
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return nil
		}
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: quantity})
	return nil
}

// RemoveItem removes the whole line for a product, not a single unit.
// It reports whether a matching line existed.
func (c *Cart) RemoveItem(productID string) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = slices.Delete(c.Items, i, i+1)
			return true
		}
	}
	return false
}

// ApplyDiscount replaces the cart's single optional discount reference.
func (c *Cart) ApplyDiscount(d AppliedDiscount) {
	c.Discount = &d
}

// ClearDiscount removes the discount reference, if any.
func (c *Cart) ClearDiscount() {
	c.Discount = nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ProductIDs returns the product IDs of all lines in insertion order.
func (c *Cart) ProductIDs() []string {
	ids := make([]string, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ProductID
	}
	return ids
}

// Repository defines persistence operations for carts.
type Repository interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Update(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, userID string) error
}

// ItemRepository removes individual cart line rows. Kept separate from
// Repository because line deletion outlives the cart row update in the
// remove flow.
type ItemRepository interface {
	Delete(ctx context.Context, userID, productID string) error
}
