// Package order implements the order aggregate: checkout pricing and the
// status state machine.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shoplane/commerce-core/internal/domain/cart"
	"github.com/shoplane/commerce-core/internal/domain/money"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// NotFoundError carries the identifier of a missing order. It unwraps to
// ErrNotFound.
type NotFoundError struct {
	OrderID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.OrderID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Status is the order lifecycle state. Placed is initial; Completed and
// Canceled are terminal.
type Status string

// Order lifecycle states.
const (
	StatusPlaced     Status = "Placed"
	StatusInProgress Status = "InProgress"
	StatusSent       Status = "Sent"
	StatusCompleted  Status = "Completed"
	StatusCanceled   Status = "Canceled"
)

// String returns the status name.
func (s Status) String() string { return string(s) }

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPlaced, StatusInProgress, StatusSent, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// InvalidStatusChangeError indicates an illegal lifecycle transition. It
// carries the current and the attempted target status as strings for
// diagnostics.
type InvalidStatusChangeError struct {
	From string
	To   string
}

func (e *InvalidStatusChangeError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

// OrderLine is one priced position of an order. The unit price is frozen at
// checkout time and never changes afterwards, independent of later product
// price changes.
type OrderLine struct {
	Position  int         `json:"position"`
	SKU       string      `json:"sku"`
	Name      string      `json:"name"`
	UnitPrice money.Price `json:"unitPrice"`
	Quantity  int         `json:"quantity"`
}

// Order is the aggregate root for a placed order. It exclusively owns its
// lines: they are created once in CreateFromCheckout and exposed only as
// copies.
type Order struct {
	id             string
	userID         string
	lines          []OrderLine
	shipment       cart.Shipment
	payment        cart.PaymentMethod
	placeDate      time.Time
	status         Status
	completionDate *time.Time
}

// CreateFromCheckout prices every line of the checkout snapshot and returns
// a new order in Placed status.
//
// The effective unit price for each line starts from the product's cached
// discounted price when present, otherwise the standard price. A checkout
// discount covering the product takes a percentage off that base, so a
// cart-level discount applies on top of the sale price rather than
// compounding against the standard price.
func CreateFromCheckout(cc *cart.CheckoutCart, now time.Time) (*Order, error) {
	discount := cc.Discount()
	items := cc.Items()

	lines := make([]OrderLine, len(items))
	for i, item := range items {
		base := item.Product.EffectivePrice()

		price := base
		if discount != nil && discount.Covers(item.Product.ID) {
			amount, err := base.MulPercent(discount.Percentage)
			if err != nil {
				return nil, errors.Wrapf(err, "discount for product %s", item.Product.ID)
			}
			price, err = base.Sub(amount)
			if err != nil {
				return nil, errors.Wrapf(err, "price for product %s", item.Product.ID)
			}
		}

		lines[i] = OrderLine{
			Position:  i,
			SKU:       item.Product.SKU,
			Name:      item.Product.Name,
			UnitPrice: price,
			Quantity:  item.Quantity,
		}
	}

	return &Order{
		id:        uuid.New().String(),
		userID:    cc.UserID(),
		lines:     lines,
		shipment:  cc.Shipment(),
		payment:   cc.Payment(),
		placeDate: now,
		status:    StatusPlaced,
	}, nil
}

// Restore reconstructs an order from persisted state. For repository use
// only; it performs no pricing.
func Restore(
	id, userID string,
	lines []OrderLine,
	shipment cart.Shipment,
	payment cart.PaymentMethod,
	placeDate time.Time,
	status Status,
	completionDate *time.Time,
) *Order {
	copied := make([]OrderLine, len(lines))
	copy(copied, lines)
	return &Order{
		id:             id,
		userID:         userID,
		lines:          copied,
		shipment:       shipment,
		payment:        payment,
		placeDate:      placeDate,
		status:         status,
		completionDate: completionDate,
	}
}

// ID returns the order identifier.
func (o *Order) ID() string { return o.id }

// UserID returns the ordering user.
func (o *Order) UserID() string { return o.userID }

// Lines returns a copy of the priced order lines in position order.
func (o *Order) Lines() []OrderLine {
	lines := make([]OrderLine, len(o.lines))
	copy(lines, o.lines)
	return lines
}

// Shipment returns the delivery address.
func (o *Order) Shipment() cart.Shipment { return o.shipment }

// Payment returns the payment method.
func (o *Order) Payment() cart.PaymentMethod { return o.payment }

// PlaceDate returns when the order was placed.
func (o *Order) PlaceDate() time.Time { return o.placeDate }

// Status returns the current lifecycle state.
func (o *Order) Status() Status { return o.status }

// CompletionDate returns when the order was completed, or nil.
func (o *Order) CompletionDate() *time.Time { return o.completionDate }

// IsCompleted reports whether the order reached a terminal state.
func (o *Order) IsCompleted() bool { return o.status.Terminal() }

// Total sums unit price times quantity over all lines. The result is zero
// for an order with no lines, which cannot occur via CreateFromCheckout.
func (o *Order) Total() money.Price {
	if len(o.lines) == 0 {
		return money.Price{}
	}
	total := money.Zero(o.lines[0].UnitPrice.Currency)
	for _, line := range o.lines {
		lineTotal := line.UnitPrice.Amount.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total.Amount = total.Amount.Add(lineTotal)
	}
	return total
}

// StartProcessing moves a placed order into processing.
func (o *Order) StartProcessing() error {
	if o.status != StatusPlaced {
		return &InvalidStatusChangeError{From: o.status.String(), To: StatusInProgress.String()}
	}
	o.status = StatusInProgress
	return nil
}

// Send marks an in-progress order as shipped.
func (o *Order) Send() error {
	if o.status != StatusInProgress {
		return &InvalidStatusChangeError{From: o.status.String(), To: StatusSent.String()}
	}
	o.status = StatusSent
	return nil
}

// Complete finishes a sent order and records the completion instant.
func (o *Order) Complete(now time.Time) error {
	if o.status != StatusSent {
		return &InvalidStatusChangeError{From: o.status.String(), To: StatusCompleted.String()}
	}
	o.status = StatusCompleted
	o.completionDate = &now
	return nil
}

// Cancel aborts an order that has not been sent yet.
func (o *Order) Cancel() error {
	if o.status == StatusSent || o.status == StatusCompleted || o.status == StatusCanceled {
		return &InvalidStatusChangeError{From: o.status.String(), To: StatusCanceled.String()}
	}
	o.status = StatusCanceled
	return nil
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
}
