package cart

import (
	"slices"

	"github.com/go-faster/errors"

	"github.com/shoplane/commerce-core/internal/domain/product"
)

// Sentinel errors for checkout snapshot creation.
var (
	ErrEmptyCart      = errors.New("cannot checkout an empty cart")
	ErrNoShipment     = errors.New("shipment is required")
	ErrInvalidPayment = errors.New("invalid payment method")
	ErrMissingProduct = errors.New("cart references a product that no longer exists")
)

// PaymentMethod identifies how the order will be paid.
type PaymentMethod string

// Supported payment methods.
const (
	PaymentCard           PaymentMethod = "card"
	PaymentTransfer       PaymentMethod = "transfer"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// Valid reports whether the payment method is one of the supported values.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentTransfer, PaymentCashOnDelivery:
		return true
	}
	return false
}

// Shipment holds the delivery address for an order.
type Shipment struct {
	FullName   string
	Street     string
	City       string
	PostalCode string
	Country    string
}

// Empty reports whether no address data is present at all.
func (s Shipment) Empty() bool {
	return s == Shipment{}
}

// CheckoutItem pairs a full product snapshot with the ordered quantity.
type CheckoutItem struct {
	Product  product.Product
	Quantity int
}

// CheckoutCart is the immutable snapshot taken at the moment of checkout.
// It captures the cart lines with full product data, the shipment, the
// payment method, and the optional discount. Nothing mutates it afterwards;
// that immutability is what makes order pricing deterministic and auditable.
type CheckoutCart struct {
	userID   string
	items    []CheckoutItem
	shipment Shipment
	payment  PaymentMethod
	discount *AppliedDiscount
}

// Checkout produces the immutable snapshot for this cart. The products map
// supplies the full product data for every line; insertion order of the cart
// lines is preserved.
func (c *Cart) Checkout(products map[string]product.Product, shipment Shipment, payment PaymentMethod) (*CheckoutCart, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if shipment.Empty() {
		return nil, ErrNoShipment
	}
	if !payment.Valid() {
		return nil, ErrInvalidPayment
	}

	items := make([]CheckoutItem, len(c.Items))
	for i, line := range c.Items {
		p, ok := products[line.ProductID]
		if !ok {
			return nil, errors.Wrapf(ErrMissingProduct, "product %s", line.ProductID)
		}
		items[i] = CheckoutItem{Product: p, Quantity: line.Quantity}
	}

	var discount *AppliedDiscount
	if c.Discount != nil {
		d := *c.Discount
		d.ProductIDs = slices.Clone(c.Discount.ProductIDs)
		discount = &d
	}

	return &CheckoutCart{
		userID:   c.UserID,
		items:    items,
		shipment: shipment,
		payment:  payment,
		discount: discount,
	}, nil
}

// UserID returns the cart owner.
func (cc *CheckoutCart) UserID() string { return cc.userID }

// Items returns a copy of the snapshot lines in insertion order.
func (cc *CheckoutCart) Items() []CheckoutItem {
	items := make([]CheckoutItem, len(cc.items))
	copy(items, cc.items)
	return items
}

// Shipment returns the delivery address.
func (cc *CheckoutCart) Shipment() Shipment { return cc.shipment }

// Payment returns the payment method.
func (cc *CheckoutCart) Payment() PaymentMethod { return cc.payment }

// Discount returns a copy of the attached discount, or nil.
func (cc *CheckoutCart) Discount() *AppliedDiscount {
	if cc.discount == nil {
		return nil
	}
	d := *cc.discount
	d.ProductIDs = slices.Clone(cc.discount.ProductIDs)
	return &d
}
