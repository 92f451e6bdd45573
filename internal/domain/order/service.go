package order

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/shoplane/commerce-core/internal/clock"
	"github.com/shoplane/commerce-core/internal/domain/cart"
	"github.com/shoplane/commerce-core/internal/domain/product"
)

// CheckoutRequest holds the input for converting a cart into an order.
type CheckoutRequest struct {
	UserID   string
	Shipment cart.Shipment
	Payment  cart.PaymentMethod
}

// Service implements the order use cases: checkout and lifecycle
// transitions. Transitions mutate the aggregate synchronously; only the
// repository calls around them perform I/O.
type Service struct {
	orders   Repository
	carts    cart.Repository
	products product.Repository
	clock    clock.Clock
	lg       *zap.Logger
}

// NewService creates an order Service with the required dependencies.
func NewService(
	orders Repository,
	carts cart.Repository,
	products product.Repository,
	clk clock.Clock,
	lg *zap.Logger,
) *Service {
	return &Service{
		orders:   orders,
		carts:    carts,
		products: products,
		clock:    clk,
		lg:       lg,
	}
}

// Checkout snapshots the user's cart, prices every line, persists the new
// order, and destroys the cart. The snapshot is taken with the product data
// current at this instant, so later product price changes never affect the
// order.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	c, err := s.carts.Get(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return nil, &cart.NotFoundError{UserID: req.UserID}
		}
		return nil, errors.Wrap(err, "get cart")
	}

	fetched, err := s.products.GetByIDs(ctx, c.ProductIDs())
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	products := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		products[p.ID] = p
	}

	cc, err := c.Checkout(products, req.Shipment, req.Payment)
	if err != nil {
		return nil, err
	}

	o, err := CreateFromCheckout(cc, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	if err := s.carts.Delete(ctx, req.UserID); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}

	s.lg.Info("order placed",
		zap.String("order_id", o.ID()),
		zap.String("user_id", o.UserID()),
		zap.Int("lines", len(o.Lines())),
	)
	return o, nil
}

// Get returns an order by ID.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{OrderID: orderID}
		}
		return nil, errors.Wrap(err, "get order")
	}
	return o, nil
}

// StartProcessing transitions an order from Placed to InProgress.
func (s *Service) StartProcessing(ctx context.Context, orderID string) error {
	return s.transition(ctx, orderID, (*Order).StartProcessing)
}

// Send transitions an order from InProgress to Sent.
func (s *Service) Send(ctx context.Context, orderID string) error {
	return s.transition(ctx, orderID, (*Order).Send)
}

// Complete transitions an order from Sent to Completed, stamping the
// completion date.
func (s *Service) Complete(ctx context.Context, orderID string) error {
	now := s.clock.Now()
	return s.transition(ctx, orderID, func(o *Order) error {
		return o.Complete(now)
	})
}

// Cancel transitions an order to Canceled; only Placed and InProgress
// orders may be canceled.
func (s *Service) Cancel(ctx context.Context, orderID string) error {
	return s.transition(ctx, orderID, (*Order).Cancel)
}

// transition loads the order, applies the mutation, and persists the
// result. Domain errors from the mutation propagate unchanged.
func (s *Service) transition(ctx context.Context, orderID string, mutate func(*Order) error) error {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &NotFoundError{OrderID: orderID}
		}
		return errors.Wrap(err, "get order")
	}

	if err := mutate(o); err != nil {
		return err
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return errors.Wrap(err, "update order")
	}

	s.lg.Info("order status changed",
		zap.String("order_id", o.ID()),
		zap.String("status", o.Status().String()),
	)
	return nil
}
