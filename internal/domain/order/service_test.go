package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shoplane/commerce-core/internal/clock"
	"github.com/shoplane/commerce-core/internal/domain/cart"
	"github.com/shoplane/commerce-core/internal/domain/product"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	byID    map[string]*Order
	created []*Order
	updated []*Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{byID: make(map[string]*Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.byID[o.ID()] = o
	m.created = append(m.created, o)
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *Order) error {
	m.byID[o.ID()] = o
	m.updated = append(m.updated, o)
	return nil
}

type mockCartRepo struct {
	byUser  map[string]*cart.Cart
	deleted []string
}

func (m *mockCartRepo) Get(_ context.Context, userID string) (*cart.Cart, error) {
	c, ok := m.byUser[userID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return c, nil
}

func (m *mockCartRepo) Update(_ context.Context, c *cart.Cart) error {
	m.byUser[c.UserID] = c
	return nil
}

func (m *mockCartRepo) Delete(_ context.Context, userID string) error {
	delete(m.byUser, userID)
	m.deleted = append(m.deleted, userID)
	return nil
}

type mockProductRepo struct {
	byID map[string]product.Product
}

func (m *mockProductRepo) Get(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetBySKU(_ context.Context, _ string) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductRepo) Update(_ context.Context, _ *product.Product) error { return nil }

// --- Tests ---

func TestServiceCheckout(t *testing.T) {
	c := cart.New("u1")
	require.NoError(t, c.AddItem("p1", 2))
	c.ApplyDiscount(cart.AppliedDiscount{Type: cart.DiscountCart, Percentage: decimal.NewFromInt(10)})

	orders := newMockOrderRepo()
	carts := &mockCartRepo{byUser: map[string]*cart.Cart{"u1": c}}
	products := &mockProductRepo{byID: map[string]product.Product{
		"p1": catalogProduct("p1", "SKU1", "100.00", nil),
	}}
	svc := NewService(orders, carts, products, clock.Fixed(placeTime), zap.NewNop())

	o, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:   "u1",
		Shipment: testShipment(),
		Payment:  cart.PaymentCard,
	})

	require.NoError(t, err)
	assert.Equal(t, StatusPlaced, o.Status())
	assert.Equal(t, placeTime, o.PlaceDate())
	require.Len(t, orders.created, 1)

	lines := o.Lines()
	require.Len(t, lines, 1)
	assert.True(t, decimal.RequireFromString("90.00").Equal(lines[0].UnitPrice.Amount))

	assert.Equal(t, []string{"u1"}, carts.deleted, "cart is destroyed once converted")
}

func TestServiceCheckout_CartMissing(t *testing.T) {
	svc := NewService(newMockOrderRepo(), &mockCartRepo{byUser: map[string]*cart.Cart{}},
		&mockProductRepo{}, clock.Fixed(placeTime), zap.NewNop())

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:   "nobody",
		Shipment: testShipment(),
		Payment:  cart.PaymentCard,
	})

	var cnf *cart.NotFoundError
	require.ErrorAs(t, err, &cnf)
	assert.Equal(t, "nobody", cnf.UserID)
}

func TestServiceCheckout_ProductVanished(t *testing.T) {
	c := cart.New("u1")
	require.NoError(t, c.AddItem("ghost", 1))

	carts := &mockCartRepo{byUser: map[string]*cart.Cart{"u1": c}}
	svc := NewService(newMockOrderRepo(), carts, &mockProductRepo{}, clock.Fixed(placeTime), zap.NewNop())

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:   "u1",
		Shipment: testShipment(),
		Payment:  cart.PaymentCard,
	})

	require.ErrorIs(t, err, cart.ErrMissingProduct)
	assert.Empty(t, carts.deleted, "failed checkout must not destroy the cart")
}

func TestServiceTransitions(t *testing.T) {
	cc := checkoutWith(t, nil, catalogProduct("p1", "SKU1", "10.00", nil))
	o, err := CreateFromCheckout(cc, placeTime)
	require.NoError(t, err)

	orders := newMockOrderRepo()
	require.NoError(t, orders.Create(context.Background(), o))
	svc := NewService(orders, &mockCartRepo{}, &mockProductRepo{}, clock.Fixed(placeTime), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.StartProcessing(ctx, o.ID()))
	require.NoError(t, svc.Send(ctx, o.ID()))
	require.NoError(t, svc.Complete(ctx, o.ID()))

	got, err := svc.Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status())
	require.NotNil(t, got.CompletionDate())
	assert.Equal(t, placeTime, *got.CompletionDate())
	assert.Len(t, orders.updated, 3)
}

func TestServiceTransition_IllegalPropagatesUnchanged(t *testing.T) {
	cc := checkoutWith(t, nil, catalogProduct("p1", "SKU1", "10.00", nil))
	o, err := CreateFromCheckout(cc, placeTime)
	require.NoError(t, err)

	orders := newMockOrderRepo()
	require.NoError(t, orders.Create(context.Background(), o))
	svc := NewService(orders, &mockCartRepo{}, &mockProductRepo{}, clock.Fixed(placeTime), zap.NewNop())

	err = svc.Complete(context.Background(), o.ID())

	var scErr *InvalidStatusChangeError
	require.ErrorAs(t, err, &scErr)
	assert.Equal(t, "Placed", scErr.From)
	assert.Equal(t, "Completed", scErr.To)
	assert.Empty(t, orders.updated, "illegal transition must not persist")
}

func TestServiceTransition_OrderMissing(t *testing.T) {
	svc := NewService(newMockOrderRepo(), &mockCartRepo{}, &mockProductRepo{}, clock.Fixed(placeTime), zap.NewNop())

	err := svc.Cancel(context.Background(), "nope")

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.OrderID)
}
