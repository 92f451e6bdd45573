package events

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shoplane/commerce-core/internal/domain/money"
	"github.com/shoplane/commerce-core/internal/domain/product"
)

type mockProductRepo struct {
	byID    map[string]*product.Product
	updated []*product.Product
}

func (m *mockProductRepo) Get(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetBySKU(_ context.Context, _ string) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) GetByIDs(_ context.Context, _ []string) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductRepo) Update(_ context.Context, p *product.Product) error {
	m.updated = append(m.updated, p)
	return nil
}

type mockInvalidator struct {
	invalidated []string
	err         error
}

func (m *mockInvalidator) Invalidate(_ context.Context, productID string) error {
	if m.err != nil {
		return m.err
	}
	m.invalidated = append(m.invalidated, productID)
	return nil
}

func TestDiscountExpiredHandler_ClearsCachedPrice(t *testing.T) {
	cached := money.MustParse("80.00", "USD")
	p := &product.Product{
		ID:              "p1",
		StandardPrice:   money.MustParse("100.00", "USD"),
		DiscountedPrice: &cached,
	}
	repo := &mockProductRepo{byID: map[string]*product.Product{"p1": p}}
	cache := &mockInvalidator{}
	h := NewDiscountExpiredHandler(repo, cache, zap.NewNop())

	err := h.Handle(context.Background(), ProductDiscountExpired{ProductID: "p1", DiscountID: "d1"})

	require.NoError(t, err)
	require.Len(t, repo.updated, 1)
	assert.Nil(t, repo.updated[0].DiscountedPrice)
	assert.Equal(t, []string{"p1"}, cache.invalidated)
}

func TestDiscountExpiredHandler_AlreadyAbsentIsIdempotent(t *testing.T) {
	p := &product.Product{ID: "p1", StandardPrice: money.MustParse("100.00", "USD")}
	repo := &mockProductRepo{byID: map[string]*product.Product{"p1": p}}
	h := NewDiscountExpiredHandler(repo, nil, zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), ProductDiscountExpired{ProductID: "p1"}))
	require.NoError(t, h.Handle(context.Background(), ProductDiscountExpired{ProductID: "p1"}))

	assert.Len(t, repo.updated, 2, "each delivery reconciles; both are no-op clears")
}

func TestDiscountExpiredHandler_MissingProductIsSwallowed(t *testing.T) {
	repo := &mockProductRepo{byID: map[string]*product.Product{}}
	h := NewDiscountExpiredHandler(repo, nil, zap.NewNop())

	err := h.Handle(context.Background(), ProductDiscountExpired{ProductID: "gone"})

	require.NoError(t, err, "no caller to report to; log and return")
	assert.Empty(t, repo.updated)
}

func TestDiscountExpiredHandler_CacheFailureDoesNotFail(t *testing.T) {
	p := &product.Product{ID: "p1", StandardPrice: money.MustParse("100.00", "USD")}
	repo := &mockProductRepo{byID: map[string]*product.Product{"p1": p}}
	cache := &mockInvalidator{err: errors.New("redis down")}
	h := NewDiscountExpiredHandler(repo, cache, zap.NewNop())

	err := h.Handle(context.Background(), ProductDiscountExpired{ProductID: "p1"})

	require.NoError(t, err, "stale cache entry expires via TTL; the write already succeeded")
}
