package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoplane/commerce-core/internal/domain/cart"
)

const (
	getCartSQL = `SELECT discount FROM carts WHERE user_id = $1`

	getCartItemsSQL = `SELECT product_id, quantity FROM cart_items
		WHERE user_id = $1 ORDER BY position`

	upsertCartSQL = `INSERT INTO carts (user_id, discount, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET discount = EXCLUDED.discount, updated_at = now()`

	upsertCartItemSQL = `INSERT INTO cart_items (user_id, product_id, quantity, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			quantity = EXCLUDED.quantity, position = EXCLUDED.position`

	deleteCartSQL = `DELETE FROM carts WHERE user_id = $1`

	deleteCartItemSQL = `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. The cart
// row holds the optional discount as JSONB; lines live in cart_items keyed
// by (user_id, product_id) with an explicit position to keep insertion order.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get loads a cart with its lines in insertion order. Returns
// *cart.NotFoundError when the user has no cart.
func (r *CartRepository) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	var discountJSON []byte
	err := r.pool.QueryRow(ctx, getCartSQL, userID).Scan(&discountJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &cart.NotFoundError{UserID: userID}
		}
		return nil, fmt.Errorf("getting cart for user %q: %w", userID, err)
	}

	c := cart.New(userID)
	if len(discountJSON) > 0 {
		var d cart.AppliedDiscount
		if err := json.Unmarshal(discountJSON, &d); err != nil {
			return nil, fmt.Errorf("unmarshaling cart discount for user %q: %w", userID, err)
		}
		c.Discount = &d
	}

	rows, err := r.pool.Query(ctx, getCartItemsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("getting cart items for user %q: %w", userID, err)
	}
	c.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.CartItem, error) {
		var item cart.CartItem
		err := row.Scan(&item.ProductID, &item.Quantity)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning cart items for user %q: %w", userID, err)
	}
	return c, nil
}

// Update upserts the cart row and every present line. Lines removed from the
// cart are deleted separately through CartItemRepository, so a remove that
// races a concurrent add never resurrects the line.
func (r *CartRepository) Update(ctx context.Context, c *cart.Cart) error {
	var discountJSON []byte
	if c.Discount != nil {
		var err error
		discountJSON, err = json.Marshal(c.Discount)
		if err != nil {
			return fmt.Errorf("marshaling cart discount: %w", err)
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning cart update: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, upsertCartSQL, c.UserID, discountJSON); err != nil {
		return fmt.Errorf("upserting cart for user %q: %w", c.UserID, err)
	}

	for pos, item := range c.Items {
		_, err := tx.Exec(ctx, upsertCartItemSQL, c.UserID, item.ProductID, item.Quantity, pos)
		if err != nil {
			return fmt.Errorf("upserting cart item %q: %w", item.ProductID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing cart update: %w", err)
	}
	return nil
}

// Delete removes the cart and, via cascade, all of its lines. Deleting an
// absent cart is a no-op.
func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, deleteCartSQL, userID)
	if err != nil {
		return fmt.Errorf("deleting cart for user %q: %w", userID, err)
	}
	return nil
}

var _ cart.ItemRepository = (*CartItemRepository)(nil)

// CartItemRepository implements cart.ItemRepository backed by PostgreSQL.
type CartItemRepository struct {
	pool *pgxpool.Pool
}

// NewCartItemRepository returns a CartItemRepository that uses the given pool.
func NewCartItemRepository(pool *pgxpool.Pool) *CartItemRepository {
	return &CartItemRepository{pool: pool}
}

// Delete removes a single cart line. Removing an absent line is a no-op.
func (r *CartItemRepository) Delete(ctx context.Context, userID, productID string) error {
	_, err := r.pool.Exec(ctx, deleteCartItemSQL, userID, productID)
	if err != nil {
		return fmt.Errorf("deleting cart item %q for user %q: %w", productID, userID, err)
	}
	return nil
}
