package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shoplane/commerce-core/internal/domain/discount"
	"github.com/shoplane/commerce-core/internal/domain/money"
)

const (
	discountColumns = `id, product_id, new_price, currency, valid_from, valid_to`

	getDiscountSQL = `SELECT ` + discountColumns + ` FROM product_discounts WHERE id = $1`

	overlapExistsSQL = `SELECT EXISTS (
		SELECT 1 FROM product_discounts
		WHERE product_id = $1 AND valid_from < $3 AND $2 < valid_to)`

	insertDiscountSQL = `INSERT INTO product_discounts (` + discountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	deleteDiscountSQL = `DELETE FROM product_discounts WHERE id = $1`

	listExpiredSQL = `SELECT ` + discountColumns + ` FROM product_discounts
		WHERE valid_to <= $1 ORDER BY valid_to`

	findActiveSQL = `SELECT ` + discountColumns + ` FROM product_discounts
		WHERE product_id = $1 AND valid_from <= $2 AND $2 < valid_to
		LIMIT 1`

	// Serializes discount inserts per product so the overlap check and the
	// insert are atomic. The lock is released at transaction end.
	advisoryLockSQL = `SELECT pg_advisory_xact_lock(hashtext($1))`
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// CanAddForProduct reports whether [from, to) is free of existing discounts
// for the product. This is advisory; Add re-checks under a per-product lock.
func (r *DiscountRepository) CanAddForProduct(ctx context.Context, productID string, from, to time.Time) (bool, error) {
	var overlaps bool
	err := r.pool.QueryRow(ctx, overlapExistsSQL, productID, from, to).Scan(&overlaps)
	if err != nil {
		return false, fmt.Errorf("checking discount overlap for product %q: %w", productID, err)
	}
	return !overlaps, nil
}

// Add inserts the discount atomically with respect to concurrent adds for
// the same product. It takes a per-product advisory lock, re-runs the
// overlap check inside the transaction and returns *discount.ConflictError
// when another discount claimed an intersecting window first.
func (r *DiscountRepository) Add(ctx context.Context, d *discount.ProductDiscount) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning discount insert: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, advisoryLockSQL, d.ProductID); err != nil {
		return fmt.Errorf("locking product %q: %w", d.ProductID, err)
	}

	var overlaps bool
	if err := tx.QueryRow(ctx, overlapExistsSQL, d.ProductID, d.ValidFrom, d.ValidTo).Scan(&overlaps); err != nil {
		return fmt.Errorf("re-checking discount overlap for product %q: %w", d.ProductID, err)
	}
	if overlaps {
		return &discount.ConflictError{ProductID: d.ProductID}
	}

	_, err = tx.Exec(ctx, insertDiscountSQL,
		d.ID, d.ProductID, d.NewPrice.Amount, d.NewPrice.Currency, d.ValidFrom, d.ValidTo,
	)
	if err != nil {
		return fmt.Errorf("inserting discount %q: %w", d.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing discount insert: %w", err)
	}
	return nil
}

// Get returns a single discount by its identifier.
func (r *DiscountRepository) Get(ctx context.Context, id string) (*discount.ProductDiscount, error) {
	rows, err := r.pool.Query(ctx, getDiscountSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting discount %q: %w", id, err)
	}

	d, err := pgx.CollectExactlyOneRow(rows, scanDiscount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &discount.NotFoundError{DiscountID: id}
		}
		return nil, fmt.Errorf("getting discount %q: %w", id, err)
	}
	return &d, nil
}

// Delete removes the discount row. Deleting an already removed discount
// returns *discount.NotFoundError.
func (r *DiscountRepository) Delete(ctx context.Context, d *discount.ProductDiscount) error {
	tag, err := r.pool.Exec(ctx, deleteDiscountSQL, d.ID)
	if err != nil {
		return fmt.Errorf("deleting discount %q: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &discount.NotFoundError{DiscountID: d.ID}
	}
	return nil
}

// ListExpired returns discounts whose window fully elapsed before asOf,
// oldest first.
func (r *DiscountRepository) ListExpired(ctx context.Context, asOf time.Time) ([]discount.ProductDiscount, error) {
	rows, err := r.pool.Query(ctx, listExpiredSQL, asOf)
	if err != nil {
		return nil, fmt.Errorf("listing expired discounts: %w", err)
	}
	return pgx.CollectRows(rows, scanDiscount)
}

// FindActive returns the discount covering the given instant for a product.
// At most one exists because windows never overlap per product.
func (r *DiscountRepository) FindActive(ctx context.Context, productID string, at time.Time) (*discount.ProductDiscount, error) {
	rows, err := r.pool.Query(ctx, findActiveSQL, productID, at)
	if err != nil {
		return nil, fmt.Errorf("finding active discount for product %q: %w", productID, err)
	}

	d, err := pgx.CollectExactlyOneRow(rows, scanDiscount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNotFound
		}
		return nil, fmt.Errorf("finding active discount for product %q: %w", productID, err)
	}
	return &d, nil
}

func scanDiscount(row pgx.CollectableRow) (discount.ProductDiscount, error) {
	var (
		d        discount.ProductDiscount
		amount   decimal.Decimal
		currency string
	)
	err := row.Scan(&d.ID, &d.ProductID, &amount, &currency, &d.ValidFrom, &d.ValidTo)
	if err != nil {
		return d, err
	}
	d.NewPrice = money.Price{Amount: amount, Currency: currency}
	return d, nil
}
