package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shoplane/commerce-core/internal/domain/money"
	"github.com/shoplane/commerce-core/internal/domain/product"
)

const (
	productColumns = `id, sku, name, manufacturer, description, category,
		standard_price, discounted_price, currency, image_url, is_available`

	getProductSQL      = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	getProductBySKUSQL = `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	getProductsByIDs   = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`
	listProductsSQL    = `SELECT ` + productColumns + ` FROM products ORDER BY id`

	updateProductSQL = `UPDATE products SET sku = $2, name = $3, manufacturer = $4,
		description = $5, category = $6, standard_price = $7, discounted_price = $8,
		currency = $9, image_url = $10, is_available = $11
		WHERE id = $1`

	upsertProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET sku = EXCLUDED.sku, name = EXCLUDED.name,
			manufacturer = EXCLUDED.manufacturer, description = EXCLUDED.description,
			category = EXCLUDED.category, standard_price = EXCLUDED.standard_price,
			currency = EXCLUDED.currency, image_url = EXCLUDED.image_url,
			is_available = EXCLUDED.is_available`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Get returns a single product by its identifier.
func (r *ProductRepository) Get(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &product.NotFoundError{ProductID: id}
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetBySKU returns a single product by its SKU.
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductBySKUSQL, sku)
	if err != nil {
		return nil, fmt.Errorf("getting product by sku %q: %w", sku, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product by sku %q: %w", sku, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs. Missing IDs are
// simply absent from the result; callers compare lengths when they care.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDs, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Update persists all mutable fields of the product, including the cached
// discounted price.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	var discounted *decimal.Decimal
	if p.DiscountedPrice != nil {
		discounted = &p.DiscountedPrice.Amount
	}

	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.SKU, p.Name, p.Manufacturer, p.Description, p.Category,
		p.StandardPrice.Amount, discounted, p.StandardPrice.Currency,
		p.ImageURL, p.IsAvailable,
	)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &product.NotFoundError{ProductID: p.ID}
	}
	return nil
}

// Upsert inserts a product or refreshes its catalog fields. The cached
// discounted price is left untouched on conflict; the discount machinery
// owns it. Used by the bulk catalog import.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	var discounted *decimal.Decimal
	if p.DiscountedPrice != nil {
		discounted = &p.DiscountedPrice.Amount
	}

	_, err := r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.SKU, p.Name, p.Manufacturer, p.Description, p.Category,
		p.StandardPrice.Amount, discounted, p.StandardPrice.Currency,
		p.ImageURL, p.IsAvailable,
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p          product.Product
		standard   decimal.Decimal
		discounted *decimal.Decimal
		currency   string
	)
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Manufacturer, &p.Description, &p.Category,
		&standard, &discounted, &currency, &p.ImageURL, &p.IsAvailable,
	)
	if err != nil {
		return p, err
	}
	p.StandardPrice = money.Price{Amount: standard, Currency: currency}
	if discounted != nil {
		p.DiscountedPrice = &money.Price{Amount: *discounted, Currency: currency}
	}
	return p, nil
}
