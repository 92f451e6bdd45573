package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoplane/commerce-core/internal/domain/cart"
	"github.com/shoplane/commerce-core/internal/domain/order"
)

const (
	orderColumns = `id, user_id, lines, shipment, payment, status, place_date, completion_date`

	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	updateOrderSQL = `UPDATE orders SET status = $2, completion_date = $3 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. The
// priced lines and the shipment address are serialized to JSONB; they are
// frozen at checkout and never queried field-by-field.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines())
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}
	shipmentJSON, err := json.Marshal(o.Shipment())
	if err != nil {
		return fmt.Errorf("marshaling order shipment: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID(), o.UserID(), linesJSON, shipmentJSON,
		string(o.Payment()), o.Status().String(), o.PlaceDate(), o.CompletionDate(),
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID(), err)
	}
	return nil
}

// Get returns a single order by its identifier.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &order.NotFoundError{OrderID: id}
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return o, nil
}

// Update persists the mutable part of an order: its status and completion
// date. Lines, shipment and payment are immutable after Create.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tag, err := r.pool.Exec(ctx, updateOrderSQL, o.ID(), o.Status().String(), o.CompletionDate())
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID(), err)
	}
	if tag.RowsAffected() == 0 {
		return &order.NotFoundError{OrderID: o.ID()}
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (*order.Order, error) {
	var (
		id, userID     string
		linesJSON      []byte
		shipmentJSON   []byte
		payment        string
		status         string
		placeDate      time.Time
		completionDate *time.Time
	)
	err := row.Scan(&id, &userID, &linesJSON, &shipmentJSON, &payment, &status, &placeDate, &completionDate)
	if err != nil {
		return nil, err
	}

	var lines []order.OrderLine
	if err := json.Unmarshal(linesJSON, &lines); err != nil {
		return nil, fmt.Errorf("unmarshaling order lines: %w", err)
	}
	var shipment cart.Shipment
	if err := json.Unmarshal(shipmentJSON, &shipment); err != nil {
		return nil, fmt.Errorf("unmarshaling order shipment: %w", err)
	}

	return order.Restore(
		id, userID, lines, shipment,
		cart.PaymentMethod(payment), placeDate, order.Status(status), completionDate,
	), nil
}
