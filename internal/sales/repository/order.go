package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/wareflow/wareflow-backend/pkg/database"
	"github.com/wareflow/wareflow-backend/pkg/errors"
)

// Order statuses
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusPaid      = "paid"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Order represents a customer order. Stock is only decremented when the
// order is confirmed, through the inventory ledger.
type Order struct {
	ID                int64           `db:"id" json:"id"`
	UserID            string          `db:"user_id" json:"user_id"`
	WarehouseID       int64           `db:"warehouse_id" json:"warehouse_id"`
	ShippingCarrierID *int64          `db:"shipping_carrier_id" json:"shipping_carrier_id,omitempty"`
	ShippingAddress   *string         `db:"shipping_address" json:"shipping_address,omitempty"`
	TotalAmount       decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status            string          `db:"status" json:"status"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
	Details           []OrderDetail   `db:"-" json:"details,omitempty"`
}

// OrderDetail is one product line of an order
type OrderDetail struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"-"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// OrderStatusEntry is one row of an order's status history
type OrderStatusEntry struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   int64     `db:"order_id" json:"-"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OrderFilter narrows order listings
type OrderFilter struct {
	UserID string
	Status string
	Start  *time.Time
	End    *time.Time
}

// OrderReport aggregates orders over a date range
type OrderReport struct {
	TotalOrders int64            `json:"total_orders"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	ByStatus    map[string]int64 `json:"by_status"`
}

// OrderRepository handles order persistence
type OrderRepository struct {
	db *database.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// InsertTx inserts an order with its details inside a transaction
func (r *OrderRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, order *Order) error {
	query := `
		INSERT INTO orders (user_id, warehouse_id, shipping_carrier_id, shipping_address, total_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRowxContext(ctx, query,
		order.UserID, order.WarehouseID, order.ShippingCarrierID,
		order.ShippingAddress, order.TotalAmount, order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return err
	}

	detailQuery := `
		INSERT INTO order_details (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range order.Details {
		d := &order.Details[i]
		d.OrderID = order.ID
		if err := tx.QueryRowxContext(ctx, detailQuery, order.ID, d.ProductID, d.Quantity, d.UnitPrice).Scan(&d.ID); err != nil {
			return err
		}
	}

	return nil
}

// InsertStatusTx appends a status history row inside a transaction
func (r *OrderRepository) InsertStatusTx(ctx context.Context, tx *sqlx.Tx, orderID int64, status string) error {
	query := `INSERT INTO order_status_history (order_id, status) VALUES ($1, $2)`
	_, err := tx.ExecContext(ctx, query, orderID, status)
	return err
}

// GetByID gets an order with its details
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*Order, error) {
	var order Order

	query := `
		SELECT id, user_id, warehouse_id, shipping_carrier_id, shipping_address,
		       total_amount, status, created_at, updated_at
		FROM orders WHERE id = $1
	`
	err := r.db.GetContext(ctx, &order, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("order")
	}
	if err != nil {
		return nil, err
	}

	detailQuery := `SELECT id, order_id, product_id, quantity, unit_price FROM order_details WHERE order_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &order.Details, detailQuery, id); err != nil {
		return nil, err
	}

	return &order, nil
}

// GetByIDTx gets an order row inside a transaction, locked for update
func (r *OrderRepository) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id int64) (*Order, error) {
	var order Order

	query := `
		SELECT id, user_id, warehouse_id, shipping_carrier_id, shipping_address,
		       total_amount, status, created_at, updated_at
		FROM orders WHERE id = $1
		FOR UPDATE
	`
	err := tx.GetContext(ctx, &order, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("order")
	}
	if err != nil {
		return nil, err
	}

	detailQuery := `SELECT id, order_id, product_id, quantity, unit_price FROM order_details WHERE order_id = $1 ORDER BY id`
	if err := tx.SelectContext(ctx, &order.Details, detailQuery, id); err != nil {
		return nil, err
	}

	return &order, nil
}

// List lists orders with optional user, status and date filters
func (r *OrderRepository) List(ctx context.Context, filter OrderFilter, limit, offset int) ([]*Order, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where += ` AND user_id = ` + placeholder(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += ` AND status = ` + placeholder(len(args))
	}
	if filter.Start != nil {
		args = append(args, *filter.Start)
		where += ` AND created_at >= ` + placeholder(len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		where += ` AND created_at <= ` + placeholder(len(args))
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM orders`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `
		SELECT id, user_id, warehouse_id, shipping_carrier_id, shipping_address,
		       total_amount, status, created_at, updated_at
		FROM orders` + where + `
		ORDER BY created_at DESC LIMIT ` + placeholder(len(args)-1) + ` OFFSET ` + placeholder(len(args))

	var orders []*Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, err
	}

	detailQuery := `SELECT id, order_id, product_id, quantity, unit_price FROM order_details WHERE order_id = $1 ORDER BY id`
	for _, order := range orders {
		if err := r.db.SelectContext(ctx, &order.Details, detailQuery, order.ID); err != nil {
			return nil, 0, err
		}
	}

	return orders, total, nil
}

// UpdateTx updates the mutable order fields inside a transaction
func (r *OrderRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, order *Order) error {
	query := `
		UPDATE orders
		SET status = $2, shipping_carrier_id = $3, shipping_address = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := tx.QueryRowxContext(ctx, query,
		order.ID, order.Status, order.ShippingCarrierID, order.ShippingAddress,
	).Scan(&order.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("order")
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
	}
	return err
}

// UpdateStatusTx sets an order's status inside a transaction
func (r *OrderRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, orderID int64, status string) error {
	result, err := tx.ExecContext(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, orderID, status)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("order")
	}

	return nil
}

// StatusHistory lists an order's status changes, oldest first
func (r *OrderRepository) StatusHistory(ctx context.Context, orderID int64) ([]*OrderStatusEntry, error) {
	var entries []*OrderStatusEntry

	query := `SELECT id, order_id, status, created_at FROM order_status_history WHERE order_id = $1 ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &entries, query, orderID); err != nil {
		return nil, err
	}

	return entries, nil
}

// Report aggregates order totals and by-status counts over a date range
func (r *OrderRepository) Report(ctx context.Context, start, end time.Time) (*OrderReport, error) {
	report := &OrderReport{
		TotalAmount: decimal.Zero,
		ByStatus:    make(map[string]int64),
	}

	summary := struct {
		Count int64           `db:"count"`
		Total decimal.Decimal `db:"total"`
	}{}
	query := `
		SELECT COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total
		FROM orders
		WHERE created_at >= $1 AND created_at <= $2
	`
	if err := r.db.GetContext(ctx, &summary, query, start, end); err != nil {
		return nil, err
	}
	report.TotalOrders = summary.Count
	report.TotalAmount = summary.Total

	rows, err := r.db.QueryxContext(ctx, `
		SELECT status, COUNT(*)
		FROM orders
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY status
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		report.ByStatus[status] = count
	}

	return report, rows.Err()
}
