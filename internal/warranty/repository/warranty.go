package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wareflow/wareflow-backend/pkg/database"
)

// WarrantyRequest is a defective unit received from a customer
type WarrantyRequest struct {
	ID               int64      `db:"id" json:"id"`
	ProductID        int64      `db:"product_id" json:"product_id"`
	CustomerID       string     `db:"customer_id" json:"customer_id"`
	WarehouseID      int64      `db:"warehouse_id" json:"warehouse_id"`
	IssueDescription *string    `db:"issue_description" json:"issue_description,omitempty"`
	ReceivedDate     time.Time  `db:"received_date" json:"received_date"`
	SentDate         *time.Time `db:"sent_date" json:"sent_date,omitempty"`
	ReturnedDate     *time.Time `db:"returned_date" json:"returned_date,omitempty"`
	Resolution       *string    `db:"resolution" json:"resolution,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// WarrantyInventoryRow is the count of defective units held for a
// product in a warehouse. Held apart from sellable stock.
type WarrantyInventoryRow struct {
	ProductID      int64     `db:"product_id" json:"product_id"`
	ProductTitle   string    `db:"product_title" json:"product_title"`
	WarehouseID    int64     `db:"warehouse_id" json:"warehouse_id"`
	Quantity       int       `db:"quantity" json:"quantity"`
	WarrantyStatus string    `db:"warranty_status" json:"warranty_status"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// RequestFilter narrows warranty request listings
type RequestFilter struct {
	WarehouseID int64
	Start       *time.Time
	End         *time.Time
}

// WarrantyRepository handles warranty persistence
type WarrantyRepository struct {
	db *database.DB
}

// NewWarrantyRepository creates a new warranty repository
func NewWarrantyRepository(db *database.DB) *WarrantyRepository {
	return &WarrantyRepository{db: db}
}

// placeholder returns the positional bind parameter for argument n
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// InsertRequestTx inserts a warranty request inside a transaction
func (r *WarrantyRepository) InsertRequestTx(ctx context.Context, tx *sqlx.Tx, request *WarrantyRequest) error {
	query := `
		INSERT INTO warranty_requests (product_id, customer_id, warehouse_id, issue_description, received_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	return tx.QueryRowxContext(ctx, query,
		request.ProductID, request.CustomerID, request.WarehouseID,
		request.IssueDescription, request.ReceivedDate,
	).Scan(&request.ID, &request.CreatedAt)
}

// IncrementInventoryTx adds one defective unit to the warranty
// inventory inside a transaction, creating the row if absent
func (r *WarrantyRepository) IncrementInventoryTx(ctx context.Context, tx *sqlx.Tx, productID, warehouseID int64, quantity int) error {
	query := `
		INSERT INTO warranty_inventory (product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = warranty_inventory.quantity + EXCLUDED.quantity, updated_at = NOW()
	`
	_, err := tx.ExecContext(ctx, query, productID, warehouseID, quantity)
	return err
}

// ListRequests lists warranty requests with date and warehouse filters
func (r *WarrantyRepository) ListRequests(ctx context.Context, filter RequestFilter, limit, offset int) ([]*WarrantyRequest, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	if filter.WarehouseID != 0 {
		args = append(args, filter.WarehouseID)
		where += ` AND warehouse_id = ` + placeholder(len(args))
	}
	if filter.Start != nil {
		args = append(args, *filter.Start)
		where += ` AND received_date >= ` + placeholder(len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		where += ` AND received_date <= ` + placeholder(len(args))
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM warranty_requests`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `
		SELECT id, product_id, customer_id, warehouse_id, issue_description,
		       received_date, sent_date, returned_date, resolution, created_at
		FROM warranty_requests` + where + `
		ORDER BY received_date DESC, id DESC LIMIT ` + placeholder(len(args)-1) + ` OFFSET ` + placeholder(len(args))

	var requests []*WarrantyRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// ListInventory lists warranty inventory rows with positive quantity,
// optionally filtered by warehouse
func (r *WarrantyRepository) ListInventory(ctx context.Context, warehouseID int64, limit, offset int) ([]*WarrantyInventoryRow, int64, error) {
	where := ` WHERE w.quantity > 0`
	args := []interface{}{}

	if warehouseID != 0 {
		args = append(args, warehouseID)
		where += ` AND w.warehouse_id = ` + placeholder(len(args))
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM warranty_inventory w`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `
		SELECT w.product_id, p.title AS product_title, w.warehouse_id,
		       w.quantity, w.warranty_status, w.updated_at
		FROM warranty_inventory w
		JOIN products p ON p.id = w.product_id` + where + `
		ORDER BY p.title LIMIT ` + placeholder(len(args)-1) + ` OFFSET ` + placeholder(len(args))

	var rows []*WarrantyInventoryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}
