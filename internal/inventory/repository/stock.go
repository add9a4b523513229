package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wareflow/wareflow-backend/pkg/database"
	"github.com/wareflow/wareflow-backend/pkg/errors"
)

// StockRow is the current projected quantity of a product in a warehouse.
// Rows are retained at quantity 0; an absent row reads as quantity 0.
type StockRow struct {
	ProductID    int64     `db:"product_id" json:"product_id"`
	ProductTitle string    `db:"product_title" json:"product_title"`
	WarehouseID  int64     `db:"warehouse_id" json:"warehouse_id"`
	Quantity     int       `db:"quantity" json:"quantity"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StockRepository handles the stock projection. The projection is only
// mutated inside movement transactions; all writers take the enclosing tx.
type StockRepository struct {
	db *database.DB
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *database.DB) *StockRepository {
	return &StockRepository{db: db}
}

// Get returns the projected quantity for a product/warehouse pair.
// A missing row reads as 0.
func (r *StockRepository) Get(ctx context.Context, productID, warehouseID int64) (int, error) {
	var quantity int
	query := `SELECT quantity FROM stock WHERE product_id = $1 AND warehouse_id = $2`

	err := r.db.GetContext(ctx, &quantity, query, productID, warehouseID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return quantity, nil
}

// GetTx reads the projected quantity inside an open transaction.
// A missing row reads as 0.
func (r *StockRepository) GetTx(ctx context.Context, tx *sqlx.Tx, productID, warehouseID int64) (int, error) {
	var quantity int
	query := `SELECT quantity FROM stock WHERE product_id = $1 AND warehouse_id = $2`

	err := tx.GetContext(ctx, &quantity, query, productID, warehouseID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return quantity, nil
}

// List lists stock rows with positive quantity, optionally filtered by
// warehouse, ordered by product title.
func (r *StockRepository) List(ctx context.Context, warehouseID int64, limit, offset int) ([]*StockRow, int64, error) {
	var total int64
	countQuery := `
		SELECT COUNT(*) FROM stock s
		WHERE s.quantity > 0
	`
	args := []interface{}{}
	if warehouseID != 0 {
		countQuery += ` AND s.warehouse_id = $1`
		args = append(args, warehouseID)
	}
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT s.product_id, p.title AS product_title, s.warehouse_id, s.quantity, s.updated_at
		FROM stock s
		JOIN products p ON p.id = s.product_id
		WHERE s.quantity > 0
	`
	if warehouseID != 0 {
		query += ` AND s.warehouse_id = $1 ORDER BY p.title LIMIT $2 OFFSET $3`
	} else {
		query += ` ORDER BY p.title LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	var rows []*StockRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// TotalForProduct returns the summed quantity of a product across all
// warehouses. This is the product's global availability; products carry
// no stored counter of their own.
func (r *StockRepository) TotalForProduct(ctx context.Context, productID int64) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(quantity), 0) FROM stock WHERE product_id = $1`
	if err := r.db.GetContext(ctx, &total, query, productID); err != nil {
		return 0, err
	}
	return total, nil
}

// IncrementTx adds quantity to a stock row inside a movement transaction,
// creating the row if absent.
func (r *StockRepository) IncrementTx(ctx context.Context, tx *sqlx.Tx, productID, warehouseID int64, quantity int) error {
	query := `
		INSERT INTO stock (product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = stock.quantity + EXCLUDED.quantity, updated_at = NOW()
	`
	_, err := tx.ExecContext(ctx, query, productID, warehouseID, quantity)
	return err
}

// DecrementTx subtracts quantity from a stock row inside a movement
// transaction. The decrement is conditional on sufficient stock so that
// concurrent movements cannot drive the projection negative; when the
// guard fails the caller's transaction must roll back.
func (r *StockRepository) DecrementTx(ctx context.Context, tx *sqlx.Tx, productID, warehouseID int64, quantity int) error {
	query := `
		UPDATE stock SET quantity = quantity - $3, updated_at = NOW()
		WHERE product_id = $1 AND warehouse_id = $2 AND quantity >= $3
	`
	result, err := tx.ExecContext(ctx, query, productID, warehouseID, quantity)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		available := 0
		getQuery := `SELECT quantity FROM stock WHERE product_id = $1 AND warehouse_id = $2`
		if err := tx.GetContext(ctx, &available, getQuery, productID, warehouseID); err != nil && err != sql.ErrNoRows {
			return err
		}
		return errors.InsufficientStock(productID, available, quantity)
	}

	return nil
}

// SetTx overwrites a stock row inside a check transaction, creating the
// row if absent. Zero quantities are written as zero rows, not deleted.
func (r *StockRepository) SetTx(ctx context.Context, tx *sqlx.Tx, productID, warehouseID int64, quantity int) error {
	query := `
		INSERT INTO stock (product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
	`
	_, err := tx.ExecContext(ctx, query, productID, warehouseID, quantity)
	return err
}
