package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/wareflow/wareflow-backend/pkg/database"
)

// Sale represents a direct over-the-counter sale. Unlike orders, the
// stock decrement happens at creation time.
type Sale struct {
	ID                int64           `db:"id" json:"id"`
	UserID            string          `db:"user_id" json:"user_id"`
	WarehouseID       int64           `db:"warehouse_id" json:"warehouse_id"`
	ShippingCarrierID *int64          `db:"shipping_carrier_id" json:"shipping_carrier_id,omitempty"`
	TotalAmount       decimal.Decimal `db:"total_amount" json:"total_amount"`
	SaleDate          time.Time       `db:"sale_date" json:"sale_date"`
	Details           []SaleDetail    `db:"-" json:"details,omitempty"`
}

// SaleDetail is one product line of a sale
type SaleDetail struct {
	ID        int64           `db:"id" json:"id"`
	SaleID    int64           `db:"sale_id" json:"-"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// SaleRepository handles sale persistence
type SaleRepository struct {
	db *database.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *database.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// InsertTx inserts a sale with its details inside a transaction
func (r *SaleRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, sale *Sale) error {
	query := `
		INSERT INTO sales (user_id, warehouse_id, shipping_carrier_id, total_amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, sale_date
	`

	err := tx.QueryRowxContext(ctx, query,
		sale.UserID, sale.WarehouseID, sale.ShippingCarrierID, sale.TotalAmount,
	).Scan(&sale.ID, &sale.SaleDate)
	if err != nil {
		return err
	}

	detailQuery := `
		INSERT INTO sale_details (sale_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range sale.Details {
		d := &sale.Details[i]
		d.SaleID = sale.ID
		if err := tx.QueryRowxContext(ctx, detailQuery, sale.ID, d.ProductID, d.Quantity, d.UnitPrice).Scan(&d.ID); err != nil {
			return err
		}
	}

	return nil
}

// List lists sales, newest first
func (r *SaleRepository) List(ctx context.Context, limit, offset int) ([]*Sale, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM sales`); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, user_id, warehouse_id, shipping_carrier_id, total_amount, sale_date
		FROM sales
		ORDER BY sale_date DESC LIMIT $1 OFFSET $2
	`
	var sales []*Sale
	if err := r.db.SelectContext(ctx, &sales, query, limit, offset); err != nil {
		return nil, 0, err
	}

	detailQuery := `SELECT id, sale_id, product_id, quantity, unit_price FROM sale_details WHERE sale_id = $1 ORDER BY id`
	for _, sale := range sales {
		if err := r.db.SelectContext(ctx, &sale.Details, detailQuery, sale.ID); err != nil {
			return nil, 0, err
		}
	}

	return sales, total, nil
}
