package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/wareflow/wareflow-backend/pkg/database"
)

// Receipt types
const (
	ReceiptIn  = "receipt"
	ReceiptOut = "payment"
)

// Receipt is one movement of the cash fund. Receipts add to the account
// balance, payments subtract.
type Receipt struct {
	ID            int64           `db:"id" json:"id"`
	AccountID     int64           `db:"account_id" json:"account_id"`
	Type          string          `db:"type" json:"type"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	RevenueTypeID *int64          `db:"revenue_type_id" json:"revenue_type_id,omitempty"`
	Description   *string         `db:"description" json:"description,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// ReceiptFilter narrows receipt listings
type ReceiptFilter struct {
	AccountID int64
	Type      string
	Start     *time.Time
	End       *time.Time
}

// ReceiptSums aggregates receipt and payment amounts over a window
type ReceiptSums struct {
	Receipts decimal.Decimal
	Payments decimal.Decimal
}

// ReceiptRepository handles the append-only receipt log
type ReceiptRepository struct {
	db *database.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *database.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// InsertTx inserts a receipt inside a transaction
func (r *ReceiptRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, receipt *Receipt) error {
	query := `
		INSERT INTO receipts (account_id, type, amount, revenue_type_id, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	return tx.QueryRowxContext(ctx, query,
		receipt.AccountID, receipt.Type, receipt.Amount,
		receipt.RevenueTypeID, receipt.Description,
	).Scan(&receipt.ID, &receipt.CreatedAt)
}

// List lists receipts with optional account, type and date filters
func (r *ReceiptRepository) List(ctx context.Context, filter ReceiptFilter, limit, offset int) ([]*Receipt, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	if filter.AccountID != 0 {
		args = append(args, filter.AccountID)
		where += ` AND account_id = ` + placeholder(len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where += ` AND type = ` + placeholder(len(args))
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
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM receipts`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `
		SELECT id, account_id, type, amount, revenue_type_id, description, created_at
		FROM receipts` + where + `
		ORDER BY created_at DESC LIMIT ` + placeholder(len(args)-1) + ` OFFSET ` + placeholder(len(args))

	var receipts []*Receipt
	if err := r.db.SelectContext(ctx, &receipts, query, args...); err != nil {
		return nil, 0, err
	}

	return receipts, total, nil
}

// SumsBefore aggregates receipts and payments for an account strictly
// before the cutoff. Used to replay the balance at a point in time.
func (r *ReceiptRepository) SumsBefore(ctx context.Context, accountID int64, cutoff time.Time) (ReceiptSums, error) {
	sums := ReceiptSums{Receipts: decimal.Zero, Payments: decimal.Zero}

	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'receipt'), 0) AS receipts,
			COALESCE(SUM(amount) FILTER (WHERE type = 'payment'), 0) AS payments
		FROM receipts
		WHERE account_id = $1 AND created_at < $2
	`

	row := struct {
		Receipts decimal.Decimal `db:"receipts"`
		Payments decimal.Decimal `db:"payments"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, accountID, cutoff); err != nil {
		return sums, err
	}

	sums.Receipts = row.Receipts
	sums.Payments = row.Payments
	return sums, nil
}
