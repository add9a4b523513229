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

// Debt represents an outstanding customer balance against an order
type Debt struct {
	ID              int64           `db:"id" json:"id"`
	OrderID         int64           `db:"order_id" json:"order_id"`
	UserID          string          `db:"user_id" json:"user_id"`
	RemainingAmount decimal.Decimal `db:"remaining_amount" json:"remaining_amount"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// DebtPayment is one payment against a debt
type DebtPayment struct {
	ID        int64           `db:"id" json:"id"`
	DebtID    int64           `db:"debt_id" json:"debt_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// DebtFilter narrows debt listings
type DebtFilter struct {
	UserID  string
	OrderID int64
	Open    bool
}

// DebtRepository handles debt persistence
type DebtRepository struct {
	db *database.DB
}

// NewDebtRepository creates a new debt repository
func NewDebtRepository(db *database.DB) *DebtRepository {
	return &DebtRepository{db: db}
}

// Create creates a new debt
func (r *DebtRepository) Create(ctx context.Context, debt *Debt) error {
	query := `
		INSERT INTO debts (order_id, user_id, remaining_amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRowxContext(ctx, query,
		debt.OrderID, debt.UserID, debt.RemainingAmount,
	).Scan(&debt.ID, &debt.CreatedAt, &debt.UpdatedAt)
}

// GetByID gets a debt by ID
func (r *DebtRepository) GetByID(ctx context.Context, id int64) (*Debt, error) {
	var debt Debt

	query := `SELECT id, order_id, user_id, remaining_amount, created_at, updated_at FROM debts WHERE id = $1`
	err := r.db.GetContext(ctx, &debt, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("debt")
	}
	if err != nil {
		return nil, err
	}

	return &debt, nil
}

// List lists debts with optional user, order and open-only filters
func (r *DebtRepository) List(ctx context.Context, filter DebtFilter, limit, offset int) ([]*Debt, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where += ` AND user_id = ` + placeholder(len(args))
	}
	if filter.OrderID != 0 {
		args = append(args, filter.OrderID)
		where += ` AND order_id = ` + placeholder(len(args))
	}
	if filter.Open {
		where += ` AND remaining_amount > 0`
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM debts`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `
		SELECT id, order_id, user_id, remaining_amount, created_at, updated_at
		FROM debts` + where + `
		ORDER BY created_at DESC LIMIT ` + placeholder(len(args)-1) + ` OFFSET ` + placeholder(len(args))

	var debts []*Debt
	if err := r.db.SelectContext(ctx, &debts, query, args...); err != nil {
		return nil, 0, err
	}

	return debts, total, nil
}

// PayTx records a payment and decrements the remaining amount inside a
// transaction. The decrement is conditional so the remaining amount can
// never go below zero.
func (r *DebtRepository) PayTx(ctx context.Context, tx *sqlx.Tx, debtID int64, amount decimal.Decimal) (*Debt, error) {
	var debt Debt

	query := `
		UPDATE debts
		SET remaining_amount = remaining_amount - $2, updated_at = NOW()
		WHERE id = $1 AND remaining_amount >= $2
		RETURNING id, order_id, user_id, remaining_amount, created_at, updated_at
	`
	err := tx.QueryRowxContext(ctx, query, debtID, amount).StructScan(&debt)
	if err == sql.ErrNoRows {
		// Either the debt is unknown or the payment would overdraw it
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM debts WHERE id = $1)`, debtID); err != nil {
			return nil, err
		}
		if !exists {
			return nil, errors.NotFound("debt")
		}
		return nil, errors.BadRequest("payment exceeds the remaining amount")
	}
	if err != nil {
		return nil, err
	}

	paymentQuery := `INSERT INTO debt_payments (debt_id, amount) VALUES ($1, $2)`
	if _, err := tx.ExecContext(ctx, paymentQuery, debtID, amount); err != nil {
		return nil, err
	}

	return &debt, nil
}

// Payments lists the payments recorded against a debt
func (r *DebtRepository) Payments(ctx context.Context, debtID int64) ([]*DebtPayment, error) {
	var payments []*DebtPayment

	query := `SELECT id, debt_id, amount, created_at FROM debt_payments WHERE debt_id = $1 ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &payments, query, debtID); err != nil {
		return nil, err
	}

	return payments, nil
}
