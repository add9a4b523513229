package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/wareflow/wareflow-backend/pkg/database"
	"github.com/wareflow/wareflow-backend/pkg/errors"
)

// Account types
const (
	AccountCash = "cash"
	AccountBank = "bank"
)

// Account is a cash-fund account. Balance is a projection over receipts
// starting from the initial balance.
type Account struct {
	ID             int64           `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Type           string          `db:"type" json:"type"`
	InitialBalance decimal.Decimal `db:"initial_balance" json:"initial_balance"`
	Balance        decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// AccountRepository handles account persistence
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// placeholder returns the positional bind parameter for argument n
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// Create creates a new account. The balance starts at the initial balance.
func (r *AccountRepository) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (name, type, initial_balance, balance)
		VALUES ($1, $2, $3, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		account.Name, account.Type, account.InitialBalance,
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	account.Balance = account.InitialBalance
	return nil
}

// GetByID gets an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*Account, error) {
	var account Account

	query := `SELECT id, name, type, initial_balance, balance, created_at FROM accounts WHERE id = $1`
	err := r.db.GetContext(ctx, &account, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("account")
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// List lists all accounts
func (r *AccountRepository) List(ctx context.Context) ([]*Account, error) {
	var accounts []*Account

	query := `SELECT id, name, type, initial_balance, balance, created_at FROM accounts ORDER BY name`
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, err
	}

	return accounts, nil
}

// Exists reports whether an account with the given ID exists
func (r *AccountRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, err
	}
	return exists, nil
}

// IncrementBalanceTx adds to an account balance inside a receipt
// transaction
func (r *AccountRepository) IncrementBalanceTx(ctx context.Context, tx *sqlx.Tx, accountID int64, amount decimal.Decimal) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + $2 WHERE id = $1`, accountID, amount)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("account")
	}

	return nil
}

// DecrementBalanceTx subtracts from an account balance inside a payment
// transaction. Conditional on sufficient balance so concurrent payments
// cannot overdraw the account.
func (r *AccountRepository) DecrementBalanceTx(ctx context.Context, tx *sqlx.Tx, accountID int64, amount decimal.Decimal) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance - $2 WHERE id = $1 AND balance >= $2`, accountID, amount)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, accountID); err != nil {
			return err
		}
		if !exists {
			return errors.NotFound("account")
		}
		return errors.InsufficientBalance()
	}

	return nil
}
