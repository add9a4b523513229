package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/wareflow/wareflow-backend/internal/fund/repository"
	"github.com/wareflow/wareflow-backend/pkg/errors"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error
}

// AccountStore persists accounts and their balance projection
type AccountStore interface {
	Create(ctx context.Context, account *repository.Account) error
	GetByID(ctx context.Context, id int64) (*repository.Account, error)
	List(ctx context.Context) ([]*repository.Account, error)
	Exists(ctx context.Context, id int64) (bool, error)
	IncrementBalanceTx(ctx context.Context, tx *sqlx.Tx, accountID int64, amount decimal.Decimal) error
	DecrementBalanceTx(ctx context.Context, tx *sqlx.Tx, accountID int64, amount decimal.Decimal) error
}

// RevenueTypeStore persists revenue types
type RevenueTypeStore interface {
	Create(ctx context.Context, revenueType *repository.RevenueType) error
	List(ctx context.Context) ([]*repository.RevenueType, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// ReceiptStore appends receipts to the log
type ReceiptStore interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, receipt *repository.Receipt) error
	List(ctx context.Context, filter repository.ReceiptFilter, limit, offset int) ([]*repository.Receipt, int64, error)
	SumsBefore(ctx context.Context, accountID int64, cutoff time.Time) (repository.ReceiptSums, error)
}

// FundService manages the cash fund: accounts, revenue types and the
// receipt log. The account balance is a projection over receipts, so a
// point-in-time balance can be reconstructed by replaying the log from
// the initial balance.
type FundService struct {
	db           TxRunner
	accounts     AccountStore
	revenueTypes RevenueTypeStore
	receipts     ReceiptStore
	logger       *logger.Logger
}

// NewFundService creates a new fund service
func NewFundService(
	db TxRunner,
	accounts AccountStore,
	revenueTypes RevenueTypeStore,
	receipts ReceiptStore,
	log *logger.Logger,
) *FundService {
	return &FundService{
		db:           db,
		accounts:     accounts,
		revenueTypes: revenueTypes,
		receipts:     receipts,
		logger:       log,
	}
}

// CreateAccountInput is the payload for creating an account
type CreateAccountInput struct {
	Name           string          `json:"name" validate:"required,max=255"`
	Type           string          `json:"type" validate:"required,oneof=cash bank"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// CreateAccount creates a new account
func (s *FundService) CreateAccount(ctx context.Context, input CreateAccountInput) (*repository.Account, error) {
	if input.InitialBalance.IsNegative() {
		return nil, errors.BadRequest("initial balance must not be negative")
	}

	account := &repository.Account{
		Name:           input.Name,
		Type:           input.Type,
		InitialBalance: input.InitialBalance,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// ListAccounts lists all accounts
func (s *FundService) ListAccounts(ctx context.Context) ([]*repository.Account, error) {
	return s.accounts.List(ctx)
}

// CreateRevenueTypeInput is the payload for creating a revenue type
type CreateRevenueTypeInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Category string `json:"category" validate:"required,oneof=revenue expense"`
}

// CreateRevenueType creates a new revenue type
func (s *FundService) CreateRevenueType(ctx context.Context, input CreateRevenueTypeInput) (*repository.RevenueType, error) {
	revenueType := &repository.RevenueType{
		Name:     input.Name,
		Category: input.Category,
	}
	if err := s.revenueTypes.Create(ctx, revenueType); err != nil {
		return nil, err
	}

	return revenueType, nil
}

// ListRevenueTypes lists all revenue types
func (s *FundService) ListRevenueTypes(ctx context.Context) ([]*repository.RevenueType, error) {
	return s.revenueTypes.List(ctx)
}

// RecordReceiptInput is the payload for recording a receipt or payment
type RecordReceiptInput struct {
	AccountID     int64           `json:"account_id" validate:"required,gt=0"`
	Type          string          `json:"type" validate:"required,oneof=receipt payment"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	RevenueTypeID *int64          `json:"revenue_type_id,omitempty" validate:"omitempty,gt=0"`
	Description   *string         `json:"description,omitempty" validate:"omitempty,max=500"`
}

// RecordReceipt appends a receipt to the log and moves the account
// balance in the same transaction. Payments that would overdraw the
// account are rejected.
func (s *FundService) RecordReceipt(ctx context.Context, input RecordReceiptInput) (*repository.Receipt, error) {
	if !input.Amount.IsPositive() {
		return nil, errors.BadRequest("amount must be positive")
	}

	exists, err := s.accounts.Exists(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFound("account")
	}

	if input.RevenueTypeID != nil {
		exists, err := s.revenueTypes.Exists(ctx, *input.RevenueTypeID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errors.NotFound("revenue type")
		}
	}

	receipt := &repository.Receipt{
		AccountID:     input.AccountID,
		Type:          input.Type,
		Amount:        input.Amount,
		RevenueTypeID: input.RevenueTypeID,
		Description:   input.Description,
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.receipts.InsertTx(ctx, tx, receipt); err != nil {
			return err
		}
		if receipt.Type == repository.ReceiptIn {
			return s.accounts.IncrementBalanceTx(ctx, tx, receipt.AccountID, receipt.Amount)
		}
		return s.accounts.DecrementBalanceTx(ctx, tx, receipt.AccountID, receipt.Amount)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("receipt_id", receipt.ID).
		Int64("account_id", receipt.AccountID).
		Str("type", receipt.Type).
		Msg("receipt recorded")

	return receipt, nil
}

// ListReceipts lists receipts with filters
func (s *FundService) ListReceipts(ctx context.Context, filter repository.ReceiptFilter, limit, offset int) ([]*repository.Receipt, int64, error) {
	return s.receipts.List(ctx, filter, limit, offset)
}

// BalanceAt reconstructs an account's balance at the end of the target
// day by replaying receipts from the initial balance
func (s *FundService) BalanceAt(ctx context.Context, accountID int64, date time.Time) (decimal.Decimal, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	cutoff := day.Add(24 * time.Hour)

	sums, err := s.receipts.SumsBefore(ctx, accountID, cutoff)
	if err != nil {
		return decimal.Zero, err
	}

	return account.InitialBalance.Add(sums.Receipts).Sub(sums.Payments), nil
}
