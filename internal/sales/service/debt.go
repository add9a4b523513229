package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/wareflow/wareflow-backend/internal/sales/repository"
	"github.com/wareflow/wareflow-backend/pkg/errors"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// DebtStore persists customer debts
type DebtStore interface {
	Create(ctx context.Context, debt *repository.Debt) error
	GetByID(ctx context.Context, id int64) (*repository.Debt, error)
	List(ctx context.Context, filter repository.DebtFilter, limit, offset int) ([]*repository.Debt, int64, error)
	PayTx(ctx context.Context, tx *sqlx.Tx, debtID int64, amount decimal.Decimal) (*repository.Debt, error)
	Payments(ctx context.Context, debtID int64) ([]*repository.DebtPayment, error)
}

// OrderReader reads orders for debt validation
type OrderReader interface {
	GetByID(ctx context.Context, id int64) (*repository.Order, error)
}

// DebtService manages customer debts against orders
type DebtService struct {
	db     TxRunner
	debts  DebtStore
	orders OrderReader
	logger *logger.Logger
}

// NewDebtService creates a new debt service
func NewDebtService(db TxRunner, debts DebtStore, orders OrderReader, log *logger.Logger) *DebtService {
	return &DebtService{
		db:     db,
		debts:  debts,
		orders: orders,
		logger: log,
	}
}

// RecordDebtInput is the payload for recording a debt
type RecordDebtInput struct {
	OrderID int64           `json:"order_id" validate:"required,gt=0"`
	Amount  decimal.Decimal `json:"amount" validate:"required"`
}

// Record records a debt against an unpaid order. The debt cannot exceed
// the order total.
func (s *DebtService) Record(ctx context.Context, input RecordDebtInput) (*repository.Debt, error) {
	if !input.Amount.IsPositive() {
		return nil, errors.BadRequest("debt amount must be positive")
	}

	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == repository.StatusPaid {
		return nil, errors.Conflict("paid orders cannot carry debts")
	}
	if order.Status == repository.StatusCancelled {
		return nil, errors.Conflict("cancelled orders cannot carry debts")
	}
	if input.Amount.GreaterThan(order.TotalAmount) {
		return nil, errors.BadRequest("debt amount exceeds the order total")
	}

	debt := &repository.Debt{
		OrderID:         order.ID,
		UserID:          order.UserID,
		RemainingAmount: input.Amount,
	}
	if err := s.debts.Create(ctx, debt); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("debt_id", debt.ID).
		Int64("order_id", order.ID).
		Msg("debt recorded")

	return debt, nil
}

// Get gets a debt by ID
func (s *DebtService) Get(ctx context.Context, id int64) (*repository.Debt, error) {
	return s.debts.GetByID(ctx, id)
}

// List lists debts with filters
func (s *DebtService) List(ctx context.Context, filter repository.DebtFilter, limit, offset int) ([]*repository.Debt, int64, error) {
	return s.debts.List(ctx, filter, limit, offset)
}

// Pay records a payment against a debt. The remaining amount can never
// drop below zero.
func (s *DebtService) Pay(ctx context.Context, debtID int64, amount decimal.Decimal) (*repository.Debt, error) {
	if !amount.IsPositive() {
		return nil, errors.BadRequest("payment amount must be positive")
	}

	var debt *repository.Debt
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		debt, txErr = s.debts.PayTx(ctx, tx, debtID, amount)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("debt_id", debtID).
		Str("remaining", debt.RemainingAmount.String()).
		Msg("debt payment recorded")

	return debt, nil
}

// Payments lists the payments recorded against a debt
func (s *DebtService) Payments(ctx context.Context, debtID int64) ([]*repository.DebtPayment, error) {
	if _, err := s.debts.GetByID(ctx, debtID); err != nil {
		return nil, err
	}
	return s.debts.Payments(ctx, debtID)
}
