package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	catalogrepo "github.com/wareflow/wareflow-backend/internal/catalog/repository"
	invrepo "github.com/wareflow/wareflow-backend/internal/inventory/repository"
	invservice "github.com/wareflow/wareflow-backend/internal/inventory/service"
	"github.com/wareflow/wareflow-backend/internal/sales/repository"
	"github.com/wareflow/wareflow-backend/pkg/errors"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error
}

// ProductCatalog resolves products for order and sale lines
type ProductCatalog interface {
	GetByID(ctx context.Context, id int64) (*catalogrepo.Product, error)
}

// StockReader reads the current stock projection
type StockReader interface {
	Get(ctx context.Context, productID, warehouseID int64) (int, error)
}

// ExistenceChecker reports whether a referenced record exists
type ExistenceChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// ExportRecorder records an export movement inside a caller-owned
// transaction. Satisfied by the inventory movement service, keeping the
// ledger the single writer of stock.
type ExportRecorder interface {
	RecordExportTx(ctx context.Context, tx *sqlx.Tx, input invservice.RecordExportInput) (*invrepo.Export, error)
}

// OrderStore persists orders
type OrderStore interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, order *repository.Order) error
	InsertStatusTx(ctx context.Context, tx *sqlx.Tx, orderID int64, status string) error
	GetByID(ctx context.Context, id int64) (*repository.Order, error)
	GetByIDTx(ctx context.Context, tx *sqlx.Tx, id int64) (*repository.Order, error)
	List(ctx context.Context, filter repository.OrderFilter, limit, offset int) ([]*repository.Order, int64, error)
	UpdateTx(ctx context.Context, tx *sqlx.Tx, order *repository.Order) error
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, orderID int64, status string) error
	StatusHistory(ctx context.Context, orderID int64) ([]*repository.OrderStatusEntry, error)
	Report(ctx context.Context, start, end time.Time) (*repository.OrderReport, error)
}

// OrderEvents publishes order lifecycle events after commit
type OrderEvents interface {
	PublishOrderConfirmed(ctx context.Context, order *repository.Order, exportID int64)
}

// ExportEvents publishes export movement events after commit
type ExportEvents interface {
	PublishExportRecorded(ctx context.Context, exp *invrepo.Export)
}

// OrderService manages the order lifecycle. Creating an order reserves
// nothing; stock leaves the warehouse only on confirmation, recorded as
// an export movement in the inventory ledger.
type OrderService struct {
	db           TxRunner
	orders       OrderStore
	catalog      ProductCatalog
	stock        StockReader
	warehouses   ExistenceChecker
	carriers     ExistenceChecker
	exports      ExportRecorder
	orderEvents  OrderEvents
	exportEvents ExportEvents
	logger       *logger.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	db TxRunner,
	orders OrderStore,
	catalog ProductCatalog,
	stock StockReader,
	warehouses ExistenceChecker,
	carriers ExistenceChecker,
	exports ExportRecorder,
	orderEvents OrderEvents,
	exportEvents ExportEvents,
	log *logger.Logger,
) *OrderService {
	return &OrderService{
		db:           db,
		orders:       orders,
		catalog:      catalog,
		stock:        stock,
		warehouses:   warehouses,
		carriers:     carriers,
		exports:      exports,
		orderEvents:  orderEvents,
		exportEvents: exportEvents,
		logger:       log,
	}
}

// OrderLineInput is one product line of an order request
type OrderLineInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput is the payload for creating an order
type CreateOrderInput struct {
	WarehouseID       int64            `json:"warehouse_id" validate:"required,gt=0"`
	ShippingCarrierID *int64           `json:"shipping_carrier_id,omitempty" validate:"omitempty,gt=0"`
	ShippingAddress   *string          `json:"shipping_address,omitempty" validate:"omitempty,max=500"`
	Lines             []OrderLineInput `json:"lines" validate:"required,min=1,dive"`
}

// Create creates a pending order. Availability is checked against the
// projection but nothing is decremented until confirmation.
func (s *OrderService) Create(ctx context.Context, userID string, input CreateOrderInput) (*repository.Order, error) {
	if err := s.checkWarehouse(ctx, input.WarehouseID); err != nil {
		return nil, err
	}
	if err := s.checkCarrier(ctx, input.ShippingCarrierID); err != nil {
		return nil, err
	}

	total := decimal.Zero
	details := make([]repository.OrderDetail, 0, len(input.Lines))
	for _, line := range input.Lines {
		product, err := s.catalog.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}

		available, err := s.stock.Get(ctx, line.ProductID, input.WarehouseID)
		if err != nil {
			return nil, err
		}
		if available < line.Quantity {
			return nil, errors.InsufficientStock(line.ProductID, available, line.Quantity)
		}

		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		details = append(details, repository.OrderDetail{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
	}

	order := &repository.Order{
		UserID:            userID,
		WarehouseID:       input.WarehouseID,
		ShippingCarrierID: input.ShippingCarrierID,
		ShippingAddress:   input.ShippingAddress,
		TotalAmount:       total,
		Status:            repository.StatusPending,
		Details:           details,
	}

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.orders.InsertTx(ctx, tx, order); err != nil {
			return err
		}
		return s.orders.InsertStatusTx(ctx, tx, order.ID, repository.StatusPending)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Str("user_id", order.UserID).
		Msg("order created")

	return order, nil
}

// Get gets an order by ID
func (s *OrderService) Get(ctx context.Context, id int64) (*repository.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// List lists orders with filters
func (s *OrderService) List(ctx context.Context, filter repository.OrderFilter, limit, offset int) ([]*repository.Order, int64, error) {
	return s.orders.List(ctx, filter, limit, offset)
}

// UpdateOrderInput is the payload for updating an order
type UpdateOrderInput struct {
	Status            *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed shipped paid delivered cancelled"`
	ShippingCarrierID *int64  `json:"shipping_carrier_id,omitempty" validate:"omitempty,gt=0"`
	ShippingAddress   *string `json:"shipping_address,omitempty" validate:"omitempty,max=500"`
}

// Update updates an order's status, carrier or address. A status change
// appends to the status history. Confirmation, cancellation and payment
// have their own operations and cannot be set here: they carry side
// effects (export movement, precondition checks) a plain update would skip.
func (s *OrderService) Update(ctx context.Context, id int64, input UpdateOrderInput) (*repository.Order, error) {
	if input.Status != nil {
		switch *input.Status {
		case repository.StatusConfirmed, repository.StatusCancelled, repository.StatusPaid:
			return nil, errors.BadRequest(fmt.Sprintf("status %s must be set through its dedicated operation", *input.Status))
		}
	}
	if err := s.checkCarrier(ctx, input.ShippingCarrierID); err != nil {
		return nil, err
	}

	var order *repository.Order
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		order, txErr = s.orders.GetByIDTx(ctx, tx, id)
		if txErr != nil {
			return txErr
		}

		statusChanged := false
		if input.Status != nil && *input.Status != order.Status {
			order.Status = *input.Status
			statusChanged = true
		}
		if input.ShippingCarrierID != nil {
			order.ShippingCarrierID = input.ShippingCarrierID
		}
		if input.ShippingAddress != nil {
			order.ShippingAddress = input.ShippingAddress
		}

		if txErr := s.orders.UpdateTx(ctx, tx, order); txErr != nil {
			return txErr
		}
		if statusChanged {
			return s.orders.InsertStatusTx(ctx, tx, order.ID, order.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// Confirm confirms a pending order: the stock decrement is recorded as
// an export movement and the status change in the same transaction.
func (s *OrderService) Confirm(ctx context.Context, id int64) (*repository.Order, error) {
	var order *repository.Order
	var exp *invrepo.Export

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		order, txErr = s.orders.GetByIDTx(ctx, tx, id)
		if txErr != nil {
			return txErr
		}
		if order.Status != repository.StatusPending {
			return errors.Conflict("only pending orders can be confirmed")
		}

		reference := fmt.Sprintf("order-%d", order.ID)
		lines := make([]invservice.ExportLineInput, 0, len(order.Details))
		for _, d := range order.Details {
			lines = append(lines, invservice.ExportLineInput{ProductID: d.ProductID, Quantity: d.Quantity})
		}

		exp, txErr = s.exports.RecordExportTx(ctx, tx, invservice.RecordExportInput{
			WarehouseID: order.WarehouseID,
			Reference:   &reference,
			Lines:       lines,
		})
		if txErr != nil {
			return txErr
		}

		order.Status = repository.StatusConfirmed
		if txErr := s.orders.UpdateStatusTx(ctx, tx, order.ID, repository.StatusConfirmed); txErr != nil {
			return txErr
		}
		return s.orders.InsertStatusTx(ctx, tx, order.ID, repository.StatusConfirmed)
	})
	if err != nil {
		return nil, err
	}

	s.exportEvents.PublishExportRecorded(ctx, exp)
	s.orderEvents.PublishOrderConfirmed(ctx, order, exp.ID)

	s.logger.Info().
		Int64("order_id", order.ID).
		Int64("export_id", exp.ID).
		Msg("order confirmed")

	return order, nil
}

// Cancel cancels a pending order
func (s *OrderService) Cancel(ctx context.Context, id int64) error {
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		order, txErr := s.orders.GetByIDTx(ctx, tx, id)
		if txErr != nil {
			return txErr
		}
		if order.Status != repository.StatusPending {
			return errors.Conflict("only pending orders can be cancelled")
		}

		if txErr := s.orders.UpdateStatusTx(ctx, tx, id, repository.StatusCancelled); txErr != nil {
			return txErr
		}
		return s.orders.InsertStatusTx(ctx, tx, id, repository.StatusCancelled)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("order_id", id).Msg("order cancelled")
	return nil
}

// Pay marks an order paid. The payment must cover the total exactly.
func (s *OrderService) Pay(ctx context.Context, id int64, amount decimal.Decimal) (*repository.Order, error) {
	var order *repository.Order
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		order, txErr = s.orders.GetByIDTx(ctx, tx, id)
		if txErr != nil {
			return txErr
		}
		if order.Status == repository.StatusPaid {
			return errors.Conflict("order is already paid")
		}
		if order.Status == repository.StatusCancelled {
			return errors.Conflict("cancelled orders cannot be paid")
		}
		if !amount.Equal(order.TotalAmount) {
			return errors.BadRequest("payment amount must equal the order total")
		}

		order.Status = repository.StatusPaid
		if txErr := s.orders.UpdateStatusTx(ctx, tx, id, repository.StatusPaid); txErr != nil {
			return txErr
		}
		return s.orders.InsertStatusTx(ctx, tx, id, repository.StatusPaid)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("order_id", id).Msg("order paid")
	return order, nil
}

// StatusHistory lists an order's status changes
func (s *OrderService) StatusHistory(ctx context.Context, id int64) ([]*repository.OrderStatusEntry, error) {
	if _, err := s.orders.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.orders.StatusHistory(ctx, id)
}

// Report aggregates orders over a date range
func (s *OrderService) Report(ctx context.Context, start, end time.Time) (*repository.OrderReport, error) {
	return s.orders.Report(ctx, start, end)
}

func (s *OrderService) checkWarehouse(ctx context.Context, id int64) error {
	exists, err := s.warehouses.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound("warehouse")
	}
	return nil
}

func (s *OrderService) checkCarrier(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	exists, err := s.carriers.Exists(ctx, *id)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound("shipping carrier")
	}
	return nil
}
