package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wareflow/wareflow-backend/internal/warranty/repository"
	"github.com/wareflow/wareflow-backend/pkg/errors"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error
}

// WarrantyStore persists warranty requests and inventory
type WarrantyStore interface {
	InsertRequestTx(ctx context.Context, tx *sqlx.Tx, request *repository.WarrantyRequest) error
	IncrementInventoryTx(ctx context.Context, tx *sqlx.Tx, productID, warehouseID int64, quantity int) error
	ListRequests(ctx context.Context, filter repository.RequestFilter, limit, offset int) ([]*repository.WarrantyRequest, int64, error)
	ListInventory(ctx context.Context, warehouseID int64, limit, offset int) ([]*repository.WarrantyInventoryRow, int64, error)
}

// ExistenceChecker reports whether a referenced record exists
type ExistenceChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// WarrantyService manages warranty requests. Received units are tracked
// in the warranty inventory, a sink outside the sellable stock
// projection.
type WarrantyService struct {
	db         TxRunner
	warranty   WarrantyStore
	products   ExistenceChecker
	warehouses ExistenceChecker
	logger     *logger.Logger
}

// NewWarrantyService creates a new warranty service
func NewWarrantyService(
	db TxRunner,
	warranty WarrantyStore,
	products ExistenceChecker,
	warehouses ExistenceChecker,
	log *logger.Logger,
) *WarrantyService {
	return &WarrantyService{
		db:         db,
		warranty:   warranty,
		products:   products,
		warehouses: warehouses,
		logger:     log,
	}
}

// ReceiveRequestInput is the payload for receiving a warranty request
type ReceiveRequestInput struct {
	ProductID        int64     `json:"product_id" validate:"required,gt=0"`
	CustomerID       string    `json:"customer_id" validate:"required,max=255"`
	WarehouseID      int64     `json:"warehouse_id" validate:"required,gt=0"`
	IssueDescription *string   `json:"issue_description,omitempty" validate:"omitempty,max=2000"`
	ReceivedDate     time.Time `json:"received_date" validate:"required"`
}

// Receive records a warranty request and adds the unit to the warranty
// inventory in one transaction
func (s *WarrantyService) Receive(ctx context.Context, input ReceiveRequestInput) (*repository.WarrantyRequest, error) {
	exists, err := s.products.Exists(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFound("product")
	}

	exists, err = s.warehouses.Exists(ctx, input.WarehouseID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFound("warehouse")
	}

	request := &repository.WarrantyRequest{
		ProductID:        input.ProductID,
		CustomerID:       input.CustomerID,
		WarehouseID:      input.WarehouseID,
		IssueDescription: input.IssueDescription,
		ReceivedDate:     input.ReceivedDate,
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.warranty.InsertRequestTx(ctx, tx, request); err != nil {
			return err
		}
		return s.warranty.IncrementInventoryTx(ctx, tx, request.ProductID, request.WarehouseID, 1)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("request_id", request.ID).
		Int64("product_id", request.ProductID).
		Msg("warranty request received")

	return request, nil
}

// AddInventoryInput is the payload for adding units to the warranty
// inventory directly, without a customer request
type AddInventoryInput struct {
	ProductID   int64 `json:"product_id" validate:"required,gt=0"`
	WarehouseID int64 `json:"warehouse_id" validate:"required,gt=0"`
	Quantity    int   `json:"quantity" validate:"required,gt=0"`
}

// AddInventory adds defective units to the warranty inventory
func (s *WarrantyService) AddInventory(ctx context.Context, input AddInventoryInput) error {
	exists, err := s.products.Exists(ctx, input.ProductID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound("product")
	}

	exists, err = s.warehouses.Exists(ctx, input.WarehouseID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound("warehouse")
	}

	return s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		return s.warranty.IncrementInventoryTx(ctx, tx, input.ProductID, input.WarehouseID, input.Quantity)
	})
}

// ListRequests lists warranty requests with filters
func (s *WarrantyService) ListRequests(ctx context.Context, filter repository.RequestFilter, limit, offset int) ([]*repository.WarrantyRequest, int64, error) {
	return s.warranty.ListRequests(ctx, filter, limit, offset)
}

// ListInventory lists warranty inventory rows
func (s *WarrantyService) ListInventory(ctx context.Context, warehouseID int64, limit, offset int) ([]*repository.WarrantyInventoryRow, int64, error) {
	return s.warranty.ListInventory(ctx, warehouseID, limit, offset)
}
