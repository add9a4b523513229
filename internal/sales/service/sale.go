package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	invrepo "github.com/wareflow/wareflow-backend/internal/inventory/repository"
	invservice "github.com/wareflow/wareflow-backend/internal/inventory/service"
	"github.com/wareflow/wareflow-backend/internal/sales/repository"
	"github.com/wareflow/wareflow-backend/pkg/errors"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// SaleStore persists sales
type SaleStore interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, sale *repository.Sale) error
	List(ctx context.Context, limit, offset int) ([]*repository.Sale, int64, error)
}

// SaleService records direct sales. A sale and its export movement are
// written in one transaction; insufficient stock aborts everything.
type SaleService struct {
	db           TxRunner
	sales        SaleStore
	catalog      ProductCatalog
	warehouses   ExistenceChecker
	carriers     ExistenceChecker
	exports      ExportRecorder
	exportEvents ExportEvents
	logger       *logger.Logger
}

// NewSaleService creates a new sale service
func NewSaleService(
	db TxRunner,
	sales SaleStore,
	catalog ProductCatalog,
	warehouses ExistenceChecker,
	carriers ExistenceChecker,
	exports ExportRecorder,
	exportEvents ExportEvents,
	log *logger.Logger,
) *SaleService {
	return &SaleService{
		db:           db,
		sales:        sales,
		catalog:      catalog,
		warehouses:   warehouses,
		carriers:     carriers,
		exports:      exports,
		exportEvents: exportEvents,
		logger:       log,
	}
}

// SaleLineInput is one product line of a sale request
type SaleLineInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// CreateSaleInput is the payload for recording a sale
type CreateSaleInput struct {
	WarehouseID       int64           `json:"warehouse_id" validate:"required,gt=0"`
	ShippingCarrierID *int64          `json:"shipping_carrier_id,omitempty" validate:"omitempty,gt=0"`
	Lines             []SaleLineInput `json:"lines" validate:"required,min=1,dive"`
}

// Create records a sale and its export movement atomically
func (s *SaleService) Create(ctx context.Context, userID string, input CreateSaleInput) (*repository.Sale, error) {
	if err := s.checkWarehouse(ctx, input.WarehouseID); err != nil {
		return nil, err
	}
	if err := s.checkCarrier(ctx, input.ShippingCarrierID); err != nil {
		return nil, err
	}

	total := decimal.Zero
	details := make([]repository.SaleDetail, 0, len(input.Lines))
	exportLines := make([]invservice.ExportLineInput, 0, len(input.Lines))
	for _, line := range input.Lines {
		product, err := s.catalog.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		details = append(details, repository.SaleDetail{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		exportLines = append(exportLines, invservice.ExportLineInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	sale := &repository.Sale{
		UserID:            userID,
		WarehouseID:       input.WarehouseID,
		ShippingCarrierID: input.ShippingCarrierID,
		TotalAmount:       total,
		Details:           details,
	}

	var exp *invrepo.Export
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.sales.InsertTx(ctx, tx, sale); err != nil {
			return err
		}

		reference := fmt.Sprintf("sale-%d", sale.ID)
		var txErr error
		exp, txErr = s.exports.RecordExportTx(ctx, tx, invservice.RecordExportInput{
			WarehouseID: input.WarehouseID,
			Reference:   &reference,
			Lines:       exportLines,
		})
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.exportEvents.PublishExportRecorded(ctx, exp)

	s.logger.Info().
		Int64("sale_id", sale.ID).
		Int64("export_id", exp.ID).
		Str("user_id", userID).
		Msg("sale recorded")

	return sale, nil
}

// List lists sales, newest first
func (s *SaleService) List(ctx context.Context, limit, offset int) ([]*repository.Sale, int64, error) {
	return s.sales.List(ctx, limit, offset)
}

func (s *SaleService) checkWarehouse(ctx context.Context, id int64) error {
	exists, err := s.warehouses.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound("warehouse")
	}
	return nil
}

func (s *SaleService) checkCarrier(ctx context.Context, id *int64) error {
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
