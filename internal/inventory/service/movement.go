package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/wareflow/wareflow-backend/internal/inventory/repository"
	"github.com/wareflow/wareflow-backend/pkg/errors"
	"github.com/wareflow/wareflow-backend/pkg/logger"
	"github.com/wareflow/wareflow-backend/pkg/messaging"
)

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error
}

// StockStore mutates the stock projection inside movement transactions
type StockStore interface {
	GetTx(ctx context.Context, tx *sqlx.Tx, productID, warehouseID int64) (int, error)
	IncrementTx(ctx context.Context, tx *sqlx.Tx, productID, warehouseID int64, quantity int) error
	DecrementTx(ctx context.Context, tx *sqlx.Tx, productID, warehouseID int64, quantity int) error
	SetTx(ctx context.Context, tx *sqlx.Tx, productID, warehouseID int64, quantity int) error
}

// MovementStore appends movements to the log
type MovementStore interface {
	InsertImportTx(ctx context.Context, tx *sqlx.Tx, imp *repository.Import) error
	InsertExportTx(ctx context.Context, tx *sqlx.Tx, exp *repository.Export) error
	InsertTransferTx(ctx context.Context, tx *sqlx.Tx, transfer *repository.Transfer) error
	InsertCheckTx(ctx context.Context, tx *sqlx.Tx, check *repository.InventoryCheck) error
}

// ExistenceChecker reports whether a referenced record exists
type ExistenceChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// MovementEvents publishes movement events after commit
type MovementEvents interface {
	PublishImportRecorded(ctx context.Context, imp *repository.Import)
	PublishExportRecorded(ctx context.Context, exp *repository.Export)
	PublishTransferRecorded(ctx context.Context, transfer *repository.Transfer)
	PublishCheckRecorded(ctx context.Context, check *repository.InventoryCheck, discrepancies []messaging.CheckDiscrepancy)
}

// MovementService records inventory movements. Every movement writes its
// log entry and the stock projection update in a single transaction so
// the projection never drifts from the log.
type MovementService struct {
	db         TxRunner
	movements  MovementStore
	stock      StockStore
	products   ExistenceChecker
	warehouses ExistenceChecker
	suppliers  ExistenceChecker
	events     MovementEvents
	logger     *logger.Logger
}

// NewMovementService creates a new movement service
func NewMovementService(
	db TxRunner,
	movements MovementStore,
	stock StockStore,
	products ExistenceChecker,
	warehouses ExistenceChecker,
	suppliers ExistenceChecker,
	events MovementEvents,
	log *logger.Logger,
) *MovementService {
	return &MovementService{
		db:         db,
		movements:  movements,
		stock:      stock,
		products:   products,
		warehouses: warehouses,
		suppliers:  suppliers,
		events:     events,
		logger:     log,
	}
}

// ImportLineInput is one product line of an import request
type ImportLineInput struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required"`
}

// RecordImportInput is the payload for recording an import
type RecordImportInput struct {
	WarehouseID int64             `json:"warehouse_id" validate:"required,gt=0"`
	SupplierID  int64             `json:"supplier_id" validate:"required,gt=0"`
	Lines       []ImportLineInput `json:"lines" validate:"required,min=1,dive"`
}

// RecordImport records a goods receipt and increases stock for each line
func (s *MovementService) RecordImport(ctx context.Context, input RecordImportInput) (*repository.Import, error) {
	if err := s.checkWarehouse(ctx, input.WarehouseID); err != nil {
		return nil, err
	}
	if err := s.checkSupplier(ctx, input.SupplierID); err != nil {
		return nil, err
	}

	total := decimal.Zero
	details := make([]repository.ImportDetail, 0, len(input.Lines))
	for _, line := range input.Lines {
		if err := s.checkProduct(ctx, line.ProductID); err != nil {
			return nil, err
		}
		if line.UnitPrice.IsNegative() {
			return nil, errors.BadRequest("unit price must not be negative")
		}
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		details = append(details, repository.ImportDetail{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	imp := &repository.Import{
		WarehouseID: input.WarehouseID,
		SupplierID:  input.SupplierID,
		TotalAmount: total,
		Details:     details,
	}

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.movements.InsertImportTx(ctx, tx, imp); err != nil {
			return err
		}
		for _, d := range imp.Details {
			if err := s.stock.IncrementTx(ctx, tx, d.ProductID, imp.WarehouseID, d.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.PublishImportRecorded(ctx, imp)

	s.logger.Info().
		Int64("import_id", imp.ID).
		Int64("warehouse_id", imp.WarehouseID).
		Int("lines", len(imp.Details)).
		Msg("import recorded")

	return imp, nil
}

// ExportLineInput is one product line of an export request
type ExportLineInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// RecordExportInput is the payload for recording an export
type RecordExportInput struct {
	WarehouseID int64             `json:"warehouse_id" validate:"required,gt=0"`
	Reference   *string           `json:"reference,omitempty" validate:"omitempty,max=255"`
	Lines       []ExportLineInput `json:"lines" validate:"required,min=1,dive"`
}

// RecordExport records goods leaving a warehouse and decreases stock for
// each line. The whole export fails if any line lacks sufficient stock.
func (s *MovementService) RecordExport(ctx context.Context, input RecordExportInput) (*repository.Export, error) {
	if err := s.validateExportInput(ctx, input); err != nil {
		return nil, err
	}

	var exp *repository.Export
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		exp, txErr = s.RecordExportTx(ctx, tx, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.events.PublishExportRecorded(ctx, exp)

	s.logger.Info().
		Int64("export_id", exp.ID).
		Int64("warehouse_id", exp.WarehouseID).
		Int("lines", len(exp.Details)).
		Msg("export recorded")

	return exp, nil
}

// RecordExportTx records an export inside a caller-owned transaction. Used
// by sales flows that must pair the export with their own writes. The
// caller is responsible for reference validation and event publishing.
func (s *MovementService) RecordExportTx(ctx context.Context, tx *sqlx.Tx, input RecordExportInput) (*repository.Export, error) {
	details := make([]repository.ExportDetail, 0, len(input.Lines))
	for _, line := range input.Lines {
		details = append(details, repository.ExportDetail{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	exp := &repository.Export{
		WarehouseID: input.WarehouseID,
		Reference:   input.Reference,
		Details:     details,
	}

	if err := s.movements.InsertExportTx(ctx, tx, exp); err != nil {
		return nil, err
	}
	for _, d := range exp.Details {
		if err := s.stock.DecrementTx(ctx, tx, d.ProductID, exp.WarehouseID, d.Quantity); err != nil {
			return nil, err
		}
	}

	return exp, nil
}

// ValidateExportRefs checks warehouse and product references for an export
// recorded through RecordExportTx
func (s *MovementService) ValidateExportRefs(ctx context.Context, input RecordExportInput) error {
	return s.validateExportInput(ctx, input)
}

func (s *MovementService) validateExportInput(ctx context.Context, input RecordExportInput) error {
	if err := s.checkWarehouse(ctx, input.WarehouseID); err != nil {
		return err
	}
	for _, line := range input.Lines {
		if err := s.checkProduct(ctx, line.ProductID); err != nil {
			return err
		}
	}
	return nil
}

// TransferLineInput is one product line of a transfer request
type TransferLineInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// RecordTransferInput is the payload for recording a transfer
type RecordTransferInput struct {
	FromWarehouseID int64               `json:"from_warehouse_id" validate:"required,gt=0"`
	ToWarehouseID   *int64              `json:"to_warehouse_id,omitempty" validate:"omitempty,gt=0"`
	Type            string              `json:"type" validate:"required,oneof=internal repair discard"`
	Reason          *string             `json:"reason,omitempty" validate:"omitempty,max=500"`
	Lines           []TransferLineInput `json:"lines" validate:"required,min=1,dive"`
}

// RecordTransfer records goods moving between warehouses or leaving stock
// for repair or discard. Internal transfers decrement the source and
// increment the destination atomically; repair and discard only decrement.
func (s *MovementService) RecordTransfer(ctx context.Context, input RecordTransferInput) (*repository.Transfer, error) {
	switch input.Type {
	case repository.TransferInternal:
		if input.ToWarehouseID == nil {
			return nil, errors.BadRequest("internal transfers require a destination warehouse")
		}
		if *input.ToWarehouseID == input.FromWarehouseID {
			return nil, errors.BadRequest("source and destination warehouses must differ")
		}
	case repository.TransferRepair, repository.TransferDiscard:
		if input.ToWarehouseID != nil {
			return nil, errors.BadRequest("repair and discard transfers have no destination warehouse")
		}
	default:
		return nil, errors.BadRequest("transfer type must be internal, repair or discard")
	}

	if err := s.checkWarehouse(ctx, input.FromWarehouseID); err != nil {
		return nil, err
	}
	if input.ToWarehouseID != nil {
		if err := s.checkWarehouse(ctx, *input.ToWarehouseID); err != nil {
			return nil, err
		}
	}

	details := make([]repository.TransferDetail, 0, len(input.Lines))
	for _, line := range input.Lines {
		if err := s.checkProduct(ctx, line.ProductID); err != nil {
			return nil, err
		}
		details = append(details, repository.TransferDetail{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	transfer := &repository.Transfer{
		FromWarehouseID: input.FromWarehouseID,
		ToWarehouseID:   input.ToWarehouseID,
		Type:            input.Type,
		Reason:          input.Reason,
		Details:         details,
	}

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.movements.InsertTransferTx(ctx, tx, transfer); err != nil {
			return err
		}
		for _, d := range transfer.Details {
			if err := s.stock.DecrementTx(ctx, tx, d.ProductID, transfer.FromWarehouseID, d.Quantity); err != nil {
				return err
			}
			if transfer.Type == repository.TransferInternal {
				if err := s.stock.IncrementTx(ctx, tx, d.ProductID, *transfer.ToWarehouseID, d.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.PublishTransferRecorded(ctx, transfer)

	s.logger.Info().
		Int64("transfer_id", transfer.ID).
		Str("type", transfer.Type).
		Int64("from_warehouse_id", transfer.FromWarehouseID).
		Msg("transfer recorded")

	return transfer, nil
}

// CheckLineInput is one counted product line of a check request
type CheckLineInput struct {
	ProductID      int64 `json:"product_id" validate:"required,gt=0"`
	ActualQuantity int   `json:"actual_quantity" validate:"gte=0"`
}

// RecordCheckInput is the payload for recording an inventory check
type RecordCheckInput struct {
	WarehouseID int64            `json:"warehouse_id" validate:"required,gt=0"`
	Lines       []CheckLineInput `json:"lines" validate:"required,min=1,dive"`
}

// CheckResult is a recorded check plus the discrepancies it uncovered
type CheckResult struct {
	Check         *repository.InventoryCheck   `json:"check"`
	Discrepancies []messaging.CheckDiscrepancy `json:"discrepancies"`
}

// RecordCheck records a physical count. The counted quantities become the
// new projection values and a snapshot anchor for historical
// reconstruction. Lines whose count matches the projection produce no
// discrepancy.
func (s *MovementService) RecordCheck(ctx context.Context, input RecordCheckInput) (*CheckResult, error) {
	if err := s.checkWarehouse(ctx, input.WarehouseID); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(input.Lines))
	details := make([]repository.InventoryCheckDetail, 0, len(input.Lines))
	for _, line := range input.Lines {
		if err := s.checkProduct(ctx, line.ProductID); err != nil {
			return nil, err
		}
		if seen[line.ProductID] {
			return nil, errors.BadRequest("each product may appear only once per check")
		}
		seen[line.ProductID] = true
		details = append(details, repository.InventoryCheckDetail{
			ProductID:      line.ProductID,
			ActualQuantity: line.ActualQuantity,
		})
	}

	check := &repository.InventoryCheck{
		WarehouseID: input.WarehouseID,
		Details:     details,
	}

	var discrepancies []messaging.CheckDiscrepancy
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.movements.InsertCheckTx(ctx, tx, check); err != nil {
			return err
		}
		for _, d := range check.Details {
			expected, err := s.stock.GetTx(ctx, tx, d.ProductID, check.WarehouseID)
			if err != nil {
				return err
			}
			if expected != d.ActualQuantity {
				discrepancies = append(discrepancies, messaging.CheckDiscrepancy{
					ProductID:  d.ProductID,
					Expected:   expected,
					Actual:     d.ActualQuantity,
					Difference: d.ActualQuantity - expected,
				})
			}
			if err := s.stock.SetTx(ctx, tx, d.ProductID, check.WarehouseID, d.ActualQuantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.PublishCheckRecorded(ctx, check, discrepancies)

	s.logger.Info().
		Int64("check_id", check.ID).
		Int64("warehouse_id", check.WarehouseID).
		Int("discrepancies", len(discrepancies)).
		Msg("inventory check recorded")

	return &CheckResult{Check: check, Discrepancies: discrepancies}, nil
}

func (s *MovementService) checkWarehouse(ctx context.Context, id int64) error {
	exists, err := s.warehouses.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound("warehouse")
	}
	return nil
}

func (s *MovementService) checkSupplier(ctx context.Context, id int64) error {
	exists, err := s.suppliers.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound("supplier")
	}
	return nil
}

func (s *MovementService) checkProduct(ctx context.Context, id int64) error {
	exists, err := s.products.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound("product")
	}
	return nil
}
