package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/wareflow/wareflow-backend/pkg/database"
)

// Transfer types
const (
	TransferInternal = "internal"
	TransferRepair   = "repair"
	TransferDiscard  = "discard"
)

// Import represents a goods receipt from a supplier
type Import struct {
	ID          int64           `db:"id" json:"id"`
	WarehouseID int64           `db:"warehouse_id" json:"warehouse_id"`
	SupplierID  int64           `db:"supplier_id" json:"supplier_id"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	Details     []ImportDetail  `db:"-" json:"details,omitempty"`
}

// ImportDetail is one product line of an import
type ImportDetail struct {
	ID        int64           `db:"id" json:"id"`
	ImportID  int64           `db:"import_id" json:"-"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// Export represents goods leaving a warehouse
type Export struct {
	ID          int64          `db:"id" json:"id"`
	WarehouseID int64          `db:"warehouse_id" json:"warehouse_id"`
	Reference   *string        `db:"reference" json:"reference,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	Details     []ExportDetail `db:"-" json:"details,omitempty"`
}

// ExportDetail is one product line of an export
type ExportDetail struct {
	ID        int64 `db:"id" json:"id"`
	ExportID  int64 `db:"export_id" json:"-"`
	ProductID int64 `db:"product_id" json:"product_id"`
	Quantity  int   `db:"quantity" json:"quantity"`
}

// Transfer represents goods moving between warehouses (internal) or
// leaving stock for repair/discard
type Transfer struct {
	ID              int64            `db:"id" json:"id"`
	FromWarehouseID int64            `db:"from_warehouse_id" json:"from_warehouse_id"`
	ToWarehouseID   *int64           `db:"to_warehouse_id" json:"to_warehouse_id,omitempty"`
	Type            string           `db:"type" json:"type"`
	Reason          *string          `db:"reason" json:"reason,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	Details         []TransferDetail `db:"-" json:"details,omitempty"`
}

// TransferDetail is one product line of a transfer
type TransferDetail struct {
	ID         int64 `db:"id" json:"id"`
	TransferID int64 `db:"transfer_id" json:"-"`
	ProductID  int64 `db:"product_id" json:"product_id"`
	Quantity   int   `db:"quantity" json:"quantity"`
}

// InventoryCheck is a physical count snapshot for a warehouse
type InventoryCheck struct {
	ID          int64                  `db:"id" json:"id"`
	WarehouseID int64                  `db:"warehouse_id" json:"warehouse_id"`
	CreatedAt   time.Time              `db:"created_at" json:"created_at"`
	Details     []InventoryCheckDetail `db:"-" json:"details,omitempty"`
}

// InventoryCheckDetail is one counted product line of a check
type InventoryCheckDetail struct {
	ID             int64 `db:"id" json:"id"`
	CheckID        int64 `db:"check_id" json:"-"`
	ProductID      int64 `db:"product_id" json:"product_id"`
	ActualQuantity int   `db:"actual_quantity" json:"actual_quantity"`
}

// ImportFilter narrows import listings
type ImportFilter struct {
	SupplierID  int64
	WarehouseID int64
	Start       *time.Time
	End         *time.Time
}

// MovementRepository handles the append-only movement log
type MovementRepository struct {
	db *database.DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *database.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// InsertImportTx inserts an import with its details inside a transaction
func (r *MovementRepository) InsertImportTx(ctx context.Context, tx *sqlx.Tx, imp *Import) error {
	query := `
		INSERT INTO imports (warehouse_id, supplier_id, total_amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := tx.QueryRowxContext(ctx, query,
		imp.WarehouseID, imp.SupplierID, imp.TotalAmount,
	).Scan(&imp.ID, &imp.CreatedAt)
	if err != nil {
		return err
	}

	detailQuery := `
		INSERT INTO import_details (import_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range imp.Details {
		d := &imp.Details[i]
		d.ImportID = imp.ID
		if err := tx.QueryRowxContext(ctx, detailQuery, imp.ID, d.ProductID, d.Quantity, d.UnitPrice).Scan(&d.ID); err != nil {
			return err
		}
	}

	return nil
}

// InsertExportTx inserts an export with its details inside a transaction
func (r *MovementRepository) InsertExportTx(ctx context.Context, tx *sqlx.Tx, exp *Export) error {
	query := `
		INSERT INTO exports (warehouse_id, reference)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := tx.QueryRowxContext(ctx, query, exp.WarehouseID, exp.Reference).Scan(&exp.ID, &exp.CreatedAt)
	if err != nil {
		return err
	}

	detailQuery := `
		INSERT INTO export_details (export_id, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	for i := range exp.Details {
		d := &exp.Details[i]
		d.ExportID = exp.ID
		if err := tx.QueryRowxContext(ctx, detailQuery, exp.ID, d.ProductID, d.Quantity).Scan(&d.ID); err != nil {
			return err
		}
	}

	return nil
}

// InsertTransferTx inserts a transfer with its details inside a transaction
func (r *MovementRepository) InsertTransferTx(ctx context.Context, tx *sqlx.Tx, transfer *Transfer) error {
	query := `
		INSERT INTO transfers (from_warehouse_id, to_warehouse_id, type, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := tx.QueryRowxContext(ctx, query,
		transfer.FromWarehouseID, transfer.ToWarehouseID, transfer.Type, transfer.Reason,
	).Scan(&transfer.ID, &transfer.CreatedAt)
	if err != nil {
		return err
	}

	detailQuery := `
		INSERT INTO transfer_details (transfer_id, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	for i := range transfer.Details {
		d := &transfer.Details[i]
		d.TransferID = transfer.ID
		if err := tx.QueryRowxContext(ctx, detailQuery, transfer.ID, d.ProductID, d.Quantity).Scan(&d.ID); err != nil {
			return err
		}
	}

	return nil
}

// InsertCheckTx inserts an inventory check with its details inside a transaction
func (r *MovementRepository) InsertCheckTx(ctx context.Context, tx *sqlx.Tx, check *InventoryCheck) error {
	query := `
		INSERT INTO inventory_checks (warehouse_id)
		VALUES ($1)
		RETURNING id, created_at
	`
	err := tx.QueryRowxContext(ctx, query, check.WarehouseID).Scan(&check.ID, &check.CreatedAt)
	if err != nil {
		return err
	}

	detailQuery := `
		INSERT INTO inventory_check_details (check_id, product_id, actual_quantity)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	for i := range check.Details {
		d := &check.Details[i]
		d.CheckID = check.ID
		if err := tx.QueryRowxContext(ctx, detailQuery, check.ID, d.ProductID, d.ActualQuantity).Scan(&d.ID); err != nil {
			return err
		}
	}

	return nil
}

// ListImports lists imports with supplier/warehouse/date filters
func (r *MovementRepository) ListImports(ctx context.Context, filter ImportFilter, limit, offset int) ([]*Import, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	if filter.SupplierID != 0 {
		args = append(args, filter.SupplierID)
		where += ` AND supplier_id = ` + placeholder(len(args))
	}
	if filter.WarehouseID != 0 {
		args = append(args, filter.WarehouseID)
		where += ` AND warehouse_id = ` + placeholder(len(args))
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
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM imports`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT id, warehouse_id, supplier_id, total_amount, created_at FROM imports` + where +
		` ORDER BY created_at DESC LIMIT ` + placeholder(len(args)-1) + ` OFFSET ` + placeholder(len(args))

	var imports []*Import
	if err := r.db.SelectContext(ctx, &imports, query, args...); err != nil {
		return nil, 0, err
	}

	for _, imp := range imports {
		details, err := r.importDetails(ctx, imp.ID)
		if err != nil {
			return nil, 0, err
		}
		imp.Details = details
	}

	return imports, total, nil
}

// ListExports lists exports for a warehouse, newest first
func (r *MovementRepository) ListExports(ctx context.Context, warehouseID int64, limit, offset int) ([]*Export, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if warehouseID != 0 {
		args = append(args, warehouseID)
		where += ` AND warehouse_id = ` + placeholder(len(args))
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM exports`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT id, warehouse_id, reference, created_at FROM exports` + where +
		` ORDER BY created_at DESC LIMIT ` + placeholder(len(args)-1) + ` OFFSET ` + placeholder(len(args))

	var exports []*Export
	if err := r.db.SelectContext(ctx, &exports, query, args...); err != nil {
		return nil, 0, err
	}

	detailQuery := `SELECT id, export_id, product_id, quantity FROM export_details WHERE export_id = $1 ORDER BY id`
	for _, exp := range exports {
		if err := r.db.SelectContext(ctx, &exp.Details, detailQuery, exp.ID); err != nil {
			return nil, 0, err
		}
	}

	return exports, total, nil
}

// ListTransfers lists transfers touching a warehouse, newest first
func (r *MovementRepository) ListTransfers(ctx context.Context, warehouseID int64, limit, offset int) ([]*Transfer, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if warehouseID != 0 {
		args = append(args, warehouseID)
		ph := placeholder(len(args))
		where += ` AND (from_warehouse_id = ` + ph + ` OR to_warehouse_id = ` + ph + `)`
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM transfers`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT id, from_warehouse_id, to_warehouse_id, type, reason, created_at FROM transfers` + where +
		` ORDER BY created_at DESC LIMIT ` + placeholder(len(args)-1) + ` OFFSET ` + placeholder(len(args))

	var transfers []*Transfer
	if err := r.db.SelectContext(ctx, &transfers, query, args...); err != nil {
		return nil, 0, err
	}

	detailQuery := `SELECT id, transfer_id, product_id, quantity FROM transfer_details WHERE transfer_id = $1 ORDER BY id`
	for _, transfer := range transfers {
		if err := r.db.SelectContext(ctx, &transfer.Details, detailQuery, transfer.ID); err != nil {
			return nil, 0, err
		}
	}

	return transfers, total, nil
}

// placeholder returns the positional bind parameter for argument n
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (r *MovementRepository) importDetails(ctx context.Context, importID int64) ([]ImportDetail, error) {
	var details []ImportDetail
	query := `SELECT id, import_id, product_id, quantity, unit_price FROM import_details WHERE import_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &details, query, importID); err != nil {
		return nil, err
	}
	return details, nil
}
