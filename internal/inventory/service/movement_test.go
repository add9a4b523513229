package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-backend/internal/inventory/repository"
	"github.com/wareflow/wareflow-backend/internal/inventory/service"
	"github.com/wareflow/wareflow-backend/pkg/errors"
	"github.com/wareflow/wareflow-backend/pkg/logger"
	"github.com/wareflow/wareflow-backend/pkg/messaging"
)

type stockKey struct {
	productID   int64
	warehouseID int64
}

// fakeStock keeps the projection in memory. Rows written to zero stay
// present, mirroring the real projection.
type fakeStock struct {
	quantities map[stockKey]int
}

func newFakeStock() *fakeStock {
	return &fakeStock{quantities: make(map[stockKey]int)}
}

func (f *fakeStock) snapshot() map[stockKey]int {
	copied := make(map[stockKey]int, len(f.quantities))
	for k, v := range f.quantities {
		copied[k] = v
	}
	return copied
}

func (f *fakeStock) GetTx(_ context.Context, _ *sqlx.Tx, productID, warehouseID int64) (int, error) {
	return f.quantities[stockKey{productID, warehouseID}], nil
}

func (f *fakeStock) Get(_ context.Context, productID, warehouseID int64) (int, error) {
	return f.quantities[stockKey{productID, warehouseID}], nil
}

func (f *fakeStock) IncrementTx(_ context.Context, _ *sqlx.Tx, productID, warehouseID int64, quantity int) error {
	f.quantities[stockKey{productID, warehouseID}] += quantity
	return nil
}

func (f *fakeStock) DecrementTx(_ context.Context, _ *sqlx.Tx, productID, warehouseID int64, quantity int) error {
	key := stockKey{productID, warehouseID}
	available := f.quantities[key]
	if available < quantity {
		return errors.InsufficientStock(productID, available, quantity)
	}
	f.quantities[key] = available - quantity
	return nil
}

func (f *fakeStock) SetTx(_ context.Context, _ *sqlx.Tx, productID, warehouseID int64, quantity int) error {
	f.quantities[stockKey{productID, warehouseID}] = quantity
	return nil
}

// fakeMovements records inserted movements and assigns sequential IDs
type fakeMovements struct {
	nextID    int64
	imports   []*repository.Import
	exports   []*repository.Export
	transfers []*repository.Transfer
	checks    []*repository.InventoryCheck
}

func newFakeMovements() *fakeMovements {
	return &fakeMovements{nextID: 1}
}

func (f *fakeMovements) assign() int64 {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeMovements) InsertImportTx(_ context.Context, _ *sqlx.Tx, imp *repository.Import) error {
	imp.ID = f.assign()
	imp.CreatedAt = time.Now()
	f.imports = append(f.imports, imp)
	return nil
}

func (f *fakeMovements) InsertExportTx(_ context.Context, _ *sqlx.Tx, exp *repository.Export) error {
	exp.ID = f.assign()
	exp.CreatedAt = time.Now()
	f.exports = append(f.exports, exp)
	return nil
}

func (f *fakeMovements) InsertTransferTx(_ context.Context, _ *sqlx.Tx, transfer *repository.Transfer) error {
	transfer.ID = f.assign()
	transfer.CreatedAt = time.Now()
	f.transfers = append(f.transfers, transfer)
	return nil
}

func (f *fakeMovements) InsertCheckTx(_ context.Context, _ *sqlx.Tx, check *repository.InventoryCheck) error {
	check.ID = f.assign()
	check.CreatedAt = time.Now()
	f.checks = append(f.checks, check)
	return nil
}

// fakeTxRunner runs the transaction function directly and restores the
// stock projection when the function fails, mirroring a rollback.
type fakeTxRunner struct {
	stock     *fakeStock
	movements *fakeMovements
}

func (f *fakeTxRunner) Transaction(_ context.Context, fn func(*sqlx.Tx) error) error {
	stockBefore := f.stock.snapshot()
	importsBefore := len(f.movements.imports)
	exportsBefore := len(f.movements.exports)
	transfersBefore := len(f.movements.transfers)
	checksBefore := len(f.movements.checks)

	if err := fn(nil); err != nil {
		f.stock.quantities = stockBefore
		f.movements.imports = f.movements.imports[:importsBefore]
		f.movements.exports = f.movements.exports[:exportsBefore]
		f.movements.transfers = f.movements.transfers[:transfersBefore]
		f.movements.checks = f.movements.checks[:checksBefore]
		return err
	}
	return nil
}

type fakeChecker struct {
	ids map[int64]bool
}

func checkerWith(ids ...int64) *fakeChecker {
	m := make(map[int64]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return &fakeChecker{ids: m}
}

func (f *fakeChecker) Exists(_ context.Context, id int64) (bool, error) {
	return f.ids[id], nil
}

// fakeEvents records published events
type fakeEvents struct {
	imports   []*repository.Import
	exports   []*repository.Export
	transfers []*repository.Transfer
	checks    []*repository.InventoryCheck
}

func (f *fakeEvents) PublishImportRecorded(_ context.Context, imp *repository.Import) {
	f.imports = append(f.imports, imp)
}

func (f *fakeEvents) PublishExportRecorded(_ context.Context, exp *repository.Export) {
	f.exports = append(f.exports, exp)
}

func (f *fakeEvents) PublishTransferRecorded(_ context.Context, transfer *repository.Transfer) {
	f.transfers = append(f.transfers, transfer)
}

func (f *fakeEvents) PublishCheckRecorded(_ context.Context, check *repository.InventoryCheck, _ []messaging.CheckDiscrepancy) {
	f.checks = append(f.checks, check)
}

type movementFixture struct {
	svc       *service.MovementService
	stock     *fakeStock
	movements *fakeMovements
	events    *fakeEvents
}

func newMovementFixture() *movementFixture {
	stock := newFakeStock()
	movements := newFakeMovements()
	events := &fakeEvents{}
	db := &fakeTxRunner{stock: stock, movements: movements}

	svc := service.NewMovementService(
		db,
		movements,
		stock,
		checkerWith(1, 2, 3),    // products
		checkerWith(10, 11, 12), // warehouses
		checkerWith(20, 21),     // suppliers
		events,
		logger.New("test", "test"),
	)

	return &movementFixture{svc: svc, stock: stock, movements: movements, events: events}
}

func (fx *movementFixture) quantity(productID, warehouseID int64) int {
	return fx.stock.quantities[stockKey{productID, warehouseID}]
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRecordImport(t *testing.T) {
	fx := newMovementFixture()
	ctx := context.Background()

	imp, err := fx.svc.RecordImport(ctx, service.RecordImportInput{
		WarehouseID: 10,
		SupplierID:  20,
		Lines: []service.ImportLineInput{
			{ProductID: 1, Quantity: 5, UnitPrice: price("100")},
			{ProductID: 2, Quantity: 2, UnitPrice: price("25.50")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), imp.ID)
	assert.True(t, imp.TotalAmount.Equal(price("551")), "total = 5*100 + 2*25.50, got %s", imp.TotalAmount)
	assert.Equal(t, 5, fx.quantity(1, 10))
	assert.Equal(t, 2, fx.quantity(2, 10))
	assert.Len(t, fx.events.imports, 1)
}

func TestRecordImport_UnknownSupplier(t *testing.T) {
	fx := newMovementFixture()

	_, err := fx.svc.RecordImport(context.Background(), service.RecordImportInput{
		WarehouseID: 10,
		SupplierID:  99,
		Lines:       []service.ImportLineInput{{ProductID: 1, Quantity: 1, UnitPrice: price("1")}},
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.Empty(t, fx.movements.imports)
	assert.Empty(t, fx.events.imports)
}

func TestRecordImport_UnknownProduct(t *testing.T) {
	fx := newMovementFixture()

	_, err := fx.svc.RecordImport(context.Background(), service.RecordImportInput{
		WarehouseID: 10,
		SupplierID:  20,
		Lines:       []service.ImportLineInput{{ProductID: 99, Quantity: 1, UnitPrice: price("1")}},
	})
	require.Error(t, err)
	assert.Empty(t, fx.movements.imports)
}

func TestRecordExport(t *testing.T) {
	fx := newMovementFixture()
	ctx := context.Background()

	_, err := fx.svc.RecordImport(ctx, service.RecordImportInput{
		WarehouseID: 10,
		SupplierID:  20,
		Lines:       []service.ImportLineInput{{ProductID: 1, Quantity: 5, UnitPrice: price("100")}},
	})
	require.NoError(t, err)

	exp, err := fx.svc.RecordExport(ctx, service.RecordExportInput{
		WarehouseID: 10,
		Lines:       []service.ExportLineInput{{ProductID: 1, Quantity: 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, fx.quantity(1, 10))
	assert.Len(t, fx.events.exports, 1)
	assert.NotZero(t, exp.ID)
}

func TestRecordExport_InsufficientStock(t *testing.T) {
	fx := newMovementFixture()
	ctx := context.Background()

	_, err := fx.svc.RecordImport(ctx, service.RecordImportInput{
		WarehouseID: 10,
		SupplierID:  20,
		Lines:       []service.ImportLineInput{{ProductID: 1, Quantity: 2, UnitPrice: price("100")}},
	})
	require.NoError(t, err)

	_, err = fx.svc.RecordExport(ctx, service.RecordExportInput{
		WarehouseID: 10,
		Lines:       []service.ExportLineInput{{ProductID: 1, Quantity: 3}},
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
	assert.Equal(t, "1", appErr.Details["product_id"])
	assert.Equal(t, "2", appErr.Details["available"])
	assert.Equal(t, "3", appErr.Details["requested"])

	// The failed export left no trace
	assert.Equal(t, 2, fx.quantity(1, 10))
	assert.Empty(t, fx.movements.exports)
	assert.Empty(t, fx.events.exports)
}

func TestRecordExport_PartialFailureRollsBack(t *testing.T) {
	fx := newMovementFixture()
	ctx := context.Background()

	_, err := fx.svc.RecordImport(ctx, service.RecordImportInput{
		WarehouseID: 10,
		SupplierID:  20,
		Lines: []service.ImportLineInput{
			{ProductID: 1, Quantity: 10, UnitPrice: price("1")},
			{ProductID: 2, Quantity: 1, UnitPrice: price("1")},
		},
	})
	require.NoError(t, err)

	// First line would succeed on its own; second line fails, so
	// neither may take effect.
	_, err = fx.svc.RecordExport(ctx, service.RecordExportInput{
		WarehouseID: 10,
		Lines: []service.ExportLineInput{
			{ProductID: 1, Quantity: 4},
			{ProductID: 2, Quantity: 5},
		},
	})
	require.Error(t, err)

	assert.Equal(t, 10, fx.quantity(1, 10))
	assert.Equal(t, 1, fx.quantity(2, 10))
	assert.Empty(t, fx.movements.exports)
}

func TestRecordExport_StockFromOtherWarehouseUnavailable(t *testing.T) {
	fx := newMovementFixture()
	ctx := context.Background()

	_, err := fx.svc.RecordImport(ctx, service.RecordImportInput{
		WarehouseID: 11,
		SupplierID:  20,
		Lines:       []service.ImportLineInput{{ProductID: 1, Quantity: 5, UnitPrice: price("1")}},
	})
	require.NoError(t, err)

	_, err = fx.svc.RecordExport(ctx, service.RecordExportInput{
		WarehouseID: 10,
		Lines:       []service.ExportLineInput{{ProductID: 1, Quantity: 1}},
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
	assert.Equal(t, "0", appErr.Details["available"])
}

func TestRecordTransfer_Internal(t *testing.T) {
	fx := newMovementFixture()
	ctx := context.Background()
	to := int64(11)

	_, err := fx.svc.RecordImport(ctx, service.RecordImportInput{
		WarehouseID: 10,
		SupplierID:  20,
		Lines:       []service.ImportLineInput{{ProductID: 1, Quantity: 8, UnitPrice: price("1")}},
	})
	require.NoError(t, err)

	transfer, err := fx.svc.RecordTransfer(ctx, service.RecordTransferInput{
		FromWarehouseID: 10,
		ToWarehouseID:   &to,
		Type:            repository.TransferInternal,
		Lines:           []service.TransferLineInput{{ProductID: 1, Quantity: 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, fx.quantity(1, 10))
	assert.Equal(t, 3, fx.quantity(1, 11))
	assert.Len(t, fx.events.transfers, 1)
	assert.Equal(t, repository.TransferInternal, transfer.Type)
}

func TestRecordTransfer_InternalRequiresDestination(t *testing.T) {
	fx := newMovementFixture()

	_, err := fx.svc.RecordTransfer(context.Background(), service.RecordTransferInput{
		FromWarehouseID: 10,
		Type:            repository.TransferInternal,
		Lines:           []service.TransferLineInput{{ProductID: 1, Quantity: 1}},
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BAD_REQUEST", appErr.Code)
}

func TestRecordTransfer_SameWarehouseRejected(t *testing.T) {
	fx := newMovementFixture()
	to := int64(10)

	_, err := fx.svc.RecordTransfer(context.Background(), service.RecordTransferInput{
		FromWarehouseID: 10,
		ToWarehouseID:   &to,
		Type:            repository.TransferInternal,
		Lines:           []service.TransferLineInput{{ProductID: 1, Quantity: 1}},
	})
	require.Error(t, err)
}

func TestRecordTransfer_RepairDecrementsOnly(t *testing.T) {
	fx := newMovementFixture()
	ctx := context.Background()

	_, err := fx.svc.RecordImport(ctx, service.RecordImportInput{
		WarehouseID: 10,
		SupplierID:  20,
		Lines:       []service.ImportLineInput{{ProductID: 1, Quantity: 4, UnitPrice: price("1")}},
	})
	require.NoError(t, err)

	_, err = fx.svc.RecordTransfer(ctx, service.RecordTransferInput{
		FromWarehouseID: 10,
		Type:            repository.TransferRepair,
		Lines:           []service.TransferLineInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, fx.quantity(1, 10))
	for key := range fx.stock.quantities {
		assert.Equal(t, int64(10), key.warehouseID, "repair must not credit any other warehouse")
	}
}

func TestRecordTransfer_DiscardWithDestinationRejected(t *testing.T) {
	fx := newMovementFixture()
	to := int64(11)

	_, err := fx.svc.RecordTransfer(context.Background(), service.RecordTransferInput{
		FromWarehouseID: 10,
		ToWarehouseID:   &to,
		Type:            repository.TransferDiscard,
		Lines:           []service.TransferLineInput{{ProductID: 1, Quantity: 1}},
	})
	require.Error(t, err)
}

func TestRecordCheck(t *testing.T) {
	fx := newMovementFixture()
	ctx := context.Background()

	_, err := fx.svc.RecordImport(ctx, service.RecordImportInput{
		WarehouseID: 10,
		SupplierID:  20,
		Lines: []service.ImportLineInput{
			{ProductID: 1, Quantity: 5, UnitPrice: price("1")},
			{ProductID: 2, Quantity: 3, UnitPrice: price("1")},
		},
	})
	require.NoError(t, err)

	result, err := fx.svc.RecordCheck(ctx, service.RecordCheckInput{
		WarehouseID: 10,
		Lines: []service.CheckLineInput{
			{ProductID: 1, ActualQuantity: 3},
			{ProductID: 2, ActualQuantity: 3},
		},
	})
	require.NoError(t, err)

	// Only the mismatched line produces a discrepancy
	require.Len(t, result.Discrepancies, 1)
	d := result.Discrepancies[0]
	assert.Equal(t, int64(1), d.ProductID)
	assert.Equal(t, 5, d.Expected)
	assert.Equal(t, 3, d.Actual)
	assert.Equal(t, -2, d.Difference)

	// The count becomes the new projection
	assert.Equal(t, 3, fx.quantity(1, 10))
	assert.Equal(t, 3, fx.quantity(2, 10))
	assert.Len(t, fx.events.checks, 1)
}

func TestRecordCheck_ZeroCountKeepsRow(t *testing.T) {
	fx := newMovementFixture()
	ctx := context.Background()

	_, err := fx.svc.RecordImport(ctx, service.RecordImportInput{
		WarehouseID: 10,
		SupplierID:  20,
		Lines:       []service.ImportLineInput{{ProductID: 1, Quantity: 2, UnitPrice: price("1")}},
	})
	require.NoError(t, err)

	_, err = fx.svc.RecordCheck(ctx, service.RecordCheckInput{
		WarehouseID: 10,
		Lines:       []service.CheckLineInput{{ProductID: 1, ActualQuantity: 0}},
	})
	require.NoError(t, err)

	_, present := fx.stock.quantities[stockKey{1, 10}]
	assert.True(t, present, "counted-to-zero rows stay in the projection")
	assert.Equal(t, 0, fx.quantity(1, 10))
}

func TestRecordCheck_DuplicateProductRejected(t *testing.T) {
	fx := newMovementFixture()

	_, err := fx.svc.RecordCheck(context.Background(), service.RecordCheckInput{
		WarehouseID: 10,
		Lines: []service.CheckLineInput{
			{ProductID: 1, ActualQuantity: 1},
			{ProductID: 1, ActualQuantity: 2},
		},
	})
	require.Error(t, err)
	assert.Empty(t, fx.movements.checks)
}
