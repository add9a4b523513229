package repository_test

import (
	"context"
	"sync"
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
	"github.com/wareflow/wareflow-backend/pkg/testutil"
)

var (
	flowSuite *testutil.IntegrationSuite
	flowOnce  sync.Once
	flowErr   error
)

// integrationSuite lazily starts the shared Postgres container so that
// -short runs never touch Docker.
func integrationSuite(t *testing.T) *testutil.IntegrationSuite {
	t.Helper()
	testutil.SkipIfShort(t)

	flowOnce.Do(func() {
		flowSuite, flowErr = testutil.NewIntegrationSuite(context.Background())
	})
	if flowErr != nil {
		t.Fatalf("failed to create integration suite: %v", flowErr)
	}
	return flowSuite
}

type flowRefs struct {
	productID   int64
	warehouseID int64
	supplierID  int64
}

func seedFlowRefs(t *testing.T, s *testutil.IntegrationSuite, name string) flowRefs {
	t.Helper()
	ctx := context.Background()

	var refs flowRefs
	err := s.RawDB.QueryRowxContext(ctx,
		`INSERT INTO products (title, slug, price) VALUES ($1, $2, 100) RETURNING id`,
		name, name,
	).Scan(&refs.productID)
	require.NoError(t, err)

	err = s.RawDB.QueryRowxContext(ctx,
		`INSERT INTO warehouses (name, location, capacity) VALUES ($1, 'Building A', 1000) RETURNING id`,
		name,
	).Scan(&refs.warehouseID)
	require.NoError(t, err)

	err = s.RawDB.QueryRowxContext(ctx,
		`INSERT INTO suppliers (name) VALUES ($1) RETURNING id`,
		name,
	).Scan(&refs.supplierID)
	require.NoError(t, err)

	return refs
}

// TestMovementFlow exercises the full ledger cycle against Postgres:
// import, export, a failed export, and a check that snaps the projection.
func TestMovementFlow(t *testing.T) {
	s := integrationSuite(t)
	ctx := context.Background()
	refs := seedFlowRefs(t, s, "flow-lamp")

	moveRepo := repository.NewMovementRepository(s.DB)
	stockRepo := repository.NewStockRepository(s.DB)

	// Import 5 units at 100
	err := s.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		imp := &repository.Import{
			WarehouseID: refs.warehouseID,
			SupplierID:  refs.supplierID,
			TotalAmount: decimal.NewFromInt(500),
			Details: []repository.ImportDetail{
				{ProductID: refs.productID, Quantity: 5, UnitPrice: decimal.NewFromInt(100)},
			},
		}
		if err := moveRepo.InsertImportTx(ctx, tx, imp); err != nil {
			return err
		}
		return stockRepo.IncrementTx(ctx, tx, refs.productID, refs.warehouseID, 5)
	})
	require.NoError(t, err)

	quantity, err := stockRepo.Get(ctx, refs.productID, refs.warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 5, quantity)

	// Export 3
	err = s.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		exp := &repository.Export{
			WarehouseID: refs.warehouseID,
			Details:     []repository.ExportDetail{{ProductID: refs.productID, Quantity: 3}},
		}
		if err := moveRepo.InsertExportTx(ctx, tx, exp); err != nil {
			return err
		}
		return stockRepo.DecrementTx(ctx, tx, refs.productID, refs.warehouseID, 3)
	})
	require.NoError(t, err)

	quantity, err = stockRepo.Get(ctx, refs.productID, refs.warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 2, quantity)

	// Export of 5 exceeds the remaining 2 and must leave no trace
	err = s.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		exp := &repository.Export{
			WarehouseID: refs.warehouseID,
			Details:     []repository.ExportDetail{{ProductID: refs.productID, Quantity: 5}},
		}
		if err := moveRepo.InsertExportTx(ctx, tx, exp); err != nil {
			return err
		}
		return stockRepo.DecrementTx(ctx, tx, refs.productID, refs.warehouseID, 5)
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)

	quantity, err = stockRepo.Get(ctx, refs.productID, refs.warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 2, quantity)

	var exportCount int
	require.NoError(t, s.RawDB.GetContext(ctx, &exportCount,
		`SELECT COUNT(*) FROM exports WHERE warehouse_id = $1`, refs.warehouseID))
	assert.Equal(t, 1, exportCount, "rolled-back export must not be logged")

	// A check counting 10 snaps the projection to 10
	err = s.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		check := &repository.InventoryCheck{
			WarehouseID: refs.warehouseID,
			Details:     []repository.InventoryCheckDetail{{ProductID: refs.productID, ActualQuantity: 10}},
		}
		if err := moveRepo.InsertCheckTx(ctx, tx, check); err != nil {
			return err
		}
		return stockRepo.SetTx(ctx, tx, refs.productID, refs.warehouseID, 10)
	})
	require.NoError(t, err)

	quantity, err = stockRepo.Get(ctx, refs.productID, refs.warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 10, quantity)
}

// TestLedgerRepository_Sums verifies the aggregate queries the
// reconstructor is built on.
func TestLedgerRepository_Sums(t *testing.T) {
	s := integrationSuite(t)
	ctx := context.Background()
	refs := seedFlowRefs(t, s, "flow-sums")

	moveRepo := repository.NewMovementRepository(s.DB)
	stockRepo := repository.NewStockRepository(s.DB)
	ledgerRepo := repository.NewLedgerRepository(s.DB)

	before := time.Now().Add(-time.Second)

	err := s.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		imp := &repository.Import{
			WarehouseID: refs.warehouseID,
			SupplierID:  refs.supplierID,
			TotalAmount: decimal.NewFromInt(700),
			Details: []repository.ImportDetail{
				{ProductID: refs.productID, Quantity: 7, UnitPrice: decimal.NewFromInt(100)},
			},
		}
		if err := moveRepo.InsertImportTx(ctx, tx, imp); err != nil {
			return err
		}
		return stockRepo.IncrementTx(ctx, tx, refs.productID, refs.warehouseID, 7)
	})
	require.NoError(t, err)

	err = s.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		exp := &repository.Export{
			WarehouseID: refs.warehouseID,
			Details:     []repository.ExportDetail{{ProductID: refs.productID, Quantity: 2}},
		}
		if err := moveRepo.InsertExportTx(ctx, tx, exp); err != nil {
			return err
		}
		return stockRepo.DecrementTx(ctx, tx, refs.productID, refs.warehouseID, 2)
	})
	require.NoError(t, err)

	sums, err := ledgerRepo.SumsSince(ctx, refs.productID, refs.warehouseID, before)
	require.NoError(t, err)
	assert.Equal(t, 7, sums.Imports)
	assert.Equal(t, 2, sums.Exports)
	assert.Equal(t, 0, sums.TransfersIn)
	assert.Equal(t, 0, sums.TransfersOut)

	pairs, err := ledgerRepo.CandidatePairs(ctx, refs.warehouseID)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, refs.productID, pairs[0].ProductID)

	snapshot, err := ledgerRepo.LatestCheckBefore(ctx, refs.productID, refs.warehouseID, time.Now())
	require.NoError(t, err)
	assert.Nil(t, snapshot, "no check recorded yet")
}

// TestInitialInventory_TodayMatchesProjection runs the reconstructor
// end to end: asking for today must return the live projection.
func TestInitialInventory_TodayMatchesProjection(t *testing.T) {
	s := integrationSuite(t)
	ctx := context.Background()
	refs := seedFlowRefs(t, s, "flow-initial")

	moveRepo := repository.NewMovementRepository(s.DB)
	stockRepo := repository.NewStockRepository(s.DB)
	ledgerRepo := repository.NewLedgerRepository(s.DB)
	ledgerService := service.NewLedgerService(ledgerRepo, stockRepo, logger.New("test", "test"))

	err := s.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		imp := &repository.Import{
			WarehouseID: refs.warehouseID,
			SupplierID:  refs.supplierID,
			TotalAmount: decimal.NewFromInt(400),
			Details: []repository.ImportDetail{
				{ProductID: refs.productID, Quantity: 4, UnitPrice: decimal.NewFromInt(100)},
			},
		}
		if err := moveRepo.InsertImportTx(ctx, tx, imp); err != nil {
			return err
		}
		return stockRepo.IncrementTx(ctx, tx, refs.productID, refs.warehouseID, 4)
	})
	require.NoError(t, err)

	initial, err := ledgerService.InitialInventory(ctx, time.Now(), refs.warehouseID)
	require.NoError(t, err)
	require.Len(t, initial, 1)
	assert.Equal(t, refs.productID, initial[0].ProductID)
	assert.Equal(t, 4, initial[0].Quantity)
	assert.Equal(t, "flow-initial", initial[0].ProductTitle)
}
