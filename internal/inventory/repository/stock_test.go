package repository_test

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-backend/internal/inventory/repository"
	"github.com/wareflow/wareflow-backend/pkg/database"
	"github.com/wareflow/wareflow-backend/pkg/errors"
	"github.com/wareflow/wareflow-backend/pkg/testutil"
)

func newStockRepo(t *testing.T) (*repository.StockRepository, *testutil.MockDB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	db := &database.DB{DB: mockDB.DB}
	return repository.NewStockRepository(db), mockDB
}

func TestStockRepository_Get(t *testing.T) {
	repo, mockDB := newStockRepo(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT quantity FROM stock WHERE product_id = $1 AND warehouse_id = $2").
		WithArgs(int64(1), int64(10)).
		WillReturnRows(testutil.MockRows("quantity").AddRow(7))

	quantity, err := repo.Get(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 7, quantity)

	mockDB.ExpectationsWereMet(t)
}

func TestStockRepository_Get_AbsentRowReadsZero(t *testing.T) {
	repo, mockDB := newStockRepo(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT quantity FROM stock WHERE product_id = $1 AND warehouse_id = $2").
		WithArgs(int64(1), int64(10)).
		WillReturnError(sql.ErrNoRows)

	quantity, err := repo.Get(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, quantity)

	mockDB.ExpectationsWereMet(t)
}

func TestStockRepository_IncrementTx_UpsertsRow(t *testing.T) {
	repo, mockDB := newStockRepo(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("INSERT INTO stock (product_id, warehouse_id, quantity, updated_at)").
		WithArgs(int64(1), int64(10), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	tx, err := mockDB.DB.Beginx()
	require.NoError(t, err)

	require.NoError(t, repo.IncrementTx(context.Background(), tx, 1, 10, 5))
	require.NoError(t, tx.Commit())

	mockDB.ExpectationsWereMet(t)
}

func TestStockRepository_DecrementTx(t *testing.T) {
	repo, mockDB := newStockRepo(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("UPDATE stock SET quantity = quantity - $3, updated_at = NOW()").
		WithArgs(int64(1), int64(10), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	tx, err := mockDB.DB.Beginx()
	require.NoError(t, err)

	require.NoError(t, repo.DecrementTx(context.Background(), tx, 1, 10, 3))
	require.NoError(t, tx.Commit())

	mockDB.ExpectationsWereMet(t)
}

func TestStockRepository_DecrementTx_InsufficientStock(t *testing.T) {
	repo, mockDB := newStockRepo(t)
	defer mockDB.Close()

	// The conditional update touches no row when quantity < requested;
	// the repository then reads the available quantity for the error.
	mockDB.ExpectBegin()
	mockDB.ExpectExec("UPDATE stock SET quantity = quantity - $3, updated_at = NOW()").
		WithArgs(int64(1), int64(10), 8).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectQuery("SELECT quantity FROM stock WHERE product_id = $1 AND warehouse_id = $2").
		WithArgs(int64(1), int64(10)).
		WillReturnRows(testutil.MockRows("quantity").AddRow(2))
	mockDB.ExpectRollback()

	tx, err := mockDB.DB.Beginx()
	require.NoError(t, err)

	err = repo.DecrementTx(context.Background(), tx, 1, 10, 8)
	require.Error(t, err)
	require.NoError(t, tx.Rollback())

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
	assert.Equal(t, "1", appErr.Details["product_id"])
	assert.Equal(t, "2", appErr.Details["available"])
	assert.Equal(t, "8", appErr.Details["requested"])

	mockDB.ExpectationsWereMet(t)
}

func TestStockRepository_DecrementTx_RowsAffectedError(t *testing.T) {
	repo, mockDB := newStockRepo(t)
	defer mockDB.Close()

	// A driver failure reading the affected count is not a failed guard
	driverErr := stderrors.New("rows affected unavailable")
	mockDB.ExpectBegin()
	mockDB.ExpectExec("UPDATE stock SET quantity = quantity - $3, updated_at = NOW()").
		WithArgs(int64(1), int64(10), 3).
		WillReturnResult(sqlmock.NewErrorResult(driverErr))
	mockDB.ExpectRollback()

	tx, err := mockDB.DB.Beginx()
	require.NoError(t, err)

	err = repo.DecrementTx(context.Background(), tx, 1, 10, 3)
	require.ErrorIs(t, err, driverErr)
	require.NoError(t, tx.Rollback())

	var appErr *errors.AppError
	assert.False(t, stderrors.As(err, &appErr), "driver error must not be reported as insufficient stock")

	mockDB.ExpectationsWereMet(t)
}

func TestStockRepository_DecrementTx_MissingRowReadsZero(t *testing.T) {
	repo, mockDB := newStockRepo(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("UPDATE stock SET quantity = quantity - $3, updated_at = NOW()").
		WithArgs(int64(9), int64(10), 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectQuery("SELECT quantity FROM stock WHERE product_id = $1 AND warehouse_id = $2").
		WithArgs(int64(9), int64(10)).
		WillReturnError(sql.ErrNoRows)
	mockDB.ExpectRollback()

	tx, err := mockDB.DB.Beginx()
	require.NoError(t, err)

	err = repo.DecrementTx(context.Background(), tx, 9, 10, 1)
	require.Error(t, err)
	require.NoError(t, tx.Rollback())

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "0", appErr.Details["available"])

	mockDB.ExpectationsWereMet(t)
}

func TestStockRepository_SetTx_KeepsZeroRows(t *testing.T) {
	repo, mockDB := newStockRepo(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("INSERT INTO stock (product_id, warehouse_id, quantity, updated_at)").
		WithArgs(int64(1), int64(10), 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	tx, err := mockDB.DB.Beginx()
	require.NoError(t, err)

	require.NoError(t, repo.SetTx(context.Background(), tx, 1, 10, 0))
	require.NoError(t, tx.Commit())

	mockDB.ExpectationsWereMet(t)
}
