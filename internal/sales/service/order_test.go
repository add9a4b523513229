package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogrepo "github.com/wareflow/wareflow-backend/internal/catalog/repository"
	invrepo "github.com/wareflow/wareflow-backend/internal/inventory/repository"
	invservice "github.com/wareflow/wareflow-backend/internal/inventory/service"
	"github.com/wareflow/wareflow-backend/internal/sales/repository"
	"github.com/wareflow/wareflow-backend/internal/sales/service"
	"github.com/wareflow/wareflow-backend/pkg/errors"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

type stockKey struct {
	productID   int64
	warehouseID int64
}

// fakeState is the shared in-memory backing for all sales fakes. The
// transaction runner snapshots it so failures roll everything back.
type fakeState struct {
	nextID  int64
	orders  map[int64]*repository.Order
	history map[int64][]string
	sales   []*repository.Sale
	debts   map[int64]*repository.Debt
	stock   map[stockKey]int
	exports []*invrepo.Export
}

func newFakeState() *fakeState {
	return &fakeState{
		nextID:  1,
		orders:  make(map[int64]*repository.Order),
		history: make(map[int64][]string),
		debts:   make(map[int64]*repository.Debt),
		stock:   make(map[stockKey]int),
	}
}

func (s *fakeState) assign() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *fakeState) clone() *fakeState {
	copied := newFakeState()
	copied.nextID = s.nextID
	for id, o := range s.orders {
		order := *o
		copied.orders[id] = &order
	}
	for id, h := range s.history {
		copied.history[id] = append([]string(nil), h...)
	}
	copied.sales = append([]*repository.Sale(nil), s.sales...)
	for id, d := range s.debts {
		debt := *d
		copied.debts[id] = &debt
	}
	for k, v := range s.stock {
		copied.stock[k] = v
	}
	copied.exports = append([]*invrepo.Export(nil), s.exports...)
	return copied
}

func (s *fakeState) restore(from *fakeState) {
	s.nextID = from.nextID
	s.orders = from.orders
	s.history = from.history
	s.sales = from.sales
	s.debts = from.debts
	s.stock = from.stock
	s.exports = from.exports
}

type fakeTxRunner struct {
	state *fakeState
}

func (f *fakeTxRunner) Transaction(_ context.Context, fn func(*sqlx.Tx) error) error {
	before := f.state.clone()
	if err := fn(nil); err != nil {
		f.state.restore(before)
		return err
	}
	return nil
}

type fakeOrders struct {
	state *fakeState
}

func (f *fakeOrders) InsertTx(_ context.Context, _ *sqlx.Tx, order *repository.Order) error {
	order.ID = f.state.assign()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	stored := *order
	f.state.orders[order.ID] = &stored
	return nil
}

func (f *fakeOrders) InsertStatusTx(_ context.Context, _ *sqlx.Tx, orderID int64, status string) error {
	f.state.history[orderID] = append(f.state.history[orderID], status)
	return nil
}

func (f *fakeOrders) get(id int64) (*repository.Order, error) {
	order, ok := f.state.orders[id]
	if !ok {
		return nil, errors.NotFound("order")
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrders) GetByID(_ context.Context, id int64) (*repository.Order, error) {
	return f.get(id)
}

func (f *fakeOrders) GetByIDTx(_ context.Context, _ *sqlx.Tx, id int64) (*repository.Order, error) {
	return f.get(id)
}

func (f *fakeOrders) List(_ context.Context, _ repository.OrderFilter, _, _ int) ([]*repository.Order, int64, error) {
	var orders []*repository.Order
	for _, o := range f.state.orders {
		copied := *o
		orders = append(orders, &copied)
	}
	return orders, int64(len(orders)), nil
}

func (f *fakeOrders) UpdateTx(_ context.Context, _ *sqlx.Tx, order *repository.Order) error {
	stored, ok := f.state.orders[order.ID]
	if !ok {
		return errors.NotFound("order")
	}
	stored.Status = order.Status
	stored.ShippingCarrierID = order.ShippingCarrierID
	stored.ShippingAddress = order.ShippingAddress
	return nil
}

func (f *fakeOrders) UpdateStatusTx(_ context.Context, _ *sqlx.Tx, orderID int64, status string) error {
	stored, ok := f.state.orders[orderID]
	if !ok {
		return errors.NotFound("order")
	}
	stored.Status = status
	return nil
}

func (f *fakeOrders) StatusHistory(_ context.Context, orderID int64) ([]*repository.OrderStatusEntry, error) {
	var entries []*repository.OrderStatusEntry
	for _, status := range f.state.history[orderID] {
		entries = append(entries, &repository.OrderStatusEntry{OrderID: orderID, Status: status})
	}
	return entries, nil
}

func (f *fakeOrders) Report(_ context.Context, _, _ time.Time) (*repository.OrderReport, error) {
	report := &repository.OrderReport{TotalAmount: decimal.Zero, ByStatus: make(map[string]int64)}
	for _, o := range f.state.orders {
		report.TotalOrders++
		report.TotalAmount = report.TotalAmount.Add(o.TotalAmount)
		report.ByStatus[o.Status]++
	}
	return report, nil
}

type fakeCatalog struct {
	prices map[int64]decimal.Decimal
}

func (f *fakeCatalog) GetByID(_ context.Context, id int64) (*catalogrepo.Product, error) {
	price, ok := f.prices[id]
	if !ok {
		return nil, errors.NotFound("product")
	}
	return &catalogrepo.Product{ID: id, Price: price}, nil
}

type fakeStockReader struct {
	state *fakeState
}

func (f *fakeStockReader) Get(_ context.Context, productID, warehouseID int64) (int, error) {
	return f.state.stock[stockKey{productID, warehouseID}], nil
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

// fakeExporter applies the conditional decrement the real ledger performs
type fakeExporter struct {
	state *fakeState
}

func (f *fakeExporter) RecordExportTx(_ context.Context, _ *sqlx.Tx, input invservice.RecordExportInput) (*invrepo.Export, error) {
	exp := &invrepo.Export{
		ID:          f.state.assign(),
		WarehouseID: input.WarehouseID,
		Reference:   input.Reference,
		CreatedAt:   time.Now(),
	}
	for _, line := range input.Lines {
		key := stockKey{line.ProductID, input.WarehouseID}
		available := f.state.stock[key]
		if available < line.Quantity {
			return nil, errors.InsufficientStock(line.ProductID, available, line.Quantity)
		}
		f.state.stock[key] = available - line.Quantity
		exp.Details = append(exp.Details, invrepo.ExportDetail{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	f.state.exports = append(f.state.exports, exp)
	return exp, nil
}

type fakeOrderEvents struct {
	confirmed []int64
	exportIDs []int64
}

func (f *fakeOrderEvents) PublishOrderConfirmed(_ context.Context, order *repository.Order, exportID int64) {
	f.confirmed = append(f.confirmed, order.ID)
	f.exportIDs = append(f.exportIDs, exportID)
}

type fakeExportEvents struct {
	exports []*invrepo.Export
}

func (f *fakeExportEvents) PublishExportRecorded(_ context.Context, exp *invrepo.Export) {
	f.exports = append(f.exports, exp)
}

type orderFixture struct {
	svc          *service.OrderService
	state        *fakeState
	orders       *fakeOrders
	orderEvents  *fakeOrderEvents
	exportEvents *fakeExportEvents
}

func newOrderFixture() *orderFixture {
	state := newFakeState()
	orders := &fakeOrders{state: state}
	orderEvents := &fakeOrderEvents{}
	exportEvents := &fakeExportEvents{}

	catalog := &fakeCatalog{prices: map[int64]decimal.Decimal{
		1: decimal.RequireFromString("100"),
		2: decimal.RequireFromString("25.50"),
	}}

	svc := service.NewOrderService(
		&fakeTxRunner{state: state},
		orders,
		catalog,
		&fakeStockReader{state: state},
		checkerWith(10, 11), // warehouses
		checkerWith(30),     // carriers
		&fakeExporter{state: state},
		orderEvents,
		exportEvents,
		logger.New("test", "test"),
	)

	return &orderFixture{
		svc:          svc,
		state:        state,
		orders:       orders,
		orderEvents:  orderEvents,
		exportEvents: exportEvents,
	}
}

func (fx *orderFixture) stock(productID, warehouseID int64, quantity int) {
	fx.state.stock[stockKey{productID, warehouseID}] = quantity
}

func TestCreateOrder(t *testing.T) {
	fx := newOrderFixture()
	fx.stock(1, 10, 5)
	fx.stock(2, 10, 5)

	order, err := fx.svc.Create(context.Background(), "user-1", service.CreateOrderInput{
		WarehouseID: 10,
		Lines: []service.OrderLineInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, repository.StatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("225.50")), "total = 2*100 + 25.50, got %s", order.TotalAmount)
	assert.Equal(t, []string{repository.StatusPending}, fx.state.history[order.ID])

	// Creation reserves nothing
	assert.Equal(t, 5, fx.state.stock[stockKey{1, 10}])
}

func TestCreateOrder_InsufficientAvailability(t *testing.T) {
	fx := newOrderFixture()
	fx.stock(1, 10, 1)

	_, err := fx.svc.Create(context.Background(), "user-1", service.CreateOrderInput{
		WarehouseID: 10,
		Lines:       []service.OrderLineInput{{ProductID: 1, Quantity: 2}},
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
	assert.Empty(t, fx.state.orders)
}

func TestCreateOrder_AvailabilityIsPerWarehouse(t *testing.T) {
	fx := newOrderFixture()
	fx.stock(1, 11, 5) // plenty, but in the other warehouse

	_, err := fx.svc.Create(context.Background(), "user-1", service.CreateOrderInput{
		WarehouseID: 10,
		Lines:       []service.OrderLineInput{{ProductID: 1, Quantity: 1}},
	})
	require.Error(t, err)
}

func TestUpdateOrder(t *testing.T) {
	fx := newOrderFixture()
	fx.stock(1, 10, 5)
	ctx := context.Background()

	order, err := fx.svc.Create(ctx, "user-1", service.CreateOrderInput{
		WarehouseID: 10,
		Lines:       []service.OrderLineInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	status := repository.StatusShipped
	carrierID := int64(30)
	updated, err := fx.svc.Update(ctx, order.ID, service.UpdateOrderInput{
		Status:            &status,
		ShippingCarrierID: &carrierID,
	})
	require.NoError(t, err)

	assert.Equal(t, repository.StatusShipped, updated.Status)
	require.NotNil(t, updated.ShippingCarrierID)
	assert.Equal(t, int64(30), *updated.ShippingCarrierID)
	assert.Equal(t, []string{repository.StatusPending, repository.StatusShipped}, fx.state.history[order.ID])
}

func TestUpdateOrder_LifecycleStatusesRejected(t *testing.T) {
	// Confirm, cancel and pay carry side effects an update must not skip
	fx := newOrderFixture()
	fx.stock(1, 10, 5)
	ctx := context.Background()

	order, err := fx.svc.Create(ctx, "user-1", service.CreateOrderInput{
		WarehouseID: 10,
		Lines:       []service.OrderLineInput{{ProductID: 1, Quantity: 3}},
	})
	require.NoError(t, err)

	for _, status := range []string{repository.StatusConfirmed, repository.StatusCancelled, repository.StatusPaid} {
		status := status
		_, err := fx.svc.Update(ctx, order.ID, service.UpdateOrderInput{Status: &status})
		require.Error(t, err, status)

		var appErr *errors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "BAD_REQUEST", appErr.Code, status)
	}

	stored := fx.state.orders[order.ID]
	assert.Equal(t, repository.StatusPending, stored.Status)
	assert.Equal(t, 5, fx.state.stock[stockKey{1, 10}], "no decrement without the export movement")
	assert.Empty(t, fx.state.exports)
	assert.Equal(t, []string{repository.StatusPending}, fx.state.history[order.ID])
}

func TestConfirmOrder(t *testing.T) {
	fx := newOrderFixture()
	fx.stock(1, 10, 5)
	ctx := context.Background()

	order, err := fx.svc.Create(ctx, "user-1", service.CreateOrderInput{
		WarehouseID: 10,
		Lines:       []service.OrderLineInput{{ProductID: 1, Quantity: 3}},
	})
	require.NoError(t, err)

	confirmed, err := fx.svc.Confirm(ctx, order.ID)
	require.NoError(t, err)

	assert.Equal(t, repository.StatusConfirmed, confirmed.Status)
	assert.Equal(t, 2, fx.state.stock[stockKey{1, 10}], "confirmation decrements through the ledger")
	require.Len(t, fx.state.exports, 1)
	require.NotNil(t, fx.state.exports[0].Reference)
	assert.Contains(t, *fx.state.exports[0].Reference, "order-")
	assert.Equal(t, []int64{order.ID}, fx.orderEvents.confirmed)
	assert.Len(t, fx.exportEvents.exports, 1)
	assert.Equal(t, []string{repository.StatusPending, repository.StatusConfirmed}, fx.state.history[order.ID])
}

func TestConfirmOrder_OnlyPending(t *testing.T) {
	fx := newOrderFixture()
	fx.stock(1, 10, 5)
	ctx := context.Background()

	order, err := fx.svc.Create(ctx, "user-1", service.CreateOrderInput{
		WarehouseID: 10,
		Lines:       []service.OrderLineInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = fx.svc.Confirm(ctx, order.ID)
	require.NoError(t, err)

	_, err = fx.svc.Confirm(ctx, order.ID)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.Len(t, fx.state.exports, 1, "no second export recorded")
}

func TestConfirmOrder_InsufficientStockRollsBack(t *testing.T) {
	fx := newOrderFixture()
	fx.stock(1, 10, 5)
	ctx := context.Background()

	order, err := fx.svc.Create(ctx, "user-1", service.CreateOrderInput{
		WarehouseID: 10,
		Lines:       []service.OrderLineInput{{ProductID: 1, Quantity: 4}},
	})
	require.NoError(t, err)

	// Stock was drained between creation and confirmation
	fx.stock(1, 10, 2)

	_, err = fx.svc.Confirm(ctx, order.ID)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)

	stored := fx.state.orders[order.ID]
	assert.Equal(t, repository.StatusPending, stored.Status, "status change rolled back")
	assert.Equal(t, 2, fx.state.stock[stockKey{1, 10}])
	assert.Empty(t, fx.state.exports)
	assert.Empty(t, fx.orderEvents.confirmed)
}

func TestCancelOrder_PendingOnly(t *testing.T) {
	fx := newOrderFixture()
	fx.stock(1, 10, 5)
	ctx := context.Background()

	order, err := fx.svc.Create(ctx, "user-1", service.CreateOrderInput{
		WarehouseID: 10,
		Lines:       []service.OrderLineInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, fx.svc.Cancel(ctx, order.ID))
	assert.Equal(t, repository.StatusCancelled, fx.state.orders[order.ID].Status)

	err = fx.svc.Cancel(ctx, order.ID)
	require.Error(t, err, "cancelled orders cannot be cancelled again")
}

func TestPayOrder(t *testing.T) {
	fx := newOrderFixture()
	fx.stock(1, 10, 5)
	ctx := context.Background()

	order, err := fx.svc.Create(ctx, "user-1", service.CreateOrderInput{
		WarehouseID: 10,
		Lines:       []service.OrderLineInput{{ProductID: 1, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = fx.svc.Pay(ctx, order.ID, decimal.RequireFromString("100"))
	require.Error(t, err, "partial payment rejected")

	paid, err := fx.svc.Pay(ctx, order.ID, decimal.RequireFromString("200"))
	require.NoError(t, err)
	assert.Equal(t, repository.StatusPaid, paid.Status)

	_, err = fx.svc.Pay(ctx, order.ID, decimal.RequireFromString("200"))
	require.Error(t, err, "already paid")
}
