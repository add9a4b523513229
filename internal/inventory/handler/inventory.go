package handler

import (
	"net/http"

	"github.com/wareflow/wareflow-backend/internal/inventory/repository"
	"github.com/wareflow/wareflow-backend/internal/inventory/service"
	"github.com/wareflow/wareflow-backend/pkg/httputil"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// InventoryHandler handles stock and movement endpoints
type InventoryHandler struct {
	movements *service.MovementService
	ledger    *service.LedgerService
	stockRepo *repository.StockRepository
	moveRepo  *repository.MovementRepository
	logger    *logger.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(
	movements *service.MovementService,
	ledger *service.LedgerService,
	stockRepo *repository.StockRepository,
	moveRepo *repository.MovementRepository,
	log *logger.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		movements: movements,
		ledger:    ledger,
		stockRepo: stockRepo,
		moveRepo:  moveRepo,
		logger:    log,
	}
}

// ListStock returns current stock rows with positive quantity
func (h *InventoryHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	warehouseID, err := httputil.QueryInt64(r, "warehouse_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	rows, total, err := h.stockRepo.List(r.Context(), warehouseID, page.Limit, page.Offset())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, rows, httputil.NewMeta(page, total))
}

// InitialInventory reconstructs stock levels at the end of a past day
func (h *InventoryHandler) InitialInventory(w http.ResponseWriter, r *http.Request) {
	date, err := httputil.ParseDateParam(r, "date")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	warehouseID, err := httputil.QueryInt64(r, "warehouse_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	results, err := h.ledger.InitialInventory(r.Context(), date, warehouseID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, results)
}

// CreateImport records a goods receipt
func (h *InventoryHandler) CreateImport(w http.ResponseWriter, r *http.Request) {
	var input service.RecordImportInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	imp, err := h.movements.RecordImport(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, imp)
}

// ListImports lists imports with optional supplier, warehouse and date filters
func (h *InventoryHandler) ListImports(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	supplierID, err := httputil.QueryInt64(r, "supplier_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	warehouseID, err := httputil.QueryInt64(r, "warehouse_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	dates, err := httputil.ParseDateRange(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	filter := repository.ImportFilter{
		SupplierID:  supplierID,
		WarehouseID: warehouseID,
		Start:       dates.Start,
		End:         dates.End,
	}

	imports, total, err := h.moveRepo.ListImports(r.Context(), filter, page.Limit, page.Offset())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, imports, httputil.NewMeta(page, total))
}

// CreateExport records goods leaving a warehouse
func (h *InventoryHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	var input service.RecordExportInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	exp, err := h.movements.RecordExport(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, exp)
}

// ListExports lists exports, optionally filtered by warehouse
func (h *InventoryHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	warehouseID, err := httputil.QueryInt64(r, "warehouse_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	exports, total, err := h.moveRepo.ListExports(r.Context(), warehouseID, page.Limit, page.Offset())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, exports, httputil.NewMeta(page, total))
}

// CreateTransfer records a transfer between warehouses or out of stock
func (h *InventoryHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var input service.RecordTransferInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	transfer, err := h.movements.RecordTransfer(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, transfer)
}

// ListTransfers lists transfers, optionally filtered by warehouse
func (h *InventoryHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	warehouseID, err := httputil.QueryInt64(r, "warehouse_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	transfers, total, err := h.moveRepo.ListTransfers(r.Context(), warehouseID, page.Limit, page.Offset())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, transfers, httputil.NewMeta(page, total))
}

// CreateCheck records a physical inventory count
func (h *InventoryHandler) CreateCheck(w http.ResponseWriter, r *http.Request) {
	var input service.RecordCheckInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.movements.RecordCheck(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, result)
}
